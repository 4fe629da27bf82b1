package explorer

import (
	"os"

	"github.com/BurntSushi/toml"

	"block-explorer/api"
	"block-explorer/database"
	"block-explorer/log"
	"block-explorer/net"
)

type Config struct {
	Server api.ServerConfig `toml:"server"`
	Log    log.Config       `toml:"log"`
	DB     database.Config  `toml:"database"`
	Node   net.Config       `toml:"node"`
}

func defaultConfig() *Config {
	return &Config{
		Server: api.ServerConfig{HttpPort: 8080},
		Log:    log.Config{Level: "info"},
		DB:     database.Config{Path: "blocks.db"},
		Node:   net.Config{Endpoint: "127.0.0.1:18443"},
	}
}

// loadConfig overlays the toml file onto the defaults. A missing file is not
// an error, every setting has a usable default.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, err
	}
	return config, nil
}
