package explorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HttpPort)
	assert.Equal(t, "blocks.db", cfg.DB.Path)
	assert.Equal(t, "127.0.0.1:18443", cfg.Node.Endpoint)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
http_port = 9090

[node]
endpoint = "10.0.0.5:18443"
user = "rpcuser"
password = "rpcpass"
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HttpPort)
	assert.Equal(t, "10.0.0.5:18443", cfg.Node.Endpoint)
	assert.Equal(t, "rpcuser", cfg.Node.User)
	// Untouched sections keep their defaults.
	assert.Equal(t, "blocks.db", cfg.DB.Path)
}
