package explorer

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "explorer",
	Short:        "Bitcoin regtest block explorer backend",
	Long:         "Indexes regtest blocks from a node or from local blk container files and serves them over an HTTP API.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.toml", "path to the toml config file")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(serveCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
