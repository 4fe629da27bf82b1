package explorer

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"block-explorer/api"
	"block-explorer/database"
	"block-explorer/log"
)

var httpPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the block explorer HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&httpPort, "port", 0, "HTTP port, overrides the config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if httpPort != 0 {
		cfg.Server.HttpPort = httpPort
	}
	log.Init(&cfg.Log)

	db := database.New(&cfg.DB)

	apiSrv := api.New(db, &cfg.Server)
	apiSrv.Start()

	c := cron.New(cron.WithSeconds())
	_, _ = c.AddFunc("0 */10 * * * *", func() {
		db.Report()
	})
	c.Start()

	watchOSSignal()

	c.Stop()
	apiSrv.Stop()
	db.Close()
	return nil
}

func watchOSSignal() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c
}
