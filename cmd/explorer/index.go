package explorer

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"block-explorer/database"
	"block-explorer/indexer"
	"block-explorer/log"
	"block-explorer/net"
)

var fromFile string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest regtest blocks into the store",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&fromFile, "from-file", "", "directory of blk container files; omitted means the node RPC source")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log.Init(&cfg.Log)

	db := database.New(&cfg.DB)
	defer db.Close()

	var src indexer.Source
	if fromFile != "" {
		src, err = indexer.NewFileSource(fromFile)
		if err != nil {
			return err
		}
	} else {
		src = indexer.NewRemoteSource(net.NewClient(&cfg.Node))
	}

	// Interruption between commits is safe, the next run resumes via the
	// idempotent skip.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	indexed, runErr := indexer.New(db).Run(ctx, src)

	if stats, statsErr := db.GetStats(); statsErr == nil {
		printSummary(indexed, time.Since(start), stats)
	}

	if runErr != nil {
		zap.S().Errorf("Indexing aborted after [%d] new blocks: [%s]", indexed, runErr.Error())
		return runErr
	}
	zap.S().Infof("Indexing complete, [%d] new blocks", indexed)
	return nil
}

func printSummary(indexed int, elapsed time.Duration, stats *database.Stats) {
	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"New Blocks", "Total Blocks", "Total Transactions", "Elapsed"})
	table.Append([]string{
		strconv.Itoa(indexed),
		strconv.FormatInt(stats.TotalBlocks, 10),
		strconv.FormatInt(stats.TotalTransactions, 10),
		elapsed.Round(time.Millisecond).String(),
	})
	table.Render()
}
