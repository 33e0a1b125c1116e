package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ahmadbhutta823/text-extract-from-images/cmd/text-extract/ui"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent extraction runs",
	Long:  "List the most recent extraction runs recorded in the run ledger.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if !cfg.Ledger.Enabled {
		return fmt.Errorf("run history is disabled in the configuration")
	}

	ledger, err := storage.Open(ctx, cfg.Ledger.Driver, cfg.LedgerDSN(), logger)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer ledger.Close()

	runs, err := ledger.ListRuns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		ui.Info("No runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.StartedAt.Format("2006-01-02 15:04:05"),
			shortID(run.RunID),
			run.Model,
			strconv.Itoa(run.Total),
			strconv.Itoa(run.Succeeded),
			strconv.Itoa(run.Failed),
			run.ReportPath,
		})
	}
	ui.Table([]string{"Started", "Run", "Model", "Images", "OK", "Failed", "Report"}, rows)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
