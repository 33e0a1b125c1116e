package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ahmadbhutta823/text-extract-from-images/cmd/text-extract/ui"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/batch"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/extract"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/imaging"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/pdf"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/preflight"
)

var (
	runInputDir  string
	runOutputDir string
	runModel     string
	runWorkers   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract text from every image in the input folder",
	Long: `Discover the images in the input folder, extract their text with the
vision model and write the combined report and summary files.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runInputDir, "input", "i", "", "folder with images to process")
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", "", "folder for report and summary files")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "vision model to use")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "number of parallel extractions")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if runInputDir != "" {
		cfg.InputDir = runInputDir
	}
	if runOutputDir != "" {
		cfg.OutputDir = runOutputDir
	}
	if runModel != "" {
		cfg.API.Model = runModel
	}
	if runWorkers > 0 {
		cfg.Batch.Workers = runWorkers
	}

	client := newClient(cfg, logger)

	spin := ui.NewSpinner("Checking API connection...")
	spin.Start()
	err = preflight.Verify(ctx, cfg.API.APIKey, client, logger)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("environment check: %w", err)
	}
	ui.Success("API connection successful!")

	encoder := imaging.NewEncoder(logger)

	var rasterizer domain.Rasterizer
	if cfg.Batch.IncludePDF {
		converter := pdf.NewConverter(logger)
		defer func() {
			if err := converter.Cleanup(); err != nil {
				logger.Warn().Err(err).Msg("Temp cleanup failed")
			}
		}()
		rasterizer = converter
	}

	discovery := batch.NewDiscovery(rasterizer, logger)
	service := extract.NewService(encoder, client, logger)

	runner := batch.NewRunner(batch.RunnerConfig{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Model:     client.Model(),
		Workers:   cfg.Batch.Workers,
	}, discovery, service, logger)

	if ledger := openRunLedger(ctx, cfg, logger); ledger != nil {
		defer ledger.Close()
		runner.SetRecorder(ledger)
	}
	runner.SetProgress(ui.NewRunView(cfg.Batch.Workers))

	stats, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("extraction run: %w", err)
	}
	if stats.Total == 0 {
		ui.Warning("No image files found in '%s'", cfg.InputDir)
	}
	return nil
}
