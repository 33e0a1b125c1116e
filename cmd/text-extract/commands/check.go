package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ahmadbhutta823/text-extract-from-images/cmd/text-extract/ui"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/preflight"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the API key and endpoint connectivity",
	Long:  "Check that the API key is configured and the extraction endpoint answers.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ui.Section("Environment Check")

	client := newClient(cfg, logger)

	spin := ui.NewSpinner("Checking API connection...")
	spin.Start()
	err = preflight.Verify(ctx, cfg.API.APIKey, client, logger)
	spin.Stop()
	if err != nil {
		ui.Error("API connection failed")
		var de *domain.DomainError
		if errors.As(err, &de) && de.Type == domain.ErrorTypeConfig {
			ui.Message("Set OPENAI_API_KEY in your environment or a .env file")
		}
		return err
	}

	ui.Success("API connection successful!")
	ui.KeyValue("Endpoint", client.BaseURL())
	ui.KeyValue("Model", client.Model())
	return nil
}
