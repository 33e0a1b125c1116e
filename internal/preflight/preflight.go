// Package preflight verifies the environment before a run: the API key
// must be configured and the extraction endpoint reachable.
package preflight

import (
	"context"
	"strings"
	"time"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

const probeTimeout = 10 * time.Second

// Prober checks connectivity to the extraction API.
type Prober interface {
	Probe(ctx context.Context) error
	BaseURL() string
}

// Verify confirms the API key is set and the endpoint answers. Any error
// returned here is fatal for the pipeline; nothing downstream can work
// without the API.
func Verify(ctx context.Context, apiKey string, prober Prober, logger *observability.Logger) error {
	if strings.TrimSpace(apiKey) == "" {
		return domain.ConfigError("OPENAI_API_KEY is not set", nil)
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := prober.Probe(probeCtx); err != nil {
		return err
	}

	logger.Debug().
		Str("endpoint", prober.BaseURL()).
		Msg("API connectivity verified")
	return nil
}
