// Package extract runs the per-image extraction flow: preprocess, send to
// the vision model, fold any failure into the result.
package extract

import (
	"context"
	"time"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

// VisionClient defines the interface for the model call
type VisionClient interface {
	ExtractText(ctx context.Context, img *domain.EncodedImage) (string, error)
}

// Service orchestrates preprocessing and extraction for one image at a
// time. It never aborts a batch: every per-image error is folded into the
// result text, so report and summary writers treat success and failure
// uniformly.
type Service struct {
	preprocessor domain.Preprocessor
	client       VisionClient
	logger       *observability.Logger
}

// NewService creates a new extraction service
func NewService(preprocessor domain.Preprocessor, client VisionClient, logger *observability.Logger) *Service {
	return &Service{
		preprocessor: preprocessor,
		client:       client,
		logger:       logger.WithComponent("extract"),
	}
}

// ExtractImage runs the full flow for a single image. On failure the result
// text is the error notice that stands in for the extracted text.
func (s *Service) ExtractImage(ctx context.Context, image domain.SourceImage) domain.ExtractionResult {
	start := time.Now()

	encoded, err := s.preprocessor.Prepare(image.Path)
	if err != nil {
		return s.failed(image, start, err)
	}

	text, err := s.client.ExtractText(ctx, encoded)
	if err != nil {
		return s.failed(image, start, err)
	}

	elapsed := time.Since(start)
	s.logger.Debug().
		Str("image", image.Label).
		Int("chars", len(text)).
		Dur("elapsed", elapsed).
		Msg("Extracted image")

	return domain.ExtractionResult{
		Image:   image,
		Text:    text,
		Elapsed: elapsed,
	}
}

// failed folds an error into a recoverable result tagged as failed
func (s *Service) failed(image domain.SourceImage, start time.Time, err error) domain.ExtractionResult {
	s.logger.Warn().
		Str("image", image.Label).
		Err(err).
		Msg("Extraction failed")

	result := domain.FailedResult(image, err)
	result.Elapsed = time.Since(start)
	return result
}
