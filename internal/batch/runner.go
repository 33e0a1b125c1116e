// Package batch orchestrates a full extraction run: discover the sources
// in a folder, extract each one, and write the report and summary
// artifacts for the run.
package batch

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/report"
)

// Extractor turns one source image into an extraction result. Failures are
// folded into the result, never returned.
type Extractor interface {
	ExtractImage(ctx context.Context, image domain.SourceImage) domain.ExtractionResult
}

// Recorder persists run history. Recorder errors never fail a run; the
// runner logs them and moves on.
type Recorder interface {
	RecordRun(ctx context.Context, stats domain.RunStats, results []domain.ExtractionResult) error
}

// Progress receives run lifecycle notifications for display. Indexes are
// 1-based. ImageStarted may be called from concurrent workers; ImageFinished
// is always delivered in input order.
type Progress interface {
	RunStarted(total int)
	ImageStarted(index, total int, label string)
	ImageFinished(index, total int, result domain.ExtractionResult)
	RunFinished(stats domain.RunStats)
}

// NopProgress discards all notifications.
type NopProgress struct{}

func (NopProgress) RunStarted(int)                                  {}
func (NopProgress) ImageStarted(int, int, string)                   {}
func (NopProgress) ImageFinished(int, int, domain.ExtractionResult) {}
func (NopProgress) RunFinished(domain.RunStats)                     {}

// RunnerConfig holds the settings for one batch run.
type RunnerConfig struct {
	InputDir  string
	OutputDir string
	Model     string
	Workers   int
}

// Runner drives a batch run end to end. Both artifacts are derived from a
// single pass over the sources: the report is written incrementally as
// results complete and the summary from the same results afterwards.
type Runner struct {
	cfg       RunnerConfig
	discovery *Discovery
	extractor Extractor
	recorder  Recorder
	progress  Progress
	logger    *observability.Logger
	now       func() time.Time
}

// NewRunner creates a runner over the given discovery and extractor.
func NewRunner(cfg RunnerConfig, discovery *Discovery, extractor Extractor, logger *observability.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1 // Default: sequential processing
	}
	return &Runner{
		cfg:       cfg,
		discovery: discovery,
		extractor: extractor,
		progress:  NopProgress{},
		logger:    logger.WithComponent("batch"),
		now:       time.Now,
	}
}

// SetRecorder attaches a run history recorder. A nil recorder disables
// history.
func (r *Runner) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// SetProgress attaches a progress sink for display.
func (r *Runner) SetProgress(p Progress) {
	if p == nil {
		p = NopProgress{}
	}
	r.progress = p
}

// Run executes one batch run. The run timestamp is captured once at the
// start and names both artifacts. A folder with no extractable files is not
// an error: Run returns zero-total stats and writes nothing.
func (r *Runner) Run(ctx context.Context) (*domain.RunStats, error) {
	startedAt := r.now()

	items, err := r.discovery.Discover(ctx, r.cfg.InputDir)
	if err != nil {
		return nil, err
	}

	total := len(items)
	stats := domain.RunStats{
		RunID:     uuid.NewString(),
		Model:     r.cfg.Model,
		StartedAt: startedAt,
		Total:     total,
	}
	runLog := r.logger.With().Str("run_id", stats.RunID).Logger()

	if total == 0 {
		stats.CompletedAt = r.now()
		runLog.Info().
			Str("folder", r.cfg.InputDir).
			Msg("No image files found")
		return &stats, nil
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return nil, domain.IOError("creating output folder "+r.cfg.OutputDir, err)
	}

	reportPath := report.ReportPath(r.cfg.OutputDir, startedAt)
	writer, err := report.NewWriter(reportPath, r.cfg.Model, startedAt, total)
	if err != nil {
		return nil, err
	}

	runLog.Info().
		Str("folder", r.cfg.InputDir).
		Int("images", total).
		Int("workers", r.cfg.Workers).
		Msg("Starting extraction run")
	r.progress.RunStarted(total)

	results, err := r.process(ctx, items, writer)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	summaryPath := report.SummaryPath(r.cfg.OutputDir, startedAt)
	if err := report.WriteSummary(summaryPath, startedAt, results); err != nil {
		return nil, err
	}

	for _, res := range results {
		if res.Failed {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
	}
	stats.CompletedAt = r.now()
	stats.ReportPath = reportPath
	stats.SummaryPath = summaryPath

	if r.recorder != nil {
		if err := r.recorder.RecordRun(ctx, stats, results); err != nil {
			runLog.Warn().
				Err(err).
				Msg("Run history not recorded")
		}
	}

	runLog.Info().
		Int("succeeded", stats.Succeeded).
		Int("failed", stats.Failed).
		Dur("elapsed", stats.CompletedAt.Sub(stats.StartedAt)).
		Msg("Extraction run complete")
	r.progress.RunFinished(stats)

	return &stats, nil
}

func (r *Runner) process(ctx context.Context, items []Item, writer *report.Writer) ([]domain.ExtractionResult, error) {
	if r.cfg.Workers == 1 {
		return r.processSequential(ctx, items, writer)
	}
	return r.processParallel(ctx, items, writer)
}

func (r *Runner) processSequential(ctx context.Context, items []Item, writer *report.Writer) ([]domain.ExtractionResult, error) {
	total := len(items)
	results := make([]domain.ExtractionResult, total)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.progress.ImageStarted(i+1, total, item.Image.Label)
		res := r.extractItem(ctx, item)
		results[i] = res
		if err := writer.WriteResult(i+1, res); err != nil {
			return nil, err
		}
		r.progress.ImageFinished(i+1, total, res)
	}
	return results, nil
}

func (r *Runner) processParallel(ctx context.Context, items []Item, writer *report.Writer) ([]domain.ExtractionResult, error) {
	total := len(items)

	// Worker pool pattern
	type workItem struct {
		index int
		item  Item
	}
	workChan := make(chan workItem, total)
	for i, item := range items {
		workChan <- workItem{index: i, item: item}
	}
	close(workChan)

	results := make([]domain.ExtractionResult, total)
	finished := make([]bool, total)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		next     int
		writeErr error
	)

	workers := r.cfg.Workers
	if workers > total {
		workers = total
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wi := range workChan {
				if ctx.Err() != nil {
					continue
				}
				r.progress.ImageStarted(wi.index+1, total, wi.item.Image.Label)
				res := r.extractItem(ctx, wi.item)

				mu.Lock()
				results[wi.index] = res
				finished[wi.index] = true
				// Flush the finished prefix: the report stays in input
				// order no matter which worker completes first.
				for next < total && finished[next] {
					if writeErr == nil {
						writeErr = writer.WriteResult(next+1, results[next])
					}
					r.progress.ImageFinished(next+1, total, results[next])
					next++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if writeErr != nil {
		return nil, writeErr
	}
	return results, nil
}

func (r *Runner) extractItem(ctx context.Context, item Item) domain.ExtractionResult {
	if item.Err != nil {
		return domain.FailedResult(item.Image, item.Err)
	}
	return r.extractor.ExtractImage(ctx, item.Image)
}
