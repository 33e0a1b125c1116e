package ui

import (
	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
)

// RunView renders extraction progress: one line per image when running
// sequentially, a progress bar when running with workers.
type RunView struct {
	bar        *ProgressBar
	sequential bool
}

// NewRunView creates a run view for the given worker count.
func NewRunView(workers int) *RunView {
	return &RunView{sequential: workers <= 1}
}

// RunStarted announces the run and, in parallel mode, opens the bar.
func (v *RunView) RunStarted(total int) {
	Message("Found %d images to process", total)
	if !v.sequential {
		v.bar = NewProgressBar(int64(total), "Extracting")
	}
}

// ImageStarted prints the per-image line in sequential mode.
func (v *RunView) ImageStarted(index, total int, label string) {
	if v.sequential {
		Step("Processing %d/%d: %s", index, total, label)
	}
}

// ImageFinished advances the bar and reports failures.
func (v *RunView) ImageFinished(index, total int, result domain.ExtractionResult) {
	if v.bar != nil {
		v.bar.Set(int64(index))
	}
	if result.Failed {
		Error("Extraction failed: %s", result.Image.Label)
		return
	}
	Detail("%s done in %s", result.Image.Label, FormatDuration(result.Elapsed))
}

// RunFinished closes the bar and prints where the artifacts landed.
func (v *RunView) RunFinished(stats domain.RunStats) {
	if v.bar != nil {
		v.bar.Finish()
	}
	Newline()
	Success("Extraction complete!")
	if stats.Failed > 0 {
		Warning("%d of %d images failed", stats.Failed, stats.Total)
	}
	Message("Full text saved to: %s", stats.ReportPath)
	Message("Summary saved to: %s", stats.SummaryPath)
}
