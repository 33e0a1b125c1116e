package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls []string
	texts map[string]string
	fail  map[string]error
	gates map[string]chan struct{}
}

func (f *fakeExtractor) ExtractImage(ctx context.Context, image domain.SourceImage) domain.ExtractionResult {
	if g := f.gates[image.Label]; g != nil {
		<-g
	}
	f.mu.Lock()
	f.calls = append(f.calls, image.Label)
	f.mu.Unlock()

	if err := f.fail[image.Label]; err != nil {
		return domain.FailedResult(image, err)
	}
	text := f.texts[image.Label]
	if text == "" {
		text = "text from " + image.Label
	}
	return domain.ExtractionResult{Image: image, Text: text}
}

func (f *fakeExtractor) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeRecorder struct {
	stats   *domain.RunStats
	results []domain.ExtractionResult
	err     error
}

func (f *fakeRecorder) RecordRun(ctx context.Context, stats domain.RunStats, results []domain.ExtractionResult) error {
	if f.err != nil {
		return f.err
	}
	s := stats
	f.stats = &s
	f.results = results
	return nil
}

type progressLog struct {
	mu       sync.Mutex
	total    int
	started  []string
	finished []int
	stats    *domain.RunStats
}

func (p *progressLog) RunStarted(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

func (p *progressLog) ImageStarted(index, total int, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, label)
}

func (p *progressLog) ImageFinished(index, total int, result domain.ExtractionResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = append(p.finished, index)
}

func (p *progressLog) RunFinished(stats domain.RunStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = &stats
}

var runClock = time.Date(2025, 8, 25, 14, 30, 5, 0, time.UTC)

func newTestRunner(cfg RunnerConfig, ras domain.Rasterizer, ext Extractor) *Runner {
	d := NewDiscovery(ras, observability.Nop())
	r := NewRunner(cfg, d, ext, observability.Nop())
	r.now = func() time.Time { return runClock }
	return r
}

func TestRunSequential(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	for _, name := range []string{"b.png", "a.jpg", "c.jpg"} {
		touch(t, inputDir, name)
	}

	ext := &fakeExtractor{texts: map[string]string{"a.jpg": "H17 247°F 16P"}}
	rec := &fakeRecorder{}
	r := newTestRunner(RunnerConfig{InputDir: inputDir, OutputDir: outputDir, Model: "gpt-4o"}, nil, ext)
	r.SetRecorder(rec)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	_, err = uuid.Parse(stats.RunID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.png", "c.jpg"}, ext.callOrder())

	assert.Equal(t, "extracted_text_20250825_143005.txt", filepath.Base(stats.ReportPath))
	assert.Equal(t, "summary_20250825_143005.txt", filepath.Base(stats.SummaryPath))

	content, err := os.ReadFile(stats.ReportPath)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "TEXT EXTRACTION FROM AUTOCLAVE IMAGES (gpt-4o)")
	assert.Contains(t, text, "Total Images Processed: 3")
	iA := strings.Index(text, "IMAGE 1: a.jpg")
	iB := strings.Index(text, "IMAGE 2: b.png")
	iC := strings.Index(text, "IMAGE 3: c.jpg")
	require.GreaterOrEqual(t, iA, 0)
	assert.Greater(t, iB, iA)
	assert.Greater(t, iC, iB)
	assert.Contains(t, text, "H17 247°F 16P")

	summary, err := os.ReadFile(stats.SummaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Images processed: 3")
	assert.Contains(t, string(summary), "1. a.jpg")

	require.NotNil(t, rec.stats)
	assert.Equal(t, stats.RunID, rec.stats.RunID)
	assert.Len(t, rec.results, 3)
}

func TestRunParallelPreservesOrder(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	names := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}
	for _, name := range names {
		touch(t, inputDir, name)
	}

	gates := make(map[string]chan struct{}, len(names))
	for _, name := range names {
		gates[name] = make(chan struct{})
	}
	ext := &fakeExtractor{gates: gates}
	prog := &progressLog{}
	r := newTestRunner(RunnerConfig{InputDir: inputDir, OutputDir: outputDir, Model: "gpt-4o", Workers: 4}, nil, ext)
	r.SetProgress(prog)

	// Release the gates last-first so completions arrive out of order.
	go func() {
		for i := len(names) - 1; i >= 0; i-- {
			time.Sleep(5 * time.Millisecond)
			close(gates[names[i]])
		}
	}()

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Len(t, ext.callOrder(), 4)

	content, err := os.ReadFile(stats.ReportPath)
	require.NoError(t, err)
	text := string(content)
	last := -1
	for i, name := range names {
		idx := strings.Index(text, fmt.Sprintf("IMAGE %d: %s", i+1, name))
		require.GreaterOrEqual(t, idx, 0, name)
		assert.Greater(t, idx, last)
		last = idx
	}

	assert.Equal(t, 4, prog.total)
	assert.Equal(t, []int{1, 2, 3, 4}, prog.finished)
	require.NotNil(t, prog.stats)
	assert.Equal(t, stats.RunID, prog.stats.RunID)
}

func TestRunWritesFailureNotice(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	touch(t, inputDir, "bad.jpg")
	touch(t, inputDir, "good.jpg")

	ext := &fakeExtractor{fail: map[string]error{"bad.jpg": errors.New("image file is empty")}}
	r := newTestRunner(RunnerConfig{InputDir: inputDir, OutputDir: outputDir, Model: "gpt-4o"}, nil, ext)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)

	content, err := os.ReadFile(stats.ReportPath)
	require.NoError(t, err)
	notice := "Error processing " + filepath.Join(inputDir, "bad.jpg") + ": image file is empty"
	assert.Contains(t, string(content), notice)

	summary, err := os.ReadFile(stats.SummaryPath)
	require.NoError(t, err)
	assert.Contains(t, string(summary), "1. bad.jpg")
	assert.Contains(t, string(summary), "2. good.jpg")
}

func TestRunRecordsFailedPDFWithoutExtracting(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	touch(t, inputDir, "a.jpg")
	touch(t, inputDir, "broken.pdf")

	ras := &fakeRasterizer{err: errors.New("cannot open document")}
	ext := &fakeExtractor{}
	r := newTestRunner(RunnerConfig{InputDir: inputDir, OutputDir: outputDir, Model: "gpt-4o"}, ras, ext)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []string{"a.jpg"}, ext.callOrder())

	content, err := os.ReadFile(stats.ReportPath)
	require.NoError(t, err)
	notice := "Error processing " + filepath.Join(inputDir, "broken.pdf") + ": cannot open document"
	assert.Contains(t, string(content), notice)
}

func TestRunEmptyFolderWritesNothing(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	touch(t, inputDir, "notes.txt")

	rec := &fakeRecorder{}
	prog := &progressLog{}
	r := newTestRunner(RunnerConfig{InputDir: inputDir, OutputDir: outputDir, Model: "gpt-4o"}, nil, &fakeExtractor{})
	r.SetRecorder(rec)
	r.SetProgress(prog)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Empty(t, stats.ReportPath)
	assert.Empty(t, stats.SummaryPath)

	_, err = os.Stat(outputDir)
	assert.True(t, os.IsNotExist(err))
	assert.Nil(t, rec.stats)
	assert.Nil(t, prog.stats)
}

func TestRunRecorderFailureIsNonFatal(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	touch(t, inputDir, "a.jpg")

	rec := &fakeRecorder{err: errors.New("database is locked")}
	r := newTestRunner(RunnerConfig{InputDir: inputDir, OutputDir: outputDir, Model: "gpt-4o"}, nil, &fakeExtractor{})
	r.SetRecorder(rec)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestRunMissingInputFolder(t *testing.T) {
	r := newTestRunner(RunnerConfig{
		InputDir:  filepath.Join(t.TempDir(), "absent"),
		OutputDir: t.TempDir(),
		Model:     "gpt-4o",
	}, nil, &fakeExtractor{})

	_, err := r.Run(context.Background())
	require.Error(t, err)

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrorTypeIO, de.Type)
}

func TestRunCancelledContext(t *testing.T) {
	inputDir := t.TempDir()
	touch(t, inputDir, "a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(RunnerConfig{
		InputDir:  inputDir,
		OutputDir: filepath.Join(t.TempDir(), "out"),
		Model:     "gpt-4o",
	}, nil, &fakeExtractor{})

	_, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
