package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), "sqlite", ":memory:", observability.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func sampleRun(id string, startedAt time.Time) (domain.RunStats, []domain.ExtractionResult) {
	stats := domain.RunStats{
		RunID:       id,
		Model:       "gpt-4o",
		StartedAt:   startedAt,
		CompletedAt: startedAt.Add(42 * time.Second),
		Total:       2,
		Succeeded:   1,
		Failed:      1,
		ReportPath:  "/out/extracted_text_20250825_143005.txt",
		SummaryPath: "/out/summary_20250825_143005.txt",
	}
	results := []domain.ExtractionResult{
		{
			Image:   domain.SourceImage{Path: "/in/a.jpg", Label: "a.jpg"},
			Text:    "H17 247°F 16P",
			Elapsed: 1500 * time.Millisecond,
		},
		{
			Image:   domain.SourceImage{Path: "/in/b.jpg", Label: "b.jpg"},
			Text:    "Error processing /in/b.jpg: image file is empty",
			Failed:  true,
			Elapsed: 20 * time.Millisecond,
		},
	}
	return stats, results
}

func TestRecordAndGetRun(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	stats, results := sampleRun("run-1", time.Date(2025, 8, 25, 14, 30, 5, 0, time.UTC))
	require.NoError(t, l.RecordRun(ctx, stats, results))

	got, err := l.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, stats.ReportPath, got.ReportPath)
	assert.Equal(t, stats.SummaryPath, got.SummaryPath)
	assert.WithinDuration(t, stats.StartedAt, got.StartedAt, time.Second)
	assert.WithinDuration(t, stats.CompletedAt, got.CompletedAt, time.Second)
}

func TestRunImages(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	stats, results := sampleRun("run-1", time.Now().UTC())
	require.NoError(t, l.RecordRun(ctx, stats, results))

	images, err := l.RunImages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, images, 2)

	first := images[0]
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, "a.jpg", first.Label)
	assert.Equal(t, "/in/a.jpg", first.SourcePath)
	assert.False(t, first.Failed)
	assert.Equal(t, 3, first.Words)
	assert.Equal(t, 14, first.Chars)
	assert.Equal(t, "H17 247°F 16P...", first.Preview)
	assert.Equal(t, int64(1500), first.ElapsedMS)

	second := images[1]
	assert.Equal(t, 2, second.Position)
	assert.True(t, second.Failed)
}

func TestGetRunNotFound(t *testing.T) {
	l := openTestLedger(t)

	_, err := l.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunImagesEmpty(t *testing.T) {
	l := openTestLedger(t)

	images, err := l.RunImages(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestListRunsNewestFirst(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	base := time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		stats, results := sampleRun(id, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, l.RecordRun(ctx, stats, results))
	}

	runs, err := l.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].RunID)
	assert.Equal(t, "run-2", runs[1].RunID)
}

func TestRecordRunDuplicateID(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	stats, results := sampleRun("run-1", time.Now().UTC())
	require.NoError(t, l.RecordRun(ctx, stats, results))
	assert.Error(t, l.RecordRun(ctx, stats, results))
}

func TestOpenCreatesSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "runs.db")
	l, err := Open(context.Background(), "sqlite", path, observability.Nop())
	require.NoError(t, err)
	defer l.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
