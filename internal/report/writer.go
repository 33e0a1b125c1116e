// Package report writes the two run artifacts: the full extraction report
// and the compact per-image summary. The report is written incrementally so
// a partial file survives an interrupted run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
)

const (
	// TimestampLayout names both artifacts of a run
	TimestampLayout = "20060102_150405"

	dateLayout    = "2006-01-02 15:04:05"
	previewLength = 100
)

var (
	reportRule  = strings.Repeat("=", 80)
	blockRule   = strings.Repeat("-", 60)
	summaryRule = strings.Repeat("=", 50)
)

// ReportPath returns the report filename for a run timestamp.
func ReportPath(outputDir string, ts time.Time) string {
	return filepath.Join(outputDir, "extracted_text_"+ts.Format(TimestampLayout)+".txt")
}

// SummaryPath returns the summary filename for a run timestamp.
func SummaryPath(outputDir string, ts time.Time) string {
	return filepath.Join(outputDir, "summary_"+ts.Format(TimestampLayout)+".txt")
}

// Writer appends extraction results to the report file in input order.
type Writer struct {
	f *os.File
}

// NewWriter creates the report file and writes its header block.
func NewWriter(path, model string, startedAt time.Time, total int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, domain.IOError("creating report file "+path, err)
	}

	var b strings.Builder
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "TEXT EXTRACTION FROM AUTOCLAVE IMAGES (%s)\n", model)
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "Extraction Date: %s\n", startedAt.Format(dateLayout))
	fmt.Fprintf(&b, "Total Images Processed: %d\n", total)
	b.WriteString(reportRule + "\n\n")

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return nil, domain.IOError("writing report header", err)
	}

	return &Writer{f: f}, nil
}

// WriteResult appends one result block. Index is 1-based and must follow
// the discovery order; the caller is responsible for sequencing.
func (w *Writer) WriteResult(index int, r domain.ExtractionResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "IMAGE %d: %s\n", index, r.Image.Label)
	b.WriteString(blockRule + "\n")
	b.WriteString(r.Text)
	b.WriteString("\n\n" + reportRule + "\n\n")

	if _, err := w.f.WriteString(b.String()); err != nil {
		return domain.IOError("writing report entry "+r.Image.Label, err)
	}
	return nil
}

// Close flushes and closes the report file.
func (w *Writer) Close() error {
	if err := w.f.Close(); err != nil {
		return domain.IOError("closing report file", err)
	}
	return nil
}

// WriteSummary writes the summary file in one pass over the results already
// collected for the report. Nothing is re-extracted.
func WriteSummary(path string, ts time.Time, results []domain.ExtractionResult) error {
	var b strings.Builder
	b.WriteString("EXTRACTION SUMMARY\n")
	b.WriteString(summaryRule + "\n")
	fmt.Fprintf(&b, "Date: %s\n", ts.Format(dateLayout))
	fmt.Fprintf(&b, "Images processed: %d\n\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Image.Label)
		fmt.Fprintf(&b, "   Words: %d, Characters: %d\n", r.WordCount(), r.CharCount())
		fmt.Fprintf(&b, "   Preview: %s\n\n", r.Preview(previewLength))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return domain.IOError("writing summary file "+path, err)
	}
	return nil
}
