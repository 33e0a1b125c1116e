package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// SourceImage is a single unit of work for the extraction pipeline. For a
// plain image file Path and Label both refer to the original file; for a
// rasterized PDF page Path is the temporary page JPEG while Label carries
// the page annotation shown in the report.
type SourceImage struct {
	Path  string
	Label string
}

// EncodedImage is an image prepared for transport to the vision model
type EncodedImage struct {
	Base64 string
	Width  int
	Height int
}

// DataURI returns the image as a JPEG data URI for the chat completions API.
func (e *EncodedImage) DataURI() string {
	return "data:image/jpeg;base64," + e.Base64
}

// ExtractionResult is the outcome of extracting one image. When Failed is
// set, Text holds the error notice that stands in for the extracted text,
// so report and summary writers treat both cases uniformly.
type ExtractionResult struct {
	Image   SourceImage
	Text    string
	Failed  bool
	Elapsed time.Duration
}

// WordCount returns the number of whitespace-separated fields in the text.
func (r ExtractionResult) WordCount() int {
	return len(strings.Fields(r.Text))
}

// CharCount returns the length of the text in bytes.
func (r ExtractionResult) CharCount() int {
	return len(r.Text)
}

// Preview returns the first max characters of the text, newlines flattened
// to spaces, with an ellipsis suffix. Truncation never splits a rune.
func (r ExtractionResult) Preview(max int) string {
	p := r.Text
	if utf8.RuneCountInString(p) > max {
		p = string([]rune(p)[:max])
	}
	return strings.ReplaceAll(p, "\n", " ") + "..."
}

// FailedResult builds the per-image failure entry. The notice text stands
// in for the extracted text wherever the result is rendered.
func FailedResult(image SourceImage, err error) ExtractionResult {
	return ExtractionResult{
		Image:  image,
		Text:   fmt.Sprintf("Error processing %s: %s", image.Path, err.Error()),
		Failed: true,
	}
}

// RunStats aggregates the outcome of one batch run
type RunStats struct {
	RunID       string
	Model       string
	StartedAt   time.Time
	CompletedAt time.Time
	Total       int
	Succeeded   int
	Failed      int
	ReportPath  string
	SummaryPath string
}
