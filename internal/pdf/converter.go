// Package pdf rasterizes PDF documents into per-page JPEGs that feed the
// normal image pipeline.
package pdf

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

// pageQuality matches the JPEG quality used elsewhere in the pipeline
const pageQuality = 85

// Converter renders PDF pages to temporary JPEG files using MuPDF. One
// converter serves a whole run; Cleanup removes everything it produced.
type Converter struct {
	validator *Validator
	tempDir   string
	logger    *observability.Logger
}

// NewConverter creates a new PDF converter instance
func NewConverter(logger *observability.Logger) *Converter {
	return &Converter{
		validator: NewValidator(),
		logger:    logger.WithComponent("pdf"),
	}
}

// Rasterize renders every page of the PDF and returns one source image per
// page, labeled with its position in the document.
func (c *Converter) Rasterize(ctx context.Context, pdfPath string) ([]domain.SourceImage, error) {
	if err := c.validator.ValidatePath(pdfPath); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.DecodeError("Failed to open PDF "+pdfPath, err)
	}
	defer doc.Close()

	if c.tempDir == "" {
		dir, err := os.MkdirTemp("", "text-extract-pages-*")
		if err != nil {
			return nil, domain.IOError("Failed to create temp directory", err)
		}
		c.tempDir = dir
	}

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.ValidationError("PDF has no pages: "+pdfPath, nil)
	}

	base := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	// Pages of each PDF get their own directory so same-named documents
	// cannot clobber each other within a run
	pdfDir, err := os.MkdirTemp(c.tempDir, stem+"-*")
	if err != nil {
		return nil, domain.IOError("Failed to create page directory for "+base, err)
	}

	images := make([]domain.SourceImage, 0, pageCount)

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.Image(pageNum)
		if err != nil {
			return nil, domain.DecodeError(fmt.Sprintf("Failed to render page %d of %s", pageNum+1, base), err)
		}

		outputPath := filepath.Join(pdfDir, fmt.Sprintf("page_%03d.jpg", pageNum+1))
		outputFile, err := os.Create(outputPath)
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("Failed to create page file for %s", base), err)
		}

		err = jpeg.Encode(outputFile, img, &jpeg.Options{Quality: pageQuality})
		outputFile.Close()
		if err != nil {
			return nil, domain.DecodeError(fmt.Sprintf("Failed to encode page %d of %s", pageNum+1, base), err)
		}

		images = append(images, domain.SourceImage{
			Path:  outputPath,
			Label: pageLabel(base, pageNum+1, pageCount),
		})
	}

	c.logger.Debug().
		Str("pdf", base).
		Int("pages", pageCount).
		Msg("Rasterized PDF")

	return images, nil
}

// pageLabel is the display name of a rasterized page
func pageLabel(base string, page, total int) string {
	return fmt.Sprintf("%s [page %d/%d]", base, page, total)
}

// Cleanup removes all temporary page files created by this converter.
func (c *Converter) Cleanup() error {
	if c.tempDir == "" {
		return nil
	}

	err := os.RemoveAll(c.tempDir)
	c.tempDir = ""
	if err != nil {
		return domain.IOError("Failed to remove temporary pages", err)
	}
	return nil
}
