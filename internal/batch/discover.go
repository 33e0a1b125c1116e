package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/imaging"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

// Item is one unit of work produced by discovery. A non-nil Err marks a
// source that already failed before extraction, such as a PDF that could
// not be rasterized; the runner records it without calling the model.
type Item struct {
	Image domain.SourceImage
	Err   error
}

// Discovery lists the extractable sources in a folder. Matching is by file
// extension only and does not descend into subdirectories. With a
// rasterizer attached, PDF files are expanded into one item per page.
type Discovery struct {
	rasterizer domain.Rasterizer
	logger     *observability.Logger
}

// NewDiscovery creates a discovery. Pass a nil rasterizer to skip PDFs.
func NewDiscovery(rasterizer domain.Rasterizer, logger *observability.Logger) *Discovery {
	return &Discovery{
		rasterizer: rasterizer,
		logger:     logger.WithComponent("discovery"),
	}
}

// Discover returns the work items for dir, ordered by filename. PDF pages
// keep their document's position in that order and follow page order
// within it.
func (d *Discovery) Discover(ctx context.Context, dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.IOError("reading input folder "+dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if imaging.SupportedExtension(name) || d.isPDF(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var items []Item
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		if !d.isPDF(name) {
			items = append(items, Item{Image: domain.SourceImage{Path: path, Label: name}})
			continue
		}
		pages, err := d.rasterizer.Rasterize(ctx, path)
		if err != nil {
			d.logger.Warn().
				Str("pdf", name).
				Err(err).
				Msg("PDF rasterization failed")
			items = append(items, Item{Image: domain.SourceImage{Path: path, Label: name}, Err: err})
			continue
		}
		for _, page := range pages {
			items = append(items, Item{Image: page})
		}
	}

	d.logger.Debug().
		Str("folder", dir).
		Int("files", len(names)).
		Int("items", len(items)).
		Msg("Discovered sources")

	return items, nil
}

func (d *Discovery) isPDF(name string) bool {
	return d.rasterizer != nil && strings.EqualFold(filepath.Ext(name), ".pdf")
}
