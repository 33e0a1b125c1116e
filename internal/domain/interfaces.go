package domain

import "context"

// Preprocessor turns an image file into a transport-ready JPEG payload
type Preprocessor interface {
	// Prepare decodes, normalizes and re-encodes the image at path
	Prepare(path string) (*EncodedImage, error)
}

// Rasterizer expands a PDF document into per-page source images
type Rasterizer interface {
	// Rasterize renders every page of the PDF to a temporary JPEG
	Rasterize(ctx context.Context, pdfPath string) ([]SourceImage, error)

	// Cleanup removes temporary page files created during rasterization
	Cleanup() error
}
