// Package imaging prepares photographed report printouts for transport to
// the vision model: decode, normalize to RGB, bound the dimensions and
// re-encode as base64 JPEG.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"golang.org/x/image/draw"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

const (
	// MaxDimension bounds both sides of the encoded image
	MaxDimension = 8192

	// jpegQuality matches the quality used for rasterized PDF pages
	jpegQuality = 85
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// SupportedExtension reports whether path names an accepted image format.
// The comparison is case-insensitive.
func SupportedExtension(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Encoder prepares image files for the vision model.
type Encoder struct {
	maxDim  int
	quality int
	logger  *observability.Logger
}

// NewEncoder creates an encoder with production limits.
func NewEncoder(logger *observability.Logger) *Encoder {
	return &Encoder{
		maxDim:  MaxDimension,
		quality: jpegQuality,
		logger:  logger.WithComponent("imaging"),
	}
}

// Prepare reads the image at path, normalizes it to an RGB buffer no larger
// than the dimension bound, and returns the JPEG payload base64-encoded.
func (e *Encoder) Prepare(path string) (*domain.EncodedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("opening image %s", path), err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, domain.DecodeError(fmt.Sprintf("decoding image %s", path), err)
	}

	normalized := e.normalize(img)
	bounds := normalized.Bounds()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, normalized, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, domain.DecodeError(fmt.Sprintf("re-encoding image %s", path), err)
	}

	e.logger.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("bytes", buf.Len()).
		Msg("Prepared image")

	return &domain.EncodedImage{
		Base64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// normalize converts the image to an RGB-backed buffer that fits within the
// dimension bound, downscaling with Catmull-Rom when needed.
func (e *Encoder) normalize(img image.Image) image.Image {
	src := img.Bounds()
	w, h := fitWithin(src.Dx(), src.Dy(), e.maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	}
	return dst
}

// fitWithin scales (w, h) proportionally so neither side exceeds max.
// Never upscales.
func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}

	ratio := math.Min(float64(max)/float64(w), float64(max)/float64(h))
	nw := int(math.Round(float64(w) * ratio))
	nh := int(math.Round(float64(h) * ratio))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	// rounding can push a side one past the bound
	if nw > max {
		nw = max
	}
	if nh > max {
		nh = max
	}
	return nw, nh
}
