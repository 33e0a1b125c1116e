package pdf

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
)

// Validator checks PDF inputs before rasterization
type Validator struct{}

// NewValidator creates a new PDF validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePath checks that path names a readable, non-empty PDF file
func (v *Validator) ValidatePath(path string) error {
	if path == "" {
		return domain.ValidationError("PDF path is empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError("PDF file does not exist: "+path, nil)
		}
		return domain.IOError("Failed to stat "+path, err)
	}

	if info.IsDir() {
		return domain.ValidationError("path is a directory, not a PDF: "+path, nil)
	}

	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return domain.ValidationError("not a PDF file: "+path, nil)
	}

	if info.Size() == 0 {
		return domain.ValidationError("PDF file is empty: "+path, nil)
	}

	return nil
}
