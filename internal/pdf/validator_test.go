package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
)

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()

	realPDF := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(realPDF, []byte("%PDF-1.4"), 0o644))

	upperPDF := filepath.Join(dir, "REPORT2.PDF")
	require.NoError(t, os.WriteFile(upperPDF, []byte("%PDF-1.4"), 0o644))

	emptyPDF := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(emptyPDF, nil, 0o644))

	notPDF := filepath.Join(dir, "scan.jpg")
	require.NoError(t, os.WriteFile(notPDF, []byte("x"), 0o644))

	v := NewValidator()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid pdf", realPDF, false},
		{"uppercase extension", upperPDF, false},
		{"empty path", "", true},
		{"missing file", filepath.Join(dir, "absent.pdf"), true},
		{"directory", dir, true},
		{"wrong extension", notPDF, true},
		{"zero byte file", emptyPDF, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				var de *domain.DomainError
				assert.True(t, errors.As(err, &de))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPageLabel(t *testing.T) {
	assert.Equal(t, "manual.pdf [page 1/3]", pageLabel("manual.pdf", 1, 3))
	assert.Equal(t, "manual.pdf [page 3/3]", pageLabel("manual.pdf", 3, 3))
}
