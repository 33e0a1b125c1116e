package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadbhutta823/text-extract-from-images/internal/domain"
	"github.com/ahmadbhutta823/text-extract-from-images/internal/observability"
)

type fakePreprocessor struct {
	encoded *domain.EncodedImage
	err     error
	calls   []string
}

func (f *fakePreprocessor) Prepare(path string) (*domain.EncodedImage, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return nil, f.err
	}
	return f.encoded, nil
}

type fakeClient struct {
	text string
	err  error
	got  *domain.EncodedImage
}

func (f *fakeClient) ExtractText(ctx context.Context, img *domain.EncodedImage) (string, error) {
	f.got = img
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestExtractImageSuccess(t *testing.T) {
	encoded := &domain.EncodedImage{Base64: "Zm9v", Width: 100, Height: 50}
	prep := &fakePreprocessor{encoded: encoded}
	client := &fakeClient{text: "AUTOCALVE NO: 2\nH17 247°F 16P"}
	svc := NewService(prep, client, observability.Nop())

	image := domain.SourceImage{Path: "images/scan1.jpg", Label: "scan1.jpg"}
	result := svc.ExtractImage(context.Background(), image)

	assert.False(t, result.Failed)
	assert.Equal(t, "AUTOCALVE NO: 2\nH17 247°F 16P", result.Text)
	assert.Equal(t, image, result.Image)
	assert.Equal(t, []string{"images/scan1.jpg"}, prep.calls)
	assert.Same(t, encoded, client.got)
}

func TestExtractImagePreprocessFailure(t *testing.T) {
	prep := &fakePreprocessor{err: domain.DecodeError("decoding image images/bad.jpg", nil)}
	svc := NewService(prep, &fakeClient{}, observability.Nop())

	result := svc.ExtractImage(context.Background(), domain.SourceImage{Path: "images/bad.jpg", Label: "bad.jpg"})

	assert.True(t, result.Failed)
	assert.Equal(t, "Error processing images/bad.jpg: [decode] decoding image images/bad.jpg", result.Text)
}

func TestExtractImageModelFailure(t *testing.T) {
	prep := &fakePreprocessor{encoded: &domain.EncodedImage{Base64: "Zm9v"}}
	client := &fakeClient{err: domain.APIError("empty response from model", nil)}
	svc := NewService(prep, client, observability.Nop())

	result := svc.ExtractImage(context.Background(), domain.SourceImage{Path: "images/blank.png", Label: "blank.png"})

	require.True(t, result.Failed)
	assert.True(t, strings.HasPrefix(result.Text, "Error processing images/blank.png: "))
	assert.Contains(t, result.Text, "empty response from model")
}

func TestExtractImageNoticeUsesPath(t *testing.T) {
	// The notice names the path handed to the pipeline, not the label
	prep := &fakePreprocessor{err: domain.IOError("opening image", nil)}
	svc := NewService(prep, &fakeClient{}, observability.Nop())

	image := domain.SourceImage{Path: "/tmp/pages/page_002.jpg", Label: "manual.pdf [page 2/3]"}
	result := svc.ExtractImage(context.Background(), image)

	assert.Contains(t, result.Text, "Error processing /tmp/pages/page_002.jpg:")
}
