package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// defaultDownloadTimeout bounds remote image fetches
	defaultDownloadTimeout = 30 * time.Second
	// defaultMaxImageSize caps image payloads at 10MB
	defaultMaxImageSize = 10 * 1024 * 1024
)

// ImageLoader resolves an opaque image reference (local file path or
// http(s) URL) into raw bytes and a MIME type. No further validation is
// done on the image itself; format and content are the oracle's concern.
type ImageLoader struct {
	client  *resty.Client
	maxSize int64
}

// NewImageLoader creates an ImageLoader with default limits.
func NewImageLoader() *ImageLoader {
	return &ImageLoader{
		client:  resty.New().SetTimeout(defaultDownloadTimeout),
		maxSize: defaultMaxImageSize,
	}
}

// WithMaxSize sets a custom maximum image size.
func (l *ImageLoader) WithMaxSize(maxSize int64) *ImageLoader {
	l.maxSize = maxSize
	return l
}

// Load reads the image behind ref.
func (l *ImageLoader) Load(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return l.download(ctx, ref)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image file: %w", err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, "", fmt.Errorf("image too large: %d bytes exceeds limit of %d bytes", len(data), l.maxSize)
	}
	return data, sniffMimeType(data), nil
}

func (l *ImageLoader) download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := l.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: status %d", resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("invalid content type: expected image/*, got %s", contentType)
	}

	data := resp.Body()
	if int64(len(data)) > l.maxSize {
		return nil, "", fmt.Errorf("image too large: exceeds limit of %d bytes", l.maxSize)
	}

	if contentType == "" {
		contentType = sniffMimeType(data)
	}
	return data, contentType, nil
}

func sniffMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		// The oracle wants an image MIME type in the data URL; default to
		// jpeg when sniffing is inconclusive
		return "image/jpeg"
	}
	return mimeType
}
