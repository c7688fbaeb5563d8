package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff\xe0rest-of-jpeg"), 0600))

	data, mimeType, err := NewImageLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.NotEmpty(t, data)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := NewImageLoader().Load(context.Background(), "/nonexistent/photo.jpg")
	assert.Error(t, err)
}

func TestLoadLocalFileTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("a", 100)), 0600))

	_, _, err := NewImageLoader().WithMaxSize(10).Load(context.Background(), path)
	assert.ErrorContains(t, err, "too large")
}

func TestLoadFromURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	loader := NewImageLoader()

	data, mimeType, err := loader.Load(context.Background(), ts.URL+"/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, _, err = loader.Load(context.Background(), ts.URL+"/page.html")
	assert.ErrorContains(t, err, "invalid content type")

	_, _, err = loader.Load(context.Background(), ts.URL+"/missing.jpg")
	assert.ErrorContains(t, err, "status 404")
}

func TestLoadFromURLTooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer ts.Close()

	_, _, err := NewImageLoader().WithMaxSize(10).Load(context.Background(), ts.URL+"/big.jpg")
	assert.ErrorContains(t, err, "too large")
}
