package media

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

func newTestDownloader(t *testing.T) *Downloader {
	t.Helper()
	d, err := NewDownloader(t.TempDir())
	require.NoError(t, err)
	return d
}

func TestDownload_Image(t *testing.T) {
	body := strings.Repeat("x", 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	dl, err := d.Download(context.Background(), srv.URL+"/photo.jpg", DownloadOptions{})
	require.NoError(t, err)

	assert.Equal(t, MediaImage, dl.MediaType)
	assert.Equal(t, "image/jpeg", dl.MIMEType)
	assert.Equal(t, int64(len(body)), dl.Size)

	data, err := os.ReadFile(dl.Path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestDownload_InvalidURL(t *testing.T) {
	d := newTestDownloader(t)

	_, err := d.Download(context.Background(), "://not-a-url", DownloadOptions{})
	assert.True(t, IsKind(err, KindInvalidURL))

	_, err = d.Download(context.Background(), "ftp://example.com/clip.mp4", DownloadOptions{})
	assert.True(t, IsKind(err, KindUnsupportedProtocol))
}

func TestDownload_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	_, err := d.Download(context.Background(), srv.URL+"/gone.mp4", DownloadOptions{})
	assert.True(t, IsKind(err, KindNetwork))
	assert.Contains(t, err.Error(), "404")
}

func TestDownload_UnclassifiableType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	_, err := d.Download(context.Background(), srv.URL+"/page", DownloadOptions{})
	assert.True(t, IsKind(err, KindUnsupportedType))
}

func TestDownload_DeclaredSizeTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "2048")
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	_, err := d.Download(context.Background(), srv.URL+"/clip.mp4", DownloadOptions{MaxBytes: 1024})
	assert.True(t, IsKind(err, KindTooLarge))
}

func TestDownload_StreamExceedsCap(t *testing.T) {
	// Chunked response: no Content-Length, so only the streaming guard can
	// catch the oversize body.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		flusher := w.(http.Flusher)
		for i := 0; i < 8; i++ {
			_, _ = w.Write(make([]byte, 512))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	d := newTestDownloader(t)
	_, err := d.Download(context.Background(), srv.URL+"/clip.mp4", DownloadOptions{MaxBytes: 1024})
	assert.True(t, IsKind(err, KindTooLarge))

	// No partial file left behind
	entries, readErr := os.ReadDir(d.TempDir())
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestCleanup(t *testing.T) {
	d := newTestDownloader(t)

	path := filepath.Join(d.TempDir(), "asset.mp4")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	require.NoError(t, d.Cleanup(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Second cleanup of the same path is a no-op
	assert.NoError(t, d.Cleanup(path))
	assert.NoError(t, d.Cleanup(""))
}
