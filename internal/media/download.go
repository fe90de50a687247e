// Package media acquires remote media assets into scoped temporary storage
// with size and time bounds, and cleans them up afterwards.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the hard wall-clock bound for a single download.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBytes caps a single asset at 100 MiB.
const DefaultMaxBytes = 100 << 20

// DefaultUserAgent is the user agent string for media requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; RecipeImporter/1.0)"

// DownloadOptions configures a single download.
type DownloadOptions struct {
	Filename string        // Optional explicit filename; a uuid-based name is generated otherwise.
	Timeout  time.Duration // Wall-clock bound for the whole transfer.
	MaxBytes int64         // Byte cap, enforced against Content-Length and the actual stream.
}

// Download describes a successfully acquired asset.
type Download struct {
	Path      string
	Size      int64
	MIMEType  string
	MediaType MediaType
}

// Downloader writes remote media into a managed temporary directory.
type Downloader struct {
	tempDir string
}

// NewDownloader creates a Downloader rooted at dir, creating it if needed.
func NewDownloader(dir string) (*Downloader, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "recipe-importer-media")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media temp dir %s: %w", dir, err)
	}
	return &Downloader{tempDir: dir}, nil
}

// TempDir returns the managed temporary directory.
func (d *Downloader) TempDir() string {
	return d.tempDir
}

// Download fetches a remote media asset. The URL is validated before any
// network call, the transfer runs under a hard timeout, and the byte cap is
// enforced both against the declared Content-Length and the actual stream.
// No partial file is left behind on any failure path.
func (d *Downloader) Download(ctx context.Context, rawURL string, opts DownloadOptions) (*Download, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, &DownloadError{Kind: KindInvalidURL, URL: rawURL, Message: "malformed URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &DownloadError{Kind: KindUnsupportedProtocol, URL: rawURL,
			Message: fmt.Sprintf("unsupported scheme %q", parsed.Scheme)}
	}

	client := &http.Client{Timeout: opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &DownloadError{Kind: KindNetwork, URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &DownloadError{Kind: KindNetwork, URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &DownloadError{Kind: KindNetwork, URL: rawURL,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType := Classify(contentType, parsed.Path)
	if mediaType == MediaUnknown {
		return nil, &DownloadError{Kind: KindUnsupportedType, URL: rawURL,
			Message: fmt.Sprintf("cannot classify media (content type %q, path %q)", contentType, parsed.Path)}
	}

	// Early reject on the declared size. The streaming guard below still
	// applies for missing or lying Content-Length headers.
	if resp.ContentLength > opts.MaxBytes {
		return nil, &DownloadError{Kind: KindTooLarge, URL: rawURL,
			Message: fmt.Sprintf("declared size %d exceeds cap %d", resp.ContentLength, opts.MaxBytes)}
	}

	filename := opts.Filename
	if filename == "" {
		filename = uuid.New().String() + extensionFor(mediaType, parsed.Path)
	}
	destPath := filepath.Join(d.tempDir, filename)

	out, err := os.Create(destPath)
	if err != nil {
		return nil, &DownloadError{Kind: KindWrite, URL: rawURL, Message: "failed to create file", Cause: err}
	}

	written, err := io.Copy(out, io.LimitReader(resp.Body, opts.MaxBytes+1))
	closeErr := out.Close()

	switch {
	case err != nil:
		_ = os.Remove(destPath)
		return nil, &DownloadError{Kind: KindWrite, URL: rawURL, Message: "failed to write file", Cause: err}
	case closeErr != nil:
		_ = os.Remove(destPath)
		return nil, &DownloadError{Kind: KindWrite, URL: rawURL, Message: "failed to close file", Cause: closeErr}
	case written > opts.MaxBytes:
		_ = os.Remove(destPath)
		return nil, &DownloadError{Kind: KindTooLarge, URL: rawURL,
			Message: fmt.Sprintf("stream exceeded cap %d", opts.MaxBytes)}
	}

	return &Download{
		Path:      destPath,
		Size:      written,
		MIMEType:  normalizeContentType(contentType),
		MediaType: mediaType,
	}, nil
}

// Cleanup deletes a downloaded file. A file that is already gone counts as
// success; any other filesystem error is surfaced.
func (d *Downloader) Cleanup(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file %s: %w", path, err)
	}
	return nil
}
