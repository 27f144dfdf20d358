// Package preview downloads and loads theme preview images.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"pkt.systems/pslog"
)

// ErrNoPreview is returned for themes without a preview image.
var ErrNoPreview = errors.New("theme has no preview image")

// Image is raw image data plus a format tag such as "png" or "jpg".
type Image struct {
	Data   []byte
	Format string
}

// FetchError reports a non-2xx response from the preview host.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to download preview image from %s: HTTP %d", e.URL, e.StatusCode)
}

// Fetcher downloads preview images.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Image, error)
}

// HTTPFetcher fetches images over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch implements Fetcher. A non-2xx response yields a *FetchError and no
// image data.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	if rawURL == "" {
		return Image{}, ErrNoPreview
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Image{}, fmt.Errorf("preview: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	log := pslog.Ctx(ctx).With("url", rawURL)
	resp, err := client.Do(req)
	if err != nil {
		log.Warn("preview download failed", "err", err)
		return Image{}, fmt.Errorf("preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("preview download rejected", "status", resp.StatusCode)
		return Image{}, &FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, fmt.Errorf("preview: read body: %w", err)
	}
	log.Debug("preview downloaded", "bytes", len(data))
	return Image{Data: data, Format: FormatFromURL(rawURL)}, nil
}

// FormatFromURL derives the image format from the extension of the URL path,
// lowercased. URLs without an extension default to "png".
func FormatFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return formatFromExt(path.Ext(p))
}

// ReadFile loads an image from disk, following symlinks.
func ReadFile(name string) (Image, error) {
	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		return Image{}, fmt.Errorf("preview: resolve %s: %w", name, err)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Image{}, fmt.Errorf("preview: read: %w", err)
	}
	return Image{Data: data, Format: formatFromExt(filepath.Ext(resolved))}, nil
}

func formatFromExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return "png"
	}
	return ext
}
