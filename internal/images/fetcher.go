package images

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// MaxImageBytes caps a single download or upload
const MaxImageBytes = 20 * 1024 * 1024

// Fetcher downloads remote photos so they can be added to the upload folder
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Download fetches imageURL and returns its bytes and a filename to store it under
func (f *Fetcher) Download(imageURL string) ([]byte, string, error) {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("invalid image URL %q", imageURL)
	}

	resp, err := f.HTTPClient.Get(imageURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, "", fmt.Errorf("image too large (max %d bytes)", MaxImageBytes)
	}

	name := filenameFor(u, resp.Header.Get("Content-Type"))
	slog.Info("Downloaded image", "url", imageURL, "filename", name, "bytes", len(data))

	return data, name, nil
}

// filenameFor takes the last path segment, adding an extension from the
// content type when the URL has none
func filenameFor(u *url.URL, contentType string) string {
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "image"
	}
	if path.Ext(name) != "" {
		return name
	}

	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return name + ".png"
	case strings.HasPrefix(contentType, "image/gif"):
		return name + ".gif"
	case strings.HasPrefix(contentType, "image/bmp"):
		return name + ".bmp"
	case strings.HasPrefix(contentType, "image/heic"), strings.HasPrefix(contentType, "image/heif"):
		return name + ".heic"
	default:
		return name + ".jpg"
	}
}
