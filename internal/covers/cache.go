// Package covers keeps local copies of book cover images so the API can
// serve them without hitting the remote host on every request.
package covers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/bookshelf/internal/apperr"
)

// MaxCoverSize caps the size of a downloaded image.
const MaxCoverSize = 5 << 20

const userAgent = "Bookshelf/1.0"

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Cache stores covers under one directory, one file per book and URL.
type Cache struct {
	cacheDir   string
	httpClient *http.Client
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetCover returns the path of the cached cover for a book, downloading it
// first when needed. An empty URL yields an empty path.
func (c *Cache) GetCover(ctx context.Context, bookID uint, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	prefix := c.coverPrefix(bookID, coverURL)
	if matches, _ := filepath.Glob(filepath.Join(c.cacheDir, prefix+".*")); len(matches) > 0 {
		return matches[0], nil
	}

	// Covers cached under an older URL are stale now.
	if err := c.InvalidateCover(bookID); err != nil {
		return "", err
	}

	return c.fetchAndCache(ctx, coverURL, prefix)
}

// InvalidateCover removes the cached cover for a book.
func (c *Cache) InvalidateCover(bookID uint) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%d_*", bookID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// coverPrefix names a cover by book ID and a short hash of its URL.
func (c *Cache) coverPrefix(bookID uint, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%d_%x", bookID, hash[:8])
}

func (c *Cache) fetchAndCache(ctx context.Context, url, prefix string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperr.Invalid("cover", "is not a valid URL")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch cover: %v: %w", err, apperr.ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch cover: status %d: %w", resp.StatusCode, apperr.ErrTransport)
	}

	ext, err := extensionFor(resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	n, err := io.Copy(tmpFile, io.LimitReader(resp.Body, MaxCoverSize+1))
	if err != nil {
		return "", fmt.Errorf("fetch cover: %v: %w", err, apperr.ErrTransport)
	}
	if n > MaxCoverSize {
		return "", fmt.Errorf("fetch cover: image larger than %d bytes: %w", MaxCoverSize, apperr.ErrTransport)
	}
	tmpFile.Close()

	cachePath := filepath.Join(c.cacheDir, prefix+ext)
	if err := os.Rename(tmpPath, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// extensionFor maps an image content type to a file extension. Servers that
// omit the header are assumed to send JPEG.
func extensionFor(contentType string) (string, error) {
	if contentType == "" {
		return ".jpg", nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("fetch cover: bad content type %q: %w", contentType, apperr.ErrTransport)
	}
	if ext, ok := extensions[strings.ToLower(mediaType)]; ok {
		return ext, nil
	}
	return "", fmt.Errorf("fetch cover: %s is not an image: %w", mediaType, apperr.ErrTransport)
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
