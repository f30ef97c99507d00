package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mrlokans/bookshelf/internal/apperr"
)

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	coversURL   string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if since := time.Since(r.lastCall); since < r.interval {
		select {
		case <-time.After(r.interval - since):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.lastCall = time.Now()
	return nil
}

// NewOpenLibraryClient creates a new OpenLibrary API client with rate limiting.
func NewOpenLibraryClient() *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     "https://openlibrary.org",
		coversURL:   "https://covers.openlibrary.org",
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

// LookupByISBN looks up an edition by its ISBN. Unknown ISBNs yield nil.
func (c *OpenLibraryClient) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, nil
	}

	var edition openLibraryEdition
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn), &edition)
	if err != nil || !found {
		return nil, err
	}

	md := c.convertEdition(&edition, isbn)

	// Editions reference authors by key only
	if len(edition.Authors) > 0 {
		var author struct {
			Name string `json:"name"`
		}
		if ok, err := c.getJSON(ctx, c.baseURL+edition.Authors[0].Key+".json", &author); err == nil && ok {
			md.Author = author.Name
		}
	}

	return md, nil
}

// getJSON decodes a GET response into dst. It reports false for a 404.
func (c *OpenLibraryClient) getJSON(ctx context.Context, url string, dst any) (bool, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("openlibrary: %v: %w", err, apperr.ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("openlibrary: unexpected status %d: %w", resp.StatusCode, apperr.ErrTransport)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("openlibrary: decode response: %v: %w", err, apperr.ErrTransport)
	}
	return true, nil
}

func (c *OpenLibraryClient) convertEdition(edition *openLibraryEdition, isbn string) *BookMetadata {
	md := &BookMetadata{
		Title:  edition.Title,
		ISBN:   isbn,
		Pages:  edition.NumberOfPages,
		Year:   extractYear(edition.PublishDate),
		Cover:  fmt.Sprintf("%s/b/isbn/%s-L.jpg", c.coversURL, isbn),
		Source: "openlibrary",
	}

	if len(edition.Publishers) > 0 {
		md.Publisher = edition.Publishers[0]
	}
	if len(edition.Subjects) > 0 {
		md.Genre = edition.Subjects[0]
	}

	switch v := edition.Description.(type) {
	case string:
		md.Synopsis = v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			md.Synopsis = val
		}
	}

	return md
}

type openLibraryEdition struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	Publishers    []string    `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
	Description   any         `json:"description"` // Can be string or {type, value}
	Subjects      []string    `json:"subjects"`
}

type authorRef struct {
	Key string `json:"key"`
}
