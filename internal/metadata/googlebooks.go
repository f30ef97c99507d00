package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/config"
)

const defaultGoogleBooksURL = "https://www.googleapis.com/books/v1"

// GoogleBooksClient queries the Google Books volumes API.
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGoogleBooksClient creates a client. An empty API key still works
// against the public quota.
func NewGoogleBooksClient(cfg config.GoogleBooks) *GoogleBooksClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGoogleBooksURL
	}
	return &GoogleBooksClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

// LookupByISBN returns the first volume matching the ISBN, or nil when
// there is none.
func (c *GoogleBooksClient) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("q", "isbn:"+isbn)
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books: %v: %w", err, apperr.ErrTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books: unexpected status %d: %w", resp.StatusCode, apperr.ErrTransport)
	}

	var result googleVolumes
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("google books: decode response: %v: %w", err, apperr.ErrTransport)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	info := result.Items[0].VolumeInfo
	md := &BookMetadata{
		Title:     info.Title,
		Author:    strings.Join(info.Authors, ", "),
		ISBN:      isbn,
		Genre:     strings.Join(info.Categories, ", "),
		Year:      extractYear(info.PublishedDate),
		Pages:     info.PageCount,
		Cover:     info.ImageLinks.Thumbnail,
		Synopsis:  info.Description,
		Publisher: info.Publisher,
		Source:    "googlebooks",
	}
	return md, nil
}

type googleVolumes struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo googleVolumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type googleVolumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"publishedDate"`
	Description   string   `json:"description"`
	PageCount     int      `json:"pageCount"`
	Categories    []string `json:"categories"`
	ImageLinks    struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}
