package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mrlokans/bookshelf/internal/apperr"
)

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"978-0-13-468599-1", "9780134685991"},
		{"0-13-468599-6", "0134685996"},
		{"978 0 13 468599 1", "9780134685991"},
		{"9780134685991", "9780134685991"},
		{"0134685996", "0134685996"},
		{"123", ""},            // Too short
		{"12345678901234", ""}, // Too long
		{"", ""},
		{"  978-0-13-468599-1  ", "9780134685991"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeISBN(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeISBN(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"2020", 2020},
		{"2020-05", 2020},
		{"January 15, 2019", 2019},
		{"Jan 15, 2019", 2019},
		{"2021-06-15", 2021},
		{"January 2018", 2018},
		{"Published in 1999", 1999},
		{"", 0},
		{"no year here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := extractYear(tt.input)
			if result != tt.expected {
				t.Errorf("extractYear(%q) = %d, expected %d", tt.input, result, tt.expected)
			}
		})
	}
}

func testOpenLibraryClient(baseURL string) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		baseURL:     baseURL,
		coversURL:   "https://covers.example.com",
		rateLimiter: newRateLimiter(0), // No rate limiting for tests
	}
}

func TestOpenLibrary_LookupByISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/isbn/9788576573135.json":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"key":             "/books/OL123M",
				"title":           "Duna",
				"publishers":      []string{"Aleph"},
				"publish_date":    "2017",
				"number_of_pages": 680,
				"authors":         []map[string]string{{"key": "/authors/OL456A"}},
				"description":     map[string]string{"type": "/type/text", "value": "Arrakis."},
				"subjects":        []string{"Ficção científica"},
			})
		case "/authors/OL456A.json":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "Frank Herbert"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	md, err := testOpenLibraryClient(server.URL).LookupByISBN(context.Background(), "978-85-7657-313-5")
	if err != nil {
		t.Fatalf("LookupByISBN failed: %v", err)
	}
	if md == nil {
		t.Fatal("expected metadata")
	}

	if md.Title != "Duna" {
		t.Errorf("expected title 'Duna', got %q", md.Title)
	}
	if md.Author != "Frank Herbert" {
		t.Errorf("expected author 'Frank Herbert', got %q", md.Author)
	}
	if md.Year != 2017 || md.Pages != 680 {
		t.Errorf("expected 2017/680, got %d/%d", md.Year, md.Pages)
	}
	if md.Synopsis != "Arrakis." {
		t.Errorf("expected synopsis from description object, got %q", md.Synopsis)
	}
	if md.Genre != "Ficção científica" {
		t.Errorf("expected first subject as genre, got %q", md.Genre)
	}
	if md.Cover != "https://covers.example.com/b/isbn/9788576573135-L.jpg" {
		t.Errorf("unexpected cover URL %q", md.Cover)
	}
	if md.Source != "openlibrary" {
		t.Errorf("expected source openlibrary, got %q", md.Source)
	}
}

func TestOpenLibrary_LookupByISBN_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	md, err := testOpenLibraryClient(server.URL).LookupByISBN(context.Background(), "0000000000")
	if err != nil {
		t.Fatalf("expected no error for unknown ISBN, got %v", err)
	}
	if md != nil {
		t.Errorf("expected nil metadata, got %+v", md)
	}
}

func TestOpenLibrary_LookupByISBN_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testOpenLibraryClient(server.URL).LookupByISBN(context.Background(), "0000000000")
	if !errors.Is(err, apperr.ErrTransport) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestOpenLibrary_LookupByISBN_InvalidISBN(t *testing.T) {
	md, err := NewOpenLibraryClient().LookupByISBN(context.Background(), "invalid")
	if err != nil || md != nil {
		t.Errorf("expected nil, nil for invalid ISBN, got %+v, %v", md, err)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(50 * time.Millisecond)

	start := time.Now()
	_ = rl.wait(context.Background())
	_ = rl.wait(context.Background())
	elapsed := time.Since(start)

	// Second call should have waited at least 50ms
	if elapsed < 50*time.Millisecond {
		t.Errorf("rate limiter did not wait: elapsed=%v", elapsed)
	}
}

func TestRateLimiter_Cancelled(t *testing.T) {
	rl := newRateLimiter(time.Hour)
	_ = rl.wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
