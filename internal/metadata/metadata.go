// Package metadata looks up book details by ISBN from public catalogs.
//
// Providers implement Lookup. A nil result with a nil error means the catalog
// has no record of the ISBN. Chain tries providers in order and never fails:
// transport problems are logged and treated as "no data".
package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BookMetadata is what a catalog knows about an edition. Zero values mean
// the catalog had nothing for that field.
type BookMetadata struct {
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	ISBN      string `json:"isbn,omitempty"`
	Genre     string `json:"genre,omitempty"`
	Year      int    `json:"year,omitempty"`
	Pages     int    `json:"pages,omitempty"`
	Cover     string `json:"cover,omitempty"`
	Synopsis  string `json:"synopsis,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Source    string `json:"source"`
}

// Lookup fetches metadata for one ISBN.
type Lookup interface {
	LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
}

const userAgent = "Bookshelf/1.0 (+https://github.com/mrlokans/bookshelf)"

// NormalizeISBN removes hyphens and spaces. It returns "" for anything that
// is not 10 or 13 characters long afterwards.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// extractYear tries to extract a 4-digit year from a date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"2006-01",
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
		"January 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	// Last resort: first run of 4 digits
	for i := 0; i <= len(dateStr)-4; i++ {
		if dateStr[i] >= '0' && dateStr[i] <= '9' {
			var year int
			if _, err := fmt.Sscanf(dateStr[i:i+4], "%d", &year); err == nil && year > 1000 && year < 3000 {
				return year
			}
		}
	}

	return 0
}
