package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/validate"
)

// EnrichmentResult holds the column updates that fill a book's gaps.
type EnrichmentResult struct {
	Updates       map[string]any `json:"-"`
	FieldsUpdated []string       `json:"fieldsUpdated"`
	Source        string         `json:"source,omitempty"`
}

// Enricher fills the empty fields of a book from its ISBN. It never
// overwrites a value the reader entered.
type Enricher struct {
	lookup Lookup
}

func NewEnricher(lookup Lookup) *Enricher {
	return &Enricher{lookup: lookup}
}

// Enrich looks the book's ISBN up and returns the updates to apply. The
// book itself is not modified.
func (e *Enricher) Enrich(ctx context.Context, book *entities.Book) (*EnrichmentResult, error) {
	if book.ISBN == nil || strings.TrimSpace(*book.ISBN) == "" {
		return nil, apperr.Invalid("isbn", "is required to look up metadata")
	}

	md, err := e.lookup.LookupByISBN(ctx, *book.ISBN)
	if err != nil {
		return nil, fmt.Errorf("lookup isbn %s: %w", *book.ISBN, err)
	}

	result := &EnrichmentResult{Updates: map[string]any{}, FieldsUpdated: []string{}}
	if md == nil {
		return result, nil
	}
	result.Source = md.Source

	set := func(column string, value any) {
		result.Updates[column] = value
		result.FieldsUpdated = append(result.FieldsUpdated, column)
	}

	if strings.TrimSpace(book.Author) == "" && md.Author != "" {
		set("author", md.Author)
	}
	if book.Pages == nil && md.Pages > 0 {
		set("pages", md.Pages)
	}
	if book.Year == nil && md.Year >= validate.MinBookYear && md.Year <= validate.MaxBookYear() {
		set("year", md.Year)
	}
	if book.Synopsis == nil && md.Synopsis != "" {
		set("synopsis", md.Synopsis)
	}
	if book.Cover == nil && md.Cover != "" {
		set("cover", md.Cover)
	}

	return result, nil
}
