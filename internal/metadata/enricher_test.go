package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type mockLookup struct {
	result *BookMetadata
	err    error
	calls  int
}

func (m *mockLookup) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	m.calls++
	return m.result, m.err
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestChain_FallsThroughErrorsAndMisses(t *testing.T) {
	failing := &mockLookup{err: errors.New("boom")}
	empty := &mockLookup{}
	found := &mockLookup{result: &BookMetadata{Title: "Duna", Source: "third"}}
	never := &mockLookup{result: &BookMetadata{Title: "Other"}}

	chain := NewChain(
		Provider{Name: "failing", Lookup: failing},
		Provider{Name: "empty", Lookup: empty},
		Provider{Name: "found", Lookup: found},
		Provider{Name: "never", Lookup: never},
	)

	md, err := chain.LookupByISBN(context.Background(), "9788576573135")
	if err != nil {
		t.Fatalf("Chain must not fail: %v", err)
	}
	if md == nil || md.Title != "Duna" {
		t.Fatalf("expected result of third provider, got %+v", md)
	}
	if never.calls != 0 {
		t.Error("providers after a hit must not be asked")
	}
}

func TestChain_AllFailIsNoData(t *testing.T) {
	chain := NewChain(Provider{Name: "a", Lookup: &mockLookup{err: errors.New("down")}})

	md, err := chain.LookupByISBN(context.Background(), "9788576573135")
	if err != nil || md != nil {
		t.Errorf("expected nil, nil, got %+v, %v", md, err)
	}
}

func TestEnricher_FillsOnlyEmptyFields(t *testing.T) {
	lookup := &mockLookup{result: &BookMetadata{
		Author:   "Frank Herbert",
		Pages:    680,
		Year:     2017,
		Synopsis: "Arrakis.",
		Cover:    "http://img/duna.jpg",
		Source:   "googlebooks",
	}}
	book := &entities.Book{
		Title:  "Duna",
		Author: "F. Herbert",
		ISBN:   strPtr("9788576573135"),
		Pages:  intPtr(700),
	}

	result, err := NewEnricher(lookup).Enrich(context.Background(), book)
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if _, ok := result.Updates["author"]; ok {
		t.Error("author entered by the reader must not be overwritten")
	}
	if _, ok := result.Updates["pages"]; ok {
		t.Error("pages entered by the reader must not be overwritten")
	}
	if result.Updates["year"] != 2017 {
		t.Errorf("expected year 2017, got %v", result.Updates["year"])
	}
	if result.Updates["synopsis"] != "Arrakis." || result.Updates["cover"] != "http://img/duna.jpg" {
		t.Errorf("unexpected updates %v", result.Updates)
	}
	if len(result.FieldsUpdated) != 3 {
		t.Errorf("expected 3 fields updated, got %v", result.FieldsUpdated)
	}
	if result.Source != "googlebooks" {
		t.Errorf("expected source googlebooks, got %q", result.Source)
	}
}

func TestEnricher_IgnoresOutOfRangeYear(t *testing.T) {
	lookup := &mockLookup{result: &BookMetadata{Year: 1605}}
	book := &entities.Book{Title: "Dom Quixote", Author: "Cervantes", ISBN: strPtr("9788535911169")}

	result, err := NewEnricher(lookup).Enrich(context.Background(), book)
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if len(result.Updates) != 0 {
		t.Errorf("expected no updates, got %v", result.Updates)
	}
}

func TestEnricher_RequiresISBN(t *testing.T) {
	lookup := &mockLookup{}
	_, err := NewEnricher(lookup).Enrich(context.Background(), &entities.Book{Title: "Sem ISBN"})

	if _, ok := apperr.IsValidation(err); !ok {
		t.Errorf("expected validation error, got %v", err)
	}
	if lookup.calls != 0 {
		t.Error("lookup must not be called without an ISBN")
	}
}

func TestEnricher_NoData(t *testing.T) {
	book := &entities.Book{Title: "Duna", Author: "Frank Herbert", ISBN: strPtr("9788576573135")}

	result, err := NewEnricher(&mockLookup{}).Enrich(context.Background(), book)
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if len(result.FieldsUpdated) != 0 || result.Source != "" {
		t.Errorf("expected empty result, got %+v", result)
	}
}
