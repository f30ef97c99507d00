// Package library holds the book catalog services: listing, mutations,
// genres and the dashboard. Every operation runs on behalf of an Actor and
// only ever touches that actor's books, except deletions by an admin.
package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/genres"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/metadata"
	"github.com/mrlokans/bookshelf/internal/validate"
	"github.com/mrlokans/bookshelf/internal/views"
)

// Actor is the signed-in user an operation runs for.
type Actor struct {
	UserID uint
	Role   entities.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == entities.UserRoleAdmin
}

// Service implements the book operations.
type Service struct {
	books       *books.Repository
	genres      *genres.Repository
	validator   *validate.Validator
	lookup      metadata.Lookup
	enricher    *metadata.Enricher
	invalidator views.Invalidator
	audit       *audit.Service
}

// NewService creates the book service. Metadata lookup, invalidation and
// auditing are optional and installed with the Set* methods.
func NewService(bookRepo *books.Repository, genreRepo *genres.Repository) *Service {
	return &Service{
		books:       bookRepo,
		genres:      genreRepo,
		validator:   validate.New(),
		invalidator: views.Nop,
	}
}

// SetMetadataLookup enables ISBN lookups and enrichment (optional).
func (s *Service) SetMetadataLookup(lookup metadata.Lookup) {
	s.lookup = lookup
	s.enricher = metadata.NewEnricher(lookup)
}

// SetInvalidator sets where view invalidation events go (optional).
func (s *Service) SetInvalidator(invalidator views.Invalidator) {
	s.invalidator = invalidator
}

// SetAuditService enables audit logging of mutations (optional).
func (s *Service) SetAuditService(auditService *audit.Service) {
	s.audit = auditService
}

// Get returns a book its owner or an admin may see.
func (s *Service) Get(actor Actor, id uint) (*entities.Book, error) {
	book, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if book.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("book %d: %w", id, apperr.ErrForbidden)
	}
	return book, nil
}

// List returns one page of the actor's books. On invalid parameters it
// returns EmptyPage together with the validation error.
func (s *Service) List(actor Actor, params ListParams) (Page, error) {
	q, err := params.parse(s.validator)
	if err != nil {
		return EmptyPage(), err
	}

	items, total, err := s.books.List(actor.UserID, q.filter, q.offset(), q.limit)
	if err != nil {
		return EmptyPage(), fmt.Errorf("list books: %w", err)
	}
	return newPage(items, total, q.page, q.limit), nil
}

// Create adds a book to the actor's library.
func (s *Service) Create(ctx context.Context, actor Actor, raw map[string]any) (*entities.Book, error) {
	in, err := ParseBookInput(raw)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(in, true); err != nil {
		return nil, err
	}
	if err := s.checkISBN(actor.UserID, in, 0); err != nil {
		return nil, err
	}

	book := &entities.Book{UserID: actor.UserID, Status: entities.StatusWantToRead}
	in.applyTo(book)
	if err := s.books.Create(book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	created, err := s.load(book.ID)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, actor.UserID, created.ID)
	s.logBook(actor.UserID, "book_create", created, nil)
	return created, nil
}

// Update changes the fields present in raw. Only the owner may update.
func (s *Service) Update(ctx context.Context, actor Actor, id uint, raw map[string]any) (*entities.Book, error) {
	existing, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != actor.UserID {
		return nil, fmt.Errorf("book %d: %w", id, apperr.ErrForbidden)
	}

	in, err := ParseBookInput(raw)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(in, false); err != nil {
		return nil, err
	}
	if err := s.checkISBN(actor.UserID, in, id); err != nil {
		return nil, err
	}

	if err := s.books.Update(id, in.columns()); err != nil {
		return nil, fmt.Errorf("update book %d: %w", id, err)
	}

	updated, err := s.load(id)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, actor.UserID, id)
	s.logBook(actor.UserID, "book_update", updated, in.Fields())
	return updated, nil
}

// Delete removes a book. The owner and admins may delete.
func (s *Service) Delete(ctx context.Context, actor Actor, id uint) error {
	book, err := s.load(id)
	if err != nil {
		return err
	}
	if book.UserID != actor.UserID && !actor.IsAdmin() {
		return fmt.Errorf("book %d: %w", id, apperr.ErrForbidden)
	}

	deleted, err := s.books.Delete(id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if deleted == 0 {
		return fmt.Errorf("book %d: %w", id, apperr.ErrNotFound)
	}

	s.changed(ctx, book.UserID, id)
	s.logBook(actor.UserID, "book_delete", book, nil)
	return nil
}

// LookupISBN returns catalog data for an ISBN.
func (s *Service) LookupISBN(ctx context.Context, isbn string) (*metadata.BookMetadata, error) {
	isbn = strings.TrimSpace(isbn)
	errs := apperr.NewValidationError()
	if s.validator.Check(errs, "isbn", isbn, "required,max=20") && metadata.NormalizeISBN(isbn) == "" {
		errs.Add("isbn", "must have 10 or 13 digits")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	if s.lookup == nil {
		return nil, errors.New("metadata lookup is not configured")
	}

	md, err := s.lookup.LookupByISBN(ctx, isbn)
	if err != nil {
		log.Printf("ISBN lookup for %q failed: %v", isbn, err)
		md = nil
	}
	if md == nil {
		return nil, fmt.Errorf("metadata for isbn %s: %w", isbn, apperr.ErrNotFound)
	}
	return md, nil
}

// EnrichResult is the outcome of filling a book from its ISBN.
type EnrichResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fieldsUpdated"`
	Source        string         `json:"source,omitempty"`
}

// Enrich fills the empty fields of the actor's book from its ISBN.
func (s *Service) Enrich(ctx context.Context, actor Actor, id uint) (*EnrichResult, error) {
	book, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if book.UserID != actor.UserID {
		return nil, fmt.Errorf("book %d: %w", id, apperr.ErrForbidden)
	}
	if s.enricher == nil {
		return nil, errors.New("metadata lookup is not configured")
	}

	result, err := s.enricher.Enrich(ctx, book)
	if err != nil {
		s.logEnrich(actor.UserID, book, err)
		return nil, err
	}

	out := &EnrichResult{Book: book, FieldsUpdated: result.FieldsUpdated, Source: result.Source}
	if len(result.Updates) == 0 {
		return out, nil
	}

	if err := s.books.Update(id, result.Updates); err != nil {
		s.logEnrich(actor.UserID, book, err)
		return nil, fmt.Errorf("update book %d: %w", id, err)
	}
	if out.Book, err = s.load(id); err != nil {
		return nil, err
	}

	s.changed(ctx, actor.UserID, id)
	s.logEnrich(actor.UserID, out.Book, nil)
	return out, nil
}

func (s *Service) load(id uint) (*entities.Book, error) {
	book, err := s.books.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("book %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return book, nil
}

// validateInput runs the schema. On create title and author are required;
// on update they may be omitted but not cleared.
func (s *Service) validateInput(in *BookInput, create bool) error {
	errs := apperr.NewValidationError()

	required := map[string]*string{"title": in.Title, "author": in.Author}
	for _, field := range []string{"title", "author"} {
		if required[field] == nil && (create || in.Has(field)) {
			errs.Add(field, "is required")
		}
	}

	if err := s.validator.Struct(in); err != nil {
		v, ok := apperr.IsValidation(err)
		if !ok {
			return err
		}
		for field, msgs := range v.Fields {
			for _, msg := range msgs {
				errs.Add(field, msg)
			}
		}
	}

	if in.GenreID != nil && *in.GenreID > 0 {
		exists, err := s.genres.Exists(uint(*in.GenreID))
		if err != nil {
			return fmt.Errorf("check genre: %w", err)
		}
		if !exists {
			errs.Add("genreId", "does not exist")
		}
	}

	return errs.OrNil()
}

func (s *Service) checkISBN(userID uint, in *BookInput, excludeID uint) error {
	if in.ISBN == nil {
		return nil
	}
	exists, err := s.books.ISBNExists(userID, *in.ISBN, excludeID)
	if err != nil {
		return fmt.Errorf("check isbn: %w", err)
	}
	if exists {
		return apperr.Conflict("isbn", "a book with this ISBN is already in your library")
	}
	return nil
}

func (s *Service) changed(ctx context.Context, userID, bookID uint) {
	ev := views.NewEvent(userID, bookID, views.ViewBooks, views.ViewDashboard)
	if err := s.invalidator.Invalidate(ctx, ev); err != nil {
		log.Printf("View invalidation for book %d failed: %v", bookID, err)
	}
}

func (s *Service) logBook(userID uint, action string, book *entities.Book, fields []string) {
	if s.audit != nil {
		s.audit.LogBook(userID, action, book.ID, book.Title, fields)
	}
}

func (s *Service) logEnrich(userID uint, book *entities.Book, err error) {
	if s.audit != nil {
		s.audit.LogMetadataEnrich(userID, "Filled metadata of "+book.Title, book.ID, err)
	}
}
