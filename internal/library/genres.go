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
	"github.com/mrlokans/bookshelf/internal/database/genres"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/validate"
	"github.com/mrlokans/bookshelf/internal/views"
)

// GenreService manages the genre list shared by all users. Changes are
// reserved to admins.
type GenreService struct {
	repo        *genres.Repository
	validator   *validate.Validator
	invalidator views.Invalidator
	audit       *audit.Service
}

// NewGenreService creates a genre service over repo.
func NewGenreService(repo *genres.Repository) *GenreService {
	return &GenreService{
		repo:        repo,
		validator:   validate.New(),
		invalidator: views.Nop,
	}
}

func (s *GenreService) SetInvalidator(invalidator views.Invalidator) {
	s.invalidator = invalidator
}

func (s *GenreService) SetAuditService(auditService *audit.Service) {
	s.audit = auditService
}

// List returns every genre, ordered by name, with its book count.
func (s *GenreService) List() ([]genres.WithCount, error) {
	out, err := s.repo.ListWithCounts()
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return out, nil
}

func (s *GenreService) Create(ctx context.Context, actor Actor, name string) (*entities.Genre, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("create genre: %w", apperr.ErrForbidden)
	}

	name = strings.TrimSpace(name)
	errs := apperr.NewValidationError()
	s.validator.Check(errs, "name", name, "required,max=100")
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByName(name)
	if err == nil {
		return nil, apperr.Conflict("name", "genre already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check genre %q: %w", name, err)
	}

	genre := &entities.Genre{Name: name}
	if err := s.repo.Create(genre); err != nil {
		return nil, fmt.Errorf("create genre %q: %w", name, err)
	}

	s.changed(ctx, actor.UserID)
	if s.audit != nil {
		s.audit.LogGenre(actor.UserID, "genre_create", name)
	}
	return genre, nil
}

// Delete removes a genre that no book uses.
func (s *GenreService) Delete(ctx context.Context, actor Actor, name string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("delete genre: %w", apperr.ErrForbidden)
	}

	err := s.repo.DeleteByName(name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("genre %q: %w", name, apperr.ErrNotFound)
	case errors.Is(err, genres.ErrInUse):
		return apperr.Conflict("name", "genre is used by at least one book")
	case err != nil:
		return fmt.Errorf("delete genre %q: %w", name, err)
	}

	s.changed(ctx, actor.UserID)
	if s.audit != nil {
		s.audit.LogGenre(actor.UserID, "genre_delete", name)
	}
	return nil
}

func (s *GenreService) changed(ctx context.Context, userID uint) {
	ev := views.NewEvent(userID, 0, views.ViewGenres, views.ViewBooks, views.ViewDashboard)
	if err := s.invalidator.Invalidate(ctx, ev); err != nil {
		log.Printf("View invalidation for genres failed: %v", err)
	}
}
