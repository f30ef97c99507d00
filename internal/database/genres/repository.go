// Package genres provides database operations for the shared genre list.
package genres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// ErrInUse is returned by DeleteByName when books still reference the genre.
var ErrInUse = errors.New("genre is referenced by books")

// WithCount is a genre with the number of books that reference it.
type WithCount struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	BookCount int64  `json:"bookCount"`
}

// Repository handles genre database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new genres repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListWithCounts returns every genre ordered by name with its book count.
func (r *Repository) ListWithCounts() ([]WithCount, error) {
	var out []WithCount
	err := r.db.Model(&entities.Genre{}).
		Select("genres.id, genres.name, COUNT(books.id) AS book_count").
		Joins("LEFT JOIN books ON books.genre_id = genres.id").
		Group("genres.id, genres.name").
		Order("genres.name ASC").
		Scan(&out).Error
	if out == nil {
		out = []WithCount{}
	}
	return out, err
}

func (r *Repository) GetByID(id uint) (*entities.Genre, error) {
	var genre entities.Genre
	if err := r.db.First(&genre, id).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *Repository) GetByName(name string) (*entities.Genre, error) {
	var genre entities.Genre
	if err := r.db.Where("name = ?", name).First(&genre).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

// Exists reports whether a genre with the ID exists.
func (r *Repository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Genre{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(genre *entities.Genre) error {
	return r.db.Create(genre).Error
}

// DeleteByName removes a genre that no book references. It returns
// gorm.ErrRecordNotFound for an unknown name and ErrInUse when referenced.
func (r *Repository) DeleteByName(name string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var genre entities.Genre
		if err := tx.Where("name = ?", name).First(&genre).Error; err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&entities.Book{}).Where("genre_id = ?", genre.ID).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrInUse
		}

		return tx.Delete(&genre).Error
	})
}
