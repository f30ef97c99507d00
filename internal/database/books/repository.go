// Package books provides database operations for the book catalog.
//
// Every read that lists books takes the owner's ID; there is no query that
// spans users.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	items, total, err := repo.List(userID, books.Filter{Title: "Duna"}, 0, 10)
package books

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Filter narrows a listing. Zero values mean "no constraint".
type Filter struct {
	Title  string // substring, case-sensitive
	Author string // substring, case-sensitive
	Genre  string // substring of the genre name, case-sensitive
	Status entities.ReadingStatus
	ISBN   string
	Year   *int
	Pages  *int
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a book. Associations are not touched.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Omit(clause.Associations).Create(book).Error
}

// GetByID retrieves a book with its genre.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Genre").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update applies column values to a book. Nil values clear the column.
func (r *Repository) Update(id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a book and returns the number of deleted rows.
func (r *Repository) Delete(id uint) (int64, error) {
	result := r.db.Delete(&entities.Book{}, id)
	return result.RowsAffected, result.Error
}

// AllForUser returns every book a user owns, with genres.
func (r *Repository) AllForUser(userID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Genre").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&books).Error
	return books, err
}

// ISBNExists reports whether the owner already has a book with the ISBN.
// excludeID skips the book being updated; pass 0 on create.
func (r *Repository) ISBNExists(userID uint, isbn string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&entities.Book{}).Where("user_id = ? AND isbn = ?", userID, isbn)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// List returns one page of the owner's books matching filter, ordered by
// title then id, together with the total number of matches. Count and page
// are read in the same transaction.
func (r *Repository) List(userID uint, filter Filter, offset, limit int) ([]entities.Book, int64, error) {
	var (
		items []entities.Book
		total int64
	)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		scope := r.filterScope(userID, filter)

		if err := tx.Model(&entities.Book{}).Scopes(scope).Count(&total).Error; err != nil {
			return err
		}

		return tx.Model(&entities.Book{}).
			Scopes(scope).
			Preload("Genre").
			Order("books.title ASC").
			Order("books.id ASC").
			Offset(offset).
			Limit(limit).
			Find(&items).Error
	})
	if err != nil {
		return nil, 0, err
	}

	if items == nil {
		items = []entities.Book{}
	}
	return items, total, nil
}

func (r *Repository) filterScope(userID uint, f Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("books.user_id = ?", userID)

		if f.Title != "" {
			db = db.Where(r.contains("books.title"), f.Title)
		}
		if f.Author != "" {
			db = db.Where(r.contains("books.author"), f.Author)
		}
		if f.Genre != "" {
			db = db.Joins("JOIN genres ON genres.id = books.genre_id").
				Where(r.contains("genres.name"), f.Genre)
		}
		if f.Status != "" {
			db = db.Where("books.status = ?", f.Status)
		}
		if f.ISBN != "" {
			db = db.Where("books.isbn = ?", f.ISBN)
		}
		if f.Year != nil {
			db = db.Where("books.year = ?", *f.Year)
		}
		if f.Pages != nil {
			db = db.Where("books.pages = ?", *f.Pages)
		}
		return db
	}
}

// contains builds a case-sensitive substring predicate for column. LIKE is
// case-insensitive for ASCII on SQLite, so position functions are used.
func (r *Repository) contains(column string) string {
	if r.db.Dialector.Name() == "postgres" {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}
