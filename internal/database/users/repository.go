// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByEmail("ana@example.com")
package users

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// NormalizeEmail trims and lowercases an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user. The e-mail is normalized first.
func (r *Repository) Create(user *entities.User) error {
	user.Email = NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = entities.UserRoleUser
	}
	return r.db.Create(user).Error
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by e-mail address.
func (r *Repository) GetByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTokenHash retrieves a user by the hash of their API token.
func (r *Repository) GetByTokenHash(hash string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("token_hash = ?", hash).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether an account uses the address.
func (r *Repository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("email = ?", NormalizeEmail(email)).Count(&count).Error
	return count > 0, err
}

// Count returns the number of accounts.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// Update applies the given column values to a user.
func (r *Repository) Update(id uint, fields map[string]any) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).Updates(fields).Error
}

// MarkEmailVerified sets the verification timestamp.
func (r *Repository) MarkEmailVerified(id uint, at time.Time) error {
	return r.Update(id, map[string]any{"email_verified": at})
}

// SetPasswordHash overwrites the password hash and clears any lockout.
func (r *Repository) SetPasswordHash(id uint, hash string) error {
	return r.Update(id, map[string]any{
		"password_hash":      hash,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
}

// Delete removes an account by ID.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.User{}, id).Error
}

// SetRole changes a user's role.
func (r *Repository) SetRole(id uint, role entities.UserRole) error {
	return r.Update(id, map[string]any{"role": role})
}
