// Package tokens stores the single-use tokens mailed to users for e-mail
// verification and password reset. Both kinds share one shape and live in
// separate tables.
package tokens

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Kind selects the token table.
type Kind string

const (
	KindVerification Kind = "verification"
	KindReset        Kind = "reset"
)

func (k Kind) model() any {
	if k == KindReset {
		return &entities.PasswordResetToken{}
	}
	return &entities.EmailVerificationToken{}
}

// Record is the kind-independent view of a stored token.
type Record struct {
	Token   string
	Expires time.Time
	UserID  uint
}

// Expired reports whether the token is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return r.Expires.Before(now)
}

// Repository handles verification and reset token rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tokens repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create stores a token of the given kind.
func (r *Repository) Create(kind Kind, rec Record) error {
	switch kind {
	case KindReset:
		return r.db.Create(&entities.PasswordResetToken{Token: rec.Token, Expires: rec.Expires, UserID: rec.UserID}).Error
	default:
		return r.db.Create(&entities.EmailVerificationToken{Token: rec.Token, Expires: rec.Expires, UserID: rec.UserID}).Error
	}
}

// Find looks a token up by its exact value. A missing token yields
// gorm.ErrRecordNotFound.
func (r *Repository) Find(kind Kind, token string) (*Record, error) {
	var rec Record
	err := r.db.Model(kind.model()).
		Select("token", "expires", "user_id").
		Where("token = ?", token).
		Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a token by value and returns the number of rows removed.
func (r *Repository) Delete(kind Kind, token string) (int64, error) {
	result := r.db.Where("token = ?", token).Delete(kind.model())
	return result.RowsAffected, result.Error
}

// DeleteForUser removes every token of the kind held by a user.
func (r *Repository) DeleteForUser(kind Kind, userID uint) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(kind.model())
	return result.RowsAffected, result.Error
}

// CountForUser returns how many tokens of the kind a user holds.
func (r *Repository) CountForUser(kind Kind, userID uint) (int64, error) {
	var count int64
	err := r.db.Model(kind.model()).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// PurgeExpired deletes tokens of both kinds that expired before now.
// Returns the number of deleted rows per kind.
func (r *Repository) PurgeExpired(now time.Time) (verification, reset int64, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires < ?", now).Delete(&entities.EmailVerificationToken{})
		if res.Error != nil {
			return res.Error
		}
		verification = res.RowsAffected

		res = tx.Where("expires < ?", now).Delete(&entities.PasswordResetToken{})
		if res.Error != nil {
			return res.Error
		}
		reset = res.RowsAffected
		return nil
	})
	return verification, reset, err
}
