package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/tokens"
	"github.com/mrlokans/bookshelf/internal/mail"
)

var (
	ErrTokenNotFound = fmt.Errorf("token %w", apperr.ErrNotFound)
	ErrTokenExpired  = fmt.Errorf("token %w", apperr.ErrExpired)
)

const (
	defaultVerificationTTL = 24 * time.Hour
	defaultResetTTL        = time.Hour
)

func (s *Service) verificationTTL() time.Duration {
	if s.config.VerificationTokenTTL > 0 {
		return s.config.VerificationTokenTTL
	}
	return defaultVerificationTTL
}

func (s *Service) resetTTL() time.Duration {
	if s.config.ResetTokenTTL > 0 {
		return s.config.ResetTokenTTL
	}
	return defaultResetTTL
}

// issue generates and stores a token of the given kind within tx.
func (s *Service) issue(tx *gorm.DB, kind tokens.Kind, userID uint, ttl time.Duration) (string, error) {
	token, err := GenerateOneTimeToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	rec := tokens.Record{Token: token, Expires: s.now().Add(ttl), UserID: userID}
	if err := s.tokens.WithTx(tx).Create(kind, rec); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", kind, err)
	}
	return token, nil
}

// RequestPasswordReset issues a reset token for the account with the given
// e-mail and mails the link. An unknown address returns nil without issuing
// anything, so callers cannot tell registered addresses apart. Previous reset
// tokens of the user are deleted first. Delivery failures are logged only.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	errs := apperr.NewValidationError()
	if !s.validator.Check(errs, "email", email, "required,email") {
		return errs
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	var token string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.tokens.WithTx(tx).DeleteForUser(tokens.KindReset, user.ID); err != nil {
			return fmt.Errorf("failed to clear reset tokens: %w", err)
		}
		token, err = s.issue(tx, tokens.KindReset, user.ID, s.resetTTL())
		return err
	})
	if err != nil {
		return err
	}

	msg, err := mail.ResetMessage(user.Email, mail.ResetLink(s.baseURL, token))
	if err != nil {
		log.Printf("Failed to render password reset email for user %d: %v", user.ID, err)
		return nil
	}
	if res := s.resetMailer.Send(ctx, msg); !res.Success {
		log.Printf("Password reset email for user %d not delivered: %s", user.ID, res.Message)
	}
	return nil
}

// CheckResetToken reports whether a reset token can still be redeemed,
// without consuming it.
func (s *Service) CheckResetToken(token string) error {
	_, err := s.lookup(s.tokens, tokens.KindReset, token)
	return err
}

// VerifyEmail redeems a verification token and marks the owner's e-mail as
// verified. Returns the user ID.
func (s *Service) VerifyEmail(token string) (uint, error) {
	return s.redeem(tokens.KindVerification, token, func(tx *gorm.DB, userID uint) error {
		return s.users.WithTx(tx).MarkEmailVerified(userID, s.now())
	})
}

// ResetPassword redeems a reset token and overwrites the owner's password.
// The new password is validated, and must equal confirm, before the token is
// looked at. Returns the user ID.
func (s *Service) ResetPassword(token, password, confirm string) (uint, error) {
	errs := apperr.NewValidationError()
	s.checkPassword(errs, "password", password)
	if password != confirm {
		errs.Add("confirmPassword", msgPasswordMismatch)
	}
	if errs.HasErrors() {
		return 0, errs
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.redeem(tokens.KindReset, token, func(tx *gorm.DB, userID uint) error {
		return s.users.WithTx(tx).SetPasswordHash(userID, hash)
	})
}

// redeem consumes a token: the action and the token deletion commit
// together. An expired token is left in place.
func (s *Service) redeem(kind tokens.Kind, token string, action func(tx *gorm.DB, userID uint) error) (uint, error) {
	var userID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.tokens.WithTx(tx)

		rec, err := s.lookup(repo, kind, token)
		if err != nil {
			return err
		}

		if err := action(tx, rec.UserID); err != nil {
			return err
		}

		deleted, err := repo.Delete(kind, token)
		if err != nil {
			return fmt.Errorf("failed to consume %s token: %w", kind, err)
		}
		if deleted == 0 {
			// Consumed by a concurrent request.
			return ErrTokenNotFound
		}

		userID = rec.UserID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *Service) lookup(repo *tokens.Repository, kind tokens.Kind, token string) (*tokens.Record, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}

	rec, err := repo.Find(kind, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up %s token: %w", kind, err)
	}

	if rec.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	return rec, nil
}

// PurgeExpiredTokens deletes verification and reset tokens that expired
// before now and returns the total removed.
func (s *Service) PurgeExpiredTokens(now time.Time) (int64, error) {
	verification, reset, err := s.tokens.PurgeExpired(now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired tokens: %w", err)
	}
	return verification + reset, nil
}
