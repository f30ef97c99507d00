package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database/tokens"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/mail"
	"github.com/mrlokans/bookshelf/internal/validate"
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAPITokenExpired    = errors.New("api token expired")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrEmailNotVerified   = errors.New("email address has not been verified")

	// ErrMailDelivery means the verification e-mail could not be sent, so the
	// registration was rolled back.
	ErrMailDelivery = fmt.Errorf("%w: verification email could not be sent", apperr.ErrTransport)
)

const (
	msgEmailInUse       = "email is already in use"
	msgPasswordMismatch = "passwords do not match"
)

// RegisterInput is the payload of a self-service registration.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password"`
}

// Service handles accounts, credentials and the e-mailed token flows.
type Service struct {
	db          *gorm.DB
	users       *users.Repository
	tokens      *tokens.Repository
	config      config.Auth
	baseURL     string
	mailer      mail.Notifier
	resetMailer mail.Notifier
	validator   *validate.Validator
	now         func() time.Time
}

// NewService creates a new authentication service. mailer delivers the
// verification e-mail synchronously during registration; it also delivers
// reset e-mails unless SetResetNotifier installs another notifier.
func NewService(db *gorm.DB, cfg config.Auth, baseURL string, mailer mail.Notifier) *Service {
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	return &Service{
		db:          db,
		users:       users.NewRepository(db),
		tokens:      tokens.NewRepository(db),
		config:      cfg,
		baseURL:     baseURL,
		mailer:      mailer,
		resetMailer: mailer,
		validator:   validate.New(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetResetNotifier replaces the notifier used for password reset e-mails,
// e.g. with a queue-backed one.
func (s *Service) SetResetNotifier(n mail.Notifier) {
	s.resetMailer = n
}

func (s *Service) minPasswordLength() int {
	if s.config.MinPasswordLength > 0 {
		return s.config.MinPasswordLength
	}
	return 6
}

// checkPassword applies the password policy, recording problems under field.
func (s *Service) checkPassword(errs *apperr.ValidationError, field, password string) {
	s.validator.Check(errs, field, password, fmt.Sprintf("min=%d", s.minPasswordLength()))
	// bcrypt counts bytes, not characters
	if len(password) > MaxPasswordBytes {
		errs.Add(field, fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
}

// Register creates a USER account, issues a verification token and sends the
// verification e-mail. The three steps succeed or fail together: if the
// e-mail cannot be delivered the account and token are deleted again and
// ErrMailDelivery is returned.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entities.User, error) {
	errs := apperr.NewValidationError()
	if err := s.validator.Struct(in); err != nil {
		v, ok := apperr.IsValidation(err)
		if !ok {
			return nil, err
		}
		errs = v
	}
	s.checkPassword(errs, "password", in.Password)
	if errs.HasErrors() {
		return nil, errs
	}

	hash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         entities.UserRoleUser,
	}

	var token string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)

		exists, err := userRepo.EmailExists(in.Email)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if exists {
			return apperr.Conflict("email", msgEmailInUse)
		}

		if err := userRepo.Create(user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		token, err = s.issue(tx, tokens.KindVerification, user.ID, s.verificationTTL())
		return err
	})
	if err != nil {
		return nil, err
	}

	// Sent after commit; a failed send removes the account again.
	msg, err := mail.VerificationMessage(user.Email, mail.VerificationLink(s.baseURL, token))
	if err == nil {
		if res := s.mailer.Send(ctx, msg); !res.Success {
			log.Printf("Registration of %s rolled back: %s", user.Email, res.Message)
			err = ErrMailDelivery
		}
	}
	if err != nil {
		if derr := s.discardAccount(user.ID); derr != nil {
			log.Printf("Failed to remove account %d after failed registration: %v", user.ID, derr)
		}
		return nil, err
	}

	return user, nil
}

// discardAccount deletes a just-registered account and its verification tokens.
func (s *Service) discardAccount(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.tokens.WithTx(tx).DeleteForUser(tokens.KindVerification, userID); err != nil {
			return err
		}
		return s.users.WithTx(tx).Delete(userID)
	})
}

// CreateUser creates an account directly (seed and CLI). verified marks the
// e-mail as already confirmed.
func (s *Service) CreateUser(name, email, password string, role entities.UserRole, verified bool) (*entities.User, error) {
	errs := apperr.NewValidationError()
	s.validator.Check(errs, "name", name, "required")
	s.validator.Check(errs, "email", email, "required,email,max=254")
	s.checkPassword(errs, "password", password)
	if role != entities.UserRoleUser && role != entities.UserRoleAdmin {
		errs.Add("role", "must be USER or ADMIN")
	}
	if errs.HasErrors() {
		return nil, errs
	}

	exists, err := s.users.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("email", msgEmailInUse)
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if verified {
		now := s.now()
		user.EmailVerified = &now
	}

	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// EnsureAdmin makes sure the configured admin account exists with the ADMIN
// role. It returns the account and whether it was created by this call. An
// empty e-mail in cfg is a no-op.
func (s *Service) EnsureAdmin(cfg config.Admin) (*entities.User, bool, error) {
	if cfg.Email == "" {
		return nil, false, nil
	}

	existing, err := s.users.GetByEmail(cfg.Email)
	if err == nil {
		updates := map[string]any{}
		if existing.Role != entities.UserRoleAdmin {
			updates["role"] = entities.UserRoleAdmin
			existing.Role = entities.UserRoleAdmin
		}
		if existing.EmailVerified == nil {
			now := s.now()
			updates["email_verified"] = now
			existing.EmailVerified = &now
		}
		if len(updates) > 0 {
			if err := s.users.Update(existing.ID, updates); err != nil {
				return nil, false, fmt.Errorf("failed to promote admin: %w", err)
			}
		}
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	if cfg.Password == "" {
		return nil, false, apperr.Invalid("password", "ADMIN_PASSWORD is required to create the admin account")
	}

	name := cfg.Name
	if name == "" {
		name = "Administrador"
	}
	user, err := s.CreateUser(name, cfg.Email, cfg.Password, entities.UserRoleAdmin, true)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Authenticate validates credentials and returns the user.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(email, password string) (*entities.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Check if account is locked
	if user.LockedUntil != nil && s.now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user)
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if s.config.RequireVerifiedEmail && !user.IsVerified() {
		return nil, ErrEmailNotVerified
	}

	// Successful login - reset failed attempts and update last login
	now := s.now()
	s.db.Model(user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
	user.LastLoginAt = &now

	return user, nil
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": user.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		lockedUntil := s.now().Add(lockoutDuration)
		updates["locked_until"] = lockedUntil
	}

	s.db.Model(user).Updates(updates)
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by e-mail address.
func (s *Service) GetUserByEmail(email string) (*entities.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ValidateToken checks a plaintext API token and returns the associated user.
// Returns ErrAPITokenExpired if the token is past its expiry time.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByTokenHash(HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if s.now().Sub(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrAPITokenExpired
		}
	}

	return user, nil
}

// GenerateToken creates a new API token for a user.
// Returns the plaintext token (show to user once) - only the hash is stored in DB.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": s.now(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrUserNotFound
	}

	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	err := s.users.Update(userID, map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ChangePassword updates a signed-in user's password after checking the
// current one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword, confirm string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	errs := apperr.NewValidationError()
	s.checkPassword(errs, "newPassword", newPassword)
	if newPassword != confirm {
		errs.Add("confirmPassword", msgPasswordMismatch)
	}
	if errs.HasErrors() {
		return errs
	}

	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return apperr.Invalid("currentPassword", "is incorrect")
		}
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.users.SetPasswordHash(user.ID, newHash)
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
