package auth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	msgRegistered      = "Conta criada. Verifique seu email para ativá-la."
	msgResetRequested  = "Se o email estiver registrado, você receberá um link para redefinir sua senha."
	msgPasswordReset   = "Sua senha foi redefinida com sucesso!"
	msgEmailVerified   = "Seu email foi verificado com sucesso!"
	msgPasswordChanged = "Senha alterada com sucesso."
	msgLoggedOut       = "Sessão encerrada."
)

// UserView is the public representation of an account.
type UserView struct {
	ID            uint              `json:"id"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	Role          entities.UserRole `json:"role"`
	EmailVerified *time.Time        `json:"emailVerified"`
	LastLoginAt   *time.Time        `json:"lastLoginAt,omitempty"`
	HasAPIToken   bool              `json:"hasApiToken"`
}

// NewUserView converts a user for output.
func NewUserView(u *entities.User) UserView {
	return UserView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		HasAPIToken:   u.TokenHash != "",
	}
}

// AuthController serves the account endpoints under /auth and /api.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	audit          *audit.Service
}

// NewAuthController creates the controller and its login rate limiter.
// auditService may be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, auditService *audit.Service, cfg config.Auth) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		audit:          auditService,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// RegisterRoutes registers the public account routes.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/auth")
	group.GET("/csrf", ac.CSRFToken)
	group.POST("/register", ac.Register)
	group.POST("/login", ac.rateLimiter.Middleware(), ac.Login)
	group.POST("/logout", ac.Logout)
	group.GET("/verify-email", ac.VerifyEmail)
	group.POST("/forgot-password", ac.ForgotPassword)
	group.GET("/reset-password", ac.CheckResetToken)
	group.POST("/reset-password", ac.ResetPassword)
}

// RegisterProfileRoutes registers the routes of the signed-in user.
func (ac *AuthController) RegisterProfileRoutes(api gin.IRouter) {
	api.GET("/me", ac.Me)
	api.POST("/profile/password", ac.ChangePassword)
}

// Stop cleans up the rate limiter goroutine.
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

func respondError(c *gin.Context, err error) {
	status, body := apperr.ToHTTP(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Invalid("body", "must be a valid JSON object"))
		return false
	}
	return true
}

// CSRFToken hands the CSRF token to browser clients.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrfToken": GetCSRFToken(c)})
}

// Register creates an account and sends the verification e-mail.
func (ac *AuthController) Register(c *gin.Context) {
	var in RegisterInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := ac.service.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	ac.logAccount(user.ID, "register", "Registered account "+user.Email, nil)
	c.JSON(http.StatusCreated, gin.H{
		"user":    NewUserView(user),
		"message": msgRegistered,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and starts a session.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	clientIP := c.ClientIP()

	user, err := ac.service.Authenticate(req.Email, req.Password)
	if err != nil {
		ac.loginFailed(c, clientIP, req.Email, err)
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, req.Email)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		respondError(c, err)
		return
	}

	ac.logAuth(user.ID, "login", c, true)
	c.JSON(http.StatusOK, gin.H{"user": NewUserView(user)})
}

func (ac *AuthController) loginFailed(c *gin.Context, clientIP, email string, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		ac.rateLimiter.RecordFailure(clientIP, email)
		ac.logAuth(0, "login", c, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou senha inválidos.", "code": "INVALID_CREDENTIALS"})
	case errors.Is(err, ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Conta bloqueada temporariamente. Tente novamente mais tarde.", "code": "ACCOUNT_LOCKED"})
	case errors.Is(err, ErrEmailNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"error": "Verifique seu email antes de entrar.", "code": "EMAIL_NOT_VERIFIED"})
	default:
		respondError(c, err)
	}
}

// Logout destroys the session.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := ac.sessionManager.GetUserID(c.Request)
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		respondError(c, err)
		return
	}
	if userID != 0 {
		ac.logAuth(userID, "logout", c, true)
	}
	c.JSON(http.StatusOK, gin.H{"message": msgLoggedOut})
}

// VerifyEmail redeems the token from the e-mailed link.
func (ac *AuthController) VerifyEmail(c *gin.Context) {
	userID, err := ac.service.VerifyEmail(c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	ac.logAccount(userID, "verify_email", "Verified email address", nil)
	c.JSON(http.StatusOK, gin.H{"message": msgEmailVerified})
}

// ForgotPassword issues a reset link. The answer is the same whether or not
// the address is registered.
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := ac.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgResetRequested})
}

// CheckResetToken lets the reset form find out early whether its token is
// still usable.
func (ac *AuthController) CheckResetToken(c *gin.Context) {
	if err := ac.service.CheckResetToken(c.Query("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetPassword redeems a reset token and sets the new password.
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, err := ac.service.ResetPassword(req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		respondError(c, err)
		return
	}

	ac.logAccount(userID, "reset_password", "Reset password with emailed token", nil)
	c.JSON(http.StatusOK, gin.H{"message": msgPasswordReset})
}

// Me returns the signed-in account.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"user": NewUserView(user), "authType": GetAuthType(c)}
	if data := ac.sessionManager.GetSessionData(c.Request); data != nil {
		resp["signedInAt"] = data.LoginAt
	}
	c.JSON(http.StatusOK, resp)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword replaces the signed-in user's password.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	userID := GetUserID(c)
	err := ac.service.ChangePassword(userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	ac.logAccount(userID, "change_password", "Changed password", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgPasswordChanged})
}

func (ac *AuthController) logAuth(userID uint, action string, c *gin.Context, success bool) {
	if ac.audit != nil {
		ac.audit.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
	}
}

func (ac *AuthController) logAccount(userID uint, action, description string, err error) {
	if ac.audit != nil {
		ac.audit.LogAccount(userID, action, description, err)
	}
}

// APITokenController handles API token management endpoints.
type APITokenController struct {
	service *Service
}

// NewAPITokenController creates a new API token controller.
func NewAPITokenController(service *Service) *APITokenController {
	return &APITokenController{service: service}
}

// RegisterRoutes registers the token routes on an authenticated group.
func (tc *APITokenController) RegisterRoutes(api gin.IRouter) {
	api.POST("/auth/token", tc.GenerateToken)
	api.DELETE("/auth/token", tc.RevokeToken)
}

// GenerateToken creates a new API token for the authenticated user.
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	token, err := tc.service.GenerateToken(GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken revokes the API token for the authenticated user.
func (tc *APITokenController) RevokeToken(c *gin.Context) {
	if err := tc.service.RevokeToken(GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
