package http

import (
	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Library      *library.Service
	Genres       *library.GenreService
	AuditService *audit.Service

	// Authentication
	AuthService    *auth.Service
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager

	// CSRF protection is off when CSRFSecret is empty.
	CSRFSecret    []byte
	SecureCookies bool

	// Cover caching (optional)
	CoverCache *covers.Cache

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Dependencies reported by /health, keyed by name
	HealthChecks map[string]Pinger

	// Application info
	Version string
}
