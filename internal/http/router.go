package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(cfg.AuthMiddleware.Handler())

	health := NewHealthController(cfg.Version, cfg.HealthChecks)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	cfg.AuthController.RegisterRoutes(router)

	api := router.Group("/api")
	cfg.AuthController.RegisterProfileRoutes(api)
	auth.NewAPITokenController(cfg.AuthService).RegisterRoutes(api)

	NewBooksController(cfg.Library, cfg.TaskClient).RegisterRoutes(api)

	coversController := NewCoversController(cfg.CoverCache, cfg.Library)
	api.GET("/books/:id/cover", coversController.GetCover)

	genresController := NewGenresController(cfg.Genres)
	adminOnly := cfg.AuthMiddleware.RequireRole(entities.UserRoleAdmin)
	api.GET("/genres", genresController.List)
	api.POST("/genres", adminOnly, genresController.Create)
	api.DELETE("/genres/:name", adminOnly, genresController.Delete)

	api.GET("/dashboard", NewDashboardController(cfg.Library).Get)

	if cfg.AuditService != nil {
		api.GET("/audit", NewAuditController(cfg.AuditService).GetAuditEvents)
	}

	if cfg.TaskClient != nil {
		api.GET("/tasks/:id", NewTasksController(cfg.TaskClient).GetTaskStatus)
	}

	return router
}
