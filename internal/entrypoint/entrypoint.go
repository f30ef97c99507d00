package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/genres"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/mail"
	"github.com/mrlokans/bookshelf/internal/metadata"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
	"github.com/mrlokans/bookshelf/internal/views"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -9 can't be caught, so only SIGINT and SIGTERM are handled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before the background workers go away
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// CSRFSecret derives the CSRF key from the configured session secret.
// A hex secret is decoded; anything else is used as raw bytes. When no
// secret is configured a random one is generated for this process.
func CSRFSecret(sessionSecret string) ([]byte, error) {
	if sessionSecret != "" {
		secret, err := hex.DecodeString(sessionSecret)
		if err != nil {
			return []byte(sessionSecret), nil
		}
		return secret, nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(generated)
}

// CoverCacheDir returns the configured cover directory, or a covers/
// directory next to the SQLite database.
func CoverCacheDir(cfg *config.Config) string {
	if cfg.Covers.Dir != "" {
		return cfg.Covers.Dir
	}
	return filepath.Join(filepath.Dir(cfg.Database.Path), "covers")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookshelf v%s", version)

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	smtpSender := mail.NewSMTPSender(cfg.Mail)
	authService := auth.NewService(db.DB, cfg.Auth, cfg.App.BaseURL, smtpSender)

	if admin, created, err := authService.EnsureAdmin(cfg.Admin); err != nil {
		log.Printf("WARNING: Failed to bootstrap admin account: %v", err)
	} else if created {
		log.Printf("Created admin account %s", admin.Email)
	}
	if hasUsers, _ := authService.HasUsers(); !hasUsers {
		log.Printf("No users found. Register through /auth/register or run the create-admin command.")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Database.Driver, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	authMiddleware := auth.NewMiddleware(authService, sessionManager)
	authController := auth.NewAuthController(authService, sessionManager, auditService, cfg.Auth)

	csrfSecret, err := CSRFSecret(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatalf("%v", err)
	}

	lookup := metadata.NewChain(
		metadata.Provider{Name: "googlebooks", Lookup: metadata.NewGoogleBooksClient(cfg.GoogleBooks)},
		metadata.Provider{Name: "openlibrary", Lookup: metadata.NewOpenLibraryClient()},
	)

	coverCacheDir := CoverCacheDir(cfg)
	coverCache, err := covers.NewCache(coverCacheDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", coverCacheDir)
	}

	var sinks []views.Invalidator
	redisPublisher, err := views.NewRedisPublisher(cfg.Redis)
	if err != nil {
		log.Printf("WARNING: Redis view publisher disabled: %v", err)
		redisPublisher = nil
	}
	if redisPublisher != nil {
		sinks = append(sinks, redisPublisher)
		log.Printf("Publishing view invalidations to redis channel %s", redisPublisher.Channel())
	}
	if coverCache != nil {
		sinks = append(sinks, views.NewCoverInvalidator(coverCache))
	}
	broadcaster := views.NewBroadcaster(sinks...)

	bookRepo := books.NewRepository(db.DB)
	genreRepo := genres.NewRepository(db.DB)

	libraryService := library.NewService(bookRepo, genreRepo)
	libraryService.SetMetadataLookup(lookup)
	libraryService.SetInvalidator(broadcaster)
	libraryService.SetAuditService(auditService)

	genreService := library.NewGenreService(genreRepo)
	genreService.SetInvalidator(broadcaster)
	genreService.SetAuditService(auditService)

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewSendEmailQueue(smtpSender),
			tasks.NewPurgeExpiredTokensQueue(authService),
			tasks.NewCleanupAuditEventsQueue(auditService),
			tasks.NewEnrichBookQueue(libraryService),
		)

		// Password reset mails leave the request path once workers exist
		authService.SetResetNotifier(tasks.NewQueuedNotifier(taskClient))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	maintenance := scheduler.NewMaintenanceScheduler(cfg.Maintenance, cfg.Audit.RetentionDays, authService, auditService)
	maintenance.SetAuditService(auditService)
	if taskClient != nil {
		maintenance.SetQueue(taskClient)
	}
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if err := maintenance.Start(schedulerCtx); err != nil {
		log.Printf("WARNING: Maintenance scheduler not started: %v", err)
	}

	healthChecks := map[string]http_controllers.Pinger{"database": db}
	if redisPublisher != nil {
		healthChecks["redis"] = redisPublisher
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Library:        libraryService,
		Genres:         genreService,
		AuditService:   auditService,
		AuthService:    authService,
		AuthController: authController,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		CoverCache:     coverCache,
		TaskClient:     taskClient,
		HealthChecks:   healthChecks,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		maintenance.Stop()
		schedulerCancel()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		authController.Stop()
		auditService.Wait()
		if redisPublisher != nil {
			if err := redisPublisher.Close(); err != nil {
				log.Printf("Error closing redis publisher: %v", err)
			}
		}
	}

	Serve(router, cfg, onShutdown)
}
