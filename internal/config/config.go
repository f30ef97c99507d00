package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		App
		Database
		Auth
		Admin
		Mail
		GoogleBooks
		Covers
		Redis
		Tasks
		Maintenance
		Audit
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	App struct {
		BaseURL string // Used to build links in outgoing e-mails
	}
	Database struct {
		Driver   DatabaseDriver
		Path     string // SQLite file path
		DSN      string // Postgres connection string
		LogLevel string // silent, error, warn, info
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration // API bearer token lifetime
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		MinPasswordLength    int
		VerificationTokenTTL time.Duration
		ResetTokenTTL        time.Duration
		RequireVerifiedEmail bool

		// Rate limiting configuration
		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
	Admin struct {
		Email    string
		Password string
		Name     string
	}
	Mail struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	GoogleBooks struct {
		APIKey  string
		BaseURL string
	}
	Covers struct {
		Dir string
	}
	Redis struct {
		Addr     string
		Password string
		Channel  string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Maintenance struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Audit struct {
		RetentionDays int
	}
)

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// take precedence over it.
func NewConfig() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("app_base_url", DefaultBaseURL)

	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	// Auth defaults
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_bcrypt_cost", 10)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_min_password_length", 6)
	v.SetDefault("auth_verification_token_ttl", "24h")
	v.SetDefault("auth_reset_token_ttl", "1h")
	v.SetDefault("auth_require_verified_email", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("admin_name", "Administrador")

	v.SetDefault("email_server_port", 587)

	v.SetDefault("google_books_base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("covers_dir", "./covers")
	v.SetDefault("redis_invalidation_channel", "bookshelf:invalidate")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("maintenance_enabled", true)
	v.SetDefault("maintenance_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("audit_retention_days", 30)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		App: App{
			BaseURL: v.GetString("APP_BASE_URL"),
		},
		Database: Database{
			Driver:   DatabaseDriver(v.GetString("DATABASE_DRIVER")),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Auth: Auth{
			SessionSecret:        v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:      v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:          v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:           v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:        v.GetBool("AUTH_SECURE_COOKIES"),
			MinPasswordLength:    v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
			VerificationTokenTTL: v.GetDuration("AUTH_VERIFICATION_TOKEN_TTL"),
			ResetTokenTTL:        v.GetDuration("AUTH_RESET_TOKEN_TTL"),
			RequireVerifiedEmail: v.GetBool("AUTH_REQUIRE_VERIFIED_EMAIL"),
			MaxLoginAttempts:     v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:      v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:      v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Admin: Admin{
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
			Name:     v.GetString("ADMIN_NAME"),
		},
		Mail: Mail{
			Host:     v.GetString("EMAIL_SERVER_HOST"),
			Port:     v.GetInt("EMAIL_SERVER_PORT"),
			Username: v.GetString("EMAIL_SERVER_USER"),
			Password: v.GetString("EMAIL_SERVER_PASSWORD"),
			From:     v.GetString("EMAIL_FROM"),
		},
		GoogleBooks: GoogleBooks{
			APIKey:  v.GetString("GOOGLE_BOOKS_API_KEY"),
			BaseURL: v.GetString("GOOGLE_BOOKS_BASE_URL"),
		},
		Covers: Covers{
			Dir: v.GetString("COVERS_DIR"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			Channel:  v.GetString("REDIS_INVALIDATION_CHANNEL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Maintenance: Maintenance{
			Enabled:  v.GetBool("MAINTENANCE_ENABLED"),
			Schedule: v.GetString("MAINTENANCE_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
	}
}

// Configured reports whether every SMTP setting needed to send mail is present.
func (m Mail) Configured() bool {
	return m.Host != "" && m.Port != 0 && m.Username != "" && m.Password != "" && m.From != ""
}
