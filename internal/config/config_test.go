package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 6, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 24*time.Hour, cfg.Auth.VerificationTokenTTL)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.True(t, cfg.Auth.RequireVerifiedEmail)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "0 * * * *", cfg.Maintenance.Schedule)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=localhost user=books")
	t.Setenv("AUTH_RESET_TOKEN_TTL", "30m")
	t.Setenv("APP_BASE_URL", "https://books.example.com")
	t.Setenv("EMAIL_SERVER_PORT", "465")

	cfg := NewConfig()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "host=localhost user=books", cfg.Database.DSN)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, "https://books.example.com", cfg.App.BaseURL)
	assert.Equal(t, 465, cfg.Mail.Port)
}

func TestMail_Configured(t *testing.T) {
	full := Mail{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "books@example.com"}
	assert.True(t, full.Configured())

	missingFrom := full
	missingFrom.From = ""
	assert.False(t, missingFrom.Configured())

	assert.False(t, Mail{}.Configured())
}
