package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase_SeedsGenres(t *testing.T) {
	db := setupTestDB(t)

	var count int64
	require.NoError(t, db.DB.Model(&entities.Genre{}).Count(&count).Error)
	assert.Equal(t, int64(len(DefaultGenres)), count)

	var genre entities.Genre
	require.NoError(t, db.DB.Where("name = ?", "Ficção Científica").First(&genre).Error)
	assert.NotZero(t, genre.ID)
}

func TestSeedGenres_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SeedGenres())
	require.NoError(t, db.SeedGenres())

	var count int64
	require.NoError(t, db.DB.Model(&entities.Genre{}).Count(&count).Error)
	assert.Equal(t, int64(len(DefaultGenres)), count)
}

func TestNewDatabase_PostgresRequiresDSN(t *testing.T) {
	_, err := NewDatabase(config.Database{Driver: config.DriverPostgres})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DSN")
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase(config.Database{Driver: "oracle"})
	require.Error(t, err)
}

func TestDatabase_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}
