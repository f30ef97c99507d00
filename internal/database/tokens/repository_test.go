package tokens

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tokens.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.EmailVerificationToken{}, &entities.PasswordResetToken{})
	require.NoError(t, err)

	return NewRepository(db)
}

func TestRepository_CreateAndFind(t *testing.T) {
	repo := setupTestDB(t)
	expires := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	require.NoError(t, repo.Create(KindReset, Record{Token: "reset-1", Expires: expires, UserID: 7}))

	rec, err := repo.Find(KindReset, "reset-1")
	require.NoError(t, err)
	assert.Equal(t, "reset-1", rec.Token)
	assert.Equal(t, uint(7), rec.UserID)
	assert.True(t, rec.Expires.Equal(expires))

	// The kinds live in separate tables.
	_, err = repo.Find(KindVerification, "reset-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Create(KindVerification, Record{Token: "verify-1", Expires: time.Now().UTC().Add(time.Hour), UserID: 1}))

	n, err := repo.Delete(KindVerification, "verify-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(KindVerification, "verify-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepository_DeleteForUser(t *testing.T) {
	repo := setupTestDB(t)
	exp := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.Create(KindReset, Record{Token: "a", Expires: exp, UserID: 1}))
	require.NoError(t, repo.Create(KindReset, Record{Token: "b", Expires: exp, UserID: 1}))
	require.NoError(t, repo.Create(KindReset, Record{Token: "c", Expires: exp, UserID: 2}))

	n, err := repo.DeleteForUser(KindReset, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := repo.CountForUser(KindReset, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_PurgeExpired(t *testing.T) {
	repo := setupTestDB(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Create(KindVerification, Record{Token: "old-v", Expires: now.Add(-time.Hour), UserID: 1}))
	require.NoError(t, repo.Create(KindVerification, Record{Token: "new-v", Expires: now.Add(time.Hour), UserID: 1}))
	require.NoError(t, repo.Create(KindReset, Record{Token: "old-r", Expires: now.Add(-time.Minute), UserID: 1}))

	verification, reset, err := repo.PurgeExpired(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), verification)
	assert.Equal(t, int64(1), reset)

	_, err = repo.Find(KindVerification, "new-v")
	assert.NoError(t, err)
	_, err = repo.Find(KindVerification, "old-v")
	assert.Error(t, err)
}

func TestRecord_Expired(t *testing.T) {
	now := time.Now()
	assert.True(t, Record{Expires: now.Add(-time.Second)}.Expired(now))
	assert.False(t, Record{Expires: now.Add(time.Second)}.Expired(now))
}
