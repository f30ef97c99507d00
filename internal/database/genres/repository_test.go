package genres

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "genres.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Genre{}, &entities.Book{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db), db
}

func TestRepository_ListWithCounts(t *testing.T) {
	repo, db := setupTestDB(t)

	horror := &entities.Genre{Name: "Horror"}
	fantasy := &entities.Genre{Name: "Fantasia"}
	require.NoError(t, repo.Create(horror))
	require.NoError(t, repo.Create(fantasy))

	for _, title := range []string{"It", "Carrie"} {
		require.NoError(t, db.Create(&entities.Book{Title: title, Author: "Stephen King", UserID: 1, GenreID: &horror.ID}).Error)
	}

	list, err := repo.ListWithCounts()
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "Fantasia", list[0].Name)
	assert.Zero(t, list[0].BookCount)
	assert.Equal(t, "Horror", list[1].Name)
	assert.Equal(t, int64(2), list[1].BookCount)
}

func TestRepository_CreateDuplicate(t *testing.T) {
	repo, _ := setupTestDB(t)

	require.NoError(t, repo.Create(&entities.Genre{Name: "Poesia"}))
	assert.Error(t, repo.Create(&entities.Genre{Name: "Poesia"}))
}

func TestRepository_DeleteByName_Unreferenced(t *testing.T) {
	repo, _ := setupTestDB(t)
	require.NoError(t, repo.Create(&entities.Genre{Name: "Ensaio"}))

	require.NoError(t, repo.DeleteByName("Ensaio"))

	_, err := repo.GetByName("Ensaio")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_DeleteByName_Referenced(t *testing.T) {
	repo, db := setupTestDB(t)
	genre := &entities.Genre{Name: "Distopia"}
	require.NoError(t, repo.Create(genre))
	require.NoError(t, db.Create(&entities.Book{Title: "1984", Author: "George Orwell", UserID: 1, GenreID: &genre.ID}).Error)

	err := repo.DeleteByName("Distopia")
	assert.ErrorIs(t, err, ErrInUse)

	exists, err := repo.Exists(genre.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_DeleteByName_Missing(t *testing.T) {
	repo, _ := setupTestDB(t)
	assert.ErrorIs(t, repo.DeleteByName("Inexistente"), gorm.ErrRecordNotFound)
}
