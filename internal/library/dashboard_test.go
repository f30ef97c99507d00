package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func intPtr(v int) *int { return &v }

func TestAggregate_TotalPagesRead(t *testing.T) {
	d := Aggregate([]entities.Book{
		{ID: 1, Title: "Lido", Status: entities.StatusRead, Pages: intPtr(300)},
		{ID: 2, Title: "Lendo", Status: entities.StatusReading, CurrentPage: intPtr(120)},
		{ID: 3, Title: "Pausado", Status: entities.StatusPaused, Pages: intPtr(500), CurrentPage: intPtr(80)},
	})

	assert.Equal(t, 420, d.Overview.TotalPagesRead)
}

func TestAggregate_Counts(t *testing.T) {
	d := Aggregate([]entities.Book{
		{ID: 1, Status: entities.StatusRead},
		{ID: 2, Status: entities.StatusRead},
		{ID: 3, Status: entities.StatusReading},
		{ID: 4, Status: entities.StatusWantToRead},
		{ID: 5, Status: entities.StatusAbandoned},
	})

	assert.Equal(t, 5, d.Overview.TotalBooks)
	assert.Equal(t, 2, d.Overview.FinishedBooks)
	assert.Equal(t, 1, d.Overview.ReadingNow)
	assert.Equal(t, 1, d.Overview.WantToRead)
	assert.Equal(t, 0, d.Overview.Paused)
	assert.Equal(t, 1, d.Overview.Abandoned)
	assert.Equal(t, 0, d.StatusStats[entities.StatusPaused], "every status is reported")
	assert.Len(t, d.StatusStats, 5)
}

func TestAggregate_AverageProgress(t *testing.T) {
	d := Aggregate([]entities.Book{
		{ID: 1, Status: entities.StatusReading, Pages: intPtr(300), CurrentPage: intPtr(100)},
		{ID: 2, Status: entities.StatusReading, Pages: intPtr(200), CurrentPage: intPtr(100)},
		{ID: 3, Status: entities.StatusReading, Pages: intPtr(200)},                          // no current page
		{ID: 4, Status: entities.StatusReading, Pages: intPtr(0), CurrentPage: intPtr(10)},   // no page count
		{ID: 5, Status: entities.StatusPaused, Pages: intPtr(100), CurrentPage: intPtr(100)}, // not reading
	})

	// (33.333... + 50) / 2
	assert.Equal(t, 41.67, d.Overview.AverageProgress)
}

func TestAggregate_Genres(t *testing.T) {
	scifi := &entities.Genre{ID: 1, Name: "Ficção Científica"}
	poetry := &entities.Genre{ID: 2, Name: "Poesia"}

	d := Aggregate([]entities.Book{
		{ID: 1, Status: entities.StatusRead, Genre: scifi},
		{ID: 2, Status: entities.StatusReading, Genre: scifi},
		{ID: 3, Status: entities.StatusWantToRead, Genre: scifi},
		{ID: 4, Status: entities.StatusRead, Genre: poetry},
		{ID: 5, Status: entities.StatusRead},
	})

	assert.Equal(t, map[string]GenreStats{
		"Ficção Científica": {Total: 3, Finished: 1, Reading: 1},
		"Poesia":            {Total: 1, Finished: 1},
	}, d.GenreStats)
}

func TestAggregate_TopRatedAndRecent(t *testing.T) {
	var all []entities.Book
	ratings := []int{4, 5, 3, 5, 4, 4, 5}
	for i, r := range ratings {
		all = append(all, entities.Book{ID: uint(i + 1), Title: "Livro", Rating: intPtr(r), Status: entities.StatusRead})
	}
	all = append(all, entities.Book{ID: 8, Title: "Sem nota"})

	d := Aggregate(all)

	require.Len(t, d.TopRatedBooks, 5)
	var ids []uint
	for _, b := range d.TopRatedBooks {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []uint{2, 4, 7, 1, 5}, ids)

	require.Len(t, d.RecentBooks, 5)
	assert.Equal(t, uint(8), d.RecentBooks[0].ID)
	assert.Equal(t, uint(4), d.RecentBooks[4].ID)
}

func TestAggregate_Empty(t *testing.T) {
	d := Aggregate(nil)

	assert.Zero(t, d.Overview.TotalBooks)
	assert.Zero(t, d.Overview.AverageProgress)
	assert.NotNil(t, d.TopRatedBooks)
	assert.NotNil(t, d.RecentBooks)
}

func TestDashboard_ScopedToActor(t *testing.T) {
	f := setup(t)
	f.create(t, owner, map[string]any{"title": "Duna", "author": "Frank Herbert", "status": "LIDO", "pages": float64(300)})
	f.create(t, owner, map[string]any{"title": "Fundação", "author": "Isaac Asimov", "status": "LENDO", "currentPage": float64(120)})
	f.create(t, stranger, map[string]any{"title": "Neuromancer", "author": "William Gibson", "status": "LIDO", "pages": float64(999)})

	d, err := f.svc.Dashboard(owner)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Overview.TotalBooks)
	assert.Equal(t, 420, d.Overview.TotalPagesRead)
}
