package library

import (
	"fmt"
	"math"
	"sort"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	topRatedLimit = 5
	topRatedMin   = 4
	recentLimit   = 5
)

// Overview holds the collection-wide counters.
type Overview struct {
	TotalBooks      int     `json:"totalBooks"`
	ReadingNow      int     `json:"readingNow"`
	FinishedBooks   int     `json:"finishedBooks"`
	WantToRead      int     `json:"wantToRead"`
	Paused          int     `json:"paused"`
	Abandoned       int     `json:"abandoned"`
	TotalPagesRead  int     `json:"totalPagesRead"`
	AverageProgress float64 `json:"averageProgress"`
}

// GenreStats counts a genre's books overall and by reading state.
type GenreStats struct {
	Total    int `json:"total"`
	Finished int `json:"finished"`
	Reading  int `json:"reading"`
}

// BookSummary is the short form of a book shown in dashboard lists.
type BookSummary struct {
	ID     uint                   `json:"id"`
	Title  string                 `json:"title"`
	Author string                 `json:"author"`
	Rating *int                   `json:"rating,omitempty"`
	Status entities.ReadingStatus `json:"status,omitempty"`
	Genre  string                 `json:"genre,omitempty"`
}

// Dashboard is the statistics payload of GET /api/dashboard.
type Dashboard struct {
	Overview      Overview                       `json:"overview"`
	StatusStats   map[entities.ReadingStatus]int `json:"statusStats"`
	GenreStats    map[string]GenreStats          `json:"genreStats"`
	TopRatedBooks []BookSummary                  `json:"topRatedBooks"`
	RecentBooks   []BookSummary                  `json:"recentBooks"`
}

// Dashboard computes the statistics of the actor's whole collection.
func (s *Service) Dashboard(actor Actor) (*Dashboard, error) {
	all, err := s.books.AllForUser(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	return Aggregate(all), nil
}

// Aggregate computes dashboard statistics over books ordered by ID.
func Aggregate(books []entities.Book) *Dashboard {
	d := &Dashboard{
		StatusStats:   make(map[entities.ReadingStatus]int, len(entities.ReadingStatuses)),
		GenreStats:    map[string]GenreStats{},
		TopRatedBooks: []BookSummary{},
		RecentBooks:   []BookSummary{},
	}
	for _, status := range entities.ReadingStatuses {
		d.StatusStats[status] = 0
	}

	var progressSum float64
	var progressCount int

	for _, b := range books {
		d.StatusStats[b.Status]++

		switch b.Status {
		case entities.StatusRead:
			d.Overview.TotalPagesRead += intOrZero(b.Pages)
		case entities.StatusReading:
			d.Overview.TotalPagesRead += intOrZero(b.CurrentPage)
			if b.Pages != nil && b.CurrentPage != nil && *b.Pages > 0 {
				progressSum += float64(*b.CurrentPage) / float64(*b.Pages) * 100
				progressCount++
			}
		}

		if b.Genre != nil {
			g := d.GenreStats[b.Genre.Name]
			g.Total++
			switch b.Status {
			case entities.StatusRead:
				g.Finished++
			case entities.StatusReading:
				g.Reading++
			}
			d.GenreStats[b.Genre.Name] = g
		}
	}

	d.Overview.TotalBooks = len(books)
	d.Overview.WantToRead = d.StatusStats[entities.StatusWantToRead]
	d.Overview.ReadingNow = d.StatusStats[entities.StatusReading]
	d.Overview.FinishedBooks = d.StatusStats[entities.StatusRead]
	d.Overview.Paused = d.StatusStats[entities.StatusPaused]
	d.Overview.Abandoned = d.StatusStats[entities.StatusAbandoned]
	if progressCount > 0 {
		d.Overview.AverageProgress = math.Round(progressSum/float64(progressCount)*100) / 100
	}

	var rated []entities.Book
	for _, b := range books {
		if b.Rating != nil && *b.Rating >= topRatedMin {
			rated = append(rated, b)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return *rated[i].Rating > *rated[j].Rating
	})
	for i := 0; i < len(rated) && i < topRatedLimit; i++ {
		d.TopRatedBooks = append(d.TopRatedBooks, summarize(rated[i], true))
	}

	for i := len(books) - 1; i >= 0 && len(d.RecentBooks) < recentLimit; i-- {
		d.RecentBooks = append(d.RecentBooks, summarize(books[i], false))
	}

	return d
}

func summarize(b entities.Book, withRating bool) BookSummary {
	out := BookSummary{ID: b.ID, Title: b.Title, Author: b.Author}
	if withRating {
		out.Rating = b.Rating
	} else {
		out.Status = b.Status
	}
	if b.Genre != nil {
		out.Genre = b.Genre.Name
	}
	return out
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
