package entities

import "time"

// ReadingStatus is where a reader is with a book.
type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "QUERO_LER"
	StatusReading    ReadingStatus = "LENDO"
	StatusRead       ReadingStatus = "LIDO"
	StatusPaused     ReadingStatus = "PAUSADO"
	StatusAbandoned  ReadingStatus = "ABANDONADO"
)

// ReadingStatuses lists every status in display order.
var ReadingStatuses = []ReadingStatus{
	StatusWantToRead,
	StatusReading,
	StatusRead,
	StatusPaused,
	StatusAbandoned,
}

func (s ReadingStatus) Valid() bool {
	for _, known := range ReadingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Genre) TableName() string {
	return "genres"
}

type Book struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Title       string        `gorm:"index;size:512;not null" json:"title"`
	Author      string        `gorm:"index;size:256;not null" json:"author"`
	Year        *int          `json:"year"`
	Pages       *int          `json:"pages"`
	CurrentPage *int          `json:"currentPage"`
	Rating      *int          `json:"rating"`
	Synopsis    *string       `gorm:"type:text" json:"synopsis"`
	Cover       *string       `gorm:"size:2048" json:"cover"`
	Status      ReadingStatus `gorm:"index;size:20;default:'QUERO_LER'" json:"status"`
	ISBN        *string       `gorm:"index;size:20" json:"isbn"`
	GenreID     *uint         `gorm:"index" json:"genreId"`
	Genre       *Genre        `gorm:"foreignKey:GenreID" json:"genre,omitempty"`
	UserID      uint          `gorm:"index;not null" json:"userId"`
	User        User          `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func (Book) TableName() string {
	return "books"
}
