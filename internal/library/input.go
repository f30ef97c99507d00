package library

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// BookInput is a sanitized book payload. A nil field was either absent or
// explicitly cleared; Has tells the two apart.
type BookInput struct {
	Title       *string                 `json:"title" validate:"omitempty,min=2,max=512"`
	Author      *string                 `json:"author" validate:"omitempty,min=2,max=256"`
	Year        *int                    `json:"year" validate:"omitempty,bookyear"`
	Pages       *int                    `json:"pages" validate:"omitempty,gt=0"`
	CurrentPage *int                    `json:"currentPage" validate:"omitempty,gte=0"`
	Rating      *int                    `json:"rating" validate:"omitempty,min=1,max=5"`
	Synopsis    *string                 `json:"synopsis"`
	Cover       *string                 `json:"cover" validate:"omitempty,url,max=2048"`
	Status      *entities.ReadingStatus `json:"status" validate:"omitempty,readingstatus"`
	ISBN        *string                 `json:"isbn" validate:"omitempty,max=20"`
	GenreID     *int                    `json:"genreId" validate:"omitempty,gt=0"`

	present map[string]bool
}

// Field names as they appear in requests, in column order.
var bookFields = []string{
	"title", "author", "year", "pages", "currentPage", "rating",
	"synopsis", "cover", "status", "isbn", "genreId",
}

var bookColumns = map[string]string{
	"currentPage": "current_page",
	"genreId":     "genre_id",
}

// Has reports whether field was sent, including as null.
func (in *BookInput) Has(field string) bool {
	return in.present[field]
}

// Fields lists the fields that were sent.
func (in *BookInput) Fields() []string {
	out := make([]string, 0, len(in.present))
	for _, f := range bookFields {
		if in.present[f] {
			out = append(out, f)
		}
	}
	return out
}

// ParseBookInput sanitizes and coerces a loosely typed payload. Empty
// strings and "none" count as null. Numbers may arrive as JSON numbers or
// numeric strings. Unknown keys are ignored.
func ParseBookInput(raw map[string]any) (*BookInput, error) {
	in := &BookInput{present: map[string]bool{}}
	errs := apperr.NewValidationError()

	for _, field := range bookFields {
		value, ok := raw[field]
		if !ok {
			continue
		}
		in.present[field] = true
		value = sanitize(value)
		if value == nil {
			continue
		}

		switch field {
		case "title":
			in.Title = stringField(errs, field, value)
		case "author":
			in.Author = stringField(errs, field, value)
		case "synopsis":
			in.Synopsis = stringField(errs, field, value)
		case "cover":
			in.Cover = stringField(errs, field, value)
		case "isbn":
			in.ISBN = stringField(errs, field, value)
		case "status":
			if s := stringField(errs, field, value); s != nil {
				status := entities.ReadingStatus(*s)
				in.Status = &status
			}
		case "year":
			in.Year = intField(errs, field, value)
		case "pages":
			in.Pages = intField(errs, field, value)
		case "currentPage":
			in.CurrentPage = intField(errs, field, value)
		case "rating":
			in.Rating = intField(errs, field, value)
		case "genreId":
			in.GenreID = intField(errs, field, value)
		}
	}

	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return in, nil
}

func sanitize(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return nil
	}
	return s
}

func stringField(errs *apperr.ValidationError, field string, value any) *string {
	s, ok := value.(string)
	if !ok {
		errs.Add(field, "must be a string")
		return nil
	}
	return &s
}

func intField(errs *apperr.ValidationError, field string, value any) *int {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case int:
		return &v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			errs.Add(field, "must be a number")
			return nil
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs.Add(field, "must be a number")
			return nil
		}
		f = n
	default:
		errs.Add(field, "must be a number")
		return nil
	}

	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		errs.Add(field, "must be a whole number")
		return nil
	}
	n := int(f)
	return &n
}

// applyTo copies every sent field onto a new book.
func (in *BookInput) applyTo(book *entities.Book) {
	book.Title = deref(in.Title)
	book.Author = deref(in.Author)
	book.Year = in.Year
	book.Pages = in.Pages
	book.CurrentPage = in.CurrentPage
	book.Rating = in.Rating
	book.Synopsis = in.Synopsis
	book.Cover = in.Cover
	book.ISBN = in.ISBN
	if in.Status != nil {
		book.Status = *in.Status
	}
	if in.GenreID != nil {
		id := uint(*in.GenreID)
		book.GenreID = &id
	}
}

// columns maps the sent fields to column updates. Cleared fields become
// NULL, except status which falls back to QUERO_LER.
func (in *BookInput) columns() map[string]any {
	values := map[string]any{
		"title":       ptrValue(in.Title),
		"author":      ptrValue(in.Author),
		"year":        ptrValue(in.Year),
		"pages":       ptrValue(in.Pages),
		"currentPage": ptrValue(in.CurrentPage),
		"rating":      ptrValue(in.Rating),
		"synopsis":    ptrValue(in.Synopsis),
		"cover":       ptrValue(in.Cover),
		"isbn":        ptrValue(in.ISBN),
		"status":      string(entities.StatusWantToRead),
		"genreId":     nil,
	}
	if in.Status != nil {
		values["status"] = string(*in.Status)
	}
	if in.GenreID != nil {
		values["genreId"] = uint(*in.GenreID)
	}

	cols := make(map[string]any)
	for _, field := range in.Fields() {
		column := field
		if c, ok := bookColumns[field]; ok {
			column = c
		}
		cols[column] = values[field]
	}
	return cols
}

func ptrValue[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
