package library

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/validate"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListParams are the raw listing parameters as received from a query string.
type ListParams struct {
	Title  string
	Author string
	Genre  string
	Status string
	ISBN   string
	Year   string
	Pages  string
	Page   string
	Limit  string
}

// ListParamsFromQuery reads the listing parameters from URL values.
func ListParamsFromQuery(q url.Values) ListParams {
	return ListParams{
		Title:  q.Get("title"),
		Author: q.Get("author"),
		Genre:  q.Get("genre"),
		Status: q.Get("status"),
		ISBN:   q.Get("isbn"),
		Year:   q.Get("year"),
		Pages:  q.Get("pages"),
		Page:   q.Get("page"),
		Limit:  q.Get("limit"),
	}
}

// Page is one page of a listing.
type Page struct {
	Items      []entities.Book `json:"items"`
	TotalCount int64           `json:"totalCount"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
	HasNext    bool            `json:"hasNext"`
	HasPrev    bool            `json:"hasPrev"`
}

// EmptyPage is the result returned alongside a rejected query.
func EmptyPage() Page {
	return Page{Items: []entities.Book{}, Page: DefaultPage, Limit: DefaultLimit}
}

func newPage(items []entities.Book, total int64, page, limit int) Page {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{
		Items:      items,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

type listQuery struct {
	filter books.Filter
	page   int
	limit  int
}

func (q listQuery) offset() int {
	return (q.page - 1) * q.limit
}

// parse validates every parameter and reports all failures at once.
func (p ListParams) parse(v *validate.Validator) (listQuery, error) {
	errs := apperr.NewValidationError()
	q := listQuery{
		filter: books.Filter{
			Title:  p.Title,
			Author: p.Author,
			Genre:  p.Genre,
			ISBN:   strings.TrimSpace(p.ISBN),
		},
		page:  DefaultPage,
		limit: DefaultLimit,
	}

	if n, ok := parseInt(errs, "page", p.Page); ok && v.Check(errs, "page", n, "min=1") {
		q.page = n
	}
	if n, ok := parseInt(errs, "limit", p.Limit); ok && v.Check(errs, "limit", n, "min=1,max=100") {
		q.limit = n
	}
	if n, ok := parseInt(errs, "year", p.Year); ok && v.Check(errs, "year", n, "bookyear") {
		q.filter.Year = &n
	}
	if n, ok := parseInt(errs, "pages", p.Pages); ok && v.Check(errs, "pages", n, "gt=0") {
		q.filter.Pages = &n
	}
	if status := strings.TrimSpace(p.Status); status != "" {
		if v.Check(errs, "status", status, "readingstatus") {
			q.filter.Status = entities.ReadingStatus(status)
		}
	}

	return q, errs.OrNil()
}

// parseInt reports false both for an empty value and for a malformed one;
// only the latter records an error.
func parseInt(errs *apperr.ValidationError, field, raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs.Add(field, "must be a whole number")
		return 0, false
	}
	return n, true
}
