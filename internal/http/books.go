package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// BooksController serves the reader's catalog under /api/books.
type BooksController struct {
	library    *library.Service
	taskClient *tasks.Client
}

// NewBooksController creates a BooksController. taskClient may be nil, in
// which case enrichment always runs inline.
func NewBooksController(svc *library.Service, taskClient *tasks.Client) *BooksController {
	return &BooksController{library: svc, taskClient: taskClient}
}

// RegisterRoutes registers the book routes on an authenticated group.
func (bc *BooksController) RegisterRoutes(api gin.IRouter) {
	api.GET("/books", bc.List)
	api.POST("/books", bc.Create)
	api.GET("/books/:id", bc.Get)
	api.PUT("/books/:id", bc.Update)
	api.PATCH("/books/:id", bc.Update)
	api.DELETE("/books/:id", bc.Delete)
	api.POST("/books/:id/enrich", bc.Enrich)
	api.GET("/isbn/:isbn", bc.LookupISBN)
}

// List handles GET /api/books with the title, author, genre, status, isbn,
// year, pages, page and limit query parameters.
func (bc *BooksController) List(c *gin.Context) {
	page, err := bc.library.List(actor(c), library.ListParamsFromQuery(c.Request.URL.Query()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create handles POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}

	book, err := bc.library.Create(c.Request.Context(), actor(c), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, book)
}

// Get handles GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.library.Get(actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// Update handles PUT and PATCH /api/books/:id. Both are partial: fields left
// out of the body keep their value, null clears them.
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	raw, ok := bindObject(c)
	if !ok {
		return
	}

	book, err := bc.library.Update(c.Request.Context(), actor(c), id, raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete handles DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.library.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, "book deleted")
}

// Enrich handles POST /api/books/:id/enrich. With ?async=true and a task
// queue available the work is enqueued and the task ID returned.
func (bc *BooksController) Enrich(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	a := actor(c)

	if c.Query("async") == "true" && bc.taskClient != nil {
		// Fail fast on books the caller does not own.
		book, err := bc.library.Get(a, id)
		if err == nil && book.UserID != a.UserID {
			err = fmt.Errorf("book %d: %w", id, apperr.ErrForbidden)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		taskID, err := bc.taskClient.Enqueue(tasks.EnrichBookTask{BookID: id, UserID: a.UserID, Role: a.Role})
		if err != nil {
			respondError(c, err)
			return
		}
		respondAccepted(c, "enrichment queued", gin.H{"taskId": taskID})
		return
	}

	result, err := bc.library.Enrich(c.Request.Context(), a, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// LookupISBN handles GET /api/isbn/:isbn and returns catalog data for the
// create form.
func (bc *BooksController) LookupISBN(c *gin.Context) {
	meta, err := bc.library.LookupISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}
