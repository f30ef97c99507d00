package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/library"
)

// CoversController handles book cover requests.
type CoversController struct {
	cache   *covers.Cache
	library *library.Service
}

// NewCoversController creates a new CoversController. cache may be nil, in
// which case requests are redirected to the remote image.
func NewCoversController(cache *covers.Cache, svc *library.Service) *CoversController {
	return &CoversController{
		cache:   cache,
		library: svc,
	}
}

// GetCover serves a cached book cover image.
// GET /api/books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := cc.library.Get(actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if book.Cover == nil || *book.Cover == "" {
		c.Status(http.StatusNotFound)
		return
	}
	coverURL := *book.Cover

	if cc.cache == nil {
		c.Redirect(http.StatusTemporaryRedirect, coverURL)
		return
	}

	cachePath, err := cc.cache.GetCover(c.Request.Context(), id, coverURL)
	if err != nil || cachePath == "" {
		if err != nil {
			log.Printf("Cover for book %d not cached: %v", id, err)
		}
		c.Redirect(http.StatusTemporaryRedirect, coverURL)
		return
	}

	c.Header("Cache-Control", "private, max-age=86400")
	c.File(cachePath)
}
