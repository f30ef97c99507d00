package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/library"
)

type GenresController struct {
	genres *library.GenreService
}

func NewGenresController(genres *library.GenreService) *GenresController {
	return &GenresController{genres: genres}
}

// List handles GET /api/genres. Each genre carries its book count.
func (gc *GenresController) List(c *gin.Context) {
	list, err := gc.genres.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": list})
}

type createGenreRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/genres
func (gc *GenresController) Create(c *gin.Context) {
	var req createGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "body", "must be a valid JSON object")
		return
	}

	genre, err := gc.genres.Create(c.Request.Context(), actor(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, genre)
}

// Delete handles DELETE /api/genres/:name
func (gc *GenresController) Delete(c *gin.Context) {
	if err := gc.genres.Delete(c.Request.Context(), actor(c), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, "genre deleted")
}
