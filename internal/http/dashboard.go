package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/library"
)

type DashboardController struct {
	library *library.Service
}

func NewDashboardController(svc *library.Service) *DashboardController {
	return &DashboardController{library: svc}
}

// Get handles GET /api/dashboard
func (dc *DashboardController) Get(c *gin.Context) {
	d, err := dc.library.Dashboard(actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
