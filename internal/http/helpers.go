package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/library"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse = apperr.Body

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// actor identifies the authenticated caller for the library services.
func actor(c *gin.Context) library.Actor {
	return library.Actor{UserID: auth.GetUserID(c), Role: auth.GetUserRole(c)}
}

// --- Error Response Helpers ---

// respondError maps a service error to its status code and envelope. Only
// unexpected failures are logged; their message never reaches the client.
func respondError(c *gin.Context, err error) {
	status, body := apperr.ToHTTP(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error (%s %s): %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

// respondBadRequest sends a 400 with a single field error.
func respondBadRequest(c *gin.Context, field, message string) {
	respondError(c, apperr.Invalid(field, message))
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Request Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, paramName, "must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// bindObject decodes a JSON object body into a raw field map for the
// services' own coercion rules.
func bindObject(c *gin.Context) (map[string]any, bool) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil || raw == nil {
		respondBadRequest(c, "body", "must be a valid JSON object")
		return nil, false
	}
	return raw, true
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}
