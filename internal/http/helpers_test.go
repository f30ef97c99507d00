package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	for _, value := range []string{"abc", "-1", "0", "1.5"} {
		t.Run(value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Params = gin.Params{{Key: "id", Value: value}}

			id, ok := parseIDParam(c, "id")

			assert.False(t, ok)
			assert.Equal(t, uint(0), id)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"VALIDATION_ERROR"`)
		})
	}
}

func TestBindObject(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"object", `{"title":"Duna","pages":688}`, true},
		{"array", `[1,2]`, false},
		{"null", `null`, false},
		{"empty", ``, false},
		{"broken", `{"title":`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			raw, ok := bindObject(c)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, "Duna", raw["title"])
				assert.Equal(t, float64(688), raw["pages"])
			} else {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		body string
	}{
		{fmt.Errorf("book 1: %w", apperr.ErrNotFound), http.StatusNotFound, `"code":"NOT_FOUND"`},
		{fmt.Errorf("book 1: %w", apperr.ErrForbidden), http.StatusForbidden, `"code":"FORBIDDEN"`},
		{apperr.Conflict("isbn", "already registered"), http.StatusConflict, `"code":"CONFLICT"`},
		{apperr.Invalid("title", "is required"), http.StatusBadRequest, `"title":["is required"]`},
		{errors.New("disk I/O error"), http.StatusInternalServerError, `"error":"internal server error"`},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/api/books/1", nil)

		respondError(c, tt.err)

		assert.Equal(t, tt.code, w.Code, tt.err.Error())
		assert.Contains(t, w.Body.String(), tt.body)
		assert.NotContains(t, w.Body.String(), "disk I/O")
	}
}

func TestActor(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(auth.ContextKeyUserID, uint(7))
	c.Set(auth.ContextKeyRole, entities.UserRoleAdmin)

	assert.Equal(t, library.Actor{UserID: 7, Role: entities.UserRoleAdmin}, actor(c))
}

func TestQueryInt(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=3&limit=x&neg=-2", nil)

	assert.Equal(t, 3, queryInt(c, "page", 1))
	assert.Equal(t, 25, queryInt(c, "limit", 25))
	assert.Equal(t, 1, queryInt(c, "neg", 1))
	assert.Equal(t, 9, queryInt(c, "missing", 9))
}
