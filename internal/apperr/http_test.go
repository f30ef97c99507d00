package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", Invalid("title", "is required"), http.StatusBadRequest, CodeValidation},
		{"not found", fmt.Errorf("book 9: %w", ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"conflict field", Conflict("isbn", "already in your library"), http.StatusConflict, CodeConflict},
		{"forbidden", fmt.Errorf("%w: not your book", ErrForbidden), http.StatusForbidden, CodeForbidden},
		{"expired", fmt.Errorf("%w: token expired", ErrExpired), http.StatusGone, CodeExpired},
		{"transport", fmt.Errorf("%w: smtp", ErrTransport), http.StatusInternalServerError, CodeInternal},
		{"unknown", errors.New("database is locked"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestToHTTP_HidesInternalMessage(t *testing.T) {
	_, body := ToHTTP(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", body.Error)
	assert.Nil(t, body.Details)
}

func TestToHTTP_ValidationDetails(t *testing.T) {
	v := NewValidationError()
	v.Add("rating", "must be at most 5")

	_, body := ToHTTP(v)
	assert.Equal(t, map[string][]string{"rating": {"must be at most 5"}}, body.Details)
}
