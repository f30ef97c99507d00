package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/config"
)

const volumeJSON = `{
  "totalItems": 1,
  "items": [{
    "volumeInfo": {
      "title": "Duna",
      "authors": ["Frank Herbert", "Maria do Carmo Zanini"],
      "publisher": "Aleph",
      "publishedDate": "2017-05-02",
      "description": "Arrakis, o planeta deserto.",
      "pageCount": 680,
      "categories": ["Fiction"],
      "imageLinks": {"thumbnail": "http://books.google.com/thumb.jpg"}
    }
  }]
}`

func TestGoogleBooks_LookupByISBN(t *testing.T) {
	var gotQuery, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(volumeJSON))
	}))
	defer server.Close()

	client := NewGoogleBooksClient(config.GoogleBooks{APIKey: "k123", BaseURL: server.URL + "/"})
	md, err := client.LookupByISBN(context.Background(), "978-85-7657-313-5")
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, "isbn:9788576573135", gotQuery)
	assert.Equal(t, "k123", gotKey)

	assert.Equal(t, "Duna", md.Title)
	assert.Equal(t, "Frank Herbert, Maria do Carmo Zanini", md.Author)
	assert.Equal(t, 2017, md.Year)
	assert.Equal(t, 680, md.Pages)
	assert.Equal(t, "Fiction", md.Genre)
	assert.Equal(t, "http://books.google.com/thumb.jpg", md.Cover)
	assert.Equal(t, "Arrakis, o planeta deserto.", md.Synopsis)
	assert.Equal(t, "googlebooks", md.Source)
}

func TestGoogleBooks_NoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalItems":0}`))
	}))
	defer server.Close()

	md, err := NewGoogleBooksClient(config.GoogleBooks{BaseURL: server.URL}).LookupByISBN(context.Background(), "9780000000000")
	require.NoError(t, err)
	assert.Nil(t, md)
}

func TestGoogleBooks_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items": [`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewGoogleBooksClient(config.GoogleBooks{BaseURL: server.URL}).LookupByISBN(context.Background(), "9780000000000")
			assert.True(t, errors.Is(err, apperr.ErrTransport), "got %v", err)
		})
	}
}

func TestGoogleBooks_InvalidISBNSkipsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	md, err := NewGoogleBooksClient(config.GoogleBooks{BaseURL: server.URL}).LookupByISBN(context.Background(), "12")
	require.NoError(t, err)
	assert.Nil(t, md)
	assert.False(t, called)
}
