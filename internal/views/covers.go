package views

import (
	"context"
	"fmt"
)

// CoverCache is the part of the cover cache that invalidation needs.
type CoverCache interface {
	InvalidateCover(bookID uint) error
}

// CoverInvalidator drops the cached image of the book an event refers to.
type CoverInvalidator struct {
	cache CoverCache
}

func NewCoverInvalidator(cache CoverCache) *CoverInvalidator {
	return &CoverInvalidator{cache: cache}
}

func (c *CoverInvalidator) Invalidate(_ context.Context, ev Event) error {
	if ev.BookID == 0 {
		return nil
	}
	if err := c.cache.InvalidateCover(ev.BookID); err != nil {
		return fmt.Errorf("invalidate cover of book %d: %w", ev.BookID, err)
	}
	return nil
}
