// Package views tells interested parties that cached renderings of a user's
// data are stale.
//
// The library service emits an Event after every successful write. A
// Broadcaster fans the event out to the configured sinks: the Redis
// publisher for connected front ends and the cover cache for the book's
// image. Delivery is best effort; a failing sink never undoes a write.
package views

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// View names carried by events.
const (
	ViewBooks     = "books"
	ViewDashboard = "dashboard"
	ViewGenres    = "genres"
)

// Event names the views that must be refreshed for one user.
type Event struct {
	ID     string    `json:"id"`
	UserID uint      `json:"userId"`
	BookID uint      `json:"bookId,omitempty"`
	Views  []string  `json:"views"`
	At     time.Time `json:"at"`
}

// NewEvent builds an event with a fresh ID. bookID may be 0.
func NewEvent(userID, bookID uint, views ...string) Event {
	return Event{
		ID:     uuid.NewString(),
		UserID: userID,
		BookID: bookID,
		Views:  views,
		At:     time.Now().UTC(),
	}
}

// Has reports whether the event covers view.
func (e Event) Has(view string) bool {
	for _, v := range e.Views {
		if v == view {
			return true
		}
	}
	return false
}

type Invalidator interface {
	Invalidate(ctx context.Context, ev Event) error
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, ev Event) error

func (f InvalidatorFunc) Invalidate(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Nop discards every event.
var Nop Invalidator = InvalidatorFunc(func(context.Context, Event) error { return nil })

// Broadcaster delivers each event to every sink, in order, and joins the
// errors of the sinks that failed.
type Broadcaster struct {
	sinks []Invalidator
}

func NewBroadcaster(sinks ...Invalidator) *Broadcaster {
	return &Broadcaster{sinks: sinks}
}

// Add registers another sink. It is not safe to call concurrently with
// Invalidate.
func (b *Broadcaster) Add(sink Invalidator) {
	b.sinks = append(b.sinks, sink)
}

func (b *Broadcaster) Invalidate(ctx context.Context, ev Event) error {
	var errs []error
	for _, sink := range b.sinks {
		if err := sink.Invalidate(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
