package views

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/config"
)

type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Invalidate(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent(7, 42, ViewBooks, ViewDashboard)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, uint(7), ev.UserID)
	assert.Equal(t, uint(42), ev.BookID)
	assert.True(t, ev.Has(ViewBooks))
	assert.True(t, ev.Has(ViewDashboard))
	assert.False(t, ev.Has(ViewGenres))
	assert.NotEqual(t, ev.ID, NewEvent(7, 42).ID)
}

func TestBroadcaster_DeliversToEverySink(t *testing.T) {
	first := &recorder{err: errors.New("sink down")}
	second := &recorder{}
	b := NewBroadcaster(first)
	b.Add(second)

	err := b.Invalidate(context.Background(), NewEvent(1, 2, ViewBooks))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink down")
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1, "a failing sink must not stop the others")
}

func TestBroadcaster_Empty(t *testing.T) {
	assert.NoError(t, NewBroadcaster().Invalidate(context.Background(), NewEvent(1, 0)))
	assert.NoError(t, Nop.Invalidate(context.Background(), NewEvent(1, 0)))
}

type fakeCoverCache struct {
	invalidated []uint
	err         error
}

func (f *fakeCoverCache) InvalidateCover(bookID uint) error {
	f.invalidated = append(f.invalidated, bookID)
	return f.err
}

func TestCoverInvalidator(t *testing.T) {
	cache := &fakeCoverCache{}
	inv := NewCoverInvalidator(cache)

	require.NoError(t, inv.Invalidate(context.Background(), NewEvent(1, 0, ViewGenres)))
	require.NoError(t, inv.Invalidate(context.Background(), NewEvent(1, 9, ViewBooks)))
	assert.Equal(t, []uint{9}, cache.invalidated)

	cache.err = errors.New("permission denied")
	assert.Error(t, inv.Invalidate(context.Background(), NewEvent(1, 9, ViewBooks)))
}

func TestNewRedisPublisher_Disabled(t *testing.T) {
	p, err := NewRedisPublisher(config.Redis{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewRedisPublisher_Unreachable(t *testing.T) {
	_, err := NewRedisPublisher(config.Redis{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestRedisPublisher_Publishes(t *testing.T) {
	m := miniredis.RunT(t)
	ctx := context.Background()

	p, err := NewRedisPublisher(config.Redis{Addr: m.Addr(), Channel: "test:invalidate"})
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, "test:invalidate", p.Channel())

	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rdb.Close()
	sub := rdb.Subscribe(ctx, "test:invalidate")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	ev := NewEvent(3, 11, ViewBooks, ViewDashboard)
	require.NoError(t, p.Invalidate(ctx, ev))

	select {
	case msg := <-sub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, ev.ID, got.ID)
		assert.Equal(t, uint(11), got.BookID)
		assert.Equal(t, []string{ViewBooks, ViewDashboard}, got.Views)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisPublisher_DefaultChannel(t *testing.T) {
	m := miniredis.RunT(t)

	p, err := NewRedisPublisher(config.Redis{Addr: m.Addr()})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "bookshelf:invalidate", p.Channel())
}
