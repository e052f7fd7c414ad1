package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventLog struct {
	events []store.Event
	err    error
}

func (f *fakeEventLog) Append(context.Context, string, string, string, any) (*store.Event, error) {
	return nil, errors.New("read only")
}

func (f *fakeEventLog) GetEvents(_ context.Context, aggregateID string) ([]store.Event, error) {
	var out []store.Event
	for _, e := range f.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, f.err
}

func (f *fakeEventLog) GetAllEvents(context.Context) ([]store.Event, error) {
	return append([]store.Event(nil), f.events...), f.err
}

func newActivityLog() *fakeEventLog {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return &fakeEventLog{events: []store.Event{
		{ID: "e1", AggregateID: "cart-a", EventType: "ItemAddedToCart", Timestamp: base},
		{ID: "e2", AggregateID: "5", EventType: "ProductSubmitted", Timestamp: base.Add(time.Minute)},
		{ID: "e3", AggregateID: "cart-a", EventType: "ItemQuantityChanged", Timestamp: base.Add(2 * time.Minute)},
	}}
}

func eventIDs(events []store.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

// ============================================
// Activity Query Tests
// ============================================

func TestActivityHandler_RecentNewestFirst(t *testing.T) {
	h := NewActivityHandler(newActivityLog(), nil)

	events, err := h.Recent(context.Background(), "", 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2", "e1"}, eventIDs(events))
}

func TestActivityHandler_RecentLimitAndAggregate(t *testing.T) {
	h := NewActivityHandler(newActivityLog(), nil)

	events, err := h.Recent(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2"}, eventIDs(events))

	events, err = h.Recent(context.Background(), "cart-a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e1"}, eventIDs(events))

	events, err = h.Recent(context.Background(), "missing", 0)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestActivityHandler_ReadError(t *testing.T) {
	log := newActivityLog()
	log.err = errors.New("database down")
	h := NewActivityHandler(log, nil)

	_, err := h.Recent(context.Background(), "", 0)

	assert.ErrorContains(t, err, "database down")
}
