package query

import (
	"context"
	"sort"

	"github.com/example/storefront/internal/infrastructure/store"
	"go.uber.org/zap"
)

// ActivityHandler reads the audit trail of cart and admin activity
type ActivityHandler struct {
	events store.EventStoreInterface
	logger *zap.Logger
}

func NewActivityHandler(events store.EventStoreInterface, logger *zap.Logger) *ActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityHandler{events: events, logger: logger.Named("activity")}
}

// Recent returns the newest events first, for one aggregate when aggregateID is set.
// limit <= 0 means all.
func (h *ActivityHandler) Recent(ctx context.Context, aggregateID string, limit int) ([]store.Event, error) {
	var (
		events []store.Event
		err    error
	)
	if aggregateID != "" {
		events, err = h.events.GetEvents(ctx, aggregateID)
	} else {
		events, err = h.events.GetAllEvents(ctx)
	}
	if err != nil {
		h.logger.Error("failed to read activity", zap.String("aggregate_id", aggregateID), zap.Error(err))
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	if events == nil {
		events = []store.Event{}
	}
	return events, nil
}
