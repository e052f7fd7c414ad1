package projection

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"go.uber.org/zap"
)

// Projector folds activity events into per-product popularity counters
type Projector struct {
	readStore store.ReadStoreInterface
	logger    *zap.Logger
}

func NewProjector(readStore store.ReadStoreInterface, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{readStore: readStore, logger: logger.Named("projector")}
}

// HandleEvent matches kafka.MessageHandler
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	p.logger.Debug("received event",
		zap.String("event_type", event.EventType),
		zap.String("aggregate_type", event.AggregateType),
		zap.String("aggregate_id", event.AggregateID),
	)

	switch event.AggregateType {
	case cart.AggregateType:
		return p.handleCartEvent(event)
	case product.AggregateType:
		return p.handleProductEvent(event)
	}

	return nil
}

func (p *Projector) handleCartEvent(event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.update(strconv.Itoa(e.ProductID), e.AddedAt, func(m *readmodel.ProductPopularityReadModel) {
			if e.Title != "" {
				m.Title = e.Title
			}
			m.TimesAdded++
			m.UnitsAdded += e.Quantity
		})

	case cart.EventItemQuantityChanged:
		var e cart.ItemQuantityChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if delta := e.NewQuantity - e.OldQuantity; delta > 0 {
			p.update(strconv.Itoa(e.ProductID), e.ChangedAt, func(m *readmodel.ProductPopularityReadModel) {
				m.UnitsAdded += delta
			})
		}

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.update(strconv.Itoa(e.ProductID), e.RemovedAt, func(m *readmodel.ProductPopularityReadModel) {
			m.TimesRemoved++
		})
	}

	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	if event.EventType != product.EventProductSubmitted {
		return nil
	}

	var e product.ProductSubmitted
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}
	if !e.OK || e.ProductID == "" {
		return nil
	}

	p.update(e.ProductID, e.SubmittedAt, func(m *readmodel.ProductPopularityReadModel) {
		m.AdminSubmissions++
		switch e.Operation {
		case product.OperationDelete:
			m.Deleted = true
		case product.OperationUpdate:
			if e.Title != "" {
				m.Title = e.Title
			}
		}
	})
	return nil
}

func (p *Projector) update(productID string, at time.Time, fn func(m *readmodel.ProductPopularityReadModel)) {
	p.readStore.Upsert(readmodel.CollectionPopularity, productID, func(current any, found bool) any {
		// Stored models are replaced, never mutated, so readers may hold them without locking.
		next := readmodel.ProductPopularityReadModel{ProductID: productID}
		if found {
			next = *current.(*readmodel.ProductPopularityReadModel)
		}
		fn(&next)
		if at.After(next.LastActivityAt) {
			next.LastActivityAt = at
		}
		return &next
	})
}
