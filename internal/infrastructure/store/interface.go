package store

import "context"

// EventStoreInterface defines the interface for activity event stores
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	GetEvents(ctx context.Context, aggregateID string) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)
}

// Publisher forwards stored events to downstream consumers (Kafka, or an in-process projector)
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// ReadStoreInterface defines the interface for read model storage
type ReadStoreInterface interface {
	// Set stores a read model
	Set(collection, id string, data any)

	// Get retrieves a read model by id
	Get(collection, id string) (any, bool)

	// GetAll retrieves all items in a collection
	GetAll(collection string) []any

	// Upsert replaces a read model with the result of updateFn, creating it when absent
	Upsert(collection, id string, updateFn func(current any, found bool) any)
}
