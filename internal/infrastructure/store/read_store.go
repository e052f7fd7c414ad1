package store

import (
	"sync"
)

// ReadStore is an in-memory read model store
type ReadStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any // collection -> id -> data
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		data: make(map[string]map[string]any),
	}
}

// Set stores a read model
func (rs *ReadStore) Set(collection, id string, data any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.collection(collection)[id] = data
}

// Get retrieves a read model by id
func (rs *ReadStore) Get(collection, id string) (any, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	data, ok := rs.data[collection][id]
	return data, ok
}

// GetAll retrieves all items in a collection
func (rs *ReadStore) GetAll(collection string) []any {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	items := make([]any, 0, len(rs.data[collection]))
	for _, item := range rs.data[collection] {
		items = append(items, item)
	}
	return items
}

// Upsert replaces a read model with the result of updateFn, creating it when absent
func (rs *ReadStore) Upsert(collection, id string, updateFn func(current any, found bool) any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	c := rs.collection(collection)
	current, ok := c[id]
	c[id] = updateFn(current, ok)
}

// collection must be called with mu held for writing
func (rs *ReadStore) collection(name string) map[string]any {
	if rs.data[name] == nil {
		rs.data[name] = make(map[string]any)
	}
	return rs.data[name]
}
