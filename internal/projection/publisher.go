package projection

import (
	"context"
	"encoding/json"
)

// DirectPublisher hands events straight to a projector in-process, for running without Kafka
type DirectPublisher struct {
	projector *Projector
}

func NewDirectPublisher(projector *Projector) *DirectPublisher {
	return &DirectPublisher{projector: projector}
}

// Publish implements store.Publisher
func (d *DirectPublisher) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return d.projector.HandleEvent(ctx, []byte(key), data)
}
