package eventbus

import (
	"context"
	"log"

	"github.com/formforge/formforge/internal/event"
)

// LogConsumer logs every domain event for observability.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	entities := make([]string, len(evt.AffectedEntities))
	for i, ref := range evt.AffectedEntities {
		id := ref.EntityID
		if len(id) > 8 {
			id = id[:8]
		}
		entities[i] = ref.EntityType + ":" + id
	}
	log.Printf("event: %s %s entities=%v", evt.EventType, evt.Summary, entities)
	return nil
}
