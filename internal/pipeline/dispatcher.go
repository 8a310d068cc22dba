package pipeline

import (
	"context"

	"github.com/arc-self/wifi-ingest-service/internal/event"
)

// Processor handles one source event end to end, including the final
// delivery-batcher flush for its file.
type Processor interface {
	Process(ctx context.Context, ev event.SourceEvent) error
}

// Dispatcher routes feed tags to processors. The registry is built once
// at startup and never mutated afterwards, so lookups need no locking.
type Dispatcher struct {
	routes map[string]Processor
	def    Processor
}

// NewDispatcher builds the immutable routing table. Unknown tags (and
// the empty tag) resolve to def.
func NewDispatcher(def Processor, routes map[string]Processor) *Dispatcher {
	copied := make(map[string]Processor, len(routes))
	for tag, p := range routes {
		copied[tag] = p
	}
	return &Dispatcher{routes: copied, def: def}
}

// Lookup returns the processor registered for tag, or the default.
func (d *Dispatcher) Lookup(tag string) Processor {
	if p, ok := d.routes[tag]; ok {
		return p
	}
	return d.def
}
