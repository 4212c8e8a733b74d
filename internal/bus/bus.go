// Package bus is a synchronous publish/subscribe register for workspace
// mutation events.
package bus

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// Kind names an event.
type Kind string

const (
	LayerCreated    Kind = "layer.created"
	LayerDeleted    Kind = "layer.deleted"
	LayerRenamed    Kind = "layer.renamed"
	LayerMoved      Kind = "layer.moved"
	LayerUpdated    Kind = "layer.updated"
	FeatureAdded    Kind = "feature.added"
	FeatureUpdated  Kind = "feature.updated"
	FeatureDeleted  Kind = "feature.deleted"
	GroupCreated    Kind = "group.created"
	GroupDeleted    Kind = "group.deleted"
	GroupRenamed    Kind = "group.renamed"
	GroupUpdated    Kind = "group.updated"
	FilterApplied   Kind = "filter.applied"
	FilterCleared   Kind = "filter.cleared"
	WorkspaceLoaded Kind = "workspace.loaded"
	WorkspaceSaved  Kind = "workspace.saved"
)

// Event is a tagged mutation notification with a fixed payload shape.
// Only the fields relevant to the Kind are populated; snapshot fields
// carry deep copies so listeners cannot mutate live state.
type Event struct {
	Kind      Kind               `json:"kind"`
	LayerID   string             `json:"layerId,omitempty"`
	GroupID   string             `json:"groupId,omitempty"`
	FeatureID string             `json:"featureId,omitempty"`
	Name      string             `json:"name,omitempty"`
	Count     int                `json:"count,omitempty"`
	Layer     *models.Layer      `json:"layer,omitempty"`
	Group     *models.LayerGroup `json:"group,omitempty"`
	Feature   *models.Feature    `json:"feature,omitempty"`
}

// Handler receives published events.
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus delivers events synchronously to all handlers registered for the
// event's kind and to all wildcard handlers. A panicking handler is
// logged and does not stop delivery to the rest.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind][]subscription
	all    []subscription
	nextID int
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

// Subscribe registers a handler for one event kind and returns its
// unsubscribe function.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[kind]
		for i, s := range subs {
			if s.id == id {
				b.subs[kind] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers a handler for every event kind.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.all {
			if s.id == id {
				b.all = append(b.all[:i], b.all[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event synchronously to matching handlers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Kind])+len(b.all))
	for _, s := range b.subs[e.Kind] {
		handlers = append(handlers, s.handler)
	}
	for _, s := range b.all {
		handlers = append(handlers, s.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(e, h)
	}
}

func (b *Bus) deliver(e Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("event", string(e.Kind)).Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	h(e)
}
