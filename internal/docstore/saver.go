package docstore

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/bus"
	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/state"
)

// DefaultSaveInterval is the auto-save timer period.
const DefaultSaveInterval = 30 * time.Second

// Saver runs the auto-save loop: a fixed timer gated by the state
// store's dirty flag, plus one final save on shutdown. Saves are
// fire-and-forget, failures are logged and not retried.
type Saver struct {
	store    Store
	state    *state.Store
	bus      *bus.Bus
	interval time.Duration
}

// NewSaver creates an auto-saver; interval <= 0 uses
// DefaultSaveInterval.
func NewSaver(store Store, st *state.Store, b *bus.Bus, interval time.Duration) *Saver {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}
	return &Saver{store: store, state: st, bus: b, interval: interval}
}

// Run blocks until the context is cancelled, saving on each tick when
// the store is dirty and once more on the way out.
func (s *Saver) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SaveIfDirty(ctx)
		case <-ctx.Done():
			s.SaveIfDirty(context.Background())
			return
		}
	}
}

// SaveIfDirty persists a snapshot when the store changed since the last
// save.
func (s *Saver) SaveIfDirty(ctx context.Context) {
	if !s.state.Dirty() {
		return
	}
	s.Save(ctx)
}

// Save persists a snapshot unconditionally.
func (s *Saver) Save(ctx context.Context) {
	doc := s.state.Snapshot()
	if err := s.store.Save(ctx, doc); err != nil {
		log.Error().Err(err).Msg("workspace auto-save failed")
		return
	}
	s.state.ClearDirty()
	log.Debug().Int("layers", len(doc.Layers)).Msg("workspace saved")
	if s.bus != nil {
		s.bus.Publish(bus.Event{Kind: bus.WorkspaceSaved, Count: len(doc.Layers)})
	}
}
