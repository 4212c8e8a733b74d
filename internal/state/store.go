// Package state holds the single mutable workspace record: the layer map,
// display order, groups, selection state, the filter side table and a bag
// of transient UI values.
package state

import (
	"sync"
	"time"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

// Key names a subscribable slice of the store.
type Key string

const (
	KeyLayers      Key = "layers"
	KeyLayerOrder  Key = "layerOrder"
	KeyGroups      Key = "groups"
	KeyActiveGroup Key = "activeGroup"
	KeyFilters     Key = "filters"
	KeyTransient   Key = "transient"

	// KeyAll subscribers are notified on every non-silent write.
	KeyAll Key = "*"
)

// Filter is a per-layer display filter: a case-insensitive substring
// match of the stringified property value. It lives beside the layer, not
// inside it, so the underlying feature list is never touched.
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

type subscriber struct {
	id int
	fn func(Key)
}

// Store is the workspace state record. It performs no validation; the
// layer manager owns the semantics. Every non-silent write marks the
// store dirty for auto-persistence. Stored layers and groups never
// escape: reads return deep copies, and in-place changes go through the
// Update methods under the store lock.
type Store struct {
	mu               sync.RWMutex
	layers           map[string]*models.Layer
	layerOrder       []string
	groups           map[string]*models.LayerGroup
	groupOrder       []string
	allLayersGroupID string
	activeGroup      string
	filters          map[string]Filter
	transient        map[string]any

	subMu  sync.Mutex
	subs   map[Key][]subscriber
	nextID int

	dirtyMu sync.Mutex
	dirty   bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		layers:    make(map[string]*models.Layer),
		groups:    make(map[string]*models.LayerGroup),
		filters:   make(map[string]Filter),
		transient: make(map[string]any),
		subs:      make(map[Key][]subscriber),
	}
}

// Subscribe registers a callback for writes to the given key and returns
// an unsubscribe function. KeyAll receives every notification.
func (s *Store) Subscribe(key Key, fn func(Key)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs[key] = append(s.subs[key], subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		subs := s.subs[key]
		for i, sub := range subs {
			if sub.id == id {
				s.subs[key] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(key Key) {
	s.markDirty()

	s.subMu.Lock()
	fns := make([]func(Key), 0, len(s.subs[key])+len(s.subs[KeyAll]))
	for _, sub := range s.subs[key] {
		fns = append(fns, sub.fn)
	}
	for _, sub := range s.subs[KeyAll] {
		fns = append(fns, sub.fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

func (s *Store) markDirty() {
	s.dirtyMu.Lock()
	s.dirty = true
	s.dirtyMu.Unlock()
}

// Dirty reports whether the store changed since the last ClearDirty.
func (s *Store) Dirty() bool {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	return s.dirty
}

// ClearDirty resets the dirty flag, typically after a successful save.
func (s *Store) ClearDirty() {
	s.dirtyMu.Lock()
	s.dirty = false
	s.dirtyMu.Unlock()
}

// Layer returns a deep copy of the layer with the given id. Stored
// layers are only ever touched under the store's lock, so callers get
// copies to read and route changes through UpdateLayer.
func (s *Store) Layer(id string) (*models.Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers[id]
	if !ok {
		return nil, false
	}
	return l.Clone(), true
}

// Layers returns deep copies of all layers keyed by id.
func (s *Store) Layers() map[string]*models.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.Layer, len(s.layers))
	for id, l := range s.layers {
		out[id] = l.Clone()
	}
	return out
}

// UpdateLayer runs fn against the stored layer under the write lock.
// fn reports whether it changed anything; subscribers are only notified
// when it did. Returns false when the layer does not exist.
func (s *Store) UpdateLayer(id string, fn func(*models.Layer) bool) bool {
	s.mu.Lock()
	l, ok := s.layers[id]
	changed := false
	if ok {
		changed = fn(l)
	}
	s.mu.Unlock()
	if changed {
		s.notify(KeyLayers)
	}
	return ok
}

// LayerCount returns the number of layers.
func (s *Store) LayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// SetLayer inserts or replaces a layer. The store keeps its own copy;
// the caller's value stays independent.
func (s *Store) SetLayer(l *models.Layer) {
	s.mu.Lock()
	s.layers[l.ID] = l.Clone()
	s.mu.Unlock()
	s.notify(KeyLayers)
}

// DeleteLayer removes a layer from the map; absent ids are ignored.
func (s *Store) DeleteLayer(id string) {
	s.mu.Lock()
	delete(s.layers, id)
	s.mu.Unlock()
	s.notify(KeyLayers)
}

// LayerOrder returns a copy of the display-order list. Index 0 is
// visually topmost.
func (s *Store) LayerOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.layerOrder...)
}

// SetLayerOrder replaces the display-order list.
func (s *Store) SetLayerOrder(order []string) {
	s.mu.Lock()
	s.layerOrder = append([]string(nil), order...)
	s.mu.Unlock()
	s.notify(KeyLayerOrder)
}

// Group returns a deep copy of the group with the given id.
func (s *Store) Group(id string) (*models.LayerGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// Groups returns deep copies of all groups in creation order.
func (s *Store) Groups() []*models.LayerGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.LayerGroup, 0, len(s.groupOrder))
	for _, id := range s.groupOrder {
		if g, ok := s.groups[id]; ok {
			out = append(out, g.Clone())
		}
	}
	return out
}

// SetGroup inserts or replaces a group, preserving creation order. The
// store keeps its own copy.
func (s *Store) SetGroup(g *models.LayerGroup) {
	s.mu.Lock()
	if _, exists := s.groups[g.ID]; !exists {
		s.groupOrder = append(s.groupOrder, g.ID)
	}
	s.groups[g.ID] = g.Clone()
	s.mu.Unlock()
	s.notify(KeyGroups)
}

// UpdateGroup runs fn against the stored group under the write lock.
// fn reports whether it changed anything; subscribers are only notified
// when it did. Returns false when the group does not exist.
func (s *Store) UpdateGroup(id string, fn func(*models.LayerGroup) bool) bool {
	s.mu.Lock()
	g, ok := s.groups[id]
	changed := false
	if ok {
		changed = fn(g)
	}
	s.mu.Unlock()
	if changed {
		s.notify(KeyGroups)
	}
	return ok
}

// DeleteGroup removes a group; absent ids are ignored.
func (s *Store) DeleteGroup(id string) {
	s.mu.Lock()
	delete(s.groups, id)
	for i, gid := range s.groupOrder {
		if gid == id {
			s.groupOrder = append(s.groupOrder[:i], s.groupOrder[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify(KeyGroups)
}

// AllLayersGroupID returns the id of the reserved "All Layers" group.
func (s *Store) AllLayersGroupID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allLayersGroupID
}

// SetAllLayersGroupID records the reserved group id.
func (s *Store) SetAllLayersGroupID(id string) {
	s.mu.Lock()
	s.allLayersGroupID = id
	s.mu.Unlock()
	s.notify(KeyGroups)
}

// ActiveGroup returns the active group selector.
func (s *Store) ActiveGroup() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeGroup
}

// SetActiveGroup sets the active group selector.
func (s *Store) SetActiveGroup(id string) {
	s.mu.Lock()
	s.activeGroup = id
	s.mu.Unlock()
	s.notify(KeyActiveGroup)
}

// Filter returns the display filter for a layer.
func (s *Store) Filter(layerID string) (Filter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.filters[layerID]
	return f, ok
}

// SetFilter records a display filter for a layer.
func (s *Store) SetFilter(layerID string, f Filter) {
	s.mu.Lock()
	s.filters[layerID] = f
	s.mu.Unlock()
	s.notify(KeyFilters)
}

// ClearFilter removes a layer's display filter.
func (s *Store) ClearFilter(layerID string) {
	s.mu.Lock()
	delete(s.filters, layerID)
	s.mu.Unlock()
	s.notify(KeyFilters)
}

// Get returns a transient value, or nil when unset. Unknown keys are not
// an error; this is a typed bag, not a schema enforcer.
func (s *Store) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transient[key]
}

// Set writes a transient value. When silent, subscribers are not
// notified and the dirty flag is untouched.
func (s *Store) Set(key string, value any, silent bool) {
	s.mu.Lock()
	s.transient[key] = value
	s.mu.Unlock()
	if !silent {
		s.notify(KeyTransient)
	}
}

// Snapshot returns a deep copy of the persistable workspace state.
func (s *Store) Snapshot() *models.WorkspaceDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &models.WorkspaceDocument{
		Layers:           make(map[string]*models.Layer, len(s.layers)),
		LayerOrder:       append([]string(nil), s.layerOrder...),
		Groups:           make([]*models.LayerGroup, 0, len(s.groupOrder)),
		AllLayersGroupID: s.allLayersGroupID,
		ActiveGroup:      s.activeGroup,
		Timestamp:        time.Now().UnixMilli(),
	}
	for id, l := range s.layers {
		doc.Layers[id] = l.Clone()
	}
	for _, id := range s.groupOrder {
		if g, ok := s.groups[id]; ok {
			doc.Groups = append(doc.Groups, g.Clone())
		}
	}
	return doc
}

// Restore replaces the store contents with the document, silently; the
// caller resynchronizes the renderer and publishes its own notification.
func (s *Store) Restore(doc *models.WorkspaceDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layers = make(map[string]*models.Layer, len(doc.Layers))
	for id, l := range doc.Layers {
		s.layers[id] = l.Clone()
	}
	s.layerOrder = append([]string(nil), doc.LayerOrder...)
	s.groups = make(map[string]*models.LayerGroup, len(doc.Groups))
	s.groupOrder = s.groupOrder[:0]
	for _, g := range doc.Groups {
		s.groups[g.ID] = g.Clone()
		s.groupOrder = append(s.groupOrder, g.ID)
	}
	s.allLayersGroupID = doc.AllLayersGroupID
	s.activeGroup = doc.ActiveGroup
	s.filters = make(map[string]Filter)
}
