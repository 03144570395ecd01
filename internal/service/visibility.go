package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joeblew999/plat-gold/internal/layers"
	"github.com/joeblew999/plat-gold/internal/observability"
)

// VisibilityStore is the shared layer on/off state, persisted to
// visibility.json in the data directory. Callers get snapshots, never the
// live map.
type VisibilityStore struct {
	dataDir string
	bus     *EventBus
	metrics *observability.Collector

	mu  sync.RWMutex
	vis layers.Visibility
}

// NewVisibilityStore loads stored state from dataDir. An empty dataDir keeps
// state in memory only.
func NewVisibilityStore(dataDir string, bus *EventBus, metrics *observability.Collector) *VisibilityStore {
	s := &VisibilityStore{
		dataDir: dataDir,
		bus:     bus,
		metrics: metrics,
		vis:     layers.Visibility{},
	}
	s.loadFromDisk()
	return s
}

// Snapshot returns the state for every layer with defaults applied.
func (s *VisibilityStore) Snapshot() layers.Visibility {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vis.Resolved()
}

// Get returns the state of one layer.
func (s *VisibilityStore) Get(id string) (bool, error) {
	lid, ok := layers.Parse(id)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vis.Resolve(lid), nil
}

// Set turns a layer on or off.
func (s *VisibilityStore) Set(id string, visible bool) (layers.Visibility, error) {
	lid, ok := layers.Parse(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	return s.update(lid, func(bool) bool { return visible })
}

// Toggle flips a layer and returns the new state.
func (s *VisibilityStore) Toggle(id string) (bool, error) {
	lid, ok := layers.Parse(id)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	vis, err := s.update(lid, func(cur bool) bool { return !cur })
	if err != nil {
		return false, err
	}
	return vis[lid], nil
}

// Reset restores the default table. A failed save keeps the previous state.
func (s *VisibilityStore) Reset() (layers.Visibility, error) {
	s.mu.Lock()
	prev := s.vis
	s.vis = layers.Visibility{}
	err := s.saveToDisk()
	if err != nil {
		s.vis = prev
	}
	snap := s.vis.Resolved()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.bus.Publish(Event{Resource: ResourceVisibility, Action: "reset"})
	return snap, nil
}

func (s *VisibilityStore) update(id layers.ID, next func(bool) bool) (layers.Visibility, error) {
	s.mu.Lock()
	stored, had := s.vis[id]
	prev := s.vis.Resolve(id)
	on := next(prev)
	s.vis[id] = on
	err := s.saveToDisk()
	if err != nil {
		if had {
			s.vis[id] = stored
		} else {
			delete(s.vis, id)
		}
	}
	snap := s.vis.Resolved()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if on != prev {
		s.metrics.RecordVisibilityChange(string(id))
		s.bus.Publish(Event{Resource: ResourceVisibility, Action: "updated", ID: string(id)})
	}
	return snap, nil
}

func (s *VisibilityStore) configFile() string {
	return filepath.Join(s.dataDir, "visibility.json")
}

// loadFromDisk reads stored state; a missing or unreadable file means
// defaults. Unknown ids in the file are dropped.
func (s *VisibilityStore) loadFromDisk() {
	if s.dataDir == "" {
		return
	}
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return
	}
	var stored map[string]bool
	if err := json.Unmarshal(data, &stored); err != nil {
		return
	}
	for k, v := range stored {
		if id, ok := layers.Parse(k); ok {
			s.vis[id] = v
		}
	}
}

func (s *VisibilityStore) saveToDisk() error {
	if s.dataDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.vis, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configFile(), data, 0644)
}
