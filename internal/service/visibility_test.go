package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeblew999/plat-gold/internal/layers"
)

func TestVisibilityStoreDefaults(t *testing.T) {
	s := NewVisibilityStore("", nil, nil)
	vis := s.Snapshot()
	if vis[layers.TransactionsLayer] || !vis[layers.ConcessionsLayer] || !vis[layers.MinesLayer] || !vis[layers.HeatmapLayerID] {
		t.Fatalf("defaults=%v", vis)
	}

	vis[layers.TransactionsLayer] = true
	if s.Snapshot()[layers.TransactionsLayer] {
		t.Fatal("Snapshot leaked the live map")
	}
}

func TestVisibilityStoreSetToggle(t *testing.T) {
	bus := NewEventBus()
	events := bus.Subscribe()
	s := NewVisibilityStore(t.TempDir(), bus, nil)

	vis, err := s.Set(string(layers.TransactionsLayer), true)
	if err != nil {
		t.Fatal(err)
	}
	if !vis[layers.TransactionsLayer] {
		t.Fatal("transactions should be visible")
	}
	if e := <-events; e.Resource != ResourceVisibility || e.ID != string(layers.TransactionsLayer) {
		t.Fatalf("event=%+v", e)
	}

	// Setting the same value publishes nothing.
	if _, err := s.Set(string(layers.TransactionsLayer), true); err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("unexpected event for no-op set")
	}

	on, err := s.Toggle(string(layers.HeatmapLayerID))
	if err != nil {
		t.Fatal(err)
	}
	if on {
		t.Fatal("toggling default-visible heatmap should hide it")
	}
	if got, _ := s.Get(string(layers.HeatmapLayerID)); got {
		t.Fatal("Get disagrees with Toggle")
	}
}

func TestVisibilityStoreUnknownLayer(t *testing.T) {
	s := NewVisibilityStore("", nil, nil)
	if _, err := s.Set("roads", true); !errors.Is(err, ErrUnknownLayer) {
		t.Fatalf("Set err=%v", err)
	}
	if _, err := s.Toggle("roads"); !errors.Is(err, ErrUnknownLayer) {
		t.Fatalf("Toggle err=%v", err)
	}
	if _, err := s.Get("roads"); !errors.Is(err, ErrUnknownLayer) {
		t.Fatalf("Get err=%v", err)
	}
}

func TestVisibilityStorePersists(t *testing.T) {
	dir := t.TempDir()
	s := NewVisibilityStore(dir, nil, nil)
	if _, err := s.Set(string(layers.MinesLayer), false); err != nil {
		t.Fatal(err)
	}

	reopened := NewVisibilityStore(dir, nil, nil)
	if reopened.Snapshot()[layers.MinesLayer] {
		t.Fatal("mines visibility not persisted")
	}

	if _, err := reopened.Reset(); err != nil {
		t.Fatal(err)
	}
	if !NewVisibilityStore(dir, nil, nil).Snapshot()[layers.MinesLayer] {
		t.Fatal("reset not persisted")
	}
}

func TestVisibilityStoreResetFailureKeepsState(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s := NewVisibilityStore(dir, nil, nil)
	if _, err := s.Set(string(layers.MinesLayer), false); err != nil {
		t.Fatal(err)
	}

	// A file where the data directory should be makes every save fail.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reset(); err == nil {
		t.Fatal("expected save error")
	}
	if on, _ := s.Get(string(layers.MinesLayer)); on {
		t.Fatal("failed reset cleared stored state")
	}
}

func TestVisibilityStoreIgnoresBadFile(t *testing.T) {
	dir := t.TempDir()
	body := `{"ghanaGoldTransactionsLayer": true, "roads": true}`
	if err := os.WriteFile(filepath.Join(dir, "visibility.json"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	vis := NewVisibilityStore(dir, nil, nil).Snapshot()
	if !vis[layers.TransactionsLayer] {
		t.Fatal("stored transactions state not loaded")
	}
	if len(vis) != 4 {
		t.Fatalf("snapshot has %d entries, want 4", len(vis))
	}

	if err := os.WriteFile(filepath.Join(dir, "visibility.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if NewVisibilityStore(dir, nil, nil).Snapshot()[layers.TransactionsLayer] {
		t.Fatal("corrupt file should fall back to defaults")
	}
}
