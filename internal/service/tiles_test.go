package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/joeblew999/plat-gold/internal/layers"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/pmtiles"
	"github.com/joeblew999/plat-gold/internal/region"
	"github.com/joeblew999/plat-gold/internal/tiler/gotiler"
)

func TestTileServiceExportAndList(t *testing.T) {
	data, err := mining.Generate(region.Regions()[:1], mining.NewSource(1), mining.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	bus := NewEventBus()
	events := bus.Subscribe()
	s := NewTileService(t.TempDir(), gotiler.New(), bus, nil)

	files, err := s.List()
	if err != nil || len(files) != 0 {
		t.Fatalf("List before export=%v,%v", files, err)
	}

	var steps []int
	file, err := s.Export(context.Background(), data, ExportOptions{
		Layer: string(layers.ConcessionsLayer), MinZoom: 5, MaxZoom: 7,
	}, func(p int, _ string) { steps = append(steps, p) })
	if err != nil {
		t.Fatal(err)
	}
	if file.Name != "ghanaGoldConcessionsLayer.pmtiles" || file.Bytes == 0 {
		t.Fatalf("file=%+v", file)
	}
	if len(steps) == 0 || steps[len(steps)-1] != 100 {
		t.Fatalf("progress=%v", steps)
	}
	if e := <-events; e.Resource != ResourceTiles || e.ID != file.Name {
		t.Fatalf("event=%+v", e)
	}

	path, err := s.Path(file.Name)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	h, _, _, err := pmtiles.ReadArchive(f)
	if err != nil {
		t.Fatal(err)
	}
	if h.MinZoom != 5 || h.MaxZoom != 7 {
		t.Fatalf("zooms=%d-%d", h.MinZoom, h.MaxZoom)
	}

	files, err = s.List()
	if err != nil || len(files) != 1 || files[0].Name != file.Name {
		t.Fatalf("List=%v,%v", files, err)
	}
}

func TestTileServiceExportErrors(t *testing.T) {
	s := NewTileService(t.TempDir(), gotiler.New(), nil, nil)
	_, err := s.Export(context.Background(), mining.Dataset{}, ExportOptions{Layer: "roads"}, nil)
	if !errors.Is(err, ErrUnknownLayer) {
		t.Fatalf("err=%v, want ErrUnknownLayer", err)
	}
	if _, err := s.Export(context.Background(), mining.Dataset{}, ExportOptions{Layer: string(layers.MinesLayer)}, nil); err == nil {
		t.Fatal("expected error for empty layer")
	}
	files, _ := s.List()
	if len(files) != 0 {
		t.Fatalf("failed export left files: %v", files)
	}
}

func TestTileServicePath(t *testing.T) {
	s := NewTileService(t.TempDir(), nil, nil, nil)
	for _, bad := range []string{"", "../x.pmtiles", "a/b.pmtiles", "x.geojson"} {
		if _, err := s.Path(bad); err == nil {
			t.Errorf("Path(%q) should fail", bad)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{512: "512 B", 2048: "2.0 KB", 5 << 20: "5.0 MB"}
	for in, want := range tests {
		if got := formatSize(in); got != want {
			t.Errorf("formatSize(%d)=%q, want %q", in, got, want)
		}
	}
}
