package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/joeblew999/plat-gold/internal/layers"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/observability"
	"github.com/joeblew999/plat-gold/internal/tiler"
)

// ExportOptions selects what TileService.Export renders.
type ExportOptions struct {
	Layer   string `json:"layer" required:"true" doc:"Layer id to export" example:"ghanaGoldConcessionsLayer"`
	MinZoom int    `json:"minZoom" minimum:"0" maximum:"14" default:"4" doc:"Minimum zoom level"`
	MaxZoom int    `json:"maxZoom" minimum:"0" maximum:"14" default:"10" doc:"Maximum zoom level"`
}

// ProgressFunc receives coarse progress updates during an export.
type ProgressFunc func(progress int, status string)

// TileService exports layers to PMTiles files and lists them.
type TileService struct {
	tilesDir string
	engine   tiler.Tiler
	bus      *EventBus
	metrics  *observability.Collector
}

// NewTileService stores archives under dataDir/tiles.
func NewTileService(dataDir string, engine tiler.Tiler, bus *EventBus, metrics *observability.Collector) *TileService {
	return &TileService{
		tilesDir: filepath.Join(dataDir, "tiles"),
		engine:   engine,
		bus:      bus,
		metrics:  metrics,
	}
}

// TilesDir returns the path to the tiles directory.
func (s *TileService) TilesDir() string {
	return s.tilesDir
}

// List returns the exported archives sorted by name.
func (s *TileService) List() ([]TileFile, error) {
	entries, err := os.ReadDir(s.tilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TileFile{}, nil
		}
		return nil, err
	}

	files := []TileFile{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pmtiles" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, TileFile{
			Name:    entry.Name(),
			Size:    formatSize(info.Size()),
			Bytes:   info.Size(),
			ModTime: info.ModTime().UTC(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Path resolves an archive name inside the tiles directory, rejecting
// anything that could escape it.
func (s *TileService) Path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if filepath.Ext(name) != ".pmtiles" {
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(name))
	}
	return filepath.Join(s.tilesDir, name), nil
}

// Export renders one layer of data to <layer>.pmtiles, replacing any earlier
// export atomically.
func (s *TileService) Export(ctx context.Context, data mining.Dataset, opts ExportOptions, onProgress ProgressFunc) (TileFile, error) {
	progress := func(p int, status string) {
		if onProgress != nil {
			onProgress(p, status)
		}
	}

	id, ok := layers.Parse(opts.Layer)
	if !ok {
		return TileFile{}, fmt.Errorf("%w: %q", ErrUnknownLayer, opts.Layer)
	}
	kind, _ := id.Kind()

	ctx, span := observability.Tracer().Start(ctx, "tiles.export")
	defer span.End()
	span.SetAttributes(attribute.String("layer", string(id)), attribute.Int("minZoom", opts.MinZoom), attribute.Int("maxZoom", opts.MaxZoom))

	file, err := s.export(ctx, id, data.FeatureCollection(kind), opts, progress)
	s.metrics.RecordTileExport(string(id), err)
	if err != nil {
		span.RecordError(err)
		return TileFile{}, err
	}

	progress(100, "Tiles generated")
	s.bus.Publish(Event{Resource: ResourceTiles, Action: "exported", ID: file.Name})
	return file, nil
}

func (s *TileService) export(ctx context.Context, id layers.ID, fc *geojson.FeatureCollection, opts ExportOptions, progress ProgressFunc) (TileFile, error) {
	if s.engine == nil {
		return TileFile{}, fmt.Errorf("no tiler configured")
	}
	if err := os.MkdirAll(s.tilesDir, 0755); err != nil {
		return TileFile{}, fmt.Errorf("failed to create tiles directory: %w", err)
	}
	progress(10, fmt.Sprintf("Rendering %d features", len(fc.Features)))

	name := string(id) + ".pmtiles"
	tmp, err := os.CreateTemp(s.tilesDir, name+".*.tmp")
	if err != nil {
		return TileFile{}, err
	}
	defer os.Remove(tmp.Name())

	_, err = s.engine.Tile(fc, tmp, tiler.TileConfig{MinZoom: opts.MinZoom, MaxZoom: opts.MaxZoom, Layer: string(id)})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return TileFile{}, fmt.Errorf("tile %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return TileFile{}, err
	}
	progress(90, "Writing archive")

	path := filepath.Join(s.tilesDir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return TileFile{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return TileFile{}, err
	}
	return TileFile{Name: name, Size: formatSize(info.Size()), Bytes: info.Size(), ModTime: info.ModTime().UTC()}, nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
