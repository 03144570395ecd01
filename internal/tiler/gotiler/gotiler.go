// Package gotiler renders feature collections to MVT tiles and packs them
// into PMTiles archives using paulmach/orb.
package gotiler

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/joeblew999/plat-gold/internal/pmtiles"
	"github.com/joeblew999/plat-gold/internal/tiler"
)

// GoTiler implements tiler.Tiler in pure Go.
type GoTiler struct{}

// New creates a new GoTiler.
func New() *GoTiler {
	return &GoTiler{}
}

// Name returns the engine name.
func (g *GoTiler) Name() string {
	return "go"
}

var _ tiler.Tiler = (*GoTiler)(nil)

// Tile renders fc at every zoom in cfg and writes a PMTiles archive to w.
func (g *GoTiler) Tile(fc *geojson.FeatureCollection, w io.Writer, cfg tiler.TileConfig) (pmtiles.HeaderV3, error) {
	cfg = cfg.Normalize()
	if fc == nil || len(fc.Features) == 0 {
		return pmtiles.HeaderV3{}, fmt.Errorf("layer %s has no features", cfg.Layer)
	}

	var tiles []pmtiles.Tile
	bound := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features {
		bound = bound.Union(f.Geometry.Bound())
	}
	for z := cfg.MinZoom; z <= cfg.MaxZoom; z++ {
		for t, data := range g.generateZoomLevel(fc, maptile.Zoom(z), cfg.Layer) {
			tiles = append(tiles, pmtiles.Tile{Z: uint8(t.Z), X: t.X, Y: t.Y, Data: data})
		}
	}
	if len(tiles) == 0 {
		return pmtiles.HeaderV3{}, fmt.Errorf("layer %s produced no tiles", cfg.Layer)
	}

	return pmtiles.WriteArchive(w, tiles, pmtiles.Archive{
		Name:            cfg.Layer,
		TileType:        pmtiles.Mvt,
		TileCompression: pmtiles.Gzip,
		MinZoom:         uint8(cfg.MinZoom),
		MaxZoom:         uint8(cfg.MaxZoom),
		MinLon:          bound.Min.Lon(),
		MinLat:          bound.Min.Lat(),
		MaxLon:          bound.Max.Lon(),
		MaxLat:          bound.Max.Lat(),
		Metadata: map[string]any{
			"compression": "gzip",
			"generator":   "plat-gold/" + g.Name(),
		},
	})
}

// generateZoomLevel buckets features by the tiles their bounds touch and
// encodes each non-empty bucket.
func (g *GoTiler) generateZoomLevel(fc *geojson.FeatureCollection, zoom maptile.Zoom, layerName string) map[maptile.Tile][]byte {
	buckets := make(map[maptile.Tile][]*geojson.Feature)
	for _, f := range fc.Features {
		for _, t := range tilesInBounds(f.Geometry.Bound(), zoom) {
			buckets[t] = append(buckets[t], f)
		}
	}

	result := make(map[maptile.Tile][]byte, len(buckets))
	for t, features := range buckets {
		if data := g.createMVT(t, features, layerName); len(data) > 0 {
			result[t] = data
		}
	}
	return result
}

// createMVT encodes the features that really intersect t as one gzipped MVT
// layer. It returns nil when nothing survives clipping.
func (g *GoTiler) createMVT(t maptile.Tile, features []*geojson.Feature, layerName string) []byte {
	fc := geojson.NewFeatureCollection()
	tb := t.Bound()
	for _, f := range features {
		if !intersectsTile(f.Geometry, tb) {
			continue
		}
		// Clip and ProjectToTile mutate geometry in place.
		clone := geojson.NewFeature(orb.Clone(f.Geometry))
		clone.ID = f.ID
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		fc.Append(clone)
	}
	if len(fc.Features) == 0 {
		return nil
	}

	layer := mvt.NewLayer(layerName, fc)
	if eps := simplifyEpsilon(t.Z); eps > 0 {
		layer.Simplify(simplify.DouglasPeucker(eps))
	}
	layer.Clip(tb)
	layer.ProjectToTile(t)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil
	}
	return data
}

// intersectsTile refines the bounding-box test for the geometries the
// dashboard produces: points and concession polygons.
func intersectsTile(geom orb.Geometry, tb orb.Bound) bool {
	if !geom.Bound().Intersects(tb) {
		return false
	}
	switch g := geom.(type) {
	case orb.Point:
		return tb.Contains(g)
	case orb.Polygon:
		for _, ring := range g {
			for _, p := range ring {
				if tb.Contains(p) {
					return true
				}
			}
		}
		corners := []orb.Point{tb.Min, {tb.Max[0], tb.Min[1]}, tb.Max, {tb.Min[0], tb.Max[1]}, tb.Center()}
		for _, p := range corners {
			if planar.PolygonContains(g, p) {
				return true
			}
		}
		return false
	case orb.MultiPolygon:
		for _, poly := range g {
			if intersectsTile(poly, tb) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// tilesInBounds lists the tiles at zoom covering b.
func tilesInBounds(b orb.Bound, zoom maptile.Zoom) []maptile.Tile {
	lo := maptile.At(b.Min, zoom)
	hi := maptile.At(b.Max, zoom)
	minX, maxX := min(lo.X, hi.X), max(lo.X, hi.X)
	minY, maxY := min(lo.Y, hi.Y), max(lo.Y, hi.Y)

	tiles := make([]maptile.Tile, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, maptile.New(x, y, zoom))
		}
	}
	return tiles
}

// simplifyEpsilon is the Douglas-Peucker tolerance in degrees. Concessions
// span a few kilometres (about 0.03 degrees), so low zooms stay well under
// that to keep the polygons recognisable.
func simplifyEpsilon(zoom maptile.Zoom) float64 {
	switch {
	case zoom >= 12:
		return 0
	case zoom >= 9:
		return 0.00005
	case zoom >= 6:
		return 0.0002
	default:
		return 0.001
	}
}
