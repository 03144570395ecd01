package gotiler

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/pmtiles"
	"github.com/joeblew999/plat-gold/internal/region"
	"github.com/joeblew999/plat-gold/internal/tiler"
)

func dataset(t *testing.T) mining.Dataset {
	t.Helper()
	ds, err := mining.Generate(region.Regions()[:2], mining.NewSource(8), mining.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestTileConcessions(t *testing.T) {
	fc := dataset(t).FeatureCollection(mining.KindConcessions)

	var buf bytes.Buffer
	h, err := New().Tile(fc, &buf, tiler.TileConfig{MinZoom: 4, MaxZoom: 8, Layer: "ghanaGoldConcessionsLayer"})
	if err != nil {
		t.Fatal(err)
	}
	if h.MinZoom != 4 || h.MaxZoom != 8 || h.TileType != pmtiles.Mvt {
		t.Fatalf("header=%+v", h)
	}

	rh, entries, meta, err := pmtiles.ReadArchive(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if rh != h {
		t.Fatal("written and read headers differ")
	}
	if len(entries) == 0 {
		t.Fatal("no directory entries")
	}
	if meta["name"] != "ghanaGoldConcessionsLayer" {
		t.Fatalf("metadata name=%v", meta["name"])
	}

	// Ghana sits west of Greenwich and north of the equator.
	if rh.MinLonE7 >= 0 || rh.MinLatE7 <= 0 {
		t.Fatalf("bounds min=(%d,%d)", rh.MinLonE7, rh.MinLatE7)
	}
}

func TestTilePointsSingleZoom(t *testing.T) {
	ds := dataset(t)
	fc := ds.FeatureCollection(mining.KindMines)

	var buf bytes.Buffer
	h, err := New().Tile(fc, &buf, tiler.TileConfig{MinZoom: 0, MaxZoom: 0, Layer: "mines"})
	if err != nil {
		t.Fatal(err)
	}
	if h.AddressedTilesCount != 1 {
		t.Fatalf("zoom 0 tiles=%d, want 1", h.AddressedTilesCount)
	}
}

func TestTileEmpty(t *testing.T) {
	if _, err := New().Tile(geojson.NewFeatureCollection(), &bytes.Buffer{}, tiler.TileConfig{}); err == nil {
		t.Fatal("expected error for empty collection")
	}
}

func TestTileDoesNotMutateInput(t *testing.T) {
	ds := dataset(t)
	fc := ds.FeatureCollection(mining.KindConcessions)
	before := orb.Clone(fc.Features[0].Geometry)

	if _, err := New().Tile(fc, &bytes.Buffer{}, tiler.TileConfig{MinZoom: 6, MaxZoom: 7, Layer: "c"}); err != nil {
		t.Fatal(err)
	}
	if !orb.Equal(before, fc.Features[0].Geometry) {
		t.Fatal("input geometry was modified")
	}
}

func TestIntersectsTile(t *testing.T) {
	obuasi := orb.Point{-1.68, 6.2}
	tile := maptile.At(obuasi, 8)
	if !intersectsTile(obuasi, tile.Bound()) {
		t.Fatal("point should intersect its own tile")
	}
	far := maptile.At(orb.Point{30, 30}, 8)
	if intersectsTile(obuasi, far.Bound()) {
		t.Fatal("point should not intersect a distant tile")
	}

	ring := mining.RegularPolygon(obuasi, 5, 8)
	if !intersectsTile(orb.Polygon{ring}, tile.Bound()) {
		t.Fatal("polygon enclosing the tile should intersect")
	}
}

func TestTilesInBounds(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-3.5, 4.5}, Max: orb.Point{1.2, 11.1}}
	tiles := tilesInBounds(b, 0)
	if len(tiles) != 1 || tiles[0] != maptile.New(0, 0, 0) {
		t.Fatalf("zoom 0 tiles=%v", tiles)
	}
	if n := len(tilesInBounds(b, 6)); n < 2 {
		t.Fatalf("zoom 6 tiles=%d, want several", n)
	}
}

func TestNormalize(t *testing.T) {
	c := tiler.TileConfig{MinZoom: 9, MaxZoom: 40}.Normalize()
	if c.MaxZoom != tiler.MaxZoom || c.MinZoom != 9 || c.Layer != "default" {
		t.Fatalf("normalized=%+v", c)
	}
	c = tiler.TileConfig{MinZoom: 12, MaxZoom: 3}.Normalize()
	if c.MinZoom != 3 {
		t.Fatalf("min zoom=%d, want 3", c.MinZoom)
	}
}
