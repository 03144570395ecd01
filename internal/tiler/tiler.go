// Package tiler defines the vector tile export interface.
package tiler

import (
	"io"

	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-gold/internal/pmtiles"
)

// TileConfig selects the zoom range and MVT layer name.
type TileConfig struct {
	MinZoom int
	MaxZoom int
	Layer   string
}

// MaxZoom is the deepest zoom any engine produces.
const MaxZoom = 14

// Normalize clamps the zoom range to [0, MaxZoom] and orders it.
func (c TileConfig) Normalize() TileConfig {
	if c.MinZoom < 0 {
		c.MinZoom = 0
	}
	if c.MaxZoom < 0 || c.MaxZoom > MaxZoom {
		c.MaxZoom = MaxZoom
	}
	if c.MinZoom > c.MaxZoom {
		c.MinZoom = c.MaxZoom
	}
	if c.Layer == "" {
		c.Layer = "default"
	}
	return c
}

// Tiler renders a feature collection to a PMTiles archive.
type Tiler interface {
	Name() string
	Tile(fc *geojson.FeatureCollection, w io.Writer, cfg TileConfig) (pmtiles.HeaderV3, error)
}
