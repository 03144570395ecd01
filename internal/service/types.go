// Package service holds the stateful parts of plat-gold: the current dataset
// snapshot, layer visibility, tile exports and the event bus tying them to
// the dashboard.
package service

import (
	"errors"
	"time"

	"github.com/joeblew999/plat-gold/internal/mining"
)

// Origin says where a snapshot's data came from.
type Origin string

const (
	OriginMock  Origin = "mock"
	OriginTable Origin = "table"
)

// ParseOrigin accepts "mock" or "table"; empty means mock.
func ParseOrigin(s string) (Origin, error) {
	switch Origin(s) {
	case "", OriginMock:
		return OriginMock, nil
	case OriginTable:
		return OriginTable, nil
	}
	return "", errors.New("source must be mock or table")
}

var (
	// ErrUnknownLayer is returned for ids outside the fixed layer set.
	ErrUnknownLayer = errors.New("unknown layer")
	// ErrTableOrigin is returned when reseeding a table-backed dataset.
	ErrTableOrigin = errors.New("dataset is loaded from tables and cannot be reseeded")
)

// Snapshot is one immutable dataset plus where it came from.
type Snapshot struct {
	ID          string         `json:"id" format:"uuid" doc:"Snapshot id"`
	Seed        uint64         `json:"seed" doc:"Random seed (mock origin only)"`
	Origin      Origin         `json:"origin" enum:"mock,table"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Config      mining.Config  `json:"config" doc:"Generator settings used"`
	Data        mining.Dataset `json:"-"`
}

// Stats counts the snapshot's collections.
func (s Snapshot) Stats() mining.Stats {
	return s.Data.Stats()
}

// TileFile represents an exported PMTiles archive.
type TileFile struct {
	Name    string    `json:"name" doc:"PMTiles file name" example:"ghanaGoldMinesLayer.pmtiles"`
	Size    string    `json:"size" doc:"Human-readable file size" example:"54.2 KB"`
	Bytes   int64     `json:"bytes" doc:"File size in bytes"`
	ModTime time.Time `json:"modTime"`
}
