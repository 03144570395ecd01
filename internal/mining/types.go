// Package mining generates and describes the synthetic gold-mining dataset:
// concessions, mines, transactions and heatmap points scattered around the
// region catalog.
package mining

import (
	"github.com/paulmach/orb"
)

// Kind names one of the four feature collections.
type Kind string

const (
	KindConcessions  Kind = "concessions"
	KindMines        Kind = "mines"
	KindTransactions Kind = "transactions"
	KindHeatmap      Kind = "heatmap"
)

// Kinds returns the collections in dataset order.
func Kinds() []Kind {
	return []Kind{KindConcessions, KindMines, KindTransactions, KindHeatmap}
}

// MineStatus is the operating status of a mine.
type MineStatus string

const (
	StatusActive    MineStatus = "active"
	StatusPending   MineStatus = "pending"
	StatusSuspended MineStatus = "suspended"
	StatusExpired   MineStatus = "expired"
)

// Valid reports whether s is a known status.
func (s MineStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusSuspended, StatusExpired:
		return true
	}
	return false
}

// Feature is the shape shared by every generated feature.
type Feature struct {
	ID        string    `json:"id" doc:"Feature id, unique within its collection" example:"conc_0_1"`
	Name      string    `json:"name" doc:"Display name" example:"Obuasi Concession 2"`
	City      string    `json:"city" example:"Obuasi"`
	Subregion string    `json:"subregion" example:"Ashanti"`
	Country   string    `json:"country" example:"Ghana"`
	Position  orb.Point `json:"position" doc:"Position as [lng, lat]"`
}

// Concession is a licensed polygonal mining-rights area.
type Concession struct {
	Feature
	Polygon           orb.Ring `json:"polygon" doc:"Closed ring of [lng, lat] vertices"`
	ActivityIntensity float64  `json:"activityIntensity" minimum:"0" maximum:"1"`
}

// Mine is an operating mine site.
type Mine struct {
	Feature
	Status MineStatus `json:"status" enum:"active,pending,suspended,expired"`
}

// Transaction is a recorded gold sale.
type Transaction struct {
	Feature
}

// HeatmapPoint is a weighted point for the activity heatmap.
type HeatmapPoint struct {
	Feature
	ActivityIntensity float64 `json:"activityIntensity" minimum:"0" maximum:"1"`
	SourceID          string  `json:"sourceId" doc:"Concession or mine the point was derived from"`
}

// Dataset holds the four collections of one snapshot.
type Dataset struct {
	Concessions  []Concession   `json:"concessions"`
	Mines        []Mine         `json:"mines"`
	Transactions []Transaction  `json:"transactions"`
	Heatmap      []HeatmapPoint `json:"heatmap"`
}

// Stats is the count projection shown on the dashboard stat cards.
type Stats struct {
	ConcessionCount  int `json:"concessionCount" doc:"Licensed gold areas"`
	MineCount        int `json:"mineCount" doc:"Operational sites"`
	TransactionCount int `json:"transactionCount" doc:"Recent activity"`
	HeatmapCount     int `json:"heatmapCount" doc:"Heatmap weight points"`
}

// Stats counts each collection.
func (d Dataset) Stats() Stats {
	return Stats{
		ConcessionCount:  len(d.Concessions),
		MineCount:        len(d.Mines),
		TransactionCount: len(d.Transactions),
		HeatmapCount:     len(d.Heatmap),
	}
}

// Count returns the size of one collection.
func (d Dataset) Count(kind Kind) int {
	switch kind {
	case KindConcessions:
		return len(d.Concessions)
	case KindMines:
		return len(d.Mines)
	case KindTransactions:
		return len(d.Transactions)
	case KindHeatmap:
		return len(d.Heatmap)
	}
	return 0
}

// Features returns the base shape of every feature in one collection.
func (d Dataset) Features(kind Kind) []Feature {
	var out []Feature
	switch kind {
	case KindConcessions:
		for _, c := range d.Concessions {
			out = append(out, c.Feature)
		}
	case KindMines:
		for _, m := range d.Mines {
			out = append(out, m.Feature)
		}
	case KindTransactions:
		for _, t := range d.Transactions {
			out = append(out, t.Feature)
		}
	case KindHeatmap:
		for _, h := range d.Heatmap {
			out = append(out, h.Feature)
		}
	}
	return out
}
