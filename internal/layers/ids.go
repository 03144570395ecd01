// Package layers turns a mining dataset and a visibility snapshot into the
// four render-ready map layers, and formats hover tooltips for them.
package layers

import "github.com/joeblew999/plat-gold/internal/mining"

// ID names one of the fixed dashboard layers.
type ID string

const (
	ConcessionsLayer  ID = "ghanaGoldConcessionsLayer"
	MinesLayer        ID = "ghanaGoldMinesLayer"
	TransactionsLayer ID = "ghanaGoldTransactionsLayer"
	HeatmapLayerID    ID = "ghanaGoldHeatmapLayer"
)

var kinds = map[ID]mining.Kind{
	ConcessionsLayer:  mining.KindConcessions,
	MinesLayer:        mining.KindMines,
	TransactionsLayer: mining.KindTransactions,
	HeatmapLayerID:    mining.KindHeatmap,
}

// IDs returns the layer ids in render order.
func IDs() []ID {
	return []ID{ConcessionsLayer, MinesLayer, TransactionsLayer, HeatmapLayerID}
}

// Parse reports whether s is a known layer id.
func Parse(s string) (ID, bool) {
	id := ID(s)
	_, ok := kinds[id]
	return id, ok
}

// Kind returns the dataset collection backing the layer.
func (id ID) Kind() (mining.Kind, bool) {
	k, ok := kinds[id]
	return k, ok
}

// ForKind is the inverse of Kind.
func ForKind(k mining.Kind) (ID, bool) {
	for id, kk := range kinds {
		if kk == k {
			return id, true
		}
	}
	return "", false
}

// Visibility maps layer ids to their on/off state. Missing entries fall back
// to the default table; unknown ids are ignored.
type Visibility map[ID]bool

// Transactions start hidden.
var defaultVisibility = map[ID]bool{
	ConcessionsLayer:  true,
	MinesLayer:        true,
	TransactionsLayer: false,
	HeatmapLayerID:    true,
}

// DefaultVisibility returns a fresh copy of the default table.
func DefaultVisibility() Visibility {
	v := make(Visibility, len(defaultVisibility))
	for id, on := range defaultVisibility {
		v[id] = on
	}
	return v
}

// Resolve returns the state of id, applying the default table when v has no
// entry. Unknown ids resolve to false.
func (v Visibility) Resolve(id ID) bool {
	if on, ok := v[id]; ok {
		if _, known := kinds[id]; known {
			return on
		}
	}
	return defaultVisibility[id]
}

// Resolved returns a complete map over the known ids with defaults applied.
func (v Visibility) Resolved() Visibility {
	out := make(Visibility, len(kinds))
	for _, id := range IDs() {
		out[id] = v.Resolve(id)
	}
	return out
}
