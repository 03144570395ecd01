// Package dashboard contains the Datastar SSE handlers and page for the
// gold-mining dashboard.
package dashboard

import (
	"github.com/joeblew999/plat-gold/internal/layers"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/service"
)

// StatCard is one dashboard counter.
type StatCard struct {
	Key    string
	Label  string
	Value  int
	Hint   string
	Accent string
}

// StatCardsData feeds the "stat-cards" template.
type StatCardsData struct {
	Cards      []StatCard
	SnapshotID string
	Origin     service.Origin
	Seed       uint64
}

// LayerItem feeds the "layer-item" template.
type LayerItem struct {
	ID      string
	Visible bool
	Count   int
	Legend  layers.LegendEntry
}

// PageData feeds the "dashboard" page template.
type PageData struct {
	Title     string
	Seed      uint64
	CanReseed bool
}

func statCards(snap service.Snapshot) StatCardsData {
	s := snap.Stats()
	return StatCardsData{
		Cards: []StatCard{
			{Key: "concessions", Label: "Gold Concessions", Value: s.ConcessionCount, Hint: "Licensed gold areas", Accent: "#DAA520"},
			{Key: "mines", Label: "Active Gold Mines", Value: s.MineCount, Hint: "Operational sites", Accent: "#FFD700"},
			{Key: "transactions", Label: "Gold Transactions", Value: s.TransactionCount, Hint: "Recent activity", Accent: "#B8860B"},
		},
		SnapshotID: snap.ID,
		Origin:     snap.Origin,
		Seed:       snap.Seed,
	}
}

func layerItems(data mining.Dataset, vis layers.Visibility) []any {
	ls := layers.BuildLayers(data, vis)
	items := make([]any, 0, len(ls))
	for _, l := range ls {
		legend, _ := layers.LegendFor(l.LayerID())
		items = append(items, LayerItem{
			ID:      string(l.LayerID()),
			Visible: l.IsVisible(),
			Count:   l.Len(),
			Legend:  legend,
		})
	}
	return items
}
