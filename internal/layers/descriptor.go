package layers

import (
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-gold/internal/mining"
)

// Descriptor is a render-ready layer. The set of implementations is closed:
// PolygonLayer, PointLayer[mining.Mine], PointLayer[mining.Transaction] and
// HeatmapLayer.
type Descriptor interface {
	LayerID() ID
	IsVisible() bool
	// Type is the geometry family: polygon, point or heatmap.
	Type() string
	Len() int
	FeatureCollection() *geojson.FeatureCollection
	sealed()
}

// PolygonLayer renders concessions.
type PolygonLayer struct {
	ID      ID                  `json:"id"`
	Data    []mining.Concession `json:"-"`
	Visible bool                `json:"visible"`
	Style   PolygonStyle        `json:"style"`
}

// PointFeature constrains PointLayer to the point collections.
type PointFeature interface {
	mining.Mine | mining.Transaction
	GeoJSON() *geojson.Feature
}

// PointLayer renders mines or transactions.
type PointLayer[T PointFeature] struct {
	ID      ID         `json:"id"`
	Data    []T        `json:"-"`
	Visible bool       `json:"visible"`
	Style   PointStyle `json:"style"`
}

// HeatmapLayer renders weighted heatmap points.
type HeatmapLayer struct {
	ID      ID                    `json:"id"`
	Data    []mining.HeatmapPoint `json:"-"`
	Visible bool                  `json:"visible"`
	Style   HeatmapStyle          `json:"style"`
}

func (l PolygonLayer) LayerID() ID     { return l.ID }
func (l PolygonLayer) IsVisible() bool { return l.Visible }
func (l PolygonLayer) Type() string    { return "polygon" }
func (l PolygonLayer) Len() int        { return len(l.Data) }
func (PolygonLayer) sealed()           {}

func (l PolygonLayer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range l.Data {
		fc.Append(c.GeoJSON())
	}
	return fc
}

func (l PointLayer[T]) LayerID() ID     { return l.ID }
func (l PointLayer[T]) IsVisible() bool { return l.Visible }
func (l PointLayer[T]) Type() string    { return "point" }
func (l PointLayer[T]) Len() int        { return len(l.Data) }
func (PointLayer[T]) sealed()           {}

func (l PointLayer[T]) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range l.Data {
		fc.Append(p.GeoJSON())
	}
	return fc
}

func (l HeatmapLayer) LayerID() ID     { return l.ID }
func (l HeatmapLayer) IsVisible() bool { return l.Visible }
func (l HeatmapLayer) Type() string    { return "heatmap" }
func (l HeatmapLayer) Len() int        { return len(l.Data) }
func (HeatmapLayer) sealed()           {}

func (l HeatmapLayer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, h := range l.Data {
		fc.Append(h.GeoJSON())
	}
	return fc
}

// BuildLayers derives the four layers from data and a visibility snapshot.
// It does not retain vis or modify data.
func BuildLayers(data mining.Dataset, vis Visibility) []Descriptor {
	return []Descriptor{
		PolygonLayer{
			ID:      ConcessionsLayer,
			Data:    data.Concessions,
			Visible: vis.Resolve(ConcessionsLayer),
			Style:   ConcessionStyle(),
		},
		PointLayer[mining.Mine]{
			ID:      MinesLayer,
			Data:    data.Mines,
			Visible: vis.Resolve(MinesLayer),
			Style:   MineStyle(),
		},
		PointLayer[mining.Transaction]{
			ID:      TransactionsLayer,
			Data:    data.Transactions,
			Visible: vis.Resolve(TransactionsLayer),
			Style:   TransactionStyle(),
		},
		HeatmapLayer{
			ID:      HeatmapLayerID,
			Data:    data.Heatmap,
			Visible: vis.Resolve(HeatmapLayerID),
			Style:   HeatStyle(),
		},
	}
}

// Find returns the layer with id from ls.
func Find(ls []Descriptor, id ID) (Descriptor, bool) {
	for _, l := range ls {
		if l.LayerID() == id {
			return l, true
		}
	}
	return nil, false
}
