package mining

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Properties returns the display fields as GeoJSON properties.
func (f Feature) Properties() geojson.Properties {
	return geojson.Properties{
		"id":        f.ID,
		"name":      f.Name,
		"city":      f.City,
		"subregion": f.Subregion,
		"country":   f.Country,
	}
}

func (c Concession) Properties() geojson.Properties {
	p := c.Feature.Properties()
	p["activityIntensity"] = c.ActivityIntensity
	return p
}

func (m Mine) Properties() geojson.Properties {
	p := m.Feature.Properties()
	p["status"] = string(m.Status)
	return p
}

func (h HeatmapPoint) Properties() geojson.Properties {
	p := h.Feature.Properties()
	p["activityIntensity"] = h.ActivityIntensity
	p["sourceId"] = h.SourceID
	return p
}

func newFeature(id string, g orb.Geometry, props geojson.Properties) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.ID = id
	f.Properties = props
	return f
}

// GeoJSON returns the concession as a polygon feature.
func (c Concession) GeoJSON() *geojson.Feature {
	return newFeature(c.ID, orb.Polygon{c.Polygon}, c.Properties())
}

// GeoJSON returns the mine as a point feature.
func (m Mine) GeoJSON() *geojson.Feature {
	return newFeature(m.ID, m.Position, m.Properties())
}

// GeoJSON returns the transaction as a point feature.
func (t Transaction) GeoJSON() *geojson.Feature {
	return newFeature(t.ID, t.Position, t.Feature.Properties())
}

// GeoJSON returns the heatmap point as a point feature.
func (h HeatmapPoint) GeoJSON() *geojson.Feature {
	return newFeature(h.ID, h.Position, h.Properties())
}

// FeatureCollection converts one collection to GeoJSON. Unknown kinds yield
// an empty collection.
func (d Dataset) FeatureCollection(kind Kind) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	switch kind {
	case KindConcessions:
		for _, c := range d.Concessions {
			fc.Append(c.GeoJSON())
		}
	case KindMines:
		for _, m := range d.Mines {
			fc.Append(m.GeoJSON())
		}
	case KindTransactions:
		for _, t := range d.Transactions {
			fc.Append(t.GeoJSON())
		}
	case KindHeatmap:
		for _, h := range d.Heatmap {
			fc.Append(h.GeoJSON())
		}
	}
	return fc
}

// Properties looks up a feature by id and returns its GeoJSON properties.
func (d Dataset) Properties(kind Kind, id string) (geojson.Properties, bool) {
	switch kind {
	case KindConcessions:
		for _, c := range d.Concessions {
			if c.ID == id {
				return c.Properties(), true
			}
		}
	case KindMines:
		for _, m := range d.Mines {
			if m.ID == id {
				return m.Properties(), true
			}
		}
	case KindTransactions:
		for _, t := range d.Transactions {
			if t.ID == id {
				return t.Feature.Properties(), true
			}
		}
	case KindHeatmap:
		for _, h := range d.Heatmap {
			if h.ID == id {
				return h.Properties(), true
			}
		}
	}
	return nil, false
}
