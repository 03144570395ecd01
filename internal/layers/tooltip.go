package layers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/paulmach/orb/geojson"
)

//go:embed tooltip.html
var tooltipHTML string

var tooltipTmpl = template.Must(template.New("layers").Parse(tooltipHTML))

const (
	goldAccent = template.CSS("#DAA520")
	blueAccent = template.CSS("#2196F3")
)

type tooltipRow struct {
	Label string
	Value string
}

type tooltipView struct {
	Title  string
	Accent template.CSS
	Rows   []tooltipRow
}

// TooltipFor formats the hover tooltip for a feature of layer id. It returns
// false for unknown layers and for features that carry none of the fields the
// layer displays. Heatmap points always get a tooltip; a missing intensity
// reads "High".
func TooltipFor(id ID, props geojson.Properties) (string, bool) {
	var view tooltipView
	switch id {
	case ConcessionsLayer:
		v, ok := placeView("Gold Concession", goldAccent, props)
		if !ok {
			return "", false
		}
		view = v
	case MinesLayer:
		v, ok := placeView("Gold Mine", goldAccent, props)
		if !ok {
			return "", false
		}
		status, ok := field(props, "status")
		if !ok {
			status = "active"
		}
		v.Rows = append(v.Rows, tooltipRow{Label: "Status", Value: status})
		view = v
	case TransactionsLayer:
		v, ok := placeView("Gold Transaction", blueAccent, props)
		if !ok {
			return "", false
		}
		view = v
	case HeatmapLayerID:
		view = tooltipView{
			Title:  "Mining Activity",
			Accent: goldAccent,
			Rows:   []tooltipRow{{Label: "Intensity", Value: intensityLabel(props)}},
		}
	default:
		return "", false
	}

	var b strings.Builder
	if err := tooltipTmpl.ExecuteTemplate(&b, "tooltip", view); err != nil {
		return "", false
	}
	return b.String(), true
}

func placeView(fallbackTitle string, accent template.CSS, props geojson.Properties) (tooltipView, bool) {
	name, hasName := field(props, "name")
	view := tooltipView{Title: fallbackTitle, Accent: accent}
	if hasName {
		view.Title = name
	}
	found := hasName
	for _, f := range []struct{ key, label string }{
		{"city", "City"},
		{"subregion", "Region"},
		{"country", "Country"},
	} {
		if v, ok := field(props, f.key); ok {
			view.Rows = append(view.Rows, tooltipRow{Label: f.label, Value: v})
			found = true
		}
	}
	return view, found
}

func field(props geojson.Properties, key string) (string, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if s == "" {
		return "", false
	}
	return s, true
}

func intensityLabel(props geojson.Properties) string {
	var f float64
	switch v := props["activityIntensity"].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return "High"
		}
		f = n
	default:
		return "High"
	}
	return fmt.Sprintf("%.0f%%", f*100)
}
