package layers

import (
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
)

func TestTooltipConcession(t *testing.T) {
	got, ok := TooltipFor(ConcessionsLayer, geojson.Properties{
		"name": "X", "city": "Tarkwa", "subregion": "Western", "country": "Ghana",
	})
	if !ok || got == "" {
		t.Fatal("expected tooltip")
	}
	for _, want := range []string{"X", "Tarkwa", "Western", "Ghana", "#DAA520"} {
		if !strings.Contains(got, want) {
			t.Errorf("tooltip missing %q:\n%s", want, got)
		}
	}
}

func TestTooltipMineStatusDefault(t *testing.T) {
	got, ok := TooltipFor(MinesLayer, geojson.Properties{"name": "Obuasi Mine 1", "city": "Obuasi"})
	if !ok {
		t.Fatal("expected tooltip")
	}
	if !strings.Contains(got, "active") {
		t.Fatalf("missing default status:\n%s", got)
	}

	got, _ = TooltipFor(MinesLayer, geojson.Properties{"name": "Obuasi Mine 1", "status": "suspended"})
	if !strings.Contains(got, "suspended") {
		t.Fatalf("missing status:\n%s", got)
	}
}

func TestTooltipTransactionTheme(t *testing.T) {
	got, ok := TooltipFor(TransactionsLayer, geojson.Properties{"name": "Tarkwa Transaction 1"})
	if !ok {
		t.Fatal("expected tooltip")
	}
	if !strings.Contains(got, "#2196F3") || strings.Contains(got, "#DAA520") {
		t.Fatalf("expected blue theme:\n%s", got)
	}
}

func TestTooltipHeatmap(t *testing.T) {
	tests := []struct {
		name  string
		props geojson.Properties
		want  string
	}{
		{"fraction", geojson.Properties{"activityIntensity": 0.754}, "75%"},
		{"full", geojson.Properties{"activityIntensity": 1.0}, "100%"},
		{"missing", geojson.Properties{}, "High"},
		{"wrong type", geojson.Properties{"activityIntensity": "lots"}, "High"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TooltipFor(HeatmapLayerID, tt.props)
			if !ok {
				t.Fatal("expected tooltip")
			}
			if !strings.Contains(got, tt.want) {
				t.Fatalf("tooltip missing %q:\n%s", tt.want, got)
			}
		})
	}
}

func TestTooltipAbsent(t *testing.T) {
	if got, ok := TooltipFor("unknownLayer", geojson.Properties{}); ok || got != "" {
		t.Fatalf("unknown layer returned %q,%v", got, ok)
	}
	if _, ok := TooltipFor(ConcessionsLayer, geojson.Properties{"cartodb_id": 7}); ok {
		t.Fatal("feature without display fields should have no tooltip")
	}
	if _, ok := TooltipFor(MinesLayer, nil); ok {
		t.Fatal("nil properties should have no tooltip")
	}
}

func TestTooltipEscapesHTML(t *testing.T) {
	got, ok := TooltipFor(ConcessionsLayer, geojson.Properties{"name": "<script>alert(1)</script>"})
	if !ok {
		t.Fatal("expected tooltip")
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("name not escaped:\n%s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Fatalf("expected escaped name:\n%s", got)
	}
}
