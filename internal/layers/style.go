package layers

import (
	"fmt"

	"github.com/joeblew999/plat-gold/internal/mining"
)

// Color is an RGBA color with 0-255 channels.
type Color [4]uint8

// CSS renders the color as an rgba() value.
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c[0], c[1], c[2], float64(c[3])/255)
}

// Hex renders the color as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// PolygonStyle styles the concessions layer.
type PolygonStyle struct {
	FillColor          Color `json:"fillColor"`
	LineColor          Color `json:"lineColor"`
	LineWidthMinPixels int   `json:"lineWidthMinPixels"`
}

// PointStyle styles the mines and transactions layers. InactiveFillColor is
// only used by mines whose status is not active.
type PointStyle struct {
	FillColor          Color  `json:"fillColor"`
	InactiveFillColor  *Color `json:"inactiveFillColor,omitempty"`
	LineColor          Color  `json:"lineColor"`
	LineWidthMinPixels int    `json:"lineWidthMinPixels"`
	RadiusMinPixels    int    `json:"radiusMinPixels"`
	RadiusMaxPixels    int    `json:"radiusMaxPixels,omitempty"`
}

// HeatmapStyle styles the heatmap layer.
type HeatmapStyle struct {
	Intensity    float64 `json:"intensity"`
	Threshold    float64 `json:"threshold"`
	RadiusPixels int     `json:"radiusPixels"`
	Aggregation  string  `json:"aggregation"`
	ColorRange   []Color `json:"colorRange"`
}

var (
	gold      = Color{255, 215, 0, 255}
	darkGold  = Color{184, 134, 11, 255}
	goldenrod = Color{218, 165, 32, 255}
	black     = Color{0, 0, 0, 255}
)

// ConcessionStyle is the fixed concessions style.
func ConcessionStyle() PolygonStyle {
	return PolygonStyle{
		FillColor:          Color{255, 215, 0, 100},
		LineColor:          goldenrod,
		LineWidthMinPixels: 2,
	}
}

// MineStyle is the fixed mines style.
func MineStyle() PointStyle {
	inactive := darkGold
	return PointStyle{
		FillColor:          gold,
		InactiveFillColor:  &inactive,
		LineColor:          black,
		LineWidthMinPixels: 1,
		RadiusMinPixels:    8,
		RadiusMaxPixels:    25,
	}
}

// TransactionStyle is the fixed transactions style.
func TransactionStyle() PointStyle {
	return PointStyle{
		FillColor:          Color{33, 150, 243, 180},
		LineColor:          Color{13, 71, 161, 255},
		LineWidthMinPixels: 1,
		RadiusMinPixels:    4,
	}
}

// HeatStyle is the fixed heatmap style: yellow to deep red in nine steps,
// weights summed per cell.
func HeatStyle() HeatmapStyle {
	return HeatmapStyle{
		Intensity:    1,
		Threshold:    0.05,
		RadiusPixels: 30,
		Aggregation:  "SUM",
		ColorRange: []Color{
			{255, 255, 204, 255},
			{255, 237, 160, 255},
			{254, 217, 118, 255},
			{254, 178, 76, 255},
			{253, 141, 60, 255},
			{252, 78, 42, 255},
			{227, 26, 28, 255},
			{189, 0, 38, 255},
			{128, 0, 38, 255},
		},
	}
}

// FillFor returns the fill for one mine.
func (s PointStyle) FillFor(status mining.MineStatus) Color {
	if status != mining.StatusActive && s.InactiveFillColor != nil {
		return *s.InactiveFillColor
	}
	return s.FillColor
}

// LegendEntry is one row of the layer legend.
type LegendEntry struct {
	Layer  ID     `json:"layer"`
	Label  string `json:"label" example:"Gold Concessions"`
	Swatch string `json:"swatch" doc:"CSS background for the swatch"`
	Border string `json:"border,omitempty" doc:"CSS border for the swatch"`
	Shape  string `json:"shape" enum:"square,circle,gradient"`
}

// Legend returns the legend rows in render order.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Layer: ConcessionsLayer, Label: "Gold Concessions", Swatch: "rgba(255, 215, 0, 0.4)", Border: "2px solid rgb(218, 165, 32)", Shape: "square"},
		{Layer: MinesLayer, Label: "Gold Mines", Swatch: "rgb(255, 215, 0)", Border: "1px solid #000", Shape: "circle"},
		{Layer: TransactionsLayer, Label: "Transactions", Swatch: "rgba(33, 150, 243, 0.7)", Shape: "circle"},
		{Layer: HeatmapLayerID, Label: "Activity Heatmap", Swatch: "linear-gradient(to right, #fff7cc, #bd0026)", Shape: "gradient"},
	}
}

// LegendFor returns the legend row for id.
func LegendFor(id ID) (LegendEntry, bool) {
	for _, e := range Legend() {
		if e.Layer == id {
			return e, true
		}
	}
	return LegendEntry{}, false
}
