package mining

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-gold/internal/region"
	"github.com/joeblew999/plat-gold/internal/spatial"
)

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// FloatRange is a half-open float range [Min, Max).
type FloatRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Config controls how many features each region gets and how far they
// scatter. Jitter values are the full width of the square window around the
// region center, in degrees.
type Config struct {
	Concessions          IntRange   `json:"concessions" yaml:"concessions" doc:"Concessions per region"`
	Mines                IntRange   `json:"mines" yaml:"mines" doc:"Mines per region"`
	Transactions         IntRange   `json:"transactions" yaml:"transactions" doc:"Transactions per region"`
	ConcessionJitterDeg  float64    `json:"concessionJitterDeg" yaml:"concessionJitterDeg" doc:"Concession siting window (degrees)"`
	MineJitterDeg        float64    `json:"mineJitterDeg" yaml:"mineJitterDeg" doc:"Mine siting window (degrees)"`
	TransactionJitterDeg float64    `json:"transactionJitterDeg" yaml:"transactionJitterDeg" doc:"Transaction siting window (degrees)"`
	PolygonSizeKm        FloatRange `json:"polygonSizeKm" yaml:"polygonSizeKm" doc:"Concession radius (km)"`
	PolygonVertices      IntRange   `json:"polygonVertices" yaml:"polygonVertices" doc:"Concession vertex count"`
}

// DefaultConfig returns the dashboard's standard generator settings.
func DefaultConfig() Config {
	return Config{
		Concessions:          IntRange{Min: 3, Max: 8},
		Mines:                IntRange{Min: 2, Max: 5},
		Transactions:         IntRange{Min: 1, Max: 4},
		ConcessionJitterDeg:  0.3,
		MineJitterDeg:        0.15,
		TransactionJitterDeg: 0.2,
		PolygonSizeKm:        FloatRange{Min: 3, Max: 7},
		PolygonVertices:      IntRange{Min: 6, Max: 9},
	}
}

// ConfigurationError reports an unusable generator config or random source.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("mining: invalid %s: %s", e.Field, e.Reason)
}

// Validate checks every range and width in the config.
func (c Config) Validate() error {
	counts := []struct {
		field string
		r     IntRange
	}{
		{"concessions", c.Concessions},
		{"mines", c.Mines},
		{"transactions", c.Transactions},
	}
	for _, f := range counts {
		if f.r.Min < 0 || f.r.Max < f.r.Min {
			return &ConfigurationError{Field: f.field, Reason: fmt.Sprintf("range [%d,%d]", f.r.Min, f.r.Max)}
		}
	}

	jitters := []struct {
		field string
		v     float64
	}{
		{"concessionJitterDeg", c.ConcessionJitterDeg},
		{"mineJitterDeg", c.MineJitterDeg},
		{"transactionJitterDeg", c.TransactionJitterDeg},
	}
	for _, f := range jitters {
		if !finite(f.v) || f.v <= 0 {
			return &ConfigurationError{Field: f.field, Reason: fmt.Sprintf("width %v must be positive", f.v)}
		}
	}

	size := c.PolygonSizeKm
	if !finite(size.Min) || !finite(size.Max) || size.Min <= 0 || size.Max < size.Min {
		return &ConfigurationError{Field: "polygonSizeKm", Reason: fmt.Sprintf("range [%v,%v]", c.PolygonSizeKm.Min, c.PolygonSizeKm.Max)}
	}
	if c.PolygonVertices.Min < 6 || c.PolygonVertices.Max < c.PolygonVertices.Min {
		return &ConfigurationError{Field: "polygonVertices", Reason: fmt.Sprintf("range [%d,%d], need at least 6", c.PolygonVertices.Min, c.PolygonVertices.Max)}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Generate builds the four collections for regions, drawing every random
// value from rnd in a fixed order. The same inputs always produce the same
// dataset. An empty region list yields empty collections.
func Generate(regions []region.Region, rnd RandomSource, cfg Config) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Dataset{}, err
	}
	if rnd == nil {
		return Dataset{}, &ConfigurationError{Field: "randomSource", Reason: "nil"}
	}

	g := &generator{rnd: rnd, cfg: cfg}
	ds := Dataset{
		Concessions:  []Concession{},
		Mines:        []Mine{},
		Transactions: []Transaction{},
		Heatmap:      []HeatmapPoint{},
	}
	for i, r := range regions {
		g.region(&ds, i, r)
		if g.err != nil {
			return Dataset{}, g.err
		}
	}
	return ds, nil
}

// generator carries the sticky draw error so the per-feature code reads
// linearly; callers check err once per region.
type generator struct {
	rnd   RandomSource
	cfg   Config
	draws int
	err   error
}

func (g *generator) draw() float64 {
	if g.err != nil {
		return 0
	}
	u := g.rnd.Float64()
	g.draws++
	if math.IsNaN(u) || u < 0 || u >= 1 {
		g.err = &ConfigurationError{
			Field:  "randomSource",
			Reason: fmt.Sprintf("draw %d returned %v, want a value in [0,1)", g.draws, u),
		}
		return 0
	}
	return u
}

func (g *generator) intIn(r IntRange) int {
	span := r.Max - r.Min + 1
	n := int(g.draw() * float64(span))
	if n >= span {
		n = span - 1
	}
	return r.Min + n
}

func (g *generator) floatIn(r FloatRange) float64 {
	return r.Min + g.draw()*(r.Max-r.Min)
}

// jitter offsets center by an independent uniform draw in ±width/2 per axis,
// longitude first.
func (g *generator) jitter(center orb.Point, width float64) orb.Point {
	lng := center.Lon() + (g.draw()-0.5)*width
	lat := center.Lat() + (g.draw()-0.5)*width
	return orb.Point{lng, lat}
}

func (g *generator) region(ds *Dataset, ri int, r region.Region) {
	nConcessions := g.intIn(g.cfg.Concessions)
	nMines := g.intIn(g.cfg.Mines)
	nTransactions := g.intIn(g.cfg.Transactions)

	base := func(id, name string, pos orb.Point) Feature {
		return Feature{
			ID:        id,
			Name:      name,
			City:      r.City,
			Subregion: r.Subregion,
			Country:   r.Country,
			Position:  pos,
		}
	}

	center := r.Center()
	firstConcession := len(ds.Concessions)
	for i := 0; i < nConcessions; i++ {
		pos := g.jitter(center, g.cfg.ConcessionJitterDeg)
		sizeKm := g.floatIn(g.cfg.PolygonSizeKm)
		vertices := g.intIn(g.cfg.PolygonVertices)
		ds.Concessions = append(ds.Concessions, Concession{
			Feature:           base(fmt.Sprintf("conc_%d_%d", ri, i), fmt.Sprintf("%s Concession %d", r.Name, i+1), pos),
			Polygon:           RegularPolygon(pos, spatial.KmToDegrees(sizeKm), vertices),
			ActivityIntensity: 0.8 + g.draw()*0.2,
		})
	}

	firstMine := len(ds.Mines)
	for i := 0; i < nMines; i++ {
		pos := g.jitter(center, g.cfg.MineJitterDeg)
		ds.Mines = append(ds.Mines, Mine{
			Feature: base(fmt.Sprintf("mine_%d_%d", ri, i), fmt.Sprintf("%s Mine %d", r.Name, i+1), pos),
			Status:  StatusActive,
		})
	}

	for i := 0; i < nTransactions; i++ {
		pos := g.jitter(center, g.cfg.TransactionJitterDeg)
		ds.Transactions = append(ds.Transactions, Transaction{
			Feature: base(fmt.Sprintf("tx_%d_%d", ri, i), fmt.Sprintf("%s Transaction %d", r.Name, i+1), pos),
		})
	}

	k := 0
	heat := func(f Feature) {
		src := f.ID
		f.ID = fmt.Sprintf("heat_%d_%d", ri, k)
		k++
		ds.Heatmap = append(ds.Heatmap, HeatmapPoint{
			Feature:           f,
			ActivityIntensity: 0.5 + g.draw()*0.5,
			SourceID:          src,
		})
	}
	for _, c := range ds.Concessions[firstConcession:] {
		heat(c.Feature)
	}
	for _, m := range ds.Mines[firstMine:] {
		heat(m.Feature)
	}
}

// RegularPolygon returns a closed ring of n vertices at radiusDeg around
// center. Vertex i sits at angle i*2π/n measured from east.
func RegularPolygon(center orb.Point, radiusDeg float64, n int) orb.Ring {
	ring := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		theta := float64(i) * 2 * math.Pi / float64(n)
		ring = append(ring, orb.Point{
			center.Lon() + radiusDeg*math.Cos(theta),
			center.Lat() + radiusDeg*math.Sin(theta),
		})
	}
	if n > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}
