package mining

import (
	"fmt"
	"math"
)

// Validate checks the data-model invariants on a dataset that did not come
// from Generate, such as one loaded from the table store.
func (d Dataset) Validate() error {
	for _, kind := range Kinds() {
		seen := make(map[string]bool)
		for _, f := range d.Features(kind) {
			if f.ID == "" {
				return fmt.Errorf("%s: feature with empty id", kind)
			}
			if seen[f.ID] {
				return fmt.Errorf("%s: duplicate id %q", kind, f.ID)
			}
			seen[f.ID] = true
		}
	}

	for _, c := range d.Concessions {
		if len(c.Polygon) < 7 {
			return fmt.Errorf("concessions: %s has %d ring points, want at least 7", c.ID, len(c.Polygon))
		}
		if !c.Polygon.Closed() {
			return fmt.Errorf("concessions: %s ring is not closed", c.ID)
		}
	}
	for _, m := range d.Mines {
		if !m.Status.Valid() {
			return fmt.Errorf("mines: %s has unknown status %q", m.ID, m.Status)
		}
	}
	for _, h := range d.Heatmap {
		if !(h.ActivityIntensity > 0) || h.ActivityIntensity > 1 || math.IsNaN(h.ActivityIntensity) {
			return fmt.Errorf("heatmap: %s intensity %v outside (0,1]", h.ID, h.ActivityIntensity)
		}
	}
	return nil
}
