package mining

import (
	"testing"

	"github.com/paulmach/orb"
)

func sampleDataset(t *testing.T) Dataset {
	t.Helper()
	ds, err := Generate(obuasi(), NewSource(11), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestFeatureCollectionGeometry(t *testing.T) {
	ds := sampleDataset(t)

	fc := ds.FeatureCollection(KindConcessions)
	if len(fc.Features) != len(ds.Concessions) {
		t.Fatalf("features=%d, want %d", len(fc.Features), len(ds.Concessions))
	}
	poly, ok := fc.Features[0].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("geometry=%T, want orb.Polygon", fc.Features[0].Geometry)
	}
	if !poly[0].Closed() {
		t.Fatal("exported ring not closed")
	}
	if fc.Features[0].ID != ds.Concessions[0].ID {
		t.Fatalf("id=%v, want %s", fc.Features[0].ID, ds.Concessions[0].ID)
	}

	for _, kind := range []Kind{KindMines, KindTransactions, KindHeatmap} {
		fc := ds.FeatureCollection(kind)
		if len(fc.Features) != ds.Count(kind) {
			t.Fatalf("%s features=%d, want %d", kind, len(fc.Features), ds.Count(kind))
		}
		for _, f := range fc.Features {
			if _, ok := f.Geometry.(orb.Point); !ok {
				t.Fatalf("%s geometry=%T, want orb.Point", kind, f.Geometry)
			}
		}
	}

	if n := len(ds.FeatureCollection("roads").Features); n != 0 {
		t.Fatalf("unknown kind features=%d, want 0", n)
	}
}

func TestDatasetProperties(t *testing.T) {
	ds := sampleDataset(t)

	props, ok := ds.Properties(KindMines, ds.Mines[0].ID)
	if !ok {
		t.Fatal("mine not found")
	}
	if props.MustString("status", "") != "active" {
		t.Fatalf("status=%v, want active", props["status"])
	}
	if props.MustString("city", "") != "Obuasi" {
		t.Fatalf("city=%v, want Obuasi", props["city"])
	}

	h := ds.Heatmap[0]
	props, ok = ds.Properties(KindHeatmap, h.ID)
	if !ok {
		t.Fatal("heatmap point not found")
	}
	if props.MustFloat64("activityIntensity", 0) != h.ActivityIntensity {
		t.Fatalf("intensity=%v, want %v", props["activityIntensity"], h.ActivityIntensity)
	}
	if props.MustString("sourceId", "") != h.SourceID {
		t.Fatalf("sourceId=%v, want %s", props["sourceId"], h.SourceID)
	}

	if _, ok := ds.Properties(KindConcessions, "conc_9_9"); ok {
		t.Fatal("expected missing concession")
	}
}

func TestValidateRejectsBrokenData(t *testing.T) {
	ds := sampleDataset(t)
	if err := ds.Validate(); err != nil {
		t.Fatalf("generated dataset invalid: %v", err)
	}

	open := sampleDataset(t)
	open.Concessions[0].Polygon = open.Concessions[0].Polygon[:len(open.Concessions[0].Polygon)-1]
	if err := open.Validate(); err == nil {
		t.Fatal("expected error for open ring")
	}

	dup := sampleDataset(t)
	dup.Mines = append(dup.Mines, dup.Mines[0])
	if err := dup.Validate(); err == nil {
		t.Fatal("expected error for duplicate id")
	}

	status := sampleDataset(t)
	status.Mines[0].Status = "abandoned"
	if err := status.Validate(); err == nil {
		t.Fatal("expected error for unknown status")
	}

	zero := sampleDataset(t)
	zero.Heatmap[0].ActivityIntensity = 0
	if err := zero.Validate(); err == nil {
		t.Fatal("expected error for zero intensity")
	}
}
