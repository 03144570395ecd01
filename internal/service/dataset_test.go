package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joeblew999/plat-gold/internal/db"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/observability"
	"github.com/joeblew999/plat-gold/internal/region"
)

func newDatasetService(t *testing.T, opts DatasetOptions) *DatasetService {
	t.Helper()
	if opts.Config == (mining.Config{}) {
		opts.Config = mining.DefaultConfig()
	}
	s, err := NewDatasetService(context.Background(), opts)
	if err != nil {
		t.Fatalf("NewDatasetService: %v", err)
	}
	return s
}

func TestDatasetServiceReseedIsDeterministic(t *testing.T) {
	bus := NewEventBus()
	events := bus.Subscribe()
	s := newDatasetService(t, DatasetOptions{Seed: 7, Bus: bus})

	first := s.Current()
	if first.Origin != OriginMock || first.Seed != 7 || first.ID == "" {
		t.Fatalf("snapshot=%+v", first)
	}
	if e := <-events; e.Resource != ResourceDataset || e.Action != "loaded" {
		t.Fatalf("event=%+v", e)
	}

	other, err := s.Reseed(context.Background(), 8)
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(other.Data, first.Data) {
		t.Fatal("different seed gave identical data")
	}
	if e := <-events; e.Action != "reseeded" || e.ID != other.ID {
		t.Fatalf("event=%+v", e)
	}

	again, err := s.Reseed(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again.Data, first.Data) {
		t.Fatal("same seed gave different data")
	}
	if again.ID == first.ID {
		t.Fatal("snapshot ids should be unique")
	}
	if s.Current().ID != again.ID {
		t.Fatal("reseed did not replace the current snapshot")
	}
}

func TestDatasetServiceInvalidConfig(t *testing.T) {
	cfg := mining.DefaultConfig()
	cfg.PolygonVertices = mining.IntRange{Min: 3, Max: 4}
	_, err := NewDatasetService(context.Background(), DatasetOptions{Config: cfg})
	var cfgErr *mining.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err=%v, want ConfigurationError", err)
	}
}

func TestDatasetServiceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	s := newDatasetService(t, DatasetOptions{Metrics: m, Regions: region.Regions()[:1]})

	if got := testutil.ToFloat64(m.Generations.WithLabelValues("mock")); got != 1 {
		t.Fatalf("generations=%v, want 1", got)
	}
	want := float64(s.Current().Stats().MineCount)
	if got := testutil.ToFloat64(m.LayerFeatures.WithLabelValues("ghanaGoldMinesLayer")); got != want {
		t.Fatalf("mines gauge=%v, want %v", got, want)
	}
}

func TestDatasetServiceTableOrigin(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(db.Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// A mock service with a database mirrors its snapshot into the tables.
	mock := newDatasetService(t, DatasetOptions{Seed: 11, DB: conn})

	table := newDatasetService(t, DatasetOptions{Origin: OriginTable, DB: conn})
	if table.Origin() != OriginTable {
		t.Fatalf("origin=%s", table.Origin())
	}
	if table.Current().Stats() != mock.Current().Stats() {
		t.Fatalf("stats=%+v, want %+v", table.Current().Stats(), mock.Current().Stats())
	}
	if !reflect.DeepEqual(table.Dataset().Mines, mock.Dataset().Mines) {
		t.Fatal("table mines differ from the mirrored mock mines")
	}
	if _, err := table.Reseed(ctx, 1); !errors.Is(err, ErrTableOrigin) {
		t.Fatalf("err=%v, want ErrTableOrigin", err)
	}
}

func TestDatasetServiceConcurrentReseedKeepsTablesInSync(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(db.Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	s := newDatasetService(t, DatasetOptions{Seed: 1, DB: conn})
	var wg sync.WaitGroup
	for seed := uint64(2); seed < 10; seed++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Reseed(ctx, seed); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	stored, err := db.LoadDataset(ctx, conn)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stored.Mines, s.Dataset().Mines) {
		t.Fatalf("tables hold a different snapshot than seed %d", s.Current().Seed)
	}
}

func TestDatasetServiceTableOriginNeedsDB(t *testing.T) {
	if _, err := NewDatasetService(context.Background(), DatasetOptions{Origin: OriginTable, Config: mining.DefaultConfig()}); err == nil {
		t.Fatal("expected error without database")
	}
}

func TestParseOrigin(t *testing.T) {
	for in, want := range map[string]Origin{"": OriginMock, "mock": OriginMock, "table": OriginTable} {
		got, err := ParseOrigin(in)
		if err != nil || got != want {
			t.Errorf("ParseOrigin(%q)=%q,%v", in, got, err)
		}
	}
	if _, err := ParseOrigin("carto"); err == nil {
		t.Fatal("expected error")
	}
}
