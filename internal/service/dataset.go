package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/joeblew999/plat-gold/internal/db"
	"github.com/joeblew999/plat-gold/internal/layers"
	"github.com/joeblew999/plat-gold/internal/logging"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/observability"
	"github.com/joeblew999/plat-gold/internal/region"
)

// DatasetOptions configures a DatasetService. Only Regions and Config are
// needed for mock data; DB is required for the table origin and optional
// otherwise.
type DatasetOptions struct {
	Regions []region.Region
	Config  mining.Config
	Seed    uint64
	Origin  Origin
	DB      *sql.DB
	Bus     *EventBus
	Metrics *observability.Collector
	Log     logging.Logger
}

// DatasetService holds the current snapshot. Reads are lock-free copies of
// an immutable value; Reseed swaps the whole snapshot.
type DatasetService struct {
	opts DatasetOptions
	log  logging.Logger

	// reseedMu serializes generate, persist and swap so DuckDB and current
	// always hold the same snapshot.
	reseedMu sync.Mutex

	mu      sync.RWMutex
	current Snapshot
}

// NewDatasetService builds the first snapshot: generated for the mock origin,
// read from DuckDB for the table origin.
func NewDatasetService(ctx context.Context, opts DatasetOptions) (*DatasetService, error) {
	if opts.Origin == "" {
		opts.Origin = OriginMock
	}
	if opts.Regions == nil {
		opts.Regions = region.Regions()
	}
	if opts.Log == nil {
		opts.Log = logging.Noop()
	}
	s := &DatasetService{opts: opts, log: opts.Log.With(logging.String("component", "dataset"))}

	var (
		snap Snapshot
		err  error
	)
	switch opts.Origin {
	case OriginTable:
		snap, err = s.load(ctx)
	default:
		snap, err = s.generate(ctx, opts.Seed)
	}
	if err != nil {
		return nil, err
	}
	s.current = snap
	s.publish(snap, "loaded")
	return s, nil
}

// Current returns the current snapshot.
func (s *DatasetService) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dataset returns the current snapshot's data.
func (s *DatasetService) Dataset() mining.Dataset {
	return s.Current().Data
}

// Origin reports where snapshots come from.
func (s *DatasetService) Origin() Origin {
	return s.opts.Origin
}

// Reseed regenerates the mock dataset with seed and makes it current. The
// same seed always reproduces the same data.
func (s *DatasetService) Reseed(ctx context.Context, seed uint64) (Snapshot, error) {
	if s.opts.Origin == OriginTable {
		return Snapshot{}, ErrTableOrigin
	}
	s.reseedMu.Lock()
	defer s.reseedMu.Unlock()

	snap, err := s.generate(ctx, seed)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	s.publish(snap, "reseeded")
	return snap, nil
}

func (s *DatasetService) generate(ctx context.Context, seed uint64) (Snapshot, error) {
	ctx, span := observability.Tracer().Start(ctx, "dataset.generate")
	defer span.End()
	span.SetAttributes(attribute.Int64("seed", int64(seed)), attribute.Int("regions", len(s.opts.Regions)))

	data, err := mining.Generate(s.opts.Regions, mining.NewSource(seed), s.opts.Config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, fmt.Errorf("generate dataset: %w", err)
	}

	snap := Snapshot{
		ID:          uuid.NewString(),
		Seed:        seed,
		Origin:      OriginMock,
		GeneratedAt: time.Now().UTC(),
		Config:      s.opts.Config,
		Data:        data,
	}
	s.record(ctx, snap)

	if s.opts.DB != nil {
		s.persist(ctx, data)
	}
	return snap, nil
}

func (s *DatasetService) load(ctx context.Context) (Snapshot, error) {
	ctx, span := observability.Tracer().Start(ctx, "dataset.load")
	defer span.End()

	if s.opts.DB == nil {
		return Snapshot{}, fmt.Errorf("table origin needs a database")
	}
	data, err := db.LoadDataset(ctx, s.opts.DB)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, fmt.Errorf("load dataset: %w", err)
	}

	snap := Snapshot{
		ID:          uuid.NewString(),
		Origin:      OriginTable,
		GeneratedAt: time.Now().UTC(),
		Data:        data,
	}
	s.record(ctx, snap)
	return snap, nil
}

// persist mirrors a generated dataset into DuckDB so it can be queried.
// Failures are logged; the in-memory snapshot stays authoritative.
func (s *DatasetService) persist(ctx context.Context, data mining.Dataset) {
	ctx, span := observability.Tracer().Start(ctx, "dataset.persist")
	defer span.End()

	if err := db.SaveDataset(ctx, s.opts.DB, data); err != nil {
		span.RecordError(err)
		s.log.Warn(ctx, "persist dataset failed", logging.Err(err))
	}
}

func (s *DatasetService) record(ctx context.Context, snap Snapshot) {
	stats := snap.Stats()
	perLayer := make(map[string]int, 4)
	for _, kind := range mining.Kinds() {
		if id, ok := layers.ForKind(kind); ok {
			perLayer[string(id)] = snap.Data.Count(kind)
		}
	}
	s.opts.Metrics.RecordGeneration(string(snap.Origin), perLayer)
	s.log.Info(ctx, "dataset ready",
		logging.String("snapshot", snap.ID),
		logging.String("origin", string(snap.Origin)),
		logging.Any("seed", snap.Seed),
		logging.Int("concessions", stats.ConcessionCount),
		logging.Int("mines", stats.MineCount),
		logging.Int("transactions", stats.TransactionCount),
		logging.Int("heatmap", stats.HeatmapCount),
	)
}

func (s *DatasetService) publish(snap Snapshot, action string) {
	s.opts.Bus.Publish(Event{Resource: ResourceDataset, Action: action, ID: snap.ID})
}
