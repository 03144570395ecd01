package api

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-gold/internal/logging"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/region"
	"github.com/joeblew999/plat-gold/internal/service"
	"github.com/joeblew999/plat-gold/internal/spatial"
)

type RegionsBody struct {
	Regions   []region.Region `json:"regions" doc:"Mining regions in catalog order"`
	Countries []string        `json:"countries" doc:"Distinct countries"`
	View      region.View     `json:"view" doc:"Initial map camera"`
	Bounds    [4]float64      `json:"bounds" doc:"Map extent as [minLng, minLat, maxLng, maxLat]"`
}

type NearestInput struct {
	Lng float64 `query:"lng" minimum:"-180" maximum:"180" required:"true" doc:"Longitude"`
	Lat float64 `query:"lat" minimum:"-90" maximum:"90" required:"true" doc:"Latitude"`
}

type NearestBody struct {
	Region     region.Region `json:"region"`
	DistanceKm float64       `json:"distanceKm" doc:"Great-circle distance to the region center"`
}

type DatasetBody struct {
	ID          string         `json:"id" doc:"Snapshot id"`
	Seed        uint64         `json:"seed" doc:"Random seed (mock origin only)"`
	Origin      service.Origin `json:"origin" enum:"mock,table"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Config      mining.Config  `json:"config" doc:"Generator settings used"`
	Stats       mining.Stats   `json:"stats"`
}

type ReseedInput struct {
	Body struct {
		Seed *uint64 `json:"seed,omitempty" doc:"Seed to generate with; random when omitted"`
	}
}

// RegisterRegions registers the region catalog routes.
func (h *APIHandler) RegisterRegions(api huma.API) {
	huma.Get(api, "/api/v1/regions", h.GetRegions, huma.OperationTags("regions"))
	huma.Get(api, "/api/v1/regions/nearest", h.GetNearestRegion, huma.OperationTags("regions"))
}

// RegisterDataset registers snapshot and stats routes.
func (h *APIHandler) RegisterDataset(api huma.API) {
	huma.Get(api, "/api/v1/dataset", h.GetDataset, huma.OperationTags("dataset"))
	huma.Post(api, "/api/v1/dataset/reseed", h.Reseed, huma.OperationTags("dataset"))
	huma.Get(api, "/api/v1/stats", h.GetStats, huma.OperationTags("dataset"))
}

func (h *APIHandler) GetRegions(ctx context.Context, input *struct{}) (*struct{ Body RegionsBody }, error) {
	b := region.WestAfricaBounds
	return &struct{ Body RegionsBody }{Body: RegionsBody{
		Regions:   region.Regions(),
		Countries: region.Countries(),
		View:      region.GhanaCenter,
		Bounds:    [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()},
	}}, nil
}

func (h *APIHandler) GetNearestRegion(ctx context.Context, input *NearestInput) (*struct{ Body NearestBody }, error) {
	regions := region.Regions()
	centers := make([]orb.Point, len(regions))
	for i, r := range regions {
		centers[i] = r.Center()
	}
	i, km := spatial.Nearest(orb.Point{input.Lng, input.Lat}, centers)
	if i < 0 {
		return nil, huma.Error404NotFound("no regions")
	}
	return &struct{ Body NearestBody }{Body: NearestBody{Region: regions[i], DistanceKm: km}}, nil
}

func (h *APIHandler) GetDataset(ctx context.Context, input *struct{}) (*struct{ Body DatasetBody }, error) {
	if h.svc.Dataset == nil {
		return nil, huma.Error503ServiceUnavailable("dataset not available")
	}
	return &struct{ Body DatasetBody }{Body: datasetBody(h.svc.Dataset.Current())}, nil
}

func (h *APIHandler) Reseed(ctx context.Context, input *ReseedInput) (*struct{ Body DatasetBody }, error) {
	if h.svc.Dataset == nil {
		return nil, huma.Error503ServiceUnavailable("dataset not available")
	}
	seed := rand.Uint64()
	if input.Body.Seed != nil {
		seed = *input.Body.Seed
	}
	snap, err := h.svc.Dataset.Reseed(ctx, seed)
	if err != nil {
		if errors.Is(err, service.ErrTableOrigin) {
			return nil, huma.Error409Conflict(err.Error())
		}
		h.log.Error(ctx, "reseed failed", logging.Err(err))
		return nil, huma.Error500InternalServerError("reseed failed", err)
	}
	return &struct{ Body DatasetBody }{Body: datasetBody(snap)}, nil
}

func (h *APIHandler) GetStats(ctx context.Context, input *struct{}) (*struct{ Body mining.Stats }, error) {
	if h.svc.Dataset == nil {
		return nil, huma.Error503ServiceUnavailable("dataset not available")
	}
	return &struct{ Body mining.Stats }{Body: h.svc.Dataset.Current().Stats()}, nil
}

func datasetBody(s service.Snapshot) DatasetBody {
	return DatasetBody{
		ID:          s.ID,
		Seed:        s.Seed,
		Origin:      s.Origin,
		GeneratedAt: s.GeneratedAt,
		Config:      s.Config,
		Stats:       s.Stats(),
	}
}
