package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-gold/internal/humastar"
	"github.com/joeblew999/plat-gold/internal/layers"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/service"
)

var layerActions = []humastar.ActionDef{
	{Rel: "toggle-visibility", Path: "/api/v1/layers/{id}/visibility", Method: "PUT", Title: "Show or hide layer"},
	{Rel: "alternate", Path: "/api/v1/layers/{id}/geojson", Method: "GET", Title: "GeoJSON"},
}

// LayerBody is one layer descriptor as served over the API.
type LayerBody struct {
	ID           string             `json:"id" doc:"Layer id" example:"ghanaGoldMinesLayer"`
	Type         string             `json:"type" enum:"polygon,point,heatmap" doc:"Geometry family"`
	Visible      bool               `json:"visible" doc:"Current visibility"`
	FeatureCount int                `json:"featureCount" doc:"Features in the layer"`
	Style        any                `json:"style" doc:"Render style for the layer type"`
	Legend       layers.LegendEntry `json:"legend"`
}

// Actions implements humastar.Actor.
func (b LayerBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, layerActions)
}

type LayerIDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"ghanaGoldConcessionsLayer"`
}

type VisibilityInput struct {
	LayerIDInput
	Body struct {
		Visible bool `json:"visible" doc:"Show (true) or hide (false) the layer"`
	}
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type FeaturesInput struct {
	LayerIDInput
	humastar.PageInput
}

// FeatureSummary is a flat, table-friendly view of one feature.
type FeatureSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Subregion string  `json:"subregion"`
	Country   string  `json:"country"`
	Lng       float64 `json:"lng"`
	Lat       float64 `json:"lat"`
}

type FeatureTooltipInput struct {
	LayerIDInput
	FeatureID string `path:"featureId" doc:"Feature id" example:"mine_0_0"`
}

type TooltipInput struct {
	Body struct {
		Layer      string         `json:"layer" required:"true" doc:"Layer id the feature belongs to" example:"ghanaGoldMinesLayer"`
		Properties map[string]any `json:"properties" doc:"Feature properties"`
	}
}

type TooltipBody struct {
	Layer   string `json:"layer"`
	Present bool   `json:"present" doc:"False when the layer shows no tooltip for these properties"`
	HTML    string `json:"html,omitempty" doc:"Tooltip markup"`
}

// RegisterLayers registers layer, visibility and tooltip routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}/geojson", h.GetLayerGeoJSON, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}/features", h.GetLayerFeatures, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}/features/{featureId}/tooltip", h.GetFeatureTooltip, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{id}/visibility", h.PutVisibility, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}/visibility", h.GetLayerVisibility, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/visibility", h.GetVisibility, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/visibility/reset", h.ResetVisibility, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/tooltip", h.PostTooltip, huma.OperationTags("layers"))
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*struct{ Body []LayerBody }, error) {
	ls, err := h.buildLayers()
	if err != nil {
		return nil, err
	}
	out := make([]LayerBody, len(ls))
	for i, l := range ls {
		out[i] = layerBody(l)
	}
	return &struct{ Body []LayerBody }{Body: out}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *LayerIDInput) (*struct{ Body LayerBody }, error) {
	l, err := h.findLayer(input.ID)
	if err != nil {
		return nil, err
	}
	return &struct{ Body LayerBody }{Body: layerBody(l)}, nil
}

func (h *APIHandler) GetLayerGeoJSON(ctx context.Context, input *LayerIDInput) (*GeoJSONOutput, error) {
	l, err := h.findLayer(input.ID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(l.FeatureCollection())
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to encode GeoJSON", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) GetLayerFeatures(ctx context.Context, input *FeaturesInput) (*struct {
	Body humastar.PageBody[FeatureSummary]
}, error) {
	kind, err := h.kindOf(input.ID)
	if err != nil {
		return nil, err
	}
	feats := h.svc.Dataset.Dataset().Features(kind)
	summaries := make([]FeatureSummary, len(feats))
	for i, f := range feats {
		summaries[i] = FeatureSummary{
			ID: f.ID, Name: f.Name, City: f.City, Subregion: f.Subregion, Country: f.Country,
			Lng: f.Position.Lon(), Lat: f.Position.Lat(),
		}
	}
	return &struct {
		Body humastar.PageBody[FeatureSummary]
	}{Body: humastar.Paginate(summaries, input.Offset, input.Limit)}, nil
}

func (h *APIHandler) GetFeatureTooltip(ctx context.Context, input *FeatureTooltipInput) (*struct{ Body TooltipBody }, error) {
	kind, err := h.kindOf(input.ID)
	if err != nil {
		return nil, err
	}
	props, ok := h.svc.Dataset.Dataset().Properties(kind, input.FeatureID)
	if !ok {
		return nil, huma.Error404NotFound("feature not found")
	}
	return &struct{ Body TooltipBody }{Body: h.tooltip(input.ID, props)}, nil
}

func (h *APIHandler) PostTooltip(ctx context.Context, input *TooltipInput) (*struct{ Body TooltipBody }, error) {
	return &struct{ Body TooltipBody }{Body: h.tooltip(input.Body.Layer, input.Body.Properties)}, nil
}

type LayerVisibilityBody struct {
	ID      string `json:"id" doc:"Layer ID"`
	Visible bool   `json:"visible" doc:"Current visibility"`
}

func (h *APIHandler) GetLayerVisibility(ctx context.Context, input *LayerIDInput) (*struct{ Body LayerVisibilityBody }, error) {
	if h.svc.Visibility == nil {
		return nil, huma.Error503ServiceUnavailable("visibility store not available")
	}
	on, err := h.svc.Visibility.Get(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &struct{ Body LayerVisibilityBody }{Body: LayerVisibilityBody{ID: input.ID, Visible: on}}, nil
}

func (h *APIHandler) GetVisibility(ctx context.Context, input *struct{}) (*struct{ Body map[string]bool }, error) {
	if h.svc.Visibility == nil {
		return nil, huma.Error503ServiceUnavailable("visibility store not available")
	}
	return &struct{ Body map[string]bool }{Body: visibilityMap(h.svc.Visibility.Snapshot())}, nil
}

// ResetVisibility restores the default visibility of every layer.
func (h *APIHandler) ResetVisibility(ctx context.Context, input *struct{}) (*struct{ Body map[string]bool }, error) {
	if h.svc.Visibility == nil {
		return nil, huma.Error503ServiceUnavailable("visibility store not available")
	}
	vis, err := h.svc.Visibility.Reset()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to save visibility", err)
	}
	return &struct{ Body map[string]bool }{Body: visibilityMap(vis)}, nil
}

func visibilityMap(vis layers.Visibility) map[string]bool {
	out := make(map[string]bool, len(vis))
	for id, on := range vis {
		out[string(id)] = on
	}
	return out
}

func (h *APIHandler) PutVisibility(ctx context.Context, input *VisibilityInput) (*struct{ Body LayerBody }, error) {
	if h.svc.Visibility == nil {
		return nil, huma.Error503ServiceUnavailable("visibility store not available")
	}
	if _, err := h.svc.Visibility.Set(input.ID, input.Body.Visible); err != nil {
		if errors.Is(err, service.ErrUnknownLayer) {
			return nil, huma.Error404NotFound("layer not found")
		}
		return nil, huma.Error500InternalServerError("Failed to save visibility", err)
	}
	l, err := h.findLayer(input.ID)
	if err != nil {
		return nil, err
	}
	return &struct{ Body LayerBody }{Body: layerBody(l)}, nil
}

func (h *APIHandler) tooltip(layer string, props geojson.Properties) TooltipBody {
	var html string
	id, ok := layers.Parse(layer)
	if ok {
		html, ok = layers.TooltipFor(id, props)
	}
	h.svc.Metrics.RecordTooltip(layer, ok)
	return TooltipBody{Layer: layer, Present: ok, HTML: html}
}

func (h *APIHandler) buildLayers() ([]layers.Descriptor, error) {
	if h.svc.Dataset == nil || h.svc.Visibility == nil {
		return nil, huma.Error503ServiceUnavailable("layers not available")
	}
	return layers.BuildLayers(h.svc.Dataset.Dataset(), h.svc.Visibility.Snapshot()), nil
}

func (h *APIHandler) findLayer(raw string) (layers.Descriptor, error) {
	id, ok := layers.Parse(raw)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	ls, err := h.buildLayers()
	if err != nil {
		return nil, err
	}
	l, _ := layers.Find(ls, id)
	return l, nil
}

func (h *APIHandler) kindOf(raw string) (mining.Kind, error) {
	id, ok := layers.Parse(raw)
	if !ok {
		return "", huma.Error404NotFound("layer not found")
	}
	if h.svc.Dataset == nil {
		return "", huma.Error503ServiceUnavailable("dataset not available")
	}
	kind, _ := id.Kind()
	return kind, nil
}

func layerBody(l layers.Descriptor) LayerBody {
	legend, _ := layers.LegendFor(l.LayerID())
	return LayerBody{
		ID:           string(l.LayerID()),
		Type:         l.Type(),
		Visible:      l.IsVisible(),
		FeatureCount: l.Len(),
		Style:        styleOf(l),
		Legend:       legend,
	}
}

func styleOf(l layers.Descriptor) any {
	switch l := l.(type) {
	case layers.PolygonLayer:
		return l.Style
	case layers.PointLayer[mining.Mine]:
		return l.Style
	case layers.PointLayer[mining.Transaction]:
		return l.Style
	case layers.HeatmapLayer:
		return l.Style
	}
	return nil
}
