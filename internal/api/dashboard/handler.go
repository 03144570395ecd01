package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-gold/internal/humastar"
	"github.com/joeblew999/plat-gold/internal/logging"
	"github.com/joeblew999/plat-gold/internal/service"
	"github.com/joeblew999/plat-gold/internal/templates"
)

const (
	statsSelector  = "#stat-cards"
	layersSelector = "#layer-list"
	tilesSelector  = "#tile-list"
)

// Handler serves the dashboard fragments over Datastar SSE.
type Handler struct {
	humastar.Handler
	dataset    *service.DatasetService
	visibility *service.VisibilityStore
	tiles      *service.TileService
	bus        *service.EventBus
	log        logging.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(dataset *service.DatasetService, visibility *service.VisibilityStore, tiles *service.TileService, bus *service.EventBus, renderer *templates.Renderer, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Noop()
	}
	return &Handler{
		Handler:    humastar.Handler{Renderer: renderer},
		dataset:    dataset,
		visibility: visibility,
		tiles:      tiles,
		bus:        bus,
		log:        log.With(logging.String("component", "dashboard")),
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("dashboard")
	huma.Get(api, "/api/v1/dashboard/stats", h.Stats, tags)
	huma.Get(api, "/api/v1/dashboard/layers", h.Layers, tags)
	huma.Get(api, "/api/v1/dashboard/tiles", h.Tiles, tags)
	huma.Post(api, "/api/v1/dashboard/layers/{id}/toggle", h.Toggle, tags)
	huma.Post(api, "/api/v1/dashboard/visibility/reset", h.ResetVisibility, tags)
	huma.Post(api, "/api/v1/dashboard/reseed", h.Reseed, tags)
	huma.Get(api, "/api/v1/dashboard/events", h.Events, tags)
}

// Page serves the dashboard HTML shell.
func (h *Handler) Page() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := h.dataset.Current()
		html, err := h.Renderer.Render("dashboard", PageData{
			Title:     "Ghana Gold Mining",
			Seed:      snap.Seed,
			CanReseed: h.dataset.Origin() == service.OriginMock,
		})
		if err != nil {
			h.log.Error(r.Context(), "render dashboard", logging.Err(err))
			http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	})
}

func (h *Handler) Stats(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderStats(), statsSelector)
	}), nil
}

func (h *Handler) Layers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderLayers(), layersSelector)
	}), nil
}

func (h *Handler) Tiles(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderTiles(), tilesSelector)
	}), nil
}

type ToggleInput struct {
	ID string `path:"id" doc:"Layer ID to show or hide"`
}

func (h *Handler) Toggle(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		on, err := h.visibility.Toggle(input.ID)
		if err != nil {
			if errors.Is(err, service.ErrUnknownLayer) {
				sse.Error("Unknown layer: " + input.ID)
			} else {
				sse.Error(err.Error())
			}
			return
		}
		sse.Patch(h.renderLayers(), layersSelector)
		sse.DispatchCustomEvent("layer-visibility", map[string]any{
			"id": input.ID, "visible": on,
		})
	}), nil
}

func (h *Handler) ResetVisibility(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if _, err := h.visibility.Reset(); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderLayers(), layersSelector)
		sse.Signals(map[string]any{"error": "", "success": "Layer visibility reset"})
	}), nil
}

func (h *Handler) Reseed(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	seed, ok := signals.Uint64("seed")
	if !ok {
		return nil, huma.Error400BadRequest("seed must be a non-negative integer")
	}

	return h.Stream(func(sse humastar.SSE) {
		snap, err := h.dataset.Reseed(ctx, seed)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderStats(), statsSelector)
		sse.Patch(h.renderLayers(), layersSelector)
		sse.Signals(map[string]any{
			"error":   "",
			"success": fmt.Sprintf("Regenerated with seed %d", snap.Seed),
		})
	}), nil
}

// Events streams bus changes: dataset and visibility events re-patch the
// fragments they affect, and every event is also dispatched as a
// "resource-changed" browser event.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				switch ev.Resource {
				case service.ResourceDataset:
					sse.Patch(h.renderStats(), statsSelector)
					sse.Patch(h.renderLayers(), layersSelector)
				case service.ResourceVisibility:
					sse.Patch(h.renderLayers(), layersSelector)
				case service.ResourceTiles:
					sse.Patch(h.renderTiles(), tilesSelector)
				}
				sse.DispatchCustomEvent("resource-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"id":       ev.ID,
				})
			}
		}
	}), nil
}

func (h *Handler) renderStats() string {
	return h.Render("stat-cards", statCards(h.dataset.Current()))
}

func (h *Handler) renderLayers() string {
	items := layerItems(h.dataset.Dataset(), h.visibility.Snapshot())
	return h.Render("layer-list", items)
}

func (h *Handler) renderTiles() string {
	var items []any
	if h.tiles != nil {
		files, err := h.tiles.List()
		if err != nil {
			h.log.Warn(context.Background(), "list tiles", logging.Err(err))
		}
		for _, f := range files {
			items = append(items, f)
		}
	}
	return h.RenderList("tile-item", items, "No tiles exported", "POST /api/v1/tiles to export a layer")
}
