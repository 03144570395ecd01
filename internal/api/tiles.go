package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-gold/internal/logging"
	"github.com/joeblew999/plat-gold/internal/service"
)

type ExportInput struct {
	Body service.ExportOptions
}

// RegisterTiles registers PMTiles listing and export routes.
func (h *APIHandler) RegisterTiles(api huma.API) {
	huma.Get(api, "/api/v1/tiles", h.GetTiles, huma.OperationTags("tiles"))
	huma.Post(api, "/api/v1/tiles", h.ExportTiles, huma.OperationTags("tiles"))
}

func (h *APIHandler) GetTiles(ctx context.Context, input *struct{}) (*struct{ Body []service.TileFile }, error) {
	if h.svc.Tiles == nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	tiles, err := h.svc.Tiles.List()
	if err != nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	return &struct{ Body []service.TileFile }{Body: tiles}, nil
}

func (h *APIHandler) ExportTiles(ctx context.Context, input *ExportInput) (*struct{ Body service.TileFile }, error) {
	if h.svc.Tiles == nil || h.svc.Dataset == nil {
		return nil, huma.Error503ServiceUnavailable("tile export not available")
	}
	opts := input.Body
	if opts.MinZoom > opts.MaxZoom {
		return nil, huma.Error400BadRequest("minZoom must not exceed maxZoom")
	}
	file, err := h.svc.Tiles.Export(ctx, h.svc.Dataset.Dataset(), opts, nil)
	if err != nil {
		if errors.Is(err, service.ErrUnknownLayer) {
			return nil, huma.Error404NotFound("layer not found")
		}
		h.log.Warn(ctx, "tile export failed", logging.String("layer", opts.Layer), logging.Err(err))
		return nil, huma.Error400BadRequest("Tile generation failed: " + err.Error())
	}
	return &struct{ Body service.TileFile }{Body: file}, nil
}
