package readout

import (
	"context"
	"log/slog"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geovisor/internal/metrics"
	"github.com/joeblew999/geovisor/internal/service"
	"github.com/joeblew999/geovisor/internal/templates"
)

// Element ids patched by the readout streams.
const (
	ReadoutSelector    = "#readout"
	CandidatesSelector = "#candidates"
	SystemsSelector    = "#system-list"
)

// Handler streams cursor readouts and catalog changes to the map page.
type Handler struct {
	conversion *service.ConversionService
	renderer   *templates.Renderer
	bus        *service.EventBus
	logger     *slog.Logger
}

// NewHandler creates a readout handler. renderer defaults to the built-in
// fragments.
func NewHandler(conversion *service.ConversionService, renderer *templates.Renderer, bus *service.EventBus, logger *slog.Logger) *Handler {
	if renderer == nil {
		renderer = templates.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{conversion: conversion, renderer: renderer, bus: bus, logger: logger}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/readout", h.Readout, huma.OperationTags("readout"))
	huma.Get(api, "/api/v1/readout/events", h.Events, huma.OperationTags("readout"))
}

// Readout answers one cursor position with signal and fragment patches.
func (h *Handler) Readout(ctx context.Context, input *SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	if !signals.Has("lat") || !signals.Has("lng") {
		return nil, huma.Error400BadRequest("lat and lng signals are required")
	}
	lat, okLat := signals.Float("lat")
	lng, okLng := signals.Float("lng")
	if !okLat || !okLng {
		return nil, huma.Error400BadRequest("lat and lng signals must be numbers")
	}
	coord := service.Coordinate{Lat: lat, Lng: lng}
	// An empty target keeps the resolved system.
	target := strings.TrimSpace(signals.String("target"))

	return stream(func(sse SSE) {
		r, err := h.conversion.Readout(coord, target)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(map[string]any{
			"dms":      r.DMS,
			"zone":     r.Zone,
			"epsg":     r.EPSG,
			"system":   r.System,
			"easting":  r.Easting,
			"northing": r.Northing,
			"error":    "",
		})
		if html, err := h.renderer.Render("readout", r); err == nil {
			sse.Patch(html, ReadoutSelector)
		} else {
			h.logger.Warn("render readout", "error", err)
		}
		if res, err := h.conversion.Resolve(coord); err == nil {
			if html, err := h.renderer.Render("candidates", res.Candidates); err == nil {
				sse.Patch(html, CandidatesSelector)
			}
		}
	}), nil
}

// Events keeps a stream open and pushes catalog reloads and finished exports.
func (h *Handler) Events(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	if h.bus == nil {
		return nil, huma.Error503ServiceUnavailable("event bus not available")
	}
	return stream(func(sse SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)
		metrics.ReadoutStreams.Inc()
		defer metrics.ReadoutStreams.Dec()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.Resource == "catalog" {
					html, err := h.renderer.Render("system-list", h.conversion.Systems(""))
					if err == nil {
						sse.Patch(html, SystemsSelector)
					}
				}
				sse.Signals(map[string]any{
					"lastEvent": map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					},
				})
			}
		}
	}), nil
}
