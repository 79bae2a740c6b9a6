package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geovisor/internal/crs"
	"github.com/joeblew999/geovisor/internal/service"
)

// toHumaError maps service and crs errors onto HTTP problem responses.
func toHumaError(err error) error {
	var pe *crs.ParseError
	switch {
	case errors.As(err, &pe):
		return huma.Error400BadRequest(err.Error(), &huma.ErrorDetail{
			Message:  string(pe.Reason),
			Location: "body.text",
			Value:    pe.Text,
		})
	case errors.Is(err, service.ErrNoDatabase):
		return huma.Error503ServiceUnavailable(err.Error())
	case errors.Is(err, service.ErrSourceNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrNotReadOnly):
		return huma.Error400BadRequest(err.Error())
	}

	switch crs.KindOf(err) {
	case crs.KindOutOfRange, crs.KindTransform:
		return huma.Error422UnprocessableEntity(err.Error())
	case crs.KindUnknownSystem:
		return huma.Error404NotFound(err.Error())
	case crs.KindNone:
		return nil
	}
	return huma.Error500InternalServerError("internal error", err)
}
