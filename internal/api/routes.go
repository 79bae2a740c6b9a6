// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geovisor/internal/service"
	"github.com/joeblew999/geovisor/internal/templates"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Conversion *service.ConversionService
	Source     *service.SourceService
	Export     *service.ExportService

	// Fragments are re-parsed from FragmentsDir on catalog reload. An empty
	// FragmentsDir restores the built-in fragments.
	Fragments    *templates.Renderer
	FragmentsDir string
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Reference system id" example:"EPSG:32717"`
}

type SystemsInput struct {
	Region string `query:"region" doc:"Only systems valid in this region" example:"Ecuador"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int    `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Page size"`
}

type CoordinateQuery struct {
	Lat float64 `query:"lat" required:"true" minimum:"-90" maximum:"90" doc:"Latitude in decimal degrees" example:"-0.1807"`
	Lng float64 `query:"lng" required:"true" minimum:"-180" maximum:"180" doc:"Longitude in decimal degrees" example:"-78.4678"`
}

func (q CoordinateQuery) coordinate() service.Coordinate {
	return service.Coordinate{Lat: q.Lat, Lng: q.Lng}
}

type ProjectBody struct {
	service.Coordinate
	System string `json:"system,omitempty" doc:"Target system id, resolved from the coordinate when empty" example:"EPSG:32717"`
}

type ConvertBody struct {
	service.Projected
	Target string `json:"target" required:"true" minLength:"1" doc:"Target system id" example:"EPSG:24817"`
}

type DMSBody struct {
	DMS string `json:"dms" doc:"Coordinate in degrees, minutes and seconds" example:"0°10'50.52\"S 78°28'4.08\"W"`
}

type ParseDMSBody struct {
	Text string `json:"text" required:"true" minLength:"1" doc:"Degrees, minutes and seconds text" example:"0°10'50.52\"S 78°28'4.08\"W"`
}

type CatalogBody struct {
	Systems int    `json:"systems" doc:"Number of catalogued systems"`
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterSystems registers catalog routes.
func (h *APIHandler) RegisterSystems(api huma.API) {
	huma.Get(api, "/api/v1/systems", h.GetSystems, huma.OperationTags("systems"))
	huma.Get(api, "/api/v1/systems/{id}", h.GetSystem, huma.OperationTags("systems"))
	huma.Get(api, "/api/v1/resolve", h.GetResolve, huma.OperationTags("systems"))
	huma.Post(api, "/api/v1/catalog/reload", h.ReloadCatalog, huma.OperationTags("systems"),
		huma.OperationDescription("Re-read the catalog file and the page fragments. A failed catalog keeps the current one."))
}

// RegisterConversions registers projection routes.
func (h *APIHandler) RegisterConversions(api huma.API) {
	huma.Post(api, "/api/v1/project", h.Project, huma.OperationTags("convert"))
	huma.Post(api, "/api/v1/unproject", h.Unproject, huma.OperationTags("convert"))
	huma.Post(api, "/api/v1/convert", h.Convert, huma.OperationTags("convert"))
	huma.Get(api, "/api/v1/dms", h.GetDMS, huma.OperationTags("convert"))
	huma.Post(api, "/api/v1/dms/parse", h.ParseDMS, huma.OperationTags("convert"))
}

// RegisterSources registers source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetSystems(ctx context.Context, input *SystemsInput) (*struct {
	Body PageBody[service.SystemInfo]
}, error) {
	var systems []service.SystemInfo
	if h.svc != nil && h.svc.Conversion != nil {
		systems = h.svc.Conversion.Systems(input.Region)
	}
	return &struct {
		Body PageBody[service.SystemInfo]
	}{Body: Page(systems, input.Offset, input.Limit)}, nil
}

func (h *APIHandler) GetSystem(ctx context.Context, input *IDInput) (*struct{ Body SystemBody }, error) {
	if h.svc == nil || h.svc.Conversion == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	info, err := h.svc.Conversion.System(input.ID)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body SystemBody }{Body: SystemBody{info}}, nil
}

func (h *APIHandler) GetResolve(ctx context.Context, input *CoordinateQuery) (*struct{ Body service.Resolution }, error) {
	if h.svc == nil || h.svc.Conversion == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	res, err := h.svc.Conversion.Resolve(input.coordinate())
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body service.Resolution }{Body: res}, nil
}

func (h *APIHandler) ReloadCatalog(ctx context.Context, input *struct{}) (*struct{ Body CatalogBody }, error) {
	if h.svc == nil || h.svc.Conversion == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	n, err := h.svc.Conversion.ReloadCatalog()
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("catalog reload failed: " + err.Error())
	}
	msg := "Catalog reloaded"
	if h.svc.Fragments != nil {
		if err := h.svc.Fragments.Reload(h.svc.FragmentsDir); err != nil {
			return nil, huma.Error422UnprocessableEntity("fragment reload failed: " + err.Error())
		}
		msg = "Catalog and fragments reloaded"
	}
	return &struct{ Body CatalogBody }{Body: CatalogBody{Systems: n, Message: msg}}, nil
}

func (h *APIHandler) Project(ctx context.Context, input *struct{ Body ProjectBody }) (*struct{ Body service.ProjectionResult }, error) {
	if h.svc == nil || h.svc.Conversion == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	res, err := h.svc.Conversion.Project(input.Body.Coordinate, input.Body.System)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body service.ProjectionResult }{Body: res}, nil
}

func (h *APIHandler) Unproject(ctx context.Context, input *struct{ Body service.Projected }) (*struct{ Body service.UnprojectionResult }, error) {
	if h.svc == nil || h.svc.Conversion == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	res, err := h.svc.Conversion.Unproject(input.Body)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body service.UnprojectionResult }{Body: res}, nil
}

func (h *APIHandler) Convert(ctx context.Context, input *struct{ Body ConvertBody }) (*struct{ Body service.Projected }, error) {
	if h.svc == nil || h.svc.Conversion == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	out, err := h.svc.Conversion.Convert(input.Body.Projected, input.Body.Target)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body service.Projected }{Body: out}, nil
}

func (h *APIHandler) GetDMS(ctx context.Context, input *CoordinateQuery) (*struct{ Body DMSBody }, error) {
	if h.svc == nil || h.svc.Conversion == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	text, err := h.svc.Conversion.FormatDMS(input.coordinate())
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body DMSBody }{Body: DMSBody{DMS: text}}, nil
}

func (h *APIHandler) ParseDMS(ctx context.Context, input *struct{ Body ParseDMSBody }) (*struct{ Body service.Coordinate }, error) {
	if h.svc == nil || h.svc.Conversion == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	c, err := h.svc.Conversion.ParseDMS(input.Body.Text)
	if err != nil {
		return nil, toHumaError(err)
	}
	return &struct{ Body service.Coordinate }{Body: c}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc == nil || h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}
