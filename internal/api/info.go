package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir string
	svc     *Services
}

func NewInfoHandler(dataDir string, svc *Services) *InfoHandler {
	if svc == nil {
		svc = &Services{}
	}
	return &InfoHandler{dataDir: dataDir, svc: svc}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name       string   `json:"name" doc:"Service name"`
	Version    string   `json:"version" doc:"Service version"`
	DataDir    string   `json:"data_dir" doc:"Data directory path"`
	SourcesDir string   `json:"sources_dir,omitempty" doc:"Directory scanned for GeoJSON sources"`
	ExportsDir string   `json:"exports_dir,omitempty" doc:"Directory export files are written to"`
	DB         bool     `json:"db" doc:"Whether database is available"`
	Systems    int      `json:"systems" doc:"Number of catalogued reference systems"`
	Features   []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "geovisor",
		Version:  "0.1.0",
		DataDir:  h.dataDir,
		DB:       h.svc.Export != nil,
		Features: []string{"resolve", "utm", "tmerc", "towgs84", "dms", "readout"},
	}
	if h.svc.Conversion != nil {
		body.Systems = h.svc.Conversion.Resolver().Catalog().Len()
	}
	if h.svc.Source != nil {
		body.SourcesDir = h.svc.Source.SourcesDir()
	}
	if h.svc.Export != nil {
		body.ExportsDir = h.svc.Export.ExportsDir()
		body.Features = append(body.Features, "duckdb", "csv", "parquet")
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
