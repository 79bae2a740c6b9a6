package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geovisor/internal/crs"
	"github.com/joeblew999/geovisor/internal/service"
)

// DBHandler handles export and DuckDB endpoints.
type DBHandler struct {
	exports *service.ExportService
}

// NewDBHandler creates a new database handler.
func NewDBHandler(exports *service.ExportService) *DBHandler {
	return &DBHandler{exports: exports}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/exports", h.CreateExport, huma.OperationTags("exports"))
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("exports"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("exports"))
}

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"List of table names"`
	}
}

// ListTables returns all DuckDB tables.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	if h.exports == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	tables, err := h.exports.Tables(ctx)
	if errors.Is(err, service.ErrNoDatabase) {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	out := &TablesOutput{}
	out.Body.Tables = tables
	return out, nil
}

// ExportInput is the input for creating an export.
type ExportInput struct {
	Body service.ExportRequest
}

// CreateExport projects a source file into a DuckDB table and an export file.
func (h *DBHandler) CreateExport(ctx context.Context, input *ExportInput) (*struct{ Body ExportBody }, error) {
	if h.exports == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	res, err := h.exports.Export(ctx, input.Body)
	if err != nil {
		if crs.KindOf(err) == crs.KindOther && !errors.Is(err, service.ErrNoDatabase) && !errors.Is(err, service.ErrSourceNotFound) {
			return nil, huma.Error400BadRequest("Export failed: " + err.Error())
		}
		return nil, toHumaError(err)
	}
	return &struct{ Body ExportBody }{Body: ExportBody{res}}, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"Read-only SQL query to execute" example:"SELECT * FROM parcels_utm"`
		Limit int    `json:"limit,omitempty" minimum:"0" maximum:"10000" default:"1000" doc:"Maximum rows returned"`
	}
}

// QueryOutput is the response for SQL queries.
type QueryOutput struct {
	Body service.QueryResult
}

// Query executes a read-only SQL query against DuckDB.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	if h.exports == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	res, err := h.exports.Query(ctx, input.Body.Query, input.Body.Limit)
	if err != nil {
		if errors.Is(err, service.ErrNoDatabase) || errors.Is(err, service.ErrNotReadOnly) {
			return nil, toHumaError(err)
		}
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	return &QueryOutput{Body: res}, nil
}
