package api

import (
	"fmt"

	"github.com/joeblew999/geovisor/internal/service"
)

// Action is a state-dependent hypermedia action link.
// Response bodies implement the Actor interface to emit conditional
// RFC 8288 Link headers with method and title extension parameters.
//
//	</api/v1/project>; rel="project"; method="POST"; title="Project into EPSG:32717"
type Action struct {
	Rel    string
	Href   string
	Method string
	Title  string
}

// Actor is implemented by response bodies that provide state-dependent actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 Link header value.
func (a Action) LinkHeader() string {
	h := fmt.Sprintf(`<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		h += fmt.Sprintf(`; method="%s"`, a.Method)
	}
	if a.Title != "" {
		h += fmt.Sprintf(`; title="%s"`, a.Title)
	}
	return h
}

// Pager is implemented by response bodies that carry pagination metadata.
type Pager interface {
	PaginationLinks(basePath string) []string
}

// PageBody is a generic paginated response envelope.
type PageBody[T any] struct {
	Total  int `json:"total" doc:"Total number of items"`
	Offset int `json:"offset" doc:"Current offset"`
	Limit  int `json:"limit" doc:"Page size"`
	Data   []T `json:"data" doc:"Items"`
}

// Page slices items according to offset and limit.
func Page[T any](items []T, offset, limit int) PageBody[T] {
	page := PageBody[T]{Total: len(items), Offset: offset, Limit: limit, Data: []T{}}
	if offset < len(items) {
		end := min(offset+limit, len(items))
		page.Data = items[offset:end]
	}
	return page
}

// PaginationLinks returns RFC 8288 Link header values for pagination rels.
func (p PageBody[T]) PaginationLinks(basePath string) []string {
	if p.Limit <= 0 {
		return nil
	}
	links := []string{fmt.Sprintf(`<%s?offset=0&limit=%d>; rel="first"`, basePath, p.Limit)}

	if p.Offset > 0 {
		prev := max(p.Offset-p.Limit, 0)
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="prev"`, basePath, prev, p.Limit))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="next"`, basePath, p.Offset+p.Limit, p.Limit))
	}

	lastOffset := max(((p.Total-1)/p.Limit)*p.Limit, 0)
	links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="last"`, basePath, lastOffset, p.Limit))
	return links
}

// SystemBody is a single reference system with the conversions it supports.
type SystemBody struct {
	service.SystemInfo
}

func (b SystemBody) Actions() []Action {
	return []Action{
		{Rel: "project", Href: "/api/v1/project", Method: "POST", Title: "Project into " + b.ID},
		{Rel: "unproject", Href: "/api/v1/unproject", Method: "POST", Title: "Unproject from " + b.ID},
		{Rel: "convert", Href: "/api/v1/convert", Method: "POST", Title: "Convert from " + b.ID},
	}
}

// ExportBody is a finished export with follow-up queries on its table.
type ExportBody struct {
	service.ExportResult
}

func (b ExportBody) Actions() []Action {
	return []Action{
		{Rel: "search", Href: "/api/v1/query", Method: "POST", Title: "Query " + b.Table},
		{Rel: "collection", Href: "/api/v1/tables", Method: "GET", Title: "Tables"},
	}
}
