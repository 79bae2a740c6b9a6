package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/systems>; rel="systems"`,
		`</api/v1/sources>; rel="sources"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/systems>; rel="systems"`,
	},
	"/api/v1/systems": {
		`</api/v1/resolve>; rel="resolve"`,
		`</api/v1/project>; rel="project"`,
	},
	"/api/v1/systems/{id}": {
		`</api/v1/systems>; rel="collection"`,
	},
	"/api/v1/resolve": {
		`</api/v1/systems>; rel="systems"`,
		`</api/v1/project>; rel="project"`,
	},
	"/api/v1/project": {
		`</api/v1/unproject>; rel="unproject"`,
		`</api/v1/convert>; rel="convert"`,
	},
	"/api/v1/unproject": {
		`</api/v1/project>; rel="project"`,
		`</api/v1/dms>; rel="dms"`,
	},
	"/api/v1/dms": {
		`</api/v1/dms/parse>; rel="parse"`,
	},
	"/api/v1/sources": {
		`</api/v1/exports>; rel="exports"`,
	},
	"/api/v1/exports": {
		`</api/v1/tables>; rel="tables"`,
		`</api/v1/query>; rel="query"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}

		return v, nil
	}
}
