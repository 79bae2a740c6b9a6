package api

import (
	"reflect"
	"testing"
)

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		offset, limit int
		want          []int
	}{
		{0, 2, []int{1, 2}},
		{4, 2, []int{5}},
		{5, 2, []int{}},
		{9, 2, []int{}},
		{0, 50, []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		p := Page(items, tt.offset, tt.limit)
		if p.Total != 5 || !reflect.DeepEqual(p.Data, tt.want) {
			t.Errorf("Page(%d,%d) = %+v, want %v", tt.offset, tt.limit, p, tt.want)
		}
	}
}

func TestPaginationLinks(t *testing.T) {
	got := PageBody[int]{Total: 5, Offset: 0, Limit: 2}.PaginationLinks("/api/v1/systems")
	want := []string{
		`</api/v1/systems?offset=0&limit=2>; rel="first"`,
		`</api/v1/systems?offset=2&limit=2>; rel="next"`,
		`</api/v1/systems?offset=4&limit=2>; rel="last"`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}

	empty := PageBody[int]{Total: 0, Limit: 10}.PaginationLinks("/x")
	if len(empty) != 2 || empty[1] != `</x?offset=0&limit=10>; rel="last"` {
		t.Fatalf("empty page links %v", empty)
	}
}

func TestActionLinkHeader(t *testing.T) {
	a := Action{Rel: "search", Href: "/api/v1/query", Method: "POST", Title: "Query plaza"}
	if got := a.LinkHeader(); got != `</api/v1/query>; rel="search"; method="POST"; title="Query plaza"` {
		t.Fatalf("got %s", got)
	}
	if got := (Action{Rel: "up", Href: "/health"}).LinkHeader(); got != `</health>; rel="up"` {
		t.Fatalf("got %s", got)
	}
}
