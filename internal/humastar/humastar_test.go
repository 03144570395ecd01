package humastar

import (
	"strings"
	"testing"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	if p.Total != 5 || len(p.Data) != 2 || p.Data[0] != 3 {
		t.Fatalf("page=%+v", p)
	}
	links := strings.Join(p.PaginationLinks("/x"), ",")
	for _, want := range []string{
		`</x?offset=0&limit=2>; rel="first"`,
		`</x?offset=0&limit=2>; rel="prev"`,
		`</x?offset=4&limit=2>; rel="next"`,
		`</x?offset=4&limit=2>; rel="last"`,
	} {
		if !strings.Contains(links, want) {
			t.Errorf("links %s missing %s", links, want)
		}
	}

	past := Paginate(items, 10, 2)
	if len(past.Data) != 0 || past.Data == nil {
		t.Fatalf("past end page=%+v", past)
	}

	empty := Paginate([]int{}, 0, 0)
	if empty.Limit != 50 {
		t.Fatalf("default limit=%d", empty.Limit)
	}
	if l := empty.PaginationLinks("/x"); len(l) != 2 {
		t.Fatalf("empty links=%v", l)
	}
}

func TestActionLinkHeader(t *testing.T) {
	actions := ActionsFor("ghanaGoldMinesLayer", []ActionDef{{
		Rel: "toggle-visibility", Path: "/api/v1/layers/{id}/visibility", Method: "PUT", Title: "Show or hide",
	}})
	if len(actions) != 1 {
		t.Fatalf("actions=%v", actions)
	}
	want := `</api/v1/layers/ghanaGoldMinesLayer/visibility>; rel="toggle-visibility"; method="PUT"; title="Show or hide"`
	if got := actions[0].LinkHeader(); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
	if href := (ActionDef{Path: "/api/v1/stats"}).Href("x"); href != "/api/v1/stats" {
		t.Fatalf("href=%q, want /api/v1/stats", href)
	}
}

func TestSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"seed": 42, "neg": -1, "frac": 1.5, "name": "x", "on": true}`))
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := s.Uint64("seed"); !ok || n != 42 {
		t.Fatalf("seed=%d,%v", n, ok)
	}
	for _, key := range []string{"neg", "frac", "name", "missing"} {
		if _, ok := s.Uint64(key); ok {
			t.Errorf("Uint64(%q) should fail", key)
		}
	}
	if s.String("name") != "x" || s.String("seed") != "" {
		t.Fatalf("signals=%v", s)
	}

	in := &SignalsInput{RawBody: []byte("{")}
	if _, err := in.MustParse(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseLinkHeader(t *testing.T) {
	rel, href := parseLinkHeader(`</api/v1/layers>; rel="collection"`)
	if rel != "collection" || href != "/api/v1/layers" {
		t.Fatalf("rel=%q href=%q", rel, href)
	}
	if rel, _ := parseLinkHeader("garbage"); rel != "" {
		t.Fatalf("rel=%q", rel)
	}
}
