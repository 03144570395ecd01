package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Entry and discovery paths the generated links point at.
const (
	EntryPath  = "/health"
	SearchPath = "/api/v1/query"
)

// LinkSet holds RFC 8288 Link header values keyed by OpenAPI path.
type LinkSet struct {
	byPath map[string][]string
}

// NewLinkSet returns an empty set. Install its Transformer in the huma
// config, then call Build once every route is registered.
func NewLinkSet() *LinkSet {
	return &LinkSet{byPath: map[string][]string{}}
}

// Build walks the OpenAPI document and derives hypermedia links between
// collections, items and sub-resources. Operations tagged "dashboard"
// (Datastar SSE) are left out.
func (ls *LinkSet) Build(api huma.API) {
	oapi := api.OpenAPI()

	type pathInfo struct {
		path string
		tags []string
	}
	var collections, items []pathInfo
	for p, pi := range oapi.Paths {
		tags := primaryTags(pi)
		if slices.Contains(tags, "dashboard") {
			continue
		}
		info := pathInfo{path: p, tags: tags}
		if strings.Contains(p, "{") {
			items = append(items, info)
		} else {
			collections = append(collections, info)
		}
	}
	// Map iteration order is random; keep headers stable.
	byPath := func(a, b pathInfo) int { return strings.Compare(a.path, b.path) }
	slices.SortFunc(collections, byPath)
	slices.SortFunc(items, byPath)

	// Item → parent (collection, up). Sub-resources such as
	// /layers/{id}/geojson point up to /layers/{id}.
	for _, item := range items {
		parent := path.Dir(item.path)
		if _, ok := oapi.Paths[parent]; ok {
			if strings.HasSuffix(parent, "}") {
				ls.add(item.path, parent, "up")
				ls.add(parent, item.path, lastSegment(item.path))
			} else {
				ls.add(item.path, parent, "collection")
				ls.add(item.path, parent, "up")
				ls.add(parent, item.path, "item")
			}
		}
	}

	for _, coll := range collections {
		if coll.path == EntryPath {
			continue
		}
		ls.add(coll.path, EntryPath, "up")
		if _, ok := oapi.Paths[SearchPath]; ok && coll.path != SearchPath {
			ls.add(coll.path, SearchPath, "search")
		}
		if oapi.Paths[coll.path].Post != nil {
			ls.add(coll.path, coll.path, "create-form")
		}
	}
	for _, item := range items {
		pi := oapi.Paths[item.path]
		if pi.Put != nil || pi.Patch != nil {
			ls.add(item.path, item.path, "edit")
		}
	}

	// Collections sharing a tag link to each other.
	for _, a := range collections {
		for _, b := range collections {
			if a.path != b.path && sharedTag(a.tags, b.tags) {
				ls.add(a.path, b.path, lastSegment(b.path))
			}
		}
	}

	// The entry point links to every collection and the API description.
	for _, coll := range collections {
		if coll.path != EntryPath {
			ls.add(EntryPath, coll.path, lastSegment(coll.path))
		}
	}
	ls.add(EntryPath, "/openapi.json", "describedby")
	ls.add(EntryPath, "/openapi.json", "service-desc")
	ls.add(EntryPath, "/docs", "service-doc")

	for _, all := range [][]pathInfo{collections, items} {
		for _, pi := range all {
			if ref := responseSchemaRef(oapi.Paths[pi.path]); ref != "" {
				ls.add(pi.path, "/openapi.json#/components/schemas/"+ref, "describedby")
			}
		}
	}

	// Document the relationships in the OpenAPI responses too.
	for p, pi := range oapi.Paths {
		headers, ok := ls.byPath[p]
		if !ok {
			continue
		}
		for _, op := range operationsOf(pi) {
			if op != nil {
				injectResponseLinks(op, headers)
			}
		}
	}
}

// For returns the Link header values registered for an OpenAPI path.
func (ls *LinkSet) For(p string) []string {
	if ls == nil {
		return nil
	}
	return ls.byPath[p]
}

// Root returns the entry point links, for non-Huma handlers such as "/".
func (ls *LinkSet) Root() []string {
	return ls.For(EntryPath)
}

// Transformer returns a Huma Transformer that adds Link headers at runtime:
// the generated links for the operation, a self link for item paths,
// pagination links from [Pager] bodies and action links from [Actor] bodies.
func (ls *LinkSet) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, link := range ls.For(op.Path) {
			ctx.AppendHeader("Link", link)
		}
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

func (ls *LinkSet) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(ls.byPath[from], val) {
		ls.byPath[from] = append(ls.byPath[from], val)
	}
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete}
}

func sharedTag(a, b []string) bool {
	for _, t := range a {
		if slices.Contains(b, t) {
			return true
		}
	}
	return false
}

func lastSegment(p string) string {
	return path.Base(strings.TrimRight(p, "/"))
}

// injectResponseLinks adds OpenAPI Link objects to the operation's 2xx
// response.
func injectResponseLinks(op *huma.Operation, headers []string) {
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  fmt.Sprintf("Related: %s", rel),
		}
	}
}

// responseSchemaRef returns the component name of a GET 2xx response body.
func responseSchemaRef(pi *huma.PathItem) string {
	if pi.Get == nil {
		return ""
	}
	for code, resp := range pi.Get.Responses {
		if !strings.HasPrefix(code, "2") || resp.Content == nil {
			continue
		}
		for _, mt := range resp.Content {
			if mt.Schema != nil && mt.Schema.Ref != "" {
				return path.Base(mt.Schema.Ref)
			}
		}
	}
	return ""
}

// parseLinkHeader splits `<url>; rel="name"`.
func parseLinkHeader(h string) (rel, href string) {
	target, params, ok := strings.Cut(h, ";")
	if !ok {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(target), "<>")
	params = strings.TrimSpace(params)
	if v, ok := strings.CutPrefix(params, "rel="); ok {
		rel = strings.Trim(v, `"`)
	}
	return rel, href
}
