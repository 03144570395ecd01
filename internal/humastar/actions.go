package humastar

import (
	"strconv"
	"strings"
)

// Action is a state-dependent link a response body offers, emitted as an
// RFC 8288 Link header with method and title extension parameters:
//
//	</api/v1/layers/x/visibility>; rel="toggle-visibility"; method="PUT"; title="Show or hide layer"
type Action struct {
	Rel    string
	Href   string
	Method string
	Title  string
}

// Actor is implemented by response bodies that provide actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as one Link header value.
func (a Action) LinkHeader() string {
	var b strings.Builder
	b.WriteString("<" + a.Href + ">; rel=" + strconv.Quote(a.Rel))
	if a.Method != "" {
		b.WriteString("; method=" + strconv.Quote(a.Method))
	}
	if a.Title != "" {
		b.WriteString("; title=" + strconv.Quote(a.Title))
	}
	return b.String()
}

// ActionDef is an action on a route template such as
// "/api/v1/layers/{id}/visibility". The first {param} is the resource id.
type ActionDef struct {
	Rel    string
	Path   string
	Method string
	Title  string
}

// Href fills the first path parameter with id.
func (d ActionDef) Href(id string) string {
	start := strings.IndexByte(d.Path, '{')
	end := strings.IndexByte(d.Path, '}')
	if start < 0 || end < start {
		return d.Path
	}
	return d.Path[:start] + id + d.Path[end+1:]
}

// ActionsFor resolves defs against one resource id.
func ActionsFor(id string, defs []ActionDef) []Action {
	actions := make([]Action, 0, len(defs))
	for _, d := range defs {
		actions = append(actions, Action{Rel: d.Rel, Href: d.Href(id), Method: d.Method, Title: d.Title})
	}
	return actions
}
