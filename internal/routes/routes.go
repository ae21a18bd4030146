// Package routes converts the application's router configuration into the
// Route tree sent to the panel.
package routes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/protocol"
)

// NoName labels a root without a component and routes with nothing to
// name them by.
const (
	NoName      = "no-name"
	NoNameRoute = "no-name-route"
)

// Datum is one entry of a route's static data.
type Datum struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// Build returns the router tree rooted at rootComponent. Paths accumulate
// from the root; children are kept nested.
func Build(rootComponent string, config []host.RouteConfig) protocol.Route {
	if rootComponent == "" {
		rootComponent = NoName
	}
	return protocol.Route{
		Name:     rootComponent,
		Handler:  rootComponent,
		Path:     "/",
		Data:     []Datum{},
		Children: children("", config),
	}
}

// Tree reads the configuration from src. A nil source yields no routes.
func Tree(src host.RouterSource, rootComponent string) []protocol.Route {
	if src == nil {
		return []protocol.Route{}
	}
	return []protocol.Route{Build(rootComponent, src.RouteConfig())}
}

func children(parent string, config []host.RouteConfig) []protocol.Route {
	out := make([]protocol.Route, 0, len(config))
	for _, c := range config {
		name := routeName(c)
		path := strings.ReplaceAll(parent+"/"+c.Path, "//", "/")
		r := protocol.Route{
			Name:     name,
			Handler:  name,
			Path:     path,
			Data:     data(c.Data),
			IsAux:    c.Outlet != "",
			Children: children(path, c.Children),
		}
		out = append(out, r)
	}
	return out
}

func routeName(c host.RouteConfig) string {
	switch {
	case c.Component != "":
		return c.Component
	case c.LoadChildren:
		return c.Path + " [Lazy]"
	case c.RedirectTo != "":
		return fmt.Sprintf("%s -> redirecting to -> %q", c.Path, c.RedirectTo)
	}
	return NoNameRoute
}

func data(v any) []Datum {
	out := []Datum{}
	switch d := v.(type) {
	case nil:
	case map[string]any:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, Datum{Key: k, Value: d[k]})
		}
	case map[string]string:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, Datum{Key: k, Value: d[k]})
		}
	default:
		out = append(out, Datum{Key: "data", Value: d})
	}
	return out
}
