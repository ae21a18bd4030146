package routes

import (
	"reflect"
	"testing"

	"github.com/mj1618/component-inspector/internal/host"
)

func TestBuild(t *testing.T) {
	config := []host.RouteConfig{
		{Path: "", RedirectTo: "home"},
		{Path: "home", Component: "HomeComponent", Data: map[string]any{"title": "Home", "auth": false}},
		{Path: "admin", LoadChildren: true},
		{Path: "users", Component: "UsersComponent", Children: []host.RouteConfig{
			{Path: ":id", Component: "UserComponent"},
			{Path: "chat", Component: "ChatComponent", Outlet: "side"},
		}},
		{Path: "**"},
	}

	root := Build("AppComponent", config)
	if root.Name != "AppComponent" || root.Path != "/" {
		t.Fatalf("unexpected root %+v", root)
	}
	if len(root.Children) != 5 {
		t.Fatalf("expected 5 children, got %d", len(root.Children))
	}

	tests := []struct {
		idx  int
		name string
		path string
	}{
		{0, ` -> redirecting to -> "home"`, "/"},
		{1, "HomeComponent", "/home"},
		{2, "admin [Lazy]", "/admin"},
		{3, "UsersComponent", "/users"},
		{4, NoNameRoute, "/**"},
	}
	for _, tc := range tests {
		got := root.Children[tc.idx]
		if got.Name != tc.name || got.Handler != tc.name {
			t.Errorf("child %d: name %q, want %q", tc.idx, got.Name, tc.name)
		}
		if got.Path != tc.path {
			t.Errorf("child %d: path %q, want %q", tc.idx, got.Path, tc.path)
		}
		if got.Hash != nil || got.Specificity != nil {
			t.Errorf("child %d: hash and specificity must be null", tc.idx)
		}
	}

	home := root.Children[1]
	wantData := []Datum{{Key: "auth", Value: false}, {Key: "title", Value: "Home"}}
	if !reflect.DeepEqual(home.Data, wantData) {
		t.Errorf("data = %#v, want %#v", home.Data, wantData)
	}

	users := root.Children[3]
	if len(users.Children) != 2 {
		t.Fatalf("expected nested children, got %d", len(users.Children))
	}
	if users.Children[0].Path != "/users/:id" {
		t.Errorf("nested path = %q", users.Children[0].Path)
	}
	if users.Children[0].IsAux || !users.Children[1].IsAux {
		t.Error("only the named outlet route is auxiliary")
	}
}

func TestBuildDefaultsRootName(t *testing.T) {
	root := Build("", nil)
	if root.Name != NoName {
		t.Errorf("root name = %q", root.Name)
	}
	if root.Children == nil {
		t.Error("children should be empty, not nil")
	}
}

func TestTreeWithoutRouter(t *testing.T) {
	if got := Tree(nil, "AppComponent"); len(got) != 0 {
		t.Errorf("expected no routes, got %v", got)
	}
}
