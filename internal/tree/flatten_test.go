package tree

import (
	"testing"

	"github.com/mj1618/component-inspector/internal/protocol"
)

func sampleForest() []protocol.DevToolsNode {
	return []protocol.DevToolsNode{
		{
			Element:   "app-root",
			Component: &protocol.ComponentType{Name: "AppComponent", ID: 0},
			Children: []protocol.DevToolsNode{
				{Element: "h1"},
				{
					Element:    "app-todo",
					Component:  &protocol.ComponentType{Name: "TodoComponent", ID: 1},
					Directives: []protocol.DirectiveType{{Name: "NgClass", ID: 2}},
					Children: []protocol.DevToolsNode{
						{Element: "li", Directives: []protocol.DirectiveType{{Name: "NgForOf", ID: 3}}},
					},
				},
			},
		},
	}
}

func TestFlattenForest_Paths(t *testing.T) {
	result := FlattenForest(sampleForest())
	if len(result) != 4 {
		t.Fatalf("expected 4 flat nodes, got %d", len(result))
	}
	want := []struct{ pos, path string }{
		{"0", "app-root"},
		{"0.0", "app-root > h1"},
		{"0.1", "app-root > app-todo"},
		{"0.1.0", "app-root > app-todo > li"},
	}
	for i, w := range want {
		if result[i].Position != w.pos {
			t.Errorf("[%d] position = %q, want %q", i, result[i].Position, w.pos)
		}
		if result[i].Path != w.path {
			t.Errorf("[%d] path = %q, want %q", i, result[i].Path, w.path)
		}
	}
}

func TestFlattenForest_IDs(t *testing.T) {
	result := FlattenForest(sampleForest())
	if result[0].ID == nil || *result[0].ID != 0 {
		t.Errorf("root id = %v", result[0].ID)
	}
	if result[1].ID != nil {
		t.Errorf("plain element should have no id, got %d", *result[1].ID)
	}
	if result[3].ID == nil || *result[3].ID != 3 {
		t.Errorf("directive-only element should use its first directive id")
	}
}

func TestFlatNode_Label(t *testing.T) {
	result := FlattenForest(sampleForest())
	if got := result[2].Label(); got != "app-todo (TodoComponent) [NgClass]" {
		t.Errorf("Label() = %q", got)
	}
	if got := result[1].Label(); got != "h1" {
		t.Errorf("Label() = %q", got)
	}
}

func TestFlattenForest_Empty(t *testing.T) {
	if result := FlattenForest(nil); len(result) != 0 {
		t.Errorf("expected empty result, got %d", len(result))
	}
}
