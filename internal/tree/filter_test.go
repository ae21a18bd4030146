package tree

import "testing"

func TestFilterByName(t *testing.T) {
	result := FilterByName(sampleForest(), "ngfor")
	if len(result) != 1 {
		t.Fatalf("expected 1 root, got %d", len(result))
	}
	root := result[0]
	if len(root.Children) != 1 || root.Children[0].Element != "app-todo" {
		t.Fatalf("ancestors of the match should be kept: %+v", root.Children)
	}
	if len(root.Children[0].Children) != 1 || root.Children[0].Children[0].Element != "li" {
		t.Errorf("match missing: %+v", root.Children[0].Children)
	}
}

func TestFilterByName_Empty(t *testing.T) {
	forest := sampleForest()
	if got := FilterByName(forest, ""); len(got) != len(forest) {
		t.Error("empty text should return the forest unchanged")
	}
	if got := FilterByName(forest, "nothing-matches"); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestFindByName_PrefersExact(t *testing.T) {
	got := FindByName(sampleForest(), "app-todo")
	if len(got) != 1 || got[0].Position != "0.1" {
		t.Errorf("exact match = %+v", got)
	}
	got = FindByName(sampleForest(), "component")
	if len(got) != 2 {
		t.Errorf("partial matches = %+v", got)
	}
	got = FindByName(sampleForest(), "TodoComponent")
	if len(got) != 1 || got[0].Element != "app-todo" {
		t.Errorf("component name match = %+v", got)
	}
}
