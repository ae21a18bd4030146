package host

import "testing"

func buildTree() (Forest, *Node) {
	list := NewNode("ul")
	item := NewNode("li")
	list.Append(item, NewNode("li"))
	root := NewNode("app-root").
		WithComponent(&Directive{Name: "AppComponent"}).
		Append(NewNode("header"), list)
	return Forest{root}, item
}

func TestWalk_RenderOrder(t *testing.T) {
	forest, _ := buildTree()
	var tags []string
	Walk(forest, func(el Element) bool {
		tags = append(tags, el.Tag())
		return true
	})
	want := []string{"app-root", "header", "ul", "li", "li"}
	if len(tags) != len(want) {
		t.Fatalf("got %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestWalk_Stop(t *testing.T) {
	forest, _ := buildTree()
	count := 0
	Walk(forest, func(el Element) bool {
		count++
		return el.Tag() != "header"
	})
	if count != 2 {
		t.Errorf("expected walk to stop after 2 elements, visited %d", count)
	}
}

func TestNode_Remove(t *testing.T) {
	forest, item := buildTree()
	list := item.Parent()
	if list == nil || list.Tag() != "ul" {
		t.Fatalf("unexpected parent %v", list)
	}
	if !list.Remove(item) {
		t.Fatal("expected item to be removed")
	}
	if item.Parent() != nil {
		t.Error("removed node should have no parent")
	}
	if len(list.Children()) != 1 {
		t.Errorf("expected 1 child left, got %d", len(list.Children()))
	}
	if list.Remove(item) {
		t.Error("second removal should report false")
	}
	if forest[0].Component().Name != "AppComponent" {
		t.Error("component lost")
	}
}
