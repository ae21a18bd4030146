package tree

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mj1618/component-inspector/internal/protocol"
)

func TestQueryView_NoQuery(t *testing.T) {
	view, err := New(buildApp().forest, Config{}).QueryView(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Forest) != 1 || view.Properties != nil {
		t.Errorf("unexpected view %+v", view)
	}
}

func TestQueryView_All(t *testing.T) {
	s := New(buildApp().forest, Config{})
	view, err := s.QueryView(context.Background(), &protocol.ComponentExplorerViewQuery{
		SelectedElement: protocol.ElementPosition{0, 1},
		PropertyQuery:   protocol.AllProperties(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Properties) != 2 {
		t.Fatalf("expected ListComponent and NgIf, got %v", view.Properties)
	}
	items := view.Properties["ListComponent"].Props["items"]
	if items.Type != protocol.PropArray || !items.Expandable || items.Value != nil {
		t.Errorf("items = %+v", items)
	}
	if !view.Properties["NgIf"].Props["ngIf"].Editable {
		t.Error("ngIf should be editable")
	}
}

func TestQueryView_SpecifiedEmpty(t *testing.T) {
	s := New(buildApp().forest, Config{})
	snap, _ := s.Latest(context.Background())
	view, err := s.QueryView(context.Background(), &protocol.ComponentExplorerViewQuery{
		SelectedElement: protocol.ElementPosition{0},
		PropertyQuery:   protocol.SpecifiedProperties(protocol.ComponentExplorerViewProperties{}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Properties) != 0 {
		t.Errorf("expected no properties, got %v", view.Properties)
	}
	if !reflect.DeepEqual(view.Forest, snap.Forest) {
		t.Error("forest should match the last snapshot exactly")
	}
}

func TestQueryView_SpecifiedNested(t *testing.T) {
	s := New(buildApp().forest, Config{})
	view, err := s.QueryView(context.Background(), &protocol.ComponentExplorerViewQuery{
		SelectedElement: protocol.ElementPosition{0},
		PropertyQuery: protocol.SpecifiedProperties(protocol.ComponentExplorerViewProperties{
			"AppComponent": {{Name: "user", Children: []protocol.NestedProp{{Name: "address"}}}},
			"Missing":      {},
		}),
	})
	if err != nil {
		t.Fatal(err)
	}
	props, ok := view.Properties["AppComponent"]
	if !ok || len(view.Properties) != 1 {
		t.Fatalf("unexpected properties %v", view.Properties)
	}
	street := props.Props["user"].Children()["address"].Children()["street"]
	if street.Value != "Main St" {
		t.Errorf("street = %+v", street)
	}

	md := props.Metadata
	if md == nil || md.Outputs["saved"] != "saved" {
		t.Fatalf("metadata = %+v", md)
	}
	if len(md.Dependencies) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(md.Dependencies))
	}
	dep := md.Dependencies[0]
	if dep.Token != "Logger" || len(dep.ResolutionPath) != 2 {
		t.Fatalf("dependency = %+v", dep)
	}
	if dep.ResolutionPath[0].ID != "el-root" || dep.ResolutionPath[1].ID != "env" {
		t.Errorf("resolution path should run from the element injector outward: %+v", dep.ResolutionPath)
	}
	if dep.ResolutionPath[0].Node == nil || dep.ResolutionPath[0].Node.Element != "app-root" {
		t.Errorf("element injector should carry its node: %+v", dep.ResolutionPath[0])
	}
	if dep.Value != string(protocol.ProviderType) {
		t.Errorf("value = %q", dep.Value)
	}
}

func TestQueryView_Stale(t *testing.T) {
	s := New(buildApp().forest, Config{})
	view, err := s.QueryView(context.Background(), &protocol.ComponentExplorerViewQuery{
		SelectedElement: protocol.ElementPosition{0, 9},
		PropertyQuery:   protocol.AllProperties(),
	})
	if !IsStale(err) {
		t.Fatalf("expected stale selection, got %v", err)
	}
	if len(view.Forest) != 1 || view.Properties == nil || len(view.Properties) != 0 {
		t.Errorf("stale query should still carry the forest and empty properties: %+v", view)
	}
}

func TestNestedProperties_StreetScenario(t *testing.T) {
	s := New(buildApp().forest, Config{})
	props, err := s.NestedProperties(context.Background(),
		protocol.DirectivePosition{Element: protocol.ElementPosition{0}}, []string{"user", "address"})
	if err != nil {
		t.Fatal(err)
	}
	street, ok := props.Props["street"]
	if !ok {
		t.Fatalf("street missing from %v", props.Props)
	}
	if street.Type != protocol.PropString || street.Expandable || !street.Editable {
		t.Errorf("street = %+v", street)
	}
}

func TestNestedProperties_StaleIsEmpty(t *testing.T) {
	s := New(buildApp().forest, Config{})
	props, err := s.NestedProperties(context.Background(),
		protocol.DirectivePosition{Element: protocol.ElementPosition{3}}, []string{"user"})
	if !IsStale(err) {
		t.Errorf("expected stale error, got %v", err)
	}
	if props.Props == nil || len(props.Props) != 0 {
		t.Errorf("expected empty props, got %v", props.Props)
	}
}

func TestUpdateState(t *testing.T) {
	f := buildApp()
	s := New(f.forest, Config{})
	err := s.UpdateState(context.Background(), protocol.UpdatedStateData{
		DirectiveID: protocol.DirectivePosition{Element: protocol.ElementPosition{0}},
		KeyPath:     []string{"user", "address", "street"},
		NewValue:    "Elm St",
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.app.User.Address.Street != "Elm St" {
		t.Errorf("street = %q", f.app.User.Address.Street)
	}

	err = s.UpdateState(context.Background(), protocol.UpdatedStateData{
		DirectiveID: protocol.DirectivePosition{Element: protocol.ElementPosition{0}},
		KeyPath:     []string{"user"},
		NewValue:    "x",
	})
	if !errors.Is(err, protocol.ErrUnsupportedQuery) {
		t.Errorf("assigning a container should be unsupported, got %v", err)
	}
}
