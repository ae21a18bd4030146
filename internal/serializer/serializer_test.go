package serializer

import (
	"math/big"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/protocol"
)

type address struct {
	Street string `json:"street"`
	Zip    int    `json:"zip"`
}

type user struct {
	Name    string   `json:"name"`
	Address *address `json:"address"`
	Tags    []string `json:"tags"`
	secret  string
}

type appComponent struct {
	Title  string         `json:"title"`
	User   user           `json:"user"`
	Count  int            `json:"count"`
	Scores map[string]int `json:"scores"`
	OnSave func()         `json:"onSave"`
	Extra  any            `json:"extra"`
	Hidden string         `json:"-"`
}

type linked struct {
	Name string
	Next *linked
}

func newApp() *appComponent {
	return &appComponent{
		Title: "Inspector",
		User: user{
			Name:    "Ada",
			Address: &address{Street: "Main St", Zip: 12345},
			Tags:    []string{"admin", "ops"},
			secret:  "s3cret",
		},
		Count:  3,
		Scores: map[string]int{"b": 2, "a": 1},
		OnSave: func() {},
		Extra:  "loose",
	}
}

func TestDescribe_Categories(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    protocol.PropType
		preview string
	}{
		{"int", 42, protocol.PropNumber, "42"},
		{"float", 3.5, protocol.PropNumber, "3.5"},
		{"string", "hi", protocol.PropString, "hi"},
		{"nil", nil, protocol.PropNull, "null"},
		{"nil pointer", (*address)(nil), protocol.PropNull, "null"},
		{"nil slice", []int(nil), protocol.PropNull, "null"},
		{"undefined", Undefined, protocol.PropUndefined, "undefined"},
		{"symbol", Symbol{Description: "id"}, protocol.PropSymbol, "Symbol(id)"},
		{"native", &host.DOMElement{Name: "div"}, protocol.PropHTMLNode, "<div>"},
		{"bool", true, protocol.PropBoolean, "true"},
		{"bigint", big.NewInt(123), protocol.PropBigInt, "123n"},
		{"date", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), protocol.PropDate, "2024-01-02T03:04:05Z"},
		{"array", []int{1, 2, 3}, protocol.PropArray, "Array(3) [1, 2, 3]"},
		{"set", map[string]struct{}{"a": {}}, protocol.PropSet, `Set(1) {"a"}`},
		{"object", address{Street: "x"}, protocol.PropObject, "{street, zip}"},
		{"map", map[string]int{"b": 1, "a": 2}, protocol.PropObject, "{a, b}"},
		{"chan", make(chan int), protocol.PropUnknown, "chan int"},
		{"complex", complex(1, 2), protocol.PropUnknown, "complex128"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Describe(tc.value, 1)
			if d.Type != tc.want {
				t.Errorf("type = %s, want %s", d.Type, tc.want)
			}
			if d.Preview != tc.preview {
				t.Errorf("preview = %q, want %q", d.Preview, tc.preview)
			}
			if d.Editable {
				t.Error("a detached value must not be editable")
			}
		})
	}
}

func TestDescribe_Function(t *testing.T) {
	d := Describe(func(string, int) {}, 1)
	if d.Type != protocol.PropFunction {
		t.Fatalf("type = %s, want Function", d.Type)
	}
	if !strings.HasPrefix(d.Preview, "ƒ ") || !strings.HasSuffix(d.Preview, "(string, int)") {
		t.Errorf("unexpected preview %q", d.Preview)
	}
	if d.Expandable || d.Value != nil {
		t.Error("functions are opaque leaves")
	}
}

func TestDescribe_ValueOnlyForPrimitives(t *testing.T) {
	if d := Describe(42, 1); d.Value != int64(42) {
		t.Errorf("number value = %#v", d.Value)
	}
	if d := Describe("x", 1); d.Value != "x" {
		t.Errorf("string value = %#v", d.Value)
	}
	if d := Describe([]int{1}, 1); d.Value != nil {
		t.Errorf("container should carry no value before expansion, got %#v", d.Value)
	}
}

func TestDescribe_ExpandableNeedsDepthAndChildren(t *testing.T) {
	if Describe(&address{}, 0).Expandable {
		t.Error("depth 0 must never be expandable")
	}
	if !Describe(&address{}, 1).Expandable {
		t.Error("struct with fields at depth 1 should be expandable")
	}
	if Describe(struct{}{}, 1).Expandable {
		t.Error("empty struct has no children")
	}
	if Describe([]int{}, 1).Expandable {
		t.Error("empty slice has no children")
	}
}

func TestDescribe_PreviewIsCapped(t *testing.T) {
	words := make([]string, 100)
	for i := range words {
		words[i] = "element"
	}
	d := Describe(words, 1)
	if n := utf8.RuneCountInString(d.Preview); n > DefaultOptions.MaxPreviewLength {
		t.Errorf("preview has %d runes, cap is %d", n, DefaultOptions.MaxPreviewLength)
	}
	if !strings.HasPrefix(d.Preview, "Array(100)") {
		t.Errorf("preview should lead with the element count: %q", d.Preview)
	}
	if !strings.HasSuffix(d.Preview, "…") {
		t.Errorf("truncated preview should end with an ellipsis: %q", d.Preview)
	}
}

func TestProperties_TopLevel(t *testing.T) {
	props := Properties(newApp())

	if _, ok := props["secret"]; ok {
		t.Error("unexported fields must be skipped")
	}
	if _, ok := props["-"]; ok {
		t.Error(`json:"-" fields must be skipped`)
	}
	if len(props) != 6 {
		t.Errorf("expected 6 props, got %d: %v", len(props), props)
	}

	title := props["title"]
	if title.Type != protocol.PropString || !title.Editable || title.Expandable {
		t.Errorf("title = %+v", title)
	}
	userProp := props["user"]
	if userProp.Type != protocol.PropObject || !userProp.Expandable || userProp.Value != nil {
		t.Errorf("user = %+v", userProp)
	}
	if props["onSave"].Type != protocol.PropFunction || props["onSave"].Editable {
		t.Errorf("onSave = %+v", props["onSave"])
	}
	if !props["extra"].Editable {
		t.Error("primitive held in an interface field should be editable")
	}
}

func TestProperties_DetachedStructIsReadOnly(t *testing.T) {
	props := Properties(address{Street: "x"})
	if props["street"].Editable {
		t.Error("fields of a struct passed by value cannot be assigned")
	}
}

func TestExpand_StreetScenario(t *testing.T) {
	props := Expand(newApp(), []string{"user", "address"})
	street, ok := props["street"]
	if !ok {
		t.Fatalf("street missing from %v", props)
	}
	if street.Type != protocol.PropString {
		t.Errorf("type = %s, want String", street.Type)
	}
	if street.Expandable {
		t.Error("street should not be expandable")
	}
	if !street.Editable {
		t.Error("street should be editable")
	}
	if street.Value != "Main St" {
		t.Errorf("value = %v", street.Value)
	}
}

func TestExpand_MissingOrLeafPathIsEmpty(t *testing.T) {
	app := newApp()
	for _, path := range [][]string{
		{"nope"},
		{"title"},
		{"user", "address", "street"},
		{"onSave"},
		{"user", "tags", "9"},
	} {
		if got := Expand(app, path); len(got) != 0 {
			t.Errorf("Expand(%v) = %v, want empty", path, got)
		}
	}
}

func TestExpand_ArrayAndMapMembers(t *testing.T) {
	app := newApp()
	tags := Expand(app, []string{"user", "tags"})
	if tags["0"].Value != "admin" || tags["1"].Value != "ops" {
		t.Errorf("tags = %v", tags)
	}
	scores := Expand(app, []string{"scores"})
	if scores["a"].Value != int64(1) || !scores["a"].Editable {
		t.Errorf("scores = %v", scores)
	}
}

func TestExpand_CycleTerminates(t *testing.T) {
	n := &linked{Name: "a"}
	n.Next = n

	props := Properties(n)
	if !props["Next"].IsCircular() {
		t.Errorf("self edge should be the circular marker, got %+v", props["Next"])
	}
	if props["Next"].Expandable {
		t.Error("circular marker must not be expandable")
	}
	if got := Expand(n, []string{"Next"}); len(got) != 0 {
		t.Errorf("expanding through a cycle should be empty, got %v", got)
	}
}

func TestExpand_MapAndSliceCycles(t *testing.T) {
	m := map[string]any{"name": "m"}
	m["self"] = m
	if !Properties(m)["self"].IsCircular() {
		t.Error("map self reference should be circular")
	}

	s := []any{nil, "x"}
	s[0] = s
	if !Properties(s)["0"].IsCircular() {
		t.Error("slice self reference should be circular")
	}
}

func TestExpand_LongerCycle(t *testing.T) {
	a := &linked{Name: "a"}
	b := &linked{Name: "b", Next: a}
	a.Next = b

	// a -> b is fresh, b -> a closes the loop.
	if Properties(a)["Next"].IsCircular() {
		t.Error("first hop is not a cycle")
	}
	if !Expand(a, []string{"Next"})["Next"].IsCircular() {
		t.Error("second hop should close the cycle")
	}
}

func TestNested_ExpandsRequestedPaths(t *testing.T) {
	props := Nested(newApp(), []protocol.NestedProp{
		{Name: "user", Children: []protocol.NestedProp{
			{Name: "address", Children: []protocol.NestedProp{}},
			{Name: "tags", Children: []protocol.NestedProp{}},
		}},
	})

	userMembers := props["user"].Children()
	if userMembers == nil {
		t.Fatalf("user should be expanded, got %+v", props["user"])
	}
	street := userMembers["address"].Children()["street"]
	if street.Type != protocol.PropString || street.Value != "Main St" {
		t.Errorf("street = %+v", street)
	}
	if got := len(userMembers["tags"].Elements()); got != 2 {
		t.Errorf("expected 2 tag elements, got %d", got)
	}
	if props["scores"].Value != nil {
		t.Error("unrequested containers stay collapsed")
	}
	if props["title"].Value != "Inspector" {
		t.Error("primitive values are always present")
	}
}

func TestNested_CycleIsNotExpanded(t *testing.T) {
	n := &linked{Name: "a"}
	n.Next = n
	props := Nested(n, []protocol.NestedProp{
		{Name: "Next", Children: []protocol.NestedProp{{Name: "Next"}}},
	})
	if !props["Next"].IsCircular() || props["Next"].Value != nil {
		t.Errorf("Next = %+v", props["Next"])
	}
}

func TestNested_EmptyRequestMatchesProperties(t *testing.T) {
	app := newApp()
	nested := Nested(app, nil)
	plain := Properties(app)
	if len(nested) != len(plain) {
		t.Fatalf("got %d props, want %d", len(nested), len(plain))
	}
	for name, d := range plain {
		if nested[name].Type != d.Type || nested[name].Preview != d.Preview {
			t.Errorf("%s differs: %+v vs %+v", name, nested[name], d)
		}
	}
}

func TestMaxChildren(t *testing.T) {
	s := New(Options{MaxChildren: 2})
	values := []int{1, 2, 3, 4}
	if got := len(s.Properties(values)); got != 2 {
		t.Errorf("expected 2 members, got %d", got)
	}
	d := s.Describe(values, 1)
	if d.Preview != "Array(4) [1, 2, …]" {
		t.Errorf("preview = %q", d.Preview)
	}
}
