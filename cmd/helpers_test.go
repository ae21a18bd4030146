package cmd

import (
	"reflect"
	"testing"
)

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition("0.1.2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := []int(pos); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("expected [0 1 2], got %v", got)
	}
}

func TestParsePosition_Empty(t *testing.T) {
	if _, err := parsePosition(""); err == nil {
		t.Error("expected an error for an empty position")
	}
}

func TestParsePosition_Invalid(t *testing.T) {
	for _, in := range []string{"a", "0.-1", "1.x.2"} {
		if _, err := parsePosition(in); err == nil {
			t.Errorf("expected an error for %q", in)
		}
	}
}

func TestDirectivePosition_Component(t *testing.T) {
	pos, _ := parsePosition("0.1")
	dp := directivePosition(pos, -1)
	if dp.Directive != nil {
		t.Errorf("expected nil directive index, got %d", *dp.Directive)
	}
	if !reflect.DeepEqual([]int(dp.Element), []int{0, 1}) {
		t.Errorf("unexpected element %v", dp.Element)
	}
}

func TestDirectivePosition_Directive(t *testing.T) {
	pos, _ := parsePosition("0")
	dp := directivePosition(pos, 2)
	if dp.Directive == nil || *dp.Directive != 2 {
		t.Errorf("expected directive index 2, got %v", dp.Directive)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"user.address.city", []string{"user", "address", "city"}},
		{"title", []string{"title"}},
		{" user . age ", []string{"user", "age"}},
		{"a..b", []string{"a", "b"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := splitPath(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
