package tree

import (
	"fmt"
	"reflect"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/protocol"
)

// Resolve returns the entry at pos.
func (s *Snapshot) Resolve(pos protocol.ElementPosition) (*Entry, error) {
	if len(pos) == 0 {
		return nil, &protocol.StaleSelectionError{Position: pos, Generation: s.Generation}
	}
	level := s.Roots
	var entry *Entry
	for _, idx := range pos {
		if idx < 0 || idx >= len(level) {
			return nil, &protocol.StaleSelectionError{Position: pos, Generation: s.Generation}
		}
		entry = level[idx]
		level = entry.Children
	}
	return entry, nil
}

// ResolveDirective returns the directive at pos. A nil directive index
// selects the hosted component, or the element itself when it hosts none.
func (s *Snapshot) ResolveDirective(pos protocol.DirectivePosition) (*Entry, *host.Directive, error) {
	entry, err := s.Resolve(pos.Element)
	if err != nil {
		return nil, nil, err
	}
	if pos.Directive == nil {
		if entry.Component != nil {
			return entry, entry.Component, nil
		}
		if entry.Element == nil || entry.Element.Native() == nil {
			return entry, nil, fmt.Errorf("%w: element %q at [%s] has no component", protocol.ErrUnsupportedQuery, entry.Tag, pos.Element)
		}
		return entry, &host.Directive{Name: entry.Tag, IsElement: true, Instance: entry.Element.Native()}, nil
	}
	idx := *pos.Directive
	if idx < 0 || idx >= len(entry.Directives) {
		return nil, nil, &protocol.StaleSelectionError{Position: pos.Element, Directive: pos.Directive, Generation: s.Generation}
	}
	return entry, entry.Directives[idx], nil
}

// FindByID returns the entry and directive that carry id.
func (s *Snapshot) FindByID(id int) (*Entry, *host.Directive, bool) {
	t, ok := s.byID[id]
	if !ok {
		return nil, nil, false
	}
	return t.entry, t.directive, true
}

// FindByNative returns the entry rendered by native.
func (s *Snapshot) FindByNative(native host.NativeElement) (*Entry, bool) {
	if native == nil || !reflect.TypeOf(native).Comparable() {
		return nil, false
	}
	e, ok := s.byNative[native]
	return e, ok
}

// FindByElement returns the entry captured from el.
func (s *Snapshot) FindByElement(el host.Element) (*Entry, bool) {
	if el == nil || !reflect.TypeOf(el).Comparable() {
		return nil, false
	}
	var found *Entry
	s.Walk(func(e *Entry) bool {
		if e.Element == el {
			found = e
			return false
		}
		return true
	})
	return found, found != nil
}

// PrimaryID returns the id used to address the entry from outside: the
// component id, else the first directive id, else -1.
func (e *Entry) PrimaryID() int {
	if e.ComponentID >= 0 {
		return e.ComponentID
	}
	if len(e.DirectiveIDs) > 0 {
		return e.DirectiveIDs[0]
	}
	return -1
}

// Walk visits every entry depth-first in render order until fn returns
// false.
func (s *Snapshot) Walk(fn func(*Entry) bool) {
	var visit func([]*Entry) bool
	visit = func(entries []*Entry) bool {
		for _, e := range entries {
			if !fn(e) || !visit(e.Children) {
				return false
			}
		}
		return true
	}
	visit(s.Roots)
}
