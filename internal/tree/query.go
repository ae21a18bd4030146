package tree

import (
	"context"
	"errors"
	"fmt"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/injector"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/serializer"
)

// QueryView returns the latest forest and, when query is set, the
// properties of the selected node. The forest is always returned; a stale
// selection yields empty properties together with a
// *protocol.StaleSelectionError.
func (s *Snapshotter) QueryView(ctx context.Context, query *protocol.ComponentExplorerViewQuery) (protocol.ComponentExplorerView, error) {
	snap, err := s.Latest(ctx)
	if err != nil {
		return protocol.ComponentExplorerView{Forest: []protocol.DevToolsNode{}}, err
	}
	view := protocol.ComponentExplorerView{Forest: snap.Forest}
	if query == nil {
		return view, nil
	}
	view.Properties = protocol.DirectivesProperties{}

	entry, err := snap.Resolve(query.SelectedElement)
	if err != nil {
		return view, err
	}
	switch query.PropertyQuery.Type {
	case protocol.PropertyQueryAll, protocol.PropertyQuerySpecified:
	default:
		return view, fmt.Errorf("%w: property query type %d", protocol.ErrUnsupportedQuery, query.PropertyQuery.Type)
	}

	err = s.sched.Do(ctx, func() {
		for _, d := range entry.all() {
			var props map[string]protocol.Descriptor
			if query.PropertyQuery.Type == protocol.PropertyQueryAll {
				props = s.ser.Properties(d.Instance)
			} else {
				nested, ok := query.PropertyQuery.Properties[d.Name]
				if !ok {
					continue
				}
				props = s.ser.Nested(d.Instance, nested)
			}
			view.Properties[d.Name] = protocol.Properties{
				Props:    props,
				Metadata: s.metadata(snap, entry, d),
			}
		}
	})
	if err != nil {
		return view, fmt.Errorf("query view: %w", err)
	}
	return view, nil
}

// all returns the component followed by the directives.
func (e *Entry) all() []*host.Directive {
	out := make([]*host.Directive, 0, len(e.Directives)+1)
	if e.Component != nil {
		out = append(out, e.Component)
	}
	return append(out, e.Directives...)
}

// metadata copies the directive's static metadata and resolves its
// dependencies against the element injector.
func (s *Snapshotter) metadata(snap *Snapshot, entry *Entry, d *host.Directive) *protocol.DirectiveMetadata {
	if d.Metadata == nil && len(d.Dependencies) == 0 {
		return nil
	}
	var md protocol.DirectiveMetadata
	if d.Metadata != nil {
		md = *d.Metadata
	}
	if len(d.Dependencies) == 0 || entry.Element == nil {
		return &md
	}
	from := entry.Element.Injector()
	locate := snap.Locator()
	md.Dependencies = make([]protocol.SerializedInjectedService, len(d.Dependencies))
	for i, dep := range d.Dependencies {
		flags := dep.Flags
		svc := protocol.SerializedInjectedService{
			Token:    dep.Token,
			Position: []int(entry.Position),
			Flags:    &flags,
		}
		if from != nil {
			chain, resolver, rec := injector.Resolve(from, dep.Token, dep.Flags)
			if resolver != nil {
				svc.Value = string(injector.Kind(*rec))
			}
			svc.ResolutionPath = make([]protocol.SerializedInjector, len(chain))
			for j, inj := range chain {
				svc.ResolutionPath[j] = injector.Serialize(inj, locate)
			}
		}
		md.Dependencies[i] = svc
	}
	return &md
}

// Locator returns a lookup from live element to its shallow forest node.
func (s *Snapshot) Locator() injector.Locator {
	return func(el host.Element) *protocol.DevToolsNode {
		entry, ok := s.FindByElement(el)
		if !ok {
			return nil
		}
		node := nodeOf(&Entry{
			Tag:          entry.Tag,
			Component:    entry.Component,
			ComponentID:  entry.ComponentID,
			Directives:   entry.Directives,
			DirectiveIDs: entry.DirectiveIDs,
		})
		return &node
	}
}

// NestedProperties expands the directive at pos along path. A stale
// position yields empty properties together with the error.
func (s *Snapshotter) NestedProperties(ctx context.Context, pos protocol.DirectivePosition, path []string) (protocol.Properties, error) {
	empty := protocol.Properties{Props: map[string]protocol.Descriptor{}}
	snap, err := s.Latest(ctx)
	if err != nil {
		return empty, err
	}
	_, d, err := snap.ResolveDirective(pos)
	if err != nil {
		return empty, err
	}
	var props map[string]protocol.Descriptor
	if err := s.sched.Do(ctx, func() { props = s.ser.Expand(d.Instance, path) }); err != nil {
		return empty, fmt.Errorf("nested properties: %w", err)
	}
	return protocol.Properties{Props: props}, nil
}

// UpdateState assigns a new value to the property at data.KeyPath on the
// addressed directive.
func (s *Snapshotter) UpdateState(ctx context.Context, data protocol.UpdatedStateData) error {
	snap, err := s.Latest(ctx)
	if err != nil {
		return err
	}
	_, d, err := snap.ResolveDirective(data.DirectiveID)
	if err != nil {
		return err
	}
	var setErr error
	if err := s.sched.Do(ctx, func() { setErr = serializer.Set(d.Instance, data.KeyPath, data.NewValue) }); err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	return setErr
}

// IsStale reports whether err means a position no longer resolves.
func IsStale(err error) bool {
	return errors.Is(err, protocol.ErrStaleReference)
}
