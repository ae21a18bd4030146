// Package serializer turns live property values into bounded Descriptors.
//
// Every call is independent: a Descriptor only ever describes one level of
// a value, and deeper levels are produced by a later Expand or Nested call
// with an explicit path. Self-referential graphs therefore always
// terminate; an edge back to a container already on the current path is
// reported as the circular marker.
package serializer

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// Options bound the size of one serialization step.
type Options struct {
	// MaxPreviewLength caps preview strings of non-primitive values.
	MaxPreviewLength int
	// MaxChildren caps the members enumerated for one container level.
	MaxChildren int
}

// DefaultOptions are used by the package-level functions.
var DefaultOptions = Options{MaxPreviewLength: 64, MaxChildren: 512}

// Serializer describes values with fixed Options. It holds no state
// between calls and is safe for concurrent use.
type Serializer struct {
	opts Options
}

// New returns a Serializer. Zero fields fall back to DefaultOptions.
func New(opts Options) *Serializer {
	if opts.MaxPreviewLength <= 0 {
		opts.MaxPreviewLength = DefaultOptions.MaxPreviewLength
	}
	if opts.MaxChildren <= 0 {
		opts.MaxChildren = DefaultOptions.MaxChildren
	}
	return &Serializer{opts: opts}
}

var std = New(DefaultOptions)

// Describe describes value with the default serializer.
func Describe(value any, depth int) protocol.Descriptor { return std.Describe(value, depth) }

// Properties returns every top-level property of instance.
func Properties(instance any) map[string]protocol.Descriptor { return std.Properties(instance) }

// Expand returns the members of the value found at path under root.
func Expand(root any, path []string) map[string]protocol.Descriptor { return std.Expand(root, path) }

// Nested returns the top-level properties of instance with the requested
// sub-paths expanded in place.
func Nested(instance any, props []protocol.NestedProp) map[string]protocol.Descriptor {
	return std.Nested(instance, props)
}

// Describe returns the Descriptor of value. The value is expandable only
// when depth > 0 and it has members.
func (s *Serializer) Describe(value any, depth int) protocol.Descriptor {
	return s.member(child{value: reflect.ValueOf(value)}, depth, nil, nil, false)
}

// Properties is Expand with an empty path.
func (s *Serializer) Properties(instance any) map[string]protocol.Descriptor {
	return s.Expand(instance, nil)
}

// Expand walks path from root and describes one level of the value found
// there, each member at depth 1. A missing path or a value without
// members yields an empty map.
func (s *Serializer) Expand(root any, path []string) map[string]protocol.Descriptor {
	v, seen, ok := s.resolve(reflect.ValueOf(root), path)
	if !ok {
		return map[string]protocol.Descriptor{}
	}
	return s.level(v, seen, nil)
}

// Nested describes the top level of instance and fills in Value for every
// container named in props, recursively following each prop's children.
func (s *Serializer) Nested(instance any, props []protocol.NestedProp) map[string]protocol.Descriptor {
	v, seen, ok := s.resolve(reflect.ValueOf(instance), nil)
	if !ok {
		return map[string]protocol.Descriptor{}
	}
	return s.level(v, seen, props)
}

// resolve follows path from v and returns the container found there
// together with the containers crossed on the way.
func (s *Serializer) resolve(v reflect.Value, path []string) (reflect.Value, ancestors, bool) {
	cur, id, hasID := indirect(v)
	seen := ancestors{}.with(id, hasID)
	for _, name := range path {
		if !categorize(cur).IsContainer() {
			return reflect.Value{}, nil, false
		}
		c, ok := lookup(cur, name)
		if !ok {
			return reflect.Value{}, nil, false
		}
		cur, id, hasID = indirect(c.value)
		if seen.has(id, hasID) {
			return reflect.Value{}, nil, false
		}
		seen = seen.with(id, hasID)
	}
	if !categorize(cur).IsContainer() {
		return reflect.Value{}, nil, false
	}
	return cur, seen, true
}

// level describes the members of container v. Members named in props are
// expanded recursively.
func (s *Serializer) level(v reflect.Value, seen ancestors, props []protocol.NestedProp) map[string]protocol.Descriptor {
	kids, _ := children(categorize(v), v, s.opts.MaxChildren)
	requested := make(map[string][]protocol.NestedProp, len(props))
	for _, p := range props {
		requested[p.Name] = p.Children
	}
	out := make(map[string]protocol.Descriptor, len(kids))
	for _, c := range kids {
		sub, want := requested[c.name]
		out[c.name] = s.member(c, 1, seen, sub, want)
	}
	return out
}

// member describes one container member, isolating panics raised while
// reading it.
func (s *Serializer) member(c child, depth int, seen ancestors, sub []protocol.NestedProp, expand bool) (d protocol.Descriptor) {
	defer func() {
		if r := recover(); r != nil {
			d = protocol.Descriptor{Type: protocol.PropUnknown, Preview: truncate(fmt.Sprintf("[Exception: %v]", r), s.opts.MaxPreviewLength)}
		}
	}()
	d = s.describe(c.value, depth, c.settable, seen)
	if !expand || !d.Expandable {
		return d
	}
	inner, id, hasID := indirect(c.value)
	next := seen.with(id, hasID)
	members := s.level(inner, next, sub)
	if d.Type == protocol.PropArray {
		d.Value = arrayValue(members)
	} else {
		d.Value = members
	}
	return d
}

// arrayValue orders index-keyed members into a slice.
func arrayValue(members map[string]protocol.Descriptor) []protocol.Descriptor {
	out := make([]protocol.Descriptor, 0, len(members))
	for i := 0; ; i++ {
		d, ok := members[strconv.Itoa(i)]
		if !ok {
			return out
		}
		out = append(out, d)
	}
}

func (s *Serializer) describe(v reflect.Value, depth int, settable bool, seen ancestors) protocol.Descriptor {
	inner, id, hasID := indirect(v)
	if seen.has(id, hasID) {
		return protocol.CircularDescriptor()
	}
	t := categorize(inner)
	d := protocol.Descriptor{Type: t}
	switch {
	case isPrimitive(t):
		d.Value, d.Preview = scalar(inner)
		d.Editable = settable && v.Kind() != reflect.Pointer
	case t.IsContainer():
		kids, total := children(t, inner, s.opts.MaxChildren)
		d.Expandable = depth > 0 && total > 0
		d.Preview = containerPreview(t, kids, total, s.opts.MaxPreviewLength)
	default:
		d.Preview = truncate(leafPreview(t, inner), s.opts.MaxPreviewLength)
	}
	return d
}
