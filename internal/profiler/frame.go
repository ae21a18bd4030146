package profiler

import (
	"fmt"
	"time"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/protocol"
)

type stats struct {
	lifecycle       protocol.LifecycleProfile
	outputs         protocol.OutputProfile
	changeDetection *float64
}

// frame accumulates one render pass.
type frame struct {
	source  string
	started time.Time
	byKey   map[any]*stats
}

func newFrame(source string, started time.Time) *frame {
	return &frame{source: source, started: started, byKey: make(map[any]*stats)}
}

func (f *frame) stats(key any) *stats {
	st, ok := f.byKey[key]
	if !ok {
		st = &stats{outputs: protocol.OutputProfile{}}
		f.byKey[key] = st
	}
	return st
}

// build mirrors the live tree, attaching what was recorded for each
// directive instance. Directives that recorded nothing appear with empty
// profiles so the frame keeps the tree's shape.
func (f *frame) build(t host.Tree) (out []protocol.ElementProfile, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("read tree: %v", r)
		}
	}()
	return f.elements(t.Roots()), nil
}

func (f *frame) elements(els []host.Element) []protocol.ElementProfile {
	out := make([]protocol.ElementProfile, 0, len(els))
	for _, el := range els {
		if el == nil {
			continue
		}
		ep := protocol.ElementProfile{Directives: []protocol.DirectiveProfile{}}
		if c := el.Component(); c != nil {
			ep.Directives = append(ep.Directives, f.directive(c, true))
		}
		for _, d := range el.Directives() {
			if d != nil {
				ep.Directives = append(ep.Directives, f.directive(d, false))
			}
		}
		ep.Children = f.elements(el.Children())
		out = append(out, ep)
	}
	return out
}

func (f *frame) directive(d *host.Directive, component bool) protocol.DirectiveProfile {
	dp := protocol.DirectiveProfile{
		Name:        d.Name,
		IsElement:   d.IsElement,
		IsComponent: component,
		Outputs:     protocol.OutputProfile{},
	}
	key, ok := instanceKey(d.Instance)
	if !ok {
		return dp
	}
	if st, ok := f.byKey[key]; ok {
		dp.Lifecycle = st.lifecycle
		dp.Outputs = st.outputs
		dp.ChangeDetection = st.changeDetection
	}
	return dp
}
