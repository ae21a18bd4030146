// Package panel is the inspector side of a session. It caches the last
// component forest, issues paired queries, and collects profiler frames.
package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mj1618/component-inspector/internal/bus"
	"github.com/mj1618/component-inspector/internal/profiler"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/transport"
)

// Config configures a Panel.
type Config struct {
	Transport transport.Transport
	Codec     protocol.Codec
	Logger    *zerolog.Logger
}

// Panel drives one agent.
type Panel struct {
	ep  *bus.Endpoint
	req *bus.Requester
	log zerolog.Logger

	mu          sync.Mutex
	forest      []protocol.DevToolsNode
	generation  uint64
	frames      []protocol.ProfilerFrame
	recording   bool
	onFrame     func(protocol.ProfilerFrame)
	onHighlight func(id int)
	onSelect    func(id int)

	dirty chan struct{}
}

// New creates a panel over tr and registers its handlers.
func New(cfg Config) *Panel {
	p := &Panel{
		log:   zerolog.Nop(),
		dirty: make(chan struct{}, 1),
	}
	if cfg.Logger != nil {
		p.log = cfg.Logger.With().Str("component", "panel").Logger()
	}
	p.ep = bus.New(bus.Config{
		Side:      protocol.SidePanel,
		Transport: cfg.Transport,
		Codec:     cfg.Codec,
		Logger:    cfg.Logger,
	})
	p.req = bus.NewRequester(p.ep)

	bus.Handle(p.ep, p.onTreeDirty)
	bus.Handle(p.ep, func(_ context.Context, m protocol.SendProfilerChunk) { p.addFrame(m.Frame) })
	bus.Handle(p.ep, func(_ context.Context, m protocol.ProfilerResults) { p.addFrame(m.Frame) })
	bus.Handle(p.ep, func(_ context.Context, m protocol.HighlightComponent) {
		p.mu.Lock()
		fn := p.onHighlight
		p.mu.Unlock()
		if fn != nil {
			fn(m.ID)
		}
	})
	bus.Handle(p.ep, func(_ context.Context, m protocol.SelectComponent) {
		p.mu.Lock()
		fn := p.onSelect
		p.mu.Unlock()
		if fn != nil {
			fn(m.ID)
		}
	})
	p.req.OnUnsolicited(protocol.TopicLatestComponentExplorerView, func(_ context.Context, m protocol.Message) {
		p.cacheView(m.(protocol.LatestComponentExplorerView).View)
	})
	p.ep.OnShutdown(p.release)
	return p
}

// Endpoint returns the panel's protocol endpoint.
func (p *Panel) Endpoint() *bus.Endpoint { return p.ep }

// Run dispatches agent messages until ctx is done or the transport fails.
func (p *Panel) Run(ctx context.Context) error { return p.ep.Run(ctx) }

// WaitHandshake blocks until the agent has opened a session.
func (p *Panel) WaitHandshake(ctx context.Context) error { return p.ep.WaitReady(ctx) }

// Shutdown ends the session.
func (p *Panel) Shutdown(ctx context.Context) error { return p.ep.Shutdown(ctx) }

// Dirty signals each time the agent reports a structural change. Signals
// are coalesced.
func (p *Panel) Dirty() <-chan struct{} { return p.dirty }

// Generation increases on every componentTreeDirty.
func (p *Panel) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Forest returns the last fetched forest, or nil once the agent has
// reported the tree dirty and no newer view has arrived.
func (p *Panel) Forest() []protocol.DevToolsNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forest
}

// OnHighlight is called when the agent's element picker hovers a directive.
func (p *Panel) OnHighlight(fn func(id int)) {
	p.mu.Lock()
	p.onHighlight = fn
	p.mu.Unlock()
}

// OnSelect is called when the agent's element picker selects a directive.
func (p *Panel) OnSelect(fn func(id int)) {
	p.mu.Lock()
	p.onSelect = fn
	p.mu.Unlock()
}

// OnFrame is called for every profiler frame as it arrives.
func (p *Panel) OnFrame(fn func(protocol.ProfilerFrame)) {
	p.mu.Lock()
	p.onFrame = fn
	p.mu.Unlock()
}

// Availability asks whether the application can be inspected.
func (p *Panel) Availability(ctx context.Context) (protocol.NgAvailability, error) {
	m, err := bus.Request[protocol.NgAvailabilityMessage](ctx, p.req, protocol.QueryNgAvailability{})
	return m.Availability, err
}

// ComponentView fetches the forest and, when query is set, the selected
// node's properties. The forest is cached.
func (p *Panel) ComponentView(ctx context.Context, query *protocol.ComponentExplorerViewQuery) (protocol.ComponentExplorerView, error) {
	m, err := bus.Request[protocol.LatestComponentExplorerView](ctx, p.req, protocol.GetLatestComponentExplorerView{Query: query})
	if err != nil {
		return protocol.ComponentExplorerView{}, err
	}
	p.cacheView(m.View)
	return m.View, nil
}

// NestedProperties expands one property path of a directive.
func (p *Panel) NestedProperties(ctx context.Context, pos protocol.DirectivePosition, path []string) (protocol.Properties, error) {
	m, err := bus.Request[protocol.NestedProperties](ctx, p.req, protocol.GetNestedProperties{Position: pos, Path: path})
	return m.Data, err
}

// Routes fetches the router tree.
func (p *Panel) Routes(ctx context.Context) ([]protocol.Route, error) {
	m, err := bus.Request[protocol.UpdateRouterTree](ctx, p.req, protocol.GetRoutes{})
	return m.Routes, err
}

// InjectorProviders lists the providers configured on inj.
func (p *Panel) InjectorProviders(ctx context.Context, inj protocol.SerializedInjector) ([]protocol.SerializedProviderRecord, error) {
	m, err := bus.Request[protocol.LatestInjectorProviders](ctx, p.req, protocol.GetInjectorProviders{Injector: inj})
	return m.Providers, err
}

// UpdateState assigns a property on a directive. The agent sends no
// acknowledgement.
func (p *Panel) UpdateState(ctx context.Context, data protocol.UpdatedStateData) error {
	return p.ep.Send(ctx, protocol.UpdateState{Value: data})
}

// SelectElement marks pos as the selected element.
func (p *Panel) SelectElement(ctx context.Context, pos protocol.ElementPosition) error {
	return p.ep.Send(ctx, protocol.SetSelectedComponent{Position: pos})
}

// Highlight shows the overlay over the element at pos.
func (p *Panel) Highlight(ctx context.Context, pos protocol.ElementPosition) error {
	return p.ep.Send(ctx, protocol.CreateHighlightOverlay{Position: pos})
}

// Unhighlight removes the overlay.
func (p *Panel) Unhighlight(ctx context.Context) error {
	return p.ep.Send(ctx, protocol.RemoveHighlightOverlay{})
}

// HighlightComponent shows the overlay over the element carrying id.
func (p *Panel) HighlightComponent(ctx context.Context, id int) error {
	return p.ep.Send(ctx, protocol.HighlightComponent{ID: id})
}

// SelectComponent selects the element carrying id.
func (p *Panel) SelectComponent(ctx context.Context, id int) error {
	return p.ep.Send(ctx, protocol.SelectComponent{ID: id})
}

// RemoveComponentHighlight removes the overlay drawn for a component.
func (p *Panel) RemoveComponentHighlight(ctx context.Context) error {
	return p.ep.Send(ctx, protocol.RemoveComponentHighlight{})
}

// EnableTimingAPI toggles hook annotations in the agent.
func (p *Panel) EnableTimingAPI(ctx context.Context, enabled bool) error {
	if enabled {
		return p.ep.Send(ctx, protocol.EnableTimingAPI{})
	}
	return p.ep.Send(ctx, protocol.DisableTimingAPI{})
}

// Inspector starts or stops the agent's element picker.
func (p *Panel) Inspector(ctx context.Context, on bool) error {
	if on {
		return p.ep.Send(ctx, protocol.InspectorStart{})
	}
	return p.ep.Send(ctx, protocol.InspectorEnd{})
}

// StartProfiling clears collected frames and starts recording. It
// returns once the agent has acknowledged the start through an
// availability round trip, so every render after it is recorded.
func (p *Panel) StartProfiling(ctx context.Context) error {
	p.mu.Lock()
	p.frames = nil
	p.recording = true
	p.mu.Unlock()
	err := p.ep.Send(ctx, protocol.StartProfiling{})
	if err == nil {
		_, err = p.Availability(ctx)
	}
	if err != nil {
		p.mu.Lock()
		p.recording = false
		p.mu.Unlock()
		return fmt.Errorf("start profiling: %w", err)
	}
	return nil
}

// StopProfiling stops recording and returns every frame received,
// including those flushed by the agent after the stop. An availability
// query is used as a barrier: the agent answers it only after it has
// flushed.
func (p *Panel) StopProfiling(ctx context.Context) ([]protocol.ProfilerFrame, error) {
	if err := p.ep.Send(ctx, protocol.StopProfiling{}); err != nil {
		return nil, err
	}
	if _, err := p.Availability(ctx); err != nil {
		return nil, fmt.Errorf("stop profiling: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recording = false
	return append([]protocol.ProfilerFrame(nil), p.frames...), nil
}

// Frames returns the frames received so far.
func (p *Panel) Frames() []protocol.ProfilerFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]protocol.ProfilerFrame(nil), p.frames...)
}

// Summary aggregates the frames received so far.
func (p *Panel) Summary() profiler.Summary {
	return profiler.Aggregate(p.Frames())
}

func (p *Panel) onTreeDirty(context.Context, protocol.ComponentTreeDirty) {
	p.mu.Lock()
	p.generation++
	p.forest = nil
	p.mu.Unlock()
	select {
	case p.dirty <- struct{}{}:
	default:
	}
}

func (p *Panel) addFrame(f protocol.ProfilerFrame) {
	p.mu.Lock()
	if !p.recording {
		p.mu.Unlock()
		p.log.Debug().Str("source", f.Source).Msg("frame outside a recording")
		return
	}
	p.frames = append(p.frames, f)
	fn := p.onFrame
	p.mu.Unlock()
	if fn != nil {
		fn(f)
	}
}

func (p *Panel) cacheView(v protocol.ComponentExplorerView) {
	p.mu.Lock()
	p.forest = v.Forest
	p.mu.Unlock()
}

// release forgets session state when the session ends.
func (p *Panel) release() {
	p.mu.Lock()
	p.recording = false
	p.forest = nil
	p.generation++
	p.mu.Unlock()
}
