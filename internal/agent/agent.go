// Package agent answers panel queries about a live application: it owns
// the tree snapshotter and the profiling session and registers a handler
// for every panel-to-agent topic.
package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mj1618/component-inspector/internal/bus"
	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/profiler"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/serializer"
	"github.com/mj1618/component-inspector/internal/transport"
	"github.com/mj1618/component-inspector/internal/tree"
)

const sendTimeout = 5 * time.Second

// Config configures an Agent.
type Config struct {
	Provider  *host.Provider
	Transport transport.Transport
	Codec     protocol.Codec
	Logger    *zerolog.Logger

	ChunkSize     int
	Serializer    *serializer.Serializer
	Clock         clockwork.Clock
	ProfilerQueue int
}

// Agent is the application side of an inspection session.
type Agent struct {
	prov  *host.Provider
	ep    *bus.Endpoint
	snaps *tree.Snapshotter
	prof  *profiler.Session
	log   zerolog.Logger

	dirtyPending atomic.Bool

	mu         sync.Mutex
	selected   protocol.ElementPosition
	inspecting bool
}

// New wires an agent to cfg.Provider and registers every handler. The
// provider's instrumentation, if any, is routed to the profiler.
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil || cfg.Provider.Tree == nil {
		return nil, fmt.Errorf("agent: %w", host.ErrNoApplication)
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("agent: nil transport")
	}
	a := &Agent{
		prov: cfg.Provider,
		log:  zerolog.Nop(),
	}
	if cfg.Logger != nil {
		a.log = cfg.Logger.With().Str("component", "agent").Logger()
	}
	sched := cfg.Provider.Scheduler
	if sched == nil {
		sched = host.Inline{}
	}
	a.ep = bus.New(bus.Config{
		Side:      protocol.SideAgent,
		Transport: cfg.Transport,
		Codec:     cfg.Codec,
		Logger:    cfg.Logger,
	})
	a.snaps = tree.New(cfg.Provider.Tree, tree.Config{
		Scheduler:  sched,
		ChunkSize:  cfg.ChunkSize,
		Serializer: cfg.Serializer,
		Logger:     cfg.Logger,
	})
	a.prof = profiler.New(cfg.Provider.Tree, profiler.Config{
		Clock:     cfg.Clock,
		QueueSize: cfg.ProfilerQueue,
		Logger:    cfg.Logger,
	})
	if cfg.Provider.Instrumentable != nil {
		cfg.Provider.Instrumentable.Instrument(a.prof)
	}
	a.register()
	return a, nil
}

// Endpoint returns the agent's protocol endpoint.
func (a *Agent) Endpoint() *bus.Endpoint { return a.ep }

// Snapshotter returns the tree snapshotter.
func (a *Agent) Snapshotter() *tree.Snapshotter { return a.snaps }

// Profiler returns the profiling session.
func (a *Agent) Profiler() *profiler.Session { return a.prof }

// Selected returns the element last selected by the panel.
func (a *Agent) Selected() protocol.ElementPosition {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// Run sends the handshake and dispatches panel messages until ctx is done
// or the transport fails. Stopping through ctx sends shutdown to the panel
// and releases the session.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.ep.Start(ctx); err != nil {
		return err
	}
	err := a.ep.Run(ctx)
	if ctx.Err() != nil {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		if cerr := a.ep.Close(sctx); cerr != nil {
			a.log.Debug().Err(cerr).Msg("shutdown not sent")
		}
	}
	return err
}

// NotifyTreeChanged invalidates the snapshot and tells the panel the tree
// is dirty. Notifications are coalesced until the panel fetches a new
// view.
func (a *Agent) NotifyTreeChanged() {
	a.snaps.MarkDirty()
	if !a.ep.Open() || a.dirtyPending.Swap(true) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := a.ep.Send(ctx, protocol.ComponentTreeDirty{}); err != nil {
		a.dirtyPending.Store(false)
		a.log.Debug().Err(err).Msg("componentTreeDirty not sent")
	}
}

func (a *Agent) register() {
	bus.Handle(a.ep, a.onQueryNgAvailability)
	bus.Handle(a.ep, a.onGetLatestComponentExplorerView)
	bus.Handle(a.ep, a.onGetNestedProperties)
	bus.Handle(a.ep, a.onSetSelectedComponent)
	bus.Handle(a.ep, a.onGetRoutes)
	bus.Handle(a.ep, a.onUpdateState)
	bus.Handle(a.ep, a.onStartProfiling)
	bus.Handle(a.ep, a.onStopProfiling)
	bus.Handle(a.ep, a.onCreateHighlightOverlay)
	bus.Handle(a.ep, func(context.Context, protocol.RemoveHighlightOverlay) { a.hide() })
	bus.Handle(a.ep, a.onHighlightComponent)
	bus.Handle(a.ep, a.onSelectComponent)
	bus.Handle(a.ep, func(context.Context, protocol.RemoveComponentHighlight) { a.hide() })
	bus.Handle(a.ep, func(context.Context, protocol.EnableTimingAPI) { a.prof.SetTimingAPI(true) })
	bus.Handle(a.ep, func(context.Context, protocol.DisableTimingAPI) { a.prof.SetTimingAPI(false) })
	bus.Handle(a.ep, a.onGetInjectorProviders)
	bus.Handle(a.ep, a.onInspectorStart)
	bus.Handle(a.ep, func(context.Context, protocol.InspectorEnd) { a.stopInspector() })
	a.ep.OnShutdown(a.release)
}

// release drops everything tied to the session that just ended.
func (a *Agent) release() {
	a.prof.Shutdown()
	a.stopInspector()
	a.dirtyPending.Store(false)
	a.mu.Lock()
	a.selected = nil
	a.mu.Unlock()
}

func (a *Agent) send(ctx context.Context, msg protocol.Message) {
	if err := a.ep.Send(ctx, msg); err != nil {
		a.log.Warn().Err(err).Str("topic", string(msg.Topic())).Msg("send failed")
	}
}
