package panel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/component-inspector/internal/bus"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/transport"
)

const wait = 2 * time.Second

// connect pairs a panel with a bare agent endpoint that answers only
// availability queries.
func connect(t *testing.T) (*Panel, *bus.Endpoint) {
	t.Helper()
	at, pt := transport.Pipe()
	agent := bus.New(bus.Config{Side: protocol.SideAgent, Transport: at})
	bus.Handle(agent, func(ctx context.Context, _ protocol.QueryNgAvailability) {
		_ = agent.Send(ctx, protocol.NgAvailabilityMessage{Availability: protocol.NgAvailability{Version: "17.0.0"}})
	})
	p := New(Config{Transport: pt})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = agent.Run(ctx) }()
	go func() { _ = p.Run(ctx) }()

	wctx, wcancel := context.WithTimeout(ctx, wait)
	defer wcancel()
	require.NoError(t, agent.Start(wctx))
	require.NoError(t, p.WaitHandshake(wctx))
	return p, agent
}

func barrier(t *testing.T, p *Panel) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	_, err := p.Availability(ctx)
	require.NoError(t, err)
}

func TestDirtyBumpsGeneration(t *testing.T) {
	p, agent := connect(t)
	ctx := context.Background()
	start := p.Generation()

	require.NoError(t, agent.Send(ctx, protocol.ComponentTreeDirty{}))
	require.NoError(t, agent.Send(ctx, protocol.ComponentTreeDirty{}))
	barrier(t, p)

	assert.Equal(t, start+2, p.Generation())
	select {
	case <-p.Dirty():
	default:
		t.Fatal("expected a dirty signal")
	}
	select {
	case <-p.Dirty():
		t.Fatal("dirty signals are coalesced")
	default:
	}
}

func TestFramesOutsideRecordingAreIgnored(t *testing.T) {
	p, agent := connect(t)
	ctx := context.Background()

	require.NoError(t, agent.Send(ctx, protocol.SendProfilerChunk{Frame: protocol.ProfilerFrame{Source: "stray", Directives: []protocol.ElementProfile{}}}))
	barrier(t, p)
	assert.Empty(t, p.Frames())

	require.NoError(t, p.StartProfiling(ctx))
	require.NoError(t, agent.Send(ctx, protocol.SendProfilerChunk{Frame: protocol.ProfilerFrame{Source: "a", Duration: 1, Directives: []protocol.ElementProfile{}}}))
	require.NoError(t, agent.Send(ctx, protocol.ProfilerResults{Frame: protocol.ProfilerFrame{Source: "b", Duration: 2, Directives: []protocol.ElementProfile{}}}))

	frames, err := p.StopProfiling(ctx)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "a", frames[0].Source)
	assert.Equal(t, "b", frames[1].Source)
	assert.Equal(t, 2, p.Summary().Frames)
}

func TestPickerCallbacks(t *testing.T) {
	p, agent := connect(t)
	ctx := context.Background()
	hovered := make(chan int, 1)
	selected := make(chan int, 1)
	p.OnHighlight(func(id int) { hovered <- id })
	p.OnSelect(func(id int) { selected <- id })

	require.NoError(t, agent.Send(ctx, protocol.HighlightComponent{ID: 3}))
	require.NoError(t, agent.Send(ctx, protocol.SelectComponent{ID: 5}))
	barrier(t, p)
	assert.Equal(t, 3, <-hovered)
	assert.Equal(t, 5, <-selected)
}

func TestUnsolicitedViewUpdatesCache(t *testing.T) {
	p, agent := connect(t)
	forest := []protocol.DevToolsNode{{Element: "app-root", Directives: []protocol.DirectiveType{}, Children: []protocol.DevToolsNode{}}}
	require.NoError(t, agent.Send(context.Background(), protocol.LatestComponentExplorerView{View: protocol.ComponentExplorerView{Forest: forest}}))
	barrier(t, p)
	assert.Equal(t, forest, p.Forest())
}

func TestAgentShutdownReleasesPanel(t *testing.T) {
	p, agent := connect(t)
	ctx := context.Background()
	require.NoError(t, p.StartProfiling(ctx))
	before := p.Generation()

	require.NoError(t, agent.Shutdown(ctx))
	require.Eventually(t, func() bool { return p.Generation() > before }, wait, time.Millisecond)
	assert.ErrorIs(t, p.SelectElement(ctx, protocol.ElementPosition{0}), bus.ErrSessionClosed)
}

func TestDirtyDropsCachedForest(t *testing.T) {
	p, agent := connect(t)
	ctx := context.Background()
	forest := []protocol.DevToolsNode{{Element: "app-root", Directives: []protocol.DirectiveType{}, Children: []protocol.DevToolsNode{}}}
	require.NoError(t, agent.Send(ctx, protocol.LatestComponentExplorerView{View: protocol.ComponentExplorerView{Forest: forest}}))
	barrier(t, p)
	require.Equal(t, forest, p.Forest())

	require.NoError(t, agent.Send(ctx, protocol.ComponentTreeDirty{}))
	barrier(t, p)
	assert.Nil(t, p.Forest())

	require.NoError(t, agent.Send(ctx, protocol.LatestComponentExplorerView{View: protocol.ComponentExplorerView{Forest: forest}}))
	barrier(t, p)
	assert.Equal(t, forest, p.Forest())
}
