package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/component-inspector/internal/protocol"
)

func TestRequestMatchesPairedResponse(t *testing.T) {
	h := newHarness(t, nil)
	req := NewRequester(h.panel)
	Handle(h.agent, func(ctx context.Context, _ protocol.QueryNgAvailability) {
		_ = h.agent.Send(ctx, protocol.NgAvailabilityMessage{Availability: protocol.NgAvailability{Version: "17.0.0", DevMode: true, Ivy: true}})
	})
	h.handshake(t)

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	resp, err := Request[protocol.NgAvailabilityMessage](ctx, req, protocol.QueryNgAvailability{})
	require.NoError(t, err)
	assert.Equal(t, "17.0.0", resp.Availability.Version)
	assert.True(t, resp.Availability.Ivy)
}

func TestRequestRejectsUnpairedTopic(t *testing.T) {
	h := newHarness(t, nil)
	req := NewRequester(h.panel)
	_, err := req.Request(context.Background(), protocol.InspectorStart{})
	assert.ErrorIs(t, err, protocol.ErrUnsupportedQuery)
}

func TestSecondRequestWaitsForFirst(t *testing.T) {
	h := newHarness(t, nil)
	req := NewRequester(h.panel)
	seen := make(chan struct{}, 4)
	Handle(h.agent, func(context.Context, protocol.GetRoutes) { seen <- struct{}{} })
	h.handshake(t)

	first := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()
		_, err := req.Request(ctx, protocol.GetRoutes{})
		first <- err
	}()
	recv(t, seen)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := req.Request(ctx, protocol.GetRoutes{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	select {
	case <-seen:
		t.Fatal("second request was sent while the first was outstanding")
	default:
	}

	require.NoError(t, h.agent.Send(context.Background(), protocol.UpdateRouterTree{Routes: []protocol.Route{}}))
	assert.NoError(t, recv(t, first))
}

func TestShutdownFailsPendingRequest(t *testing.T) {
	h := newHarness(t, nil)
	req := NewRequester(h.panel)
	seen := make(chan struct{}, 1)
	Handle(h.agent, func(context.Context, protocol.GetInjectorProviders) { seen <- struct{}{} })
	h.handshake(t)

	result := make(chan error, 1)
	go func() {
		_, err := req.Request(context.Background(), protocol.GetInjectorProviders{Injector: protocol.SerializedInjector{ID: "1"}})
		result <- err
	}()
	recv(t, seen)

	require.NoError(t, h.agent.Shutdown(context.Background()))
	assert.ErrorIs(t, recv(t, result), ErrSessionClosed)
}

func TestUnsolicitedResponseGoesToFallback(t *testing.T) {
	h := newHarness(t, nil)
	req := NewRequester(h.panel)
	got := make(chan protocol.Message, 1)
	req.OnUnsolicited(protocol.TopicLatestComponentExplorerView, func(_ context.Context, m protocol.Message) { got <- m })
	h.handshake(t)

	view := protocol.LatestComponentExplorerView{View: protocol.ComponentExplorerView{Forest: []protocol.DevToolsNode{}}}
	require.NoError(t, h.agent.Send(context.Background(), view))
	m := recv(t, got)
	assert.Equal(t, protocol.TopicLatestComponentExplorerView, m.Topic())
}
