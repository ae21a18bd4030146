package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// pending is one request waiting for its paired response.
type pending struct {
	resp   chan protocol.Message
	closed chan struct{}
}

type pair struct {
	// slot admits one outstanding request per pair; the protocol has no
	// correlation id to tell two answers apart.
	slot    chan struct{}
	waiting *pending
}

// Requester issues paired queries from the panel and matches each
// response to the request waiting on its pair.
type Requester struct {
	ep *Endpoint

	mu       sync.Mutex
	pairs    map[protocol.Topic]*pair // keyed by response topic
	fallback map[protocol.Topic]Handler
}

// NewRequester registers response handlers for every request/response
// pair on ep.
func NewRequester(ep *Endpoint) *Requester {
	r := &Requester{
		ep:       ep,
		pairs:    make(map[protocol.Topic]*pair),
		fallback: make(map[protocol.Topic]Handler),
	}
	for _, resp := range protocol.Pairs {
		r.pairs[resp] = &pair{slot: make(chan struct{}, 1)}
		ep.On(resp, r.deliver)
	}
	ep.OnShutdown(r.failPending)
	return r
}

// OnUnsolicited handles responses that arrive with no request waiting,
// such as a view pushed after a tree change.
func (r *Requester) OnUnsolicited(topic protocol.Topic, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback[topic] = h
}

// Request sends req and waits for the paired response. A second request
// on the same pair waits until the first completes. Shutdown fails the
// waiting request with ErrSessionClosed.
func (r *Requester) Request(ctx context.Context, req protocol.Message) (protocol.Message, error) {
	respTopic, ok := protocol.Pairs[req.Topic()]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", req.Topic(), protocol.ErrUnsupportedQuery)
	}
	p := r.pairs[respTopic]

	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.slot }()

	w := &pending{resp: make(chan protocol.Message, 1), closed: make(chan struct{})}
	r.mu.Lock()
	p.waiting = w
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		if p.waiting == w {
			p.waiting = nil
		}
		r.mu.Unlock()
	}()

	if err := r.ep.Send(ctx, req); err != nil {
		return nil, err
	}

	select {
	case m := <-w.resp:
		return m, nil
	case <-w.closed:
		return nil, fmt.Errorf("request %s: %w", req.Topic(), ErrSessionClosed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Request is the typed form of Requester.Request.
func Request[T protocol.Message](ctx context.Context, r *Requester, req protocol.Message) (T, error) {
	var zero T
	m, err := r.Request(ctx, req)
	if err != nil {
		return zero, err
	}
	out, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("request %s: unexpected response %T", req.Topic(), m)
	}
	return out, nil
}

func (r *Requester) deliver(ctx context.Context, msg protocol.Message) {
	r.mu.Lock()
	p := r.pairs[msg.Topic()]
	var w *pending
	if p != nil {
		w, p.waiting = p.waiting, nil
	}
	fb := r.fallback[msg.Topic()]
	r.mu.Unlock()

	if w != nil {
		w.resp <- msg
		return
	}
	if fb != nil {
		fb(ctx, msg)
	}
}

func (r *Requester) failPending() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs {
		if p.waiting != nil {
			close(p.waiting.closed)
			p.waiting = nil
		}
	}
}
