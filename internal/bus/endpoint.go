// Package bus routes protocol messages between one agent and one panel:
// it owns the handler registry, enforces topic direction, and runs the
// handshake/shutdown session lifecycle.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mj1618/component-inspector/internal/metrics"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/transport"
)

var (
	// ErrNotReady is returned when sending before the handshake.
	ErrNotReady = errors.New("bus: session not ready")
	// ErrSessionClosed is returned for work abandoned by shutdown.
	ErrSessionClosed = errors.New("bus: session closed")
	// ErrWrongDirection is returned when a side sends a topic it may not send.
	ErrWrongDirection = errors.New("bus: topic not allowed from this side")
)

// Handler processes one inbound message. Handlers for a given endpoint
// never run concurrently.
type Handler func(ctx context.Context, msg protocol.Message)

type phase int

const (
	phaseWaiting phase = iota
	phaseOpen
	phaseClosed
)

func (p phase) String() string {
	switch p {
	case phaseOpen:
		return "open"
	case phaseClosed:
		return "closed"
	}
	return "waiting"
}

// Config configures an Endpoint.
type Config struct {
	Side      protocol.Side
	Transport transport.Transport
	// Codec defaults to protocol.JSON.
	Codec  protocol.Codec
	Logger *zerolog.Logger
}

// Endpoint is one side of a connection.
type Endpoint struct {
	side  protocol.Side
	tr    transport.Transport
	codec protocol.Codec
	log   zerolog.Logger

	mu       sync.Mutex
	handlers map[protocol.Topic]Handler
	releases []func()
	phase    phase
	session  string
	ready    chan struct{}
}

// New creates an endpoint. Nothing is sent until Start (agent) or Send.
func New(cfg Config) *Endpoint {
	e := &Endpoint{
		side:     cfg.Side,
		tr:       cfg.Transport,
		codec:    cfg.Codec,
		log:      zerolog.Nop(),
		handlers: make(map[protocol.Topic]Handler),
		ready:    make(chan struct{}),
	}
	if e.codec == nil {
		e.codec = protocol.JSON
	}
	if cfg.Logger != nil {
		e.log = cfg.Logger.With().Str("component", "bus").Str("side", cfg.Side.String()).Logger()
	}
	return e
}

// Side returns the side this endpoint speaks for.
func (e *Endpoint) Side() protocol.Side { return e.side }

// Codec returns the wire codec.
func (e *Endpoint) Codec() protocol.Codec { return e.codec }

// On registers h for topic. A later registration for the same topic
// replaces the earlier one.
func (e *Endpoint) On(topic protocol.Topic, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[topic] = h
}

// Handle registers a typed handler for the topic of T.
func Handle[T protocol.Message](e *Endpoint, h func(ctx context.Context, msg T)) {
	var zero T
	e.On(zero.Topic(), func(ctx context.Context, msg protocol.Message) {
		if m, ok := msg.(T); ok {
			h(ctx, m)
		}
	})
}

// OnShutdown registers fn to release per-session state. It runs every
// time a session ends, whether by shutdown, a new handshake, or
// transport loss.
func (e *Endpoint) OnShutdown(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releases = append(e.releases, fn)
}

// Session returns the current session id, empty before the first
// handshake.
func (e *Endpoint) Session() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Open reports whether a session is active.
func (e *Endpoint) Open() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase == phaseOpen
}

// Ready returns a channel closed once the current session is open.
func (e *Endpoint) Ready() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// WaitReady blocks until a session is open or ctx is done.
func (e *Endpoint) WaitReady(ctx context.Context) error {
	select {
	case <-e.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start opens a session from the agent side by sending the handshake.
// Any previous session is released first.
func (e *Endpoint) Start(ctx context.Context) error {
	if e.side != protocol.SideAgent {
		return fmt.Errorf("start: only the agent initiates the handshake")
	}
	data, err := e.codec.Encode(protocol.Handshake{})
	if err != nil {
		return err
	}
	e.endSession("restart")
	if err := e.tr.Send(ctx, data); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}
	metrics.MessagesSent.WithLabelValues(e.side.String(), string(protocol.TopicHandshake)).Inc()
	e.openSession()
	return nil
}

// Send encodes msg and hands it to the transport. The agent may not send
// before Start and the panel may not send before observing the handshake.
// Sending shutdown ends the session locally after the message is queued.
func (e *Endpoint) Send(ctx context.Context, msg protocol.Message) error {
	topic := msg.Topic()
	dir, ok := protocol.DirectionOf(topic)
	if !ok {
		return fmt.Errorf("send %s: unknown topic", topic)
	}
	if !dir.AllowsSender(e.side) {
		return fmt.Errorf("send %s: %w", topic, ErrWrongDirection)
	}
	if topic == protocol.TopicHandshake {
		return e.Start(ctx)
	}

	e.mu.Lock()
	ph := e.phase
	e.mu.Unlock()
	switch {
	case topic == protocol.TopicShutdown && ph != phaseOpen:
		return nil
	case ph == phaseWaiting:
		return fmt.Errorf("send %s: %w", topic, ErrNotReady)
	case ph == phaseClosed:
		return fmt.Errorf("send %s: %w", topic, ErrSessionClosed)
	}

	data, err := e.codec.Encode(msg)
	if err != nil {
		return err
	}
	if err := e.tr.Send(ctx, data); err != nil {
		return fmt.Errorf("send %s: %w", topic, err)
	}
	metrics.MessagesSent.WithLabelValues(e.side.String(), string(topic)).Inc()

	if topic == protocol.TopicShutdown {
		e.endSession("shutdown sent")
	}
	return nil
}

// Shutdown tells the peer this side is going away and releases the
// session. It is a no-op without an open session.
func (e *Endpoint) Shutdown(ctx context.Context) error {
	return e.Send(ctx, protocol.Shutdown{})
}

// Close announces an intentional disconnect. Shutdown is sent when a
// session is open, and the session is released even if the message
// could not be delivered.
func (e *Endpoint) Close(ctx context.Context) error {
	err := e.Shutdown(ctx)
	e.endSession("closed")
	return err
}

// Run receives and dispatches messages until ctx is done or the
// transport fails. Transport loss ends the session.
func (e *Endpoint) Run(ctx context.Context) error {
	for {
		data, err := e.tr.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.endSession("transport lost")
			return fmt.Errorf("receive: %w", err)
		}
		e.Dispatch(ctx, data)
	}
}

// Dispatch decodes one frame and runs the matching handler. Malformed,
// misdirected, early, and late messages are dropped with a warning.
func (e *Endpoint) Dispatch(ctx context.Context, data []byte) {
	msg, err := e.codec.Decode(data)
	if err != nil {
		e.drop("malformed", "", err)
		return
	}
	topic := msg.Topic()
	dir, _ := protocol.DirectionOf(topic)
	if !dir.AllowsSender(e.side.Peer()) {
		e.drop("direction", topic, nil)
		return
	}

	switch topic {
	case protocol.TopicHandshake:
		e.endSession("new handshake")
		e.openSession()
	case protocol.TopicShutdown:
		if !e.Open() {
			e.drop("closed", topic, nil)
			return
		}
		e.endSession("shutdown received")
	default:
		e.mu.Lock()
		ph := e.phase
		e.mu.Unlock()
		if ph == phaseWaiting {
			e.drop("not_ready", topic, nil)
			return
		}
		if ph == phaseClosed {
			e.drop("closed", topic, nil)
			return
		}
	}
	metrics.MessagesReceived.WithLabelValues(e.side.String(), string(topic)).Inc()

	e.mu.Lock()
	h := e.handlers[topic]
	e.mu.Unlock()
	if h == nil {
		if topic != protocol.TopicHandshake && topic != protocol.TopicShutdown {
			e.drop("unhandled", topic, nil)
		}
		return
	}
	e.invoke(ctx, topic, h, msg)
}

func (e *Endpoint) invoke(ctx context.Context, topic protocol.Topic, h Handler, msg protocol.Message) {
	start := time.Now()
	defer func() {
		metrics.HandlerDuration.WithLabelValues(string(topic)).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			e.log.Error().Str("topic", string(topic)).Interface("panic", r).Msg("handler panicked")
		}
	}()
	h(ctx, msg)
}

func (e *Endpoint) drop(reason string, topic protocol.Topic, err error) {
	metrics.MessagesDropped.WithLabelValues(e.side.String(), reason).Inc()
	ev := e.log.Warn().Str("reason", reason)
	if topic != "" {
		ev = ev.Str("topic", string(topic))
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("dropped inbound message")
}

func (e *Endpoint) openSession() {
	e.mu.Lock()
	e.phase = phaseOpen
	e.session = uuid.NewString()
	close(e.ready)
	id := e.session
	e.mu.Unlock()

	metrics.Sessions.WithLabelValues(e.side.String()).Inc()
	e.log.Info().Str("session", id).Msg("session opened")
}

// endSession releases the open session, if any.
func (e *Endpoint) endSession(reason string) {
	e.mu.Lock()
	if e.phase != phaseOpen {
		e.mu.Unlock()
		return
	}
	e.phase = phaseClosed
	e.ready = make(chan struct{})
	id := e.session
	releases := append([]func(){}, e.releases...)
	e.mu.Unlock()

	e.log.Info().Str("session", id).Str("reason", reason).Msg("session closed")
	for _, fn := range releases {
		e.release(fn)
	}
}

func (e *Endpoint) release(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("session release panicked")
		}
	}()
	fn()
}
