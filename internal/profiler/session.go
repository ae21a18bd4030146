// Package profiler records per-directive render timing while a profiling
// session is active and streams one frame per completed render pass.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime/trace"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/metrics"
	"github.com/mj1618/component-inspector/internal/protocol"
)

// State is the recording state of a session.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// ErrRecording is returned by Start when a session is already recording.
var ErrRecording = errors.New("profiler: already recording")

// Config configures a Session.
type Config struct {
	Clock     clockwork.Clock
	QueueSize int
	Logger    *zerolog.Logger
	// Mark receives timing annotations while the timing API is enabled.
	// Defaults to runtime/trace user logs.
	Mark func(category, message string)
}

// Session turns instrumentation callbacks from the application into
// ProfilerFrames. All hooks are no-ops while Idle.
type Session struct {
	tree      host.Tree
	clock     clockwork.Clock
	queueSize int
	log       zerolog.Logger
	mark      func(category, message string)

	mu      sync.Mutex
	state   State
	timing  bool
	emitter *Emitter
	frame   *frame
}

// New creates an idle session over tree.
func New(tree host.Tree, cfg Config) *Session {
	s := &Session{
		tree:      tree,
		clock:     cfg.Clock,
		queueSize: cfg.QueueSize,
		log:       zerolog.Nop(),
		mark:      cfg.Mark,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.queueSize <= 0 {
		s.queueSize = DefaultQueueSize
	}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("component", "profiler").Logger()
	}
	if s.mark == nil {
		s.mark = func(category, message string) {
			trace.Log(context.Background(), category, message)
		}
	}
	return s
}

// State returns the current recording state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start moves the session to Recording. Completed frames are delivered to
// sink from a separate goroutine.
func (s *Session) Start(sink Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Recording {
		return ErrRecording
	}
	s.state = Recording
	s.emitter = NewEmitter(func(f protocol.ProfilerFrame) {
		metrics.ProfilerFrames.WithLabelValues("emitted").Inc()
		sink(f)
	}, s.queueSize, s.log)
	s.log.Info().Msg("profiling started")
	return nil
}

// Stop returns the session to Idle. A frame still being recorded is
// discarded; frames completed but not yet delivered are returned in
// order. Stop while Idle is a no-op.
func (s *Session) Stop() []protocol.ProfilerFrame {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return nil
	}
	s.discardLocked("stop")
	em := s.emitter
	s.emitter = nil
	s.state = Idle
	s.mu.Unlock()

	pending := em.Drain()
	em.Close()
	metrics.ProfilerFrames.WithLabelValues("flushed").Add(float64(len(pending)))
	s.log.Info().Int("flushed", len(pending)).Int("dropped", em.Dropped()).Msg("profiling stopped")
	return pending
}

// Shutdown discards the outstanding frame and every queued frame.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return
	}
	s.discardLocked("shutdown")
	em := s.emitter
	s.emitter = nil
	s.state = Idle
	s.mu.Unlock()

	if n := len(em.Drain()); n > 0 {
		metrics.ProfilerFrames.WithLabelValues("discarded").Add(float64(n))
	}
	em.Close()
	s.log.Info().Msg("profiling session released")
}

// Wait blocks until every completed frame has been delivered.
func (s *Session) Wait() {
	s.mu.Lock()
	em := s.emitter
	s.mu.Unlock()
	if em != nil {
		em.Wait()
	}
}

// SetTimingAPI toggles timing annotations for every recorded hook.
func (s *Session) SetTimingAPI(enabled bool) {
	s.mu.Lock()
	s.timing = enabled
	s.mu.Unlock()
	s.log.Debug().Bool("enabled", enabled).Msg("timing api toggled")
}

// TimingAPI reports whether timing annotations are enabled.
func (s *Session) TimingAPI() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timing
}

// BeginFrame opens a frame for a render pass triggered by source. An
// unfinished previous frame is discarded.
func (s *Session) BeginFrame(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Recording {
		return
	}
	s.discardLocked("restarted")
	s.frame = newFrame(source, s.clock.Now())
}

// ChangeDetection records time spent checking instance.
func (s *Session) ChangeDetection(instance any, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statsLocked(instance)
	if st == nil {
		return
	}
	ms := millis(d)
	if st.changeDetection == nil {
		st.changeDetection = new(float64)
	}
	*st.changeDetection += ms
	s.markLocked(instance, "changeDetection", ms)
}

// LifecycleHook records time spent in one lifecycle hook of instance.
func (s *Session) LifecycleHook(instance any, hook protocol.LifecycleHook, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statsLocked(instance)
	if st == nil {
		return
	}
	slot := st.lifecycle.Slot(hook)
	if slot == nil {
		s.log.Debug().Str("hook", string(hook)).Msg("ignoring unknown lifecycle hook")
		return
	}
	ms := millis(d)
	if *slot == nil {
		*slot = new(float64)
	}
	**slot += ms
	s.markLocked(instance, string(hook), ms)
}

// OutputFired counts one emission of output name on instance.
func (s *Session) OutputFired(instance any, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statsLocked(instance)
	if st == nil {
		return
	}
	st.outputs[name]++
	if s.timing {
		s.mark("output", fmt.Sprintf("%s.%s", instanceName(instance), name))
	}
}

// EndFrame completes the open frame, mirrors the live tree into its
// ElementProfile forest, and queues it for delivery.
func (s *Session) EndFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.frame
	s.frame = nil
	if s.state != Recording || f == nil {
		return
	}

	directives, err := f.build(s.tree)
	if err != nil {
		metrics.ProfilerFrames.WithLabelValues("discarded").Inc()
		s.log.Warn().Err(err).Str("source", f.source).Msg("discarding frame")
		return
	}
	elapsed := s.clock.Since(f.started)
	if elapsed < 0 {
		elapsed = 0
	}
	frame := protocol.ProfilerFrame{
		Source:     f.source,
		Duration:   millis(elapsed),
		Directives: directives,
	}
	if s.emitter.Push(frame) {
		metrics.ProfilerFrames.WithLabelValues("dropped").Inc()
	}
}

// Abort discards the open frame, e.g. when the render pass failed.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked("aborted")
}

func (s *Session) discardLocked(reason string) {
	if s.frame == nil {
		return
	}
	s.log.Debug().Str("source", s.frame.source).Str("reason", reason).Msg("discarding open frame")
	metrics.ProfilerFrames.WithLabelValues("discarded").Inc()
	s.frame = nil
}

func (s *Session) statsLocked(instance any) *stats {
	if s.state != Recording || s.frame == nil {
		return nil
	}
	key, ok := instanceKey(instance)
	if !ok {
		return nil
	}
	return s.frame.stats(key)
}

func (s *Session) markLocked(instance any, what string, ms float64) {
	if !s.timing {
		return
	}
	s.mark("lifecycle", fmt.Sprintf("%s.%s %.3fms", instanceName(instance), what, ms))
}

func millis(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

type refKey struct {
	ptr uintptr
	typ reflect.Type
}

// instanceKey returns the map key identifying a directive instance.
// Reference kinds key by address; non-comparable values cannot be tracked.
func instanceKey(instance any) (any, bool) {
	if instance == nil {
		return nil, false
	}
	v := reflect.ValueOf(instance)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return refKey{ptr: v.Pointer(), typ: v.Type()}, true
	}
	if !v.Type().Comparable() {
		return nil, false
	}
	return instance, true
}

func instanceName(instance any) string {
	t := reflect.TypeOf(instance)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}
