package profiler

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// DefaultQueueSize bounds the frames waiting for transport.
const DefaultQueueSize = 256

// Sink receives completed frames on the emitter goroutine.
type Sink func(protocol.ProfilerFrame)

// Emitter hands completed frames to a sink without blocking the render
// pass that produced them. When the queue is full the oldest frame is
// dropped.
type Emitter struct {
	sink Sink
	max  int
	log  zerolog.Logger

	mu      sync.Mutex
	q       *queue.Queue
	busy    bool
	closed  bool
	dropped int
	idle    *sync.Cond
	wake    chan struct{}
	done    chan struct{}
}

// NewEmitter starts an emitter delivering to sink.
func NewEmitter(sink Sink, size int, log zerolog.Logger) *Emitter {
	if size <= 0 {
		size = DefaultQueueSize
	}
	e := &Emitter{
		sink: sink,
		max:  size,
		log:  log,
		q:    queue.New(),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	e.idle = sync.NewCond(&e.mu)
	go e.loop()
	return e
}

// Push queues f. It never blocks and reports whether an older frame had
// to be dropped to make room.
func (e *Emitter) Push(f protocol.ProfilerFrame) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	dropped := false
	if e.q.Length() >= e.max {
		e.q.Remove()
		e.dropped++
		dropped = true
	}
	e.q.Add(f)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	if dropped {
		e.log.Warn().Int("queue_size", e.max).Msg("profiler queue full, dropped oldest frame")
	}
	return dropped
}

// Drain removes every queued frame and returns them in order. Frames
// already handed to the sink are not included.
func (e *Emitter) Drain() []protocol.ProfilerFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]protocol.ProfilerFrame, 0, e.q.Length())
	for e.q.Length() > 0 {
		out = append(out, e.q.Remove().(protocol.ProfilerFrame))
	}
	return out
}

// Wait blocks until the queue is empty and no frame is being delivered.
func (e *Emitter) Wait() {
	e.mu.Lock()
	for (e.q.Length() > 0 || e.busy) && !e.closed {
		e.idle.Wait()
	}
	e.mu.Unlock()
}

// Dropped returns how many frames were discarded because the queue was
// full.
func (e *Emitter) Dropped() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// Close discards queued frames, waits for a delivery in progress, and
// stops the delivery goroutine.
func (e *Emitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for e.q.Length() > 0 {
		e.q.Remove()
	}
	e.idle.Broadcast()
	for e.busy {
		e.idle.Wait()
	}
	e.mu.Unlock()
	close(e.done)
}

func (e *Emitter) loop() {
	for {
		select {
		case <-e.done:
			return
		case <-e.wake:
		}
		for {
			e.mu.Lock()
			if e.closed || e.q.Length() == 0 {
				e.busy = false
				e.idle.Broadcast()
				e.mu.Unlock()
				break
			}
			f := e.q.Remove().(protocol.ProfilerFrame)
			e.busy = true
			e.mu.Unlock()

			e.deliver(f)
		}
	}
}

func (e *Emitter) deliver(f protocol.ProfilerFrame) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("profiler sink panicked")
		}
	}()
	e.sink(f)
}
