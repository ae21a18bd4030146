package profiler

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/component-inspector/internal/protocol"
)

func TestEmitterDropsOldestWhenFull(t *testing.T) {
	block := make(chan struct{})
	var mu sync.Mutex
	var got []string
	started := make(chan struct{}, 1)
	e := NewEmitter(func(f protocol.ProfilerFrame) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		mu.Lock()
		got = append(got, f.Source)
		mu.Unlock()
	}, 2, zerolog.Nop())
	defer e.Close()

	e.Push(protocol.ProfilerFrame{Source: "a"})
	<-started // "a" is being delivered and blocks the sink
	assert.False(t, e.Push(protocol.ProfilerFrame{Source: "b"}))
	assert.False(t, e.Push(protocol.ProfilerFrame{Source: "c"}))
	assert.True(t, e.Push(protocol.ProfilerFrame{Source: "d"}), "b is dropped")
	assert.Equal(t, 1, e.Dropped())

	close(block)
	e.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "c", "d"}, got)
}

func TestEmitterDrainReturnsQueued(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	e := NewEmitter(func(protocol.ProfilerFrame) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
	}, 8, zerolog.Nop())

	e.Push(protocol.ProfilerFrame{Source: "a"})
	<-started
	e.Push(protocol.ProfilerFrame{Source: "b"})
	e.Push(protocol.ProfilerFrame{Source: "c"})

	pending := e.Drain()
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].Source)
	assert.Equal(t, "c", pending[1].Source)

	close(block)
	e.Close()
	assert.False(t, e.Push(protocol.ProfilerFrame{Source: "late"}))
}

func TestEmitterRecoversSinkPanic(t *testing.T) {
	var mu sync.Mutex
	var got []string
	e := NewEmitter(func(f protocol.ProfilerFrame) {
		if f.Source == "bad" {
			panic("boom")
		}
		mu.Lock()
		got = append(got, f.Source)
		mu.Unlock()
	}, 4, zerolog.Nop())
	defer e.Close()

	e.Push(protocol.ProfilerFrame{Source: "bad"})
	e.Push(protocol.ProfilerFrame{Source: "good"})
	e.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"good"}, got)
}
