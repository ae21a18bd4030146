package transport

import (
	"context"
	"sync"
)

const pipeBuffer = 64

type pipeState struct {
	once sync.Once
	done chan struct{}
}

func (s *pipeState) close() {
	s.once.Do(func() { close(s.done) })
}

// PipeEnd is one side of an in-memory connection.
type PipeEnd struct {
	in    <-chan []byte
	out   chan<- []byte
	state *pipeState
}

// Pipe returns two connected in-memory transports. Closing either end
// closes both; frames already queued remain readable.
func Pipe() (*PipeEnd, *PipeEnd) {
	ab := make(chan []byte, pipeBuffer)
	ba := make(chan []byte, pipeBuffer)
	st := &pipeState{done: make(chan struct{})}
	return &PipeEnd{in: ba, out: ab, state: st}, &PipeEnd{in: ab, out: ba, state: st}
}

func (p *PipeEnd) Send(ctx context.Context, frame []byte) error {
	buf := append([]byte(nil), frame...)
	select {
	case <-p.state.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- buf:
		return nil
	case <-p.state.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *PipeEnd) Receive(ctx context.Context) ([]byte, error) {
	select {
	case f := <-p.in:
		return f, nil
	default:
	}
	select {
	case f := <-p.in:
		return f, nil
	case <-p.state.done:
		select {
		case f := <-p.in:
			return f, nil
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *PipeEnd) Close() error {
	p.state.close()
	return nil
}

// Done is closed when the pipe is torn down.
func (p *PipeEnd) Done() <-chan struct{} { return p.state.done }
