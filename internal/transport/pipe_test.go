package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/component-inspector/internal/protocol"
)

func TestPipeDeliversInOrder(t *testing.T) {
	a, b := Pipe()
	ctx := context.Background()

	require.NoError(t, a.Send(ctx, []byte("one")))
	require.NoError(t, a.Send(ctx, []byte("two")))
	require.NoError(t, b.Send(ctx, []byte("back")))

	got, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))
	got, err = b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
	got, err = a.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "back", string(got))
}

func TestPipeCopiesFrames(t *testing.T) {
	a, b := Pipe()
	buf := []byte("abc")
	require.NoError(t, a.Send(context.Background(), buf))
	buf[0] = 'x'
	got, err := b.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestPipeCloseTearsDownBothEnds(t *testing.T) {
	a, b := Pipe()
	ctx := context.Background()
	require.NoError(t, a.Send(ctx, []byte("last")))
	require.NoError(t, a.Close())

	got, err := b.Receive(ctx)
	require.NoError(t, err, "queued frames survive close")
	assert.Equal(t, "last", string(got))

	_, err = b.Receive(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, errors.Is(err, protocol.ErrTransportLoss))
	assert.ErrorIs(t, b.Send(ctx, []byte("x")), ErrClosed)

	select {
	case <-b.Done():
	default:
		t.Fatal("expected done to be closed")
	}
}

func TestPipeReceiveHonorsContext(t *testing.T) {
	_, b := Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := b.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
