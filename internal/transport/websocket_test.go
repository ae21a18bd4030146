package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketEcho(t *testing.T) {
	for _, binary := range []bool{false, true} {
		opts := Options{Binary: binary}
		srv := httptest.NewServer(Handler(opts, func(tr Transport) {
			ctx := context.Background()
			for {
				f, err := tr.Receive(ctx)
				if err != nil {
					return
				}
				if err := tr.Send(ctx, append([]byte("echo:"), f...)); err != nil {
					return
				}
			}
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c, err := Dial(ctx, wsURL(srv), opts)
		require.NoError(t, err)

		require.NoError(t, c.Send(ctx, []byte("hello")))
		got, err := c.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, "echo:hello", string(got))

		require.NoError(t, c.Close())
		_, err = c.Receive(ctx)
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, c.Send(ctx, []byte("x")), ErrClosed)

		cancel()
		srv.Close()
	}
}

func TestWebsocketServerCloseReachesClient(t *testing.T) {
	srv := httptest.NewServer(Handler(Options{}, func(tr Transport) {
		_ = tr.Send(context.Background(), []byte("bye"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, wsURL(srv), Options{})
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Receive(ctx)
	require.NoError(t, err, "frames queued before close are flushed")
	assert.Equal(t, "bye", string(got))

	_, err = c.Receive(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/none", Options{})
	assert.Error(t, err)
}

func TestOptionDefaults(t *testing.T) {
	o := Options{PingInterval: time.Minute, PongWait: 10 * time.Second}.withDefaults()
	assert.Less(t, o.PingInterval, o.PongWait)
	assert.Equal(t, defaultSendBuffer, o.SendBuffer)
	assert.Equal(t, int64(defaultMaxMessageSize), o.MaxMessageSize)
}
