package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mj1618/component-inspector/internal/metrics"
)

const (
	defaultPingInterval   = 25 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultWriteWait      = 10 * time.Second
	defaultSendBuffer     = 256
	defaultMaxMessageSize = 32 << 20
)

// Options configures a websocket transport.
type Options struct {
	// Binary sends frames as binary messages (CBOR); otherwise text (JSON).
	Binary         bool
	Header         http.Header
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	MaxMessageSize int64
	// CheckOrigin overrides the upgrader's origin check. Nil accepts all
	// origins.
	CheckOrigin func(r *http.Request) bool
	Logger      *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	if o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultSendBuffer
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	return o
}

// Conn is a Transport over one websocket connection. A read pump and a
// write pump own the socket; Send and Receive only touch channels.
type Conn struct {
	ws          *websocket.Conn
	opts        Options
	messageType int
	log         zerolog.Logger

	send chan []byte
	recv chan []byte
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Dial connects to a websocket endpoint.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	opts = opts.withDefaults()
	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
		Proxy:            http.ProxyFromEnvironment,
	}
	ws, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newConn(ws, opts), nil
}

// Handler upgrades each request and hands the connection to serve. The
// connection is closed when serve returns.
func Handler(opts Options, serve func(Transport)) http.Handler {
	opts = opts.withDefaults()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     opts.CheckOrigin,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			return
		}
		c := newConn(ws, opts)
		defer c.Close()
		c.log.Info().Str("remote", r.RemoteAddr).Msg("websocket connected")
		serve(c)
	})
}

func newConn(ws *websocket.Conn, opts Options) *Conn {
	c := &Conn{
		ws:          ws,
		opts:        opts,
		messageType: websocket.TextMessage,
		log:         zerolog.Nop(),
		send:        make(chan []byte, opts.SendBuffer),
		recv:        make(chan []byte, opts.SendBuffer),
		done:        make(chan struct{}),
	}
	if opts.Binary {
		c.messageType = websocket.BinaryMessage
	}
	if opts.Logger != nil {
		c.log = opts.Logger.With().Str("component", "transport").Logger()
	}
	metrics.TransportConnections.Inc()
	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
	return c
}

func (c *Conn) Send(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case f := <-c.recv:
		return f, nil
	case <-c.done:
		select {
		case f := <-c.recv:
			return f, nil
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close flushes queued frames, sends a close frame, and waits for both
// pumps to exit.
func (c *Conn) Close() error {
	c.shutdown()
	c.wg.Wait()
	return nil
}

// Done is closed when the connection is torn down.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) shutdown() {
	c.once.Do(func() {
		close(c.done)
		metrics.TransportConnections.Dec()
	})
}

func (c *Conn) readPump() {
	defer func() {
		c.shutdown()
		c.wg.Done()
	}()

	c.ws.SetReadLimit(c.opts.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			} else {
				c.log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
		select {
		case c.recv <- data:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
		c.wg.Done()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.write(c.messageType, frame); err != nil {
				c.log.Warn().Err(err).Msg("websocket write failed")
				c.shutdown()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.log.Debug().Err(err).Msg("websocket ping failed")
				c.shutdown()
				return
			}
		case <-c.done:
			if c.flush() {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
			}
			return
		}
	}
}

// flush writes frames still queued at close. It reports whether the
// socket is still writable.
func (c *Conn) flush() bool {
	for {
		select {
		case frame := <-c.send:
			if err := c.write(c.messageType, frame); err != nil {
				return false
			}
		default:
			return true
		}
	}
}

func (c *Conn) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return c.ws.WriteMessage(messageType, data)
}
