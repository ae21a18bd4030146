package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mj1618/component-inspector/internal/panel"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/transport"
)

// session is a panel connected to an agent.
type session struct {
	*panel.Panel
	conn   *transport.Conn
	cancel context.CancelFunc
}

// connect dials the agent, waits for its handshake, and returns a ready
// panel. Close ends the session.
func connect(ctx context.Context) (*session, error) {
	codec, err := protocol.CodecByName(settings.Codec)
	if err != nil {
		return nil, err
	}
	dialCtx, cancel := context.WithTimeout(ctx, settings.RequestTimeout)
	defer cancel()
	conn, err := transport.Dial(dialCtx, settings.URL, transport.Options{Binary: codec.Binary(), Logger: &logger})
	if err != nil {
		return nil, err
	}

	p := panel.New(panel.Config{Transport: conn, Codec: codec, Logger: &logger})
	runCtx, stop := context.WithCancel(ctx)
	go func() { _ = p.Run(runCtx) }()

	if err := p.WaitHandshake(dialCtx); err != nil {
		stop()
		_ = conn.Close()
		return nil, fmt.Errorf("waiting for agent handshake at %s: %w", settings.URL, err)
	}
	return &session{Panel: p, conn: conn, cancel: stop}, nil
}

// Close sends shutdown to the agent and drops the connection.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), settings.RequestTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Debug().Err(err).Msg("shutdown not sent")
	}
	s.cancel()
	_ = s.conn.Close()
}

// requestContext bounds one round trip to the agent.
func requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, settings.RequestTimeout)
}

// parsePosition parses a non-empty dotted element position.
func parsePosition(s string) (protocol.ElementPosition, error) {
	pos, err := protocol.ParseElementPosition(s)
	if err != nil {
		return nil, err
	}
	if len(pos) == 0 {
		return nil, fmt.Errorf("position must not be empty")
	}
	return pos, nil
}

// directivePosition addresses the component (index < 0) or the directive
// at index on the element at pos.
func directivePosition(pos protocol.ElementPosition, index int) protocol.DirectivePosition {
	if index < 0 {
		return protocol.DirectivePosition{Element: pos}
	}
	return protocol.DirectiveIndex(pos, index)
}

// splitPath splits a dotted property path. Empty segments are dropped.
func splitPath(s string) []string {
	path := []string{}
	for _, part := range strings.Split(s, ".") {
		if part = strings.TrimSpace(part); part != "" {
			path = append(path, part)
		}
	}
	return path
}
