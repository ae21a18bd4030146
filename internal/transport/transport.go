// Package transport moves encoded protocol frames between the agent and
// the panel. A transport makes no delivery or ordering promises beyond
// those of the underlying channel.
package transport

import (
	"context"
	"fmt"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// ErrClosed is returned once a transport has been torn down from either
// end. It matches protocol.ErrTransportLoss.
var ErrClosed = fmt.Errorf("transport closed: %w", protocol.ErrTransportLoss)

// Transport carries opaque frames in both directions.
type Transport interface {
	Send(ctx context.Context, frame []byte) error
	// Receive blocks until a frame arrives, ctx is done, or the
	// transport closes.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}
