package server

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/component-inspector/internal/protocol"
)

type countingSource struct {
	gen   uint64
	calls int
}

func (c *countingSource) Generation() uint64 { return c.gen }

func (c *countingSource) ComponentView(context.Context, *protocol.ComponentExplorerViewQuery) (protocol.ComponentExplorerView, error) {
	c.calls++
	return protocol.ComponentExplorerView{Forest: []protocol.DevToolsNode{{Element: "app-root"}}}, nil
}

func TestViewCacheTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewViewCache(time.Second, clock)
	src := &countingSource{}
	ctx := context.Background()

	_, _, err := cache.Forest(ctx, src)
	require.NoError(t, err)
	_, _, err = cache.Forest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second read within ttl is cached")

	clock.Advance(2 * time.Second)
	_, _, err = cache.Forest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "expired entry is refetched")
}

func TestViewCacheGenerationInvalidates(t *testing.T) {
	cache := NewViewCache(time.Hour, clockwork.NewFakeClock())
	src := &countingSource{}
	ctx := context.Background()

	_, gen, err := cache.Forest(ctx, src)
	require.NoError(t, err)
	assert.Zero(t, gen)

	src.gen = 1
	_, gen, err = cache.Forest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, 2, src.calls)

	cache.InvalidateAll()
	_, _, err = cache.Forest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestViewCacheDisabled(t *testing.T) {
	cache := NewViewCache(0, nil)
	src := &countingSource{}
	for i := 0; i < 3; i++ {
		_, _, err := cache.Forest(context.Background(), src)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.calls)
}
