package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/component-inspector/internal/protocol"
)

func ms(v float64) *float64 { return &v }

func TestAggregate(t *testing.T) {
	frames := []protocol.ProfilerFrame{
		{Source: "click", Duration: 4, Directives: []protocol.ElementProfile{{
			Directives: []protocol.DirectiveProfile{{Name: "AppComponent", IsComponent: true, ChangeDetection: ms(1)}},
			Children: []protocol.ElementProfile{{
				Directives: []protocol.DirectiveProfile{
					{Name: "ItemComponent", IsComponent: true, ChangeDetection: ms(2), Lifecycle: protocol.LifecycleProfile{DoCheck: ms(0.5)}},
				},
			}, {
				Directives: []protocol.DirectiveProfile{
					{Name: "ItemComponent", IsComponent: true, ChangeDetection: ms(2), Outputs: protocol.OutputProfile{"select": 2}},
				},
			}},
		}}},
		{Source: "click", Duration: 1, Directives: []protocol.ElementProfile{{
			Directives: []protocol.DirectiveProfile{{Name: "AppComponent", IsComponent: true, ChangeDetection: ms(1)}},
		}}},
	}

	sum := Aggregate(frames)
	assert.Equal(t, 2, sum.Frames)
	assert.Equal(t, 5.0, sum.Duration)
	assert.Equal(t, map[string]int{"click": 2}, sum.Sources)

	require.Len(t, sum.Directives, 2)
	item := sum.Directives[0]
	assert.Equal(t, "ItemComponent", item.Name)
	assert.Equal(t, 1, item.Frames, "counted once per frame")
	assert.Equal(t, 4.5, item.Total)
	assert.Equal(t, 0.5, item.Lifecycle)
	assert.Equal(t, 2.0, item.Outputs)

	app := sum.Directives[1]
	assert.Equal(t, "AppComponent", app.Name)
	assert.Equal(t, 2, app.Frames)
	assert.Equal(t, 2.0, app.Total)
}

func TestAggregateEmpty(t *testing.T) {
	sum := Aggregate(nil)
	assert.Zero(t, sum.Frames)
	assert.NotNil(t, sum.Directives)
	assert.NotNil(t, sum.Sources)
}
