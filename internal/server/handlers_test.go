package server

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/component-inspector/internal/agent"
	"github.com/mj1618/component-inspector/internal/demoapp"
	"github.com/mj1618/component-inspector/internal/panel"
	"github.com/mj1618/component-inspector/internal/transport"
)

const wait = 2 * time.Second

type fixture struct {
	app    *demoapp.App
	server *Server
	clock  clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := demoapp.New()
	go func() { _ = app.Run(ctx, time.Hour) }()

	at, pt := transport.Pipe()
	ag, err := agent.New(agent.Config{Provider: app.Provider(), Transport: at})
	require.NoError(t, err)
	app.OnChange(ag.NotifyTreeChanged)
	p := panel.New(panel.Config{Transport: pt})
	go func() { _ = ag.Run(ctx) }()
	go func() { _ = p.Run(ctx) }()

	wctx, wcancel := context.WithTimeout(ctx, wait)
	defer wcancel()
	require.NoError(t, p.WaitHandshake(wctx))

	clock := clockwork.NewFakeClock()
	return &fixture{
		app:    app,
		server: New(p, Config{CacheTTL: time.Minute, Timeout: wait, Clock: clock}),
		clock:  clock,
	}
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text, res.IsError
}

func decode(t *testing.T, text string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(text), &out), text)
	return out
}

func TestAvailabilityTool(t *testing.T) {
	f := newFixture(t)
	text, isErr := call(t, f.server.handleAvailability, nil)
	require.False(t, isErr, text)
	assert.Equal(t, demoapp.Version, decode(t, text)["version"])
}

func TestTreeTool(t *testing.T) {
	f := newFixture(t)

	text, isErr := call(t, f.server.handleTree, nil)
	require.False(t, isErr, text)
	forest := decode(t, text)["forest"].([]any)
	require.Len(t, forest, 1)
	assert.Equal(t, "app-root", forest[0].(map[string]any)["element"])

	text, isErr = call(t, f.server.handleTree, map[string]any{"flat": true})
	require.False(t, isErr, text)
	nodes := decode(t, text)["nodes"].([]any)
	assert.Len(t, nodes, 6, "root, header, list and three todos")

	text, isErr = call(t, f.server.handleTree, map[string]any{"text": true, "filter": "TodoList"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "app-todo-list (TodoListComponent) [NgIf]")
	assert.NotContains(t, text, "h1")
}

func TestTreeToolRefetchesAfterDirty(t *testing.T) {
	f := newFixture(t)
	_, _ = call(t, f.server.handleTree, nil)

	require.NoError(t, f.app.Do(context.Background(), func() { f.app.AddTodo("Cache me") }))
	require.Eventually(t, func() bool {
		text, _ := call(t, f.server.handleTree, map[string]any{"flat": true})
		return len(decode(t, text)["nodes"].([]any)) == 7
	}, wait, 10*time.Millisecond)
}

func TestFindTool(t *testing.T) {
	f := newFixture(t)
	text, isErr := call(t, f.server.handleFind, map[string]any{"name": "tooltip"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "TooltipDirective")

	_, isErr = call(t, f.server.handleFind, map[string]any{"name": "nothing-here"})
	assert.True(t, isErr)
	_, isErr = call(t, f.server.handleFind, nil)
	assert.True(t, isErr, "name is required")
}

func TestPropsTool(t *testing.T) {
	f := newFixture(t)

	text, isErr := call(t, f.server.handleProps, map[string]any{"position": "0"})
	require.False(t, isErr, text)
	app := decode(t, text)["AppComponent"].(map[string]any)
	props := app["props"].(map[string]any)
	assert.Contains(t, props, "user")
	assert.Contains(t, app, "metadata")

	text, isErr = call(t, f.server.handleProps, map[string]any{"position": "0", "path": []any{"user", "address"}})
	require.False(t, isErr, text)
	street := decode(t, text)["props"].(map[string]any)["street"].(map[string]any)
	assert.Equal(t, "12 St James's Square", street["value"])

	_, isErr = call(t, f.server.handleProps, map[string]any{"position": "x"})
	assert.True(t, isErr)
	_, isErr = call(t, f.server.handleProps, map[string]any{"position": "9"})
	assert.True(t, isErr, "stale position")
}

func TestSetValueTool(t *testing.T) {
	f := newFixture(t)
	text, isErr := call(t, f.server.handleSetValue, map[string]any{
		"position": "0",
		"key-path": []any{"title"},
		"value":    "Groceries",
	})
	require.False(t, isErr, text)

	text, _ = call(t, f.server.handleProps, map[string]any{"position": "0", "path": []any{}})
	props := decode(t, text)["AppComponent"].(map[string]any)["props"].(map[string]any)
	assert.Equal(t, "Groceries", props["title"].(map[string]any)["value"])

	_, isErr = call(t, f.server.handleSetValue, map[string]any{"position": "0", "key-path": []any{}, "value": "1"})
	assert.True(t, isErr)
}

func TestRoutesAndProvidersTools(t *testing.T) {
	f := newFixture(t)
	text, isErr := call(t, f.server.handleRoutes, nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, "TodoListComponent")

	text, isErr = call(t, f.server.handleProviders, map[string]any{"injector": "el-todo-list"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "FilteredTodoService")
}

func TestHighlightTool(t *testing.T) {
	f := newFixture(t)
	text, isErr := call(t, f.server.handleHighlight, map[string]any{"position": "0.1"})
	require.False(t, isErr, text)
	require.Eventually(t, func() bool {
		return f.app.Painter().Label() != ""
	}, wait, 10*time.Millisecond)
	assert.Contains(t, f.app.Painter().Label(), "app-todo-list")

	_, isErr = call(t, f.server.handleUnhighlight, nil)
	require.False(t, isErr)
	require.Eventually(t, func() bool { return f.app.Painter().Label() == "" }, wait, 10*time.Millisecond)
}

func TestProfileTool(t *testing.T) {
	f := newFixture(t)
	done := make(chan string, 1)
	go func() {
		text, _ := call(t, f.server.handleProfile, map[string]any{"duration": 500, "frames": true})
		done <- text
	}()

	f.clock.BlockUntil(1)
	require.NoError(t, f.app.Do(context.Background(), func() { f.app.Render("tick") }))
	f.clock.Advance(time.Second)

	select {
	case text := <-done:
		out := decode(t, text)
		summary := out["summary"].(map[string]any)
		assert.Equal(t, 1, summary["frames"])
		assert.Len(t, out["frames"].([]any), 1)
	case <-time.After(wait):
		t.Fatal("profile tool did not return")
	}
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, float64(3), ParseValue("3"))
	assert.Equal(t, true, ParseValue("true"))
	assert.Equal(t, "hello", ParseValue("hello"))
	assert.Equal(t, map[string]any{"a": "b"}, ParseValue(`{"a":"b"}`))
}
