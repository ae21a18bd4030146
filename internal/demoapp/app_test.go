package demoapp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/component-inspector/internal/agent"
	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/panel"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/transport"
)

const wait = 2 * time.Second

type recorder struct {
	mu      sync.Mutex
	sources []string
	hooks   map[protocol.LifecycleHook]int
	checks  int
	outputs []string
	ended   int
}

func (r *recorder) BeginFrame(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *recorder) ChangeDetection(any, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks++
}

func (r *recorder) LifecycleHook(_ any, hook protocol.LifecycleHook, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks == nil {
		r.hooks = map[protocol.LifecycleHook]int{}
	}
	r.hooks[hook]++
}

func (r *recorder) OutputFired(_ any, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = append(r.outputs, name)
}

func (r *recorder) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended++
}

func TestProviderRegistered(t *testing.T) {
	prov, err := host.NewProvider()
	require.NoError(t, err)
	assert.Equal(t, Version, prov.Info.Version)
	assert.NotNil(t, prov.Instrumentable)
	assert.NotNil(t, prov.Inspector)
	assert.Len(t, prov.Tree.Roots(), 1)
}

func TestHitTest(t *testing.T) {
	a := New()
	tests := []struct {
		name string
		x, y int
		want string
	}{
		{"first todo", 30, 90, "app-todo"},
		{"header", 20, 30, "h1"},
		{"list padding", 20, 540, "app-todo-list"},
		{"root", 700, 580, "app-root"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			el := HitTest(a.forest, tc.x, tc.y)
			require.NotNil(t, el)
			assert.Equal(t, tc.want, el.Tag())
		})
	}
	assert.Nil(t, HitTest(a.forest, 900, 900))
}

func TestRenderReportsEveryDirective(t *testing.T) {
	a := New()
	rec := &recorder{}
	a.Instrument(rec)

	a.Render("tick")
	// App, tooltip, list, NgIf and three todos.
	assert.Equal(t, 7, rec.checks)
	assert.Equal(t, 7, rec.hooks[protocol.HookOnInit])
	assert.Equal(t, 7, rec.hooks[protocol.HookDoCheck])

	a.Render("todo-added")
	assert.Equal(t, 14, rec.checks)
	assert.Equal(t, 7, rec.hooks[protocol.HookOnInit], "init runs once")
	assert.Equal(t, []string{"tick", "todo-added"}, rec.sources)
	assert.Equal(t, []string{"todosChange"}, rec.outputs)
	assert.Equal(t, 2, rec.ended)
	assert.Equal(t, 2, a.comp.Renders)
}

func TestTodoMutations(t *testing.T) {
	a := New()
	changes := 0
	a.OnChange(func() { changes++ })

	a.AddTodo("Review")
	require.Len(t, a.list.Nodes(), 4)
	assert.Equal(t, "Review", a.listC.Todos[3].Label)

	assert.True(t, a.RemoveTodo(0))
	assert.False(t, a.RemoveTodo(9))
	nodes := a.list.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, 80, nodes[0].Native().(*host.DOMElement).Box.Y)
	assert.Equal(t, "Profile a render", a.listC.Todos[0].Label)
	assert.Equal(t, 2, changes)

	assert.True(t, a.Toggle(1))
	assert.True(t, a.listC.Todos[1].Done)
	assert.False(t, a.Toggle(-1))
}

type session struct {
	app   *App
	agent *agent.Agent
	panel *panel.Panel
	ctx   context.Context
}

func start(t *testing.T) *session {
	t.Helper()
	a := New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.loop.Run(ctx)

	at, pt := transport.Pipe()
	ag, err := agent.New(agent.Config{Provider: a.Provider(), Transport: at})
	require.NoError(t, err)
	a.OnChange(ag.NotifyTreeChanged)
	pn := panel.New(panel.Config{Transport: pt})
	go func() { _ = pn.Run(ctx) }()
	go func() { _ = ag.Run(ctx) }()

	wctx, wcancel := context.WithTimeout(ctx, wait)
	defer wcancel()
	require.NoError(t, pn.WaitHandshake(wctx))
	return &session{app: a, agent: ag, panel: pn, ctx: ctx}
}

func (s *session) timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(s.ctx, wait)
	t.Cleanup(cancel)
	return ctx
}

func TestInspectOverSession(t *testing.T) {
	s := start(t)
	ctx := s.timeout(t)

	avail, err := s.panel.Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, Version, avail.Version)

	view, err := s.panel.ComponentView(ctx, nil)
	require.NoError(t, err)
	require.Len(t, view.Forest, 1)
	root := view.Forest[0]
	require.NotNil(t, root.Component)
	assert.Equal(t, "AppComponent", root.Component.Name)
	require.Len(t, root.Children, 2)
	assert.Len(t, root.Children[1].Children, 3)

	props, err := s.panel.NestedProperties(ctx, protocol.DirectivePosition{Element: protocol.ElementPosition{0}}, []string{"user", "address"})
	require.NoError(t, err)
	street := props.Props["street"]
	assert.Equal(t, "12 St James's Square", street.Value)

	require.NoError(t, s.app.Do(ctx, func() { s.app.AddTodo("Review") }))
	select {
	case <-s.panel.Dirty():
	case <-ctx.Done():
		t.Fatal("no componentTreeDirty after adding a todo")
	}
	view, err = s.panel.ComponentView(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, view.Forest[0].Children[1].Children, 4)
}

func TestProfileOverSession(t *testing.T) {
	s := start(t)
	ctx := s.timeout(t)

	require.NoError(t, s.panel.StartProfiling(ctx))
	require.NoError(t, s.app.Do(ctx, func() { s.app.Render("tick") }))
	require.NoError(t, s.app.Do(ctx, func() { s.app.Render("todo-added") }))
	frames, err := s.panel.StopProfiling(ctx)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "tick", frames[0].Source)
	assert.Equal(t, "todo-added", frames[1].Source)

	sum := s.panel.Summary()
	assert.Equal(t, 2, sum.Frames)
}

func TestPickerSelectsOverSession(t *testing.T) {
	s := start(t)
	ctx := s.timeout(t)

	selected := make(chan int, 1)
	s.panel.OnSelect(func(id int) { selected <- id })

	_, err := s.panel.ComponentView(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.panel.Inspector(ctx, true))
	require.Eventually(t, s.app.picker.Active, wait, 10*time.Millisecond)

	el, err := s.app.picker.Click(ctx, 30, 90)
	require.NoError(t, err)
	require.NotNil(t, el)
	assert.Equal(t, "app-todo", el.Tag())

	select {
	case id := <-selected:
		entry, _, ok := s.agent.Snapshotter().Current().FindByID(id)
		require.True(t, ok)
		assert.Equal(t, "app-todo", entry.Tag)
	case <-ctx.Done():
		t.Fatal("panel never received selectComponent")
	}
}
