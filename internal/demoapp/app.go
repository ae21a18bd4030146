// Package demoapp is a small todo application that renders a live
// component tree for the agent to inspect. Importing it registers the
// application with host.NewProviderFunc.
package demoapp

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/overlay"
	"github.com/mj1618/component-inspector/internal/protocol"
)

const (
	// Version is reported as the framework version.
	Version = "17.3.0"
	width   = 800
	height  = 600
	rowH    = 32
)

func init() {
	host.NewProviderFunc = func() (*host.Provider, error) {
		return New().Provider(), nil
	}
}

// App is the demo application. All tree reads and writes happen on its
// event loop.
type App struct {
	loop    *host.Loop
	forest  host.Forest
	root    *host.Node
	list    *host.Node
	comp    *AppComponent
	listC   *TodoListComponent
	painter *overlay.Painter
	picker  *Picker
	env     *host.StaticInjector

	mu       sync.Mutex
	inst     host.Instrumentation
	onChange func()
}

// New builds the application with three todos.
func New() *App {
	a := &App{
		loop:    host.NewLoop(256),
		painter: overlay.NewPainter(width, height),
	}
	a.picker = &Picker{app: a}
	a.env = &host.StaticInjector{
		InjectorID:   "env-root",
		InjectorName: "AppModule",
		Records: []host.ProviderRecord{
			{Token: "TodoService", UseClass: "TodoService"},
			{Token: "Logger", UseExisting: "ConsoleLogger"},
			{Token: "ConsoleLogger"},
			{Token: "API_URL", UseValue: "/api", HasValue: true},
			{Token: "HTTP_INTERCEPTORS", UseFactory: func() any { return nil }, Multi: true},
		},
	}

	a.comp = &AppComponent{
		Title:    "Todos",
		User:     newUser(),
		Balance:  big.NewInt(1 << 40),
		Settings: map[string]any{"theme": "dark", "pageSize": 20},
	}
	a.comp.OnSelect = a.Toggle
	a.listC = &TodoListComponent{Filter: "all"}

	rootInj := &host.StaticInjector{InjectorID: "el-app-root", InjectorName: "app-root", InjectorKind: "element", ParentInj: a.env}
	a.root = host.NewNode("app-root").
		WithNative(&host.DOMElement{Name: "app-root", Box: host.Bounds{Width: width, Height: height}}).
		WithComponent(&host.Directive{
			Name:     "AppComponent",
			Instance: a.comp,
			Metadata: &protocol.DirectiveMetadata{
				Inputs:  map[string]string{},
				Outputs: map[string]string{"selected": "selected"},
			},
			Dependencies: []host.Dependency{{Token: "TodoService"}, {Token: "Logger", Flags: protocol.InjectFlags{Optional: true}}},
		}).
		WithInjector(rootInj)
	rootInj.OwnerElement = a.root

	header := host.NewNode("h1").
		WithNative(&host.DOMElement{Name: "h1", Box: host.Bounds{X: 16, Y: 16, Width: 400, Height: 40}}).
		WithDirective(&host.Directive{Name: "TooltipDirective", Instance: &TooltipDirective{Text: "Your todos", Position: "below"}})

	listInj := &host.StaticInjector{
		InjectorID: "el-todo-list", InjectorName: "app-todo-list", InjectorKind: "element", ParentInj: rootInj,
		Records: []host.ProviderRecord{{Token: "TodoService", UseClass: "FilteredTodoService", IsViewProvider: true}},
	}
	a.list = host.NewNode("app-todo-list").
		WithNative(&host.DOMElement{Name: "app-todo-list", Box: host.Bounds{X: 16, Y: 72, Width: 600, Height: 480}}).
		WithComponent(&host.Directive{
			Name:     "TodoListComponent",
			Instance: a.listC,
			Metadata: &protocol.DirectiveMetadata{
				Inputs:  map[string]string{"filter": "filter"},
				Outputs: map[string]string{},
				OnPush:  true,
			},
			Dependencies: []host.Dependency{{Token: "TodoService", Flags: protocol.InjectFlags{SkipSelf: true}}},
		}).
		WithDirective(&host.Directive{Name: "NgIf", Instance: &NgIf{Condition: true}}).
		WithInjector(listInj)
	listInj.OwnerElement = a.list

	a.root.Append(header, a.list)
	a.forest = host.Forest{a.root}
	for _, label := range []string{"Write the agent", "Profile a render", "Ship it"} {
		a.addTodo(label)
	}
	return a
}

// Provider bundles the application's collaborators.
func (a *App) Provider() *host.Provider {
	return &host.Provider{
		Tree:           a.forest,
		Scheduler:      a.loop,
		Router:         router{},
		Highlighter:    a.painter,
		Inspector:      a.picker,
		Instrumentable: a,
		Runner:         a,
		Changes:        a,
		Info:           host.Info{Version: Version, DevMode: true, Ivy: true},
	}
}

// Painter returns the overlay surface.
func (a *App) Painter() *overlay.Painter { return a.painter }

// Picker returns the element picker.
func (a *App) Picker() *Picker { return a.picker }

// Instrument implements host.Instrumentable.
func (a *App) Instrument(inst host.Instrumentation) {
	a.mu.Lock()
	a.inst = inst
	a.mu.Unlock()
}

// OnChange registers fn to run after every structural change.
func (a *App) OnChange(fn func()) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// Run drives the event loop and renders every interval until ctx is
// done. Every tenth tick adds or completes a todo so the tree changes.
func (a *App) Run(ctx context.Context, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.loop.Run(ctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for tick := 1; ; tick++ {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			source := "timer"
			if tick%10 == 0 {
				source = "todo-added"
				if err := a.loop.Do(ctx, func() { a.churn(tick) }); err != nil {
					return nil
				}
			}
			a.loop.Post(func() { a.Render(source) })
		}
	})
	return g.Wait()
}

// Do runs fn on the application's event loop.
func (a *App) Do(ctx context.Context, fn func()) error { return a.loop.Do(ctx, fn) }

// AddTodo appends a todo. It must run on the event loop.
func (a *App) AddTodo(label string) {
	a.addTodo(label)
	a.changed()
}

// RemoveTodo removes the todo at index. It must run on the event loop.
func (a *App) RemoveTodo(index int) bool {
	nodes := a.list.Nodes()
	if index < 0 || index >= len(nodes) {
		return false
	}
	a.list.Remove(nodes[index])
	a.listC.Todos = append(a.listC.Todos[:index:index], a.listC.Todos[index+1:]...)
	a.relayout()
	a.changed()
	return true
}

// Render performs one change detection pass over every component and
// reports its timing. It must run on the event loop.
func (a *App) Render(source string) {
	a.mu.Lock()
	inst := a.inst
	a.mu.Unlock()
	if inst == nil {
		a.comp.Renders++
		return
	}

	inst.BeginFrame(source)
	host.Walk(a.forest, func(el host.Element) bool {
		if c := el.Component(); c != nil {
			check(inst, c.Instance, a.comp.Renders == 0)
		}
		for _, d := range el.Directives() {
			check(inst, d.Instance, a.comp.Renders == 0)
		}
		return true
	})
	a.comp.Renders++
	if source == "todo-added" {
		inst.OutputFired(a.listC, "todosChange")
	}
	inst.EndFrame()
}

func check(inst host.Instrumentation, instance any, first bool) {
	start := time.Now()
	if first {
		inst.LifecycleHook(instance, protocol.HookOnInit, time.Since(start))
	}
	hookStart := time.Now()
	inst.LifecycleHook(instance, protocol.HookDoCheck, time.Since(hookStart))
	// Template evaluation stand-in.
	fmt.Fprintf(io.Discard, "%+v", instance)
	inst.ChangeDetection(instance, time.Since(start))
}

func (a *App) churn(tick int) {
	if len(a.listC.Todos) < 6 {
		a.AddTodo(fmt.Sprintf("Generated todo #%d", tick/10))
		return
	}
	a.RemoveTodo(0)
}

func (a *App) addTodo(label string) {
	todo := &Todo{Label: label}
	a.listC.Todos = append(a.listC.Todos, todo)
	item := host.NewNode("app-todo").
		WithComponent(&host.Directive{
			Name:     "TodoComponent",
			Instance: &TodoComponent{Todo: todo},
			Metadata: &protocol.DirectiveMetadata{
				Inputs:  map[string]string{"todo": "todo"},
				Outputs: map[string]string{"toggle": "toggle", "delete": "delete"},
			},
		})
	a.list.Append(item)
	a.relayout()
}

func (a *App) relayout() {
	for i, n := range a.list.Nodes() {
		if el, ok := n.Native().(*host.DOMElement); ok {
			el.Box = host.Bounds{X: 24, Y: 80 + i*rowH, Width: 580, Height: rowH - 4}
		}
	}
}

// Toggle flips the done flag of the todo at index. It must run on the
// event loop.
func (a *App) Toggle(index int) bool {
	if index < 0 || index >= len(a.listC.Todos) {
		return false
	}
	a.listC.Todos[index].Done = !a.listC.Todos[index].Done
	return true
}

func (a *App) changed() {
	a.mu.Lock()
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type router struct{}

func (router) RouteConfig() []host.RouteConfig {
	return []host.RouteConfig{
		{Path: "", RedirectTo: "todos"},
		{Path: "todos", Component: "TodoListComponent", Data: map[string]any{"title": "All todos"}, Children: []host.RouteConfig{
			{Path: ":id", Component: "TodoComponent"},
			{Path: "edit", Component: "TodoEditorComponent", Outlet: "sidebar"},
		}},
		{Path: "settings", LoadChildren: true},
		{Path: "**", Component: "NotFoundComponent"},
	}
}
