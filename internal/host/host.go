// Package host declares the collaborators an inspection agent consumes from
// the live application: the component tree, native element handles, the
// router configuration, the injector hierarchy, and the execution context
// the application renders on. The agent never reaches into framework
// internals except through these interfaces.
package host

import (
	"context"
	"time"

	"github.com/mj1618/component-inspector/internal/protocol"
)

// Tree is the live component tree.
type Tree interface {
	// Roots returns the top-level elements in render order.
	Roots() []Element
}

// Element is one live element of the component tree.
type Element interface {
	Tag() string
	// Component returns the component hosted by the element, or nil.
	Component() *Directive
	// Directives returns the non-component directives in declaration order.
	Directives() []*Directive
	Children() []Element
	// Native returns the opaque rendering handle, or nil.
	Native() NativeElement
	// Injector returns the element injector, or nil.
	Injector() Injector
}

// Directive is one behavioral unit attached to an element.
type Directive struct {
	Name string
	// IsElement marks components exposed as custom elements.
	IsElement bool
	// Instance is the live directive object. Pointer instances keep
	// their id across snapshots.
	Instance     any
	Metadata     *protocol.DirectiveMetadata
	Dependencies []Dependency
}

// Dependency is one constructor dependency of a directive.
type Dependency struct {
	Token string
	Flags protocol.InjectFlags
}

// NativeElement is the rendering handle behind an element. It is passed
// through opaquely and only its node name is ever read.
type NativeElement interface {
	NodeName() string
}

// Bounded is implemented by native elements that know their on-screen box.
type Bounded interface {
	Bounds() Bounds
}

// Scheduler runs work on the application's execution context. Do must not
// return before fn has run or ctx is done.
type Scheduler interface {
	Do(ctx context.Context, fn func()) error
}

// RouterSource exposes the router configuration.
type RouterSource interface {
	RouteConfig() []RouteConfig
}

// RouteConfig is one entry of the router configuration.
type RouteConfig struct {
	Path         string
	Component    string
	RedirectTo   string
	LoadChildren bool
	Outlet       string
	Data         any
	Children     []RouteConfig
}

// Injector is one node of the dependency-resolution hierarchy.
type Injector interface {
	ID() string
	Name() string
	// Kind is "element", "environment", or "null".
	Kind() string
	Parent() Injector
	Providers() []ProviderRecord
	// Owner returns the element an element injector belongs to, or nil.
	Owner() Element
}

// ProviderRecord is one provider configured on an injector.
type ProviderRecord struct {
	Token          string
	UseValue       any
	HasValue       bool
	UseExisting    string
	UseFactory     any
	UseClass       string
	Multi          bool
	IsViewProvider bool
}

// Highlighter draws and removes the overlay box over an element.
type Highlighter interface {
	Highlight(el Element, label string) error
	Hide()
}

// Inspector is the element picker. While started, hover and click on the
// application's surface are reported through the callbacks.
type Inspector interface {
	Start(onHover, onSelect func(Element))
	Stop()
}

// Instrumentation receives render-pass timing from the application.
type Instrumentation interface {
	BeginFrame(source string)
	ChangeDetection(instance any, d time.Duration)
	LifecycleHook(instance any, hook protocol.LifecycleHook, d time.Duration)
	OutputFired(instance any, name string)
	EndFrame()
}

// Instrumentable is implemented by applications that report render timing.
type Instrumentable interface {
	Instrument(Instrumentation)
}

// Runner is implemented by applications that own their event loop. Run
// renders every tick until ctx is done.
type Runner interface {
	Run(ctx context.Context, tick time.Duration) error
}

// ChangeNotifier reports structural changes of the tree.
type ChangeNotifier interface {
	OnChange(fn func())
}

// Info describes the framework running the application.
type Info struct {
	Version string
	DevMode bool
	Ivy     bool
}
