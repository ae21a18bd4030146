package host

import "errors"

// Provider bundles the collaborators of one inspectable application.
// Optional members may be nil.
type Provider struct {
	Tree           Tree
	Scheduler      Scheduler
	Router         RouterSource
	Highlighter    Highlighter
	Inspector      Inspector
	Instrumentable Instrumentable
	// Runner drives the application when it is hosted by the agent
	// command rather than embedding the agent itself.
	Runner  Runner
	Changes ChangeNotifier
	Info    Info
}

// ErrNoApplication is returned when no application registered itself.
var ErrNoApplication = errors.New("no inspectable application registered; import an application package for side effects")

// NewProviderFunc is set by application packages via init().
// See internal/demoapp for the bundled sample application.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns the registered application's Provider.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrNoApplication
	}
	p, err := NewProviderFunc()
	if err != nil {
		return nil, err
	}
	if p.Scheduler == nil {
		p.Scheduler = Inline{}
	}
	return p, nil
}
