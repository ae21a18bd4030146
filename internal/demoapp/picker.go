package demoapp

import (
	"context"
	"sync"

	"github.com/mj1618/component-inspector/internal/host"
)

// Picker is the element picker for the demo surface. Pointer events are
// fed in through Hover and Click and hit-tested against element bounds.
type Picker struct {
	app *App

	mu       sync.Mutex
	onHover  func(host.Element)
	onSelect func(host.Element)
}

// Start implements host.Inspector.
func (p *Picker) Start(onHover, onSelect func(host.Element)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onHover, p.onSelect = onHover, onSelect
}

// Stop implements host.Inspector.
func (p *Picker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onHover, p.onSelect = nil, nil
}

// Active reports whether the picker is started.
func (p *Picker) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onHover != nil
}

// Hover reports a pointer move to (x, y). It returns the element under
// the pointer, or nil.
func (p *Picker) Hover(ctx context.Context, x, y int) (host.Element, error) {
	p.mu.Lock()
	fn := p.onHover
	p.mu.Unlock()
	return p.dispatch(ctx, x, y, fn)
}

// Click reports a click at (x, y).
func (p *Picker) Click(ctx context.Context, x, y int) (host.Element, error) {
	p.mu.Lock()
	fn := p.onSelect
	p.mu.Unlock()
	return p.dispatch(ctx, x, y, fn)
}

func (p *Picker) dispatch(ctx context.Context, x, y int, fn func(host.Element)) (host.Element, error) {
	var hit host.Element
	if err := p.app.loop.Do(ctx, func() { hit = HitTest(p.app.forest, x, y) }); err != nil {
		return nil, err
	}
	if hit != nil && fn != nil {
		fn(hit)
	}
	return hit, nil
}

// HitTest returns the deepest element whose bounds contain (x, y). Later
// siblings win over earlier ones.
func HitTest(t host.Tree, x, y int) host.Element {
	var hit host.Element
	var visit func([]host.Element)
	visit = func(els []host.Element) {
		for _, el := range els {
			if !contains(el, x, y) {
				continue
			}
			hit = el
			visit(el.Children())
		}
	}
	visit(t.Roots())
	return hit
}

func contains(el host.Element, x, y int) bool {
	b, ok := el.Native().(host.Bounded)
	if !ok {
		return false
	}
	r := b.Bounds()
	if r.Empty() {
		return false
	}
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}
