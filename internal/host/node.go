package host

// Node is a concrete, mutable Element for embedding applications and tests.
// It is not safe for concurrent use; mutate it on the application's
// Scheduler.
type Node struct {
	tag        string
	component  *Directive
	directives []*Directive
	children   []*Node
	native     NativeElement
	injector   Injector
	parent     *Node
}

// NewNode returns an element named tag with a DOMElement handle.
func NewNode(tag string) *Node {
	return &Node{tag: tag, native: &DOMElement{Name: tag}}
}

// WithComponent sets the hosted component and returns n.
func (n *Node) WithComponent(d *Directive) *Node {
	n.component = d
	return n
}

// WithDirective appends a directive and returns n.
func (n *Node) WithDirective(d *Directive) *Node {
	n.directives = append(n.directives, d)
	return n
}

// WithNative replaces the rendering handle and returns n.
func (n *Node) WithNative(native NativeElement) *Node {
	n.native = native
	return n
}

// WithInjector sets the element injector and returns n.
func (n *Node) WithInjector(inj Injector) *Node {
	n.injector = inj
	return n
}

// Append adds children in render order and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// Remove detaches child from n. It reports whether child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			c.parent = nil
			return true
		}
	}
	return false
}

// Parent returns the enclosing node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Nodes returns the children as concrete nodes.
func (n *Node) Nodes() []*Node { return n.children }

func (n *Node) Tag() string              { return n.tag }
func (n *Node) Component() *Directive    { return n.component }
func (n *Node) Directives() []*Directive { return n.directives }
func (n *Node) Native() NativeElement    { return n.native }
func (n *Node) Injector() Injector       { return n.injector }

func (n *Node) Children() []Element {
	out := make([]Element, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// Forest is a Tree over concrete nodes.
type Forest []*Node

func (f Forest) Roots() []Element {
	out := make([]Element, len(f))
	for i, n := range f {
		out[i] = n
	}
	return out
}

// Walk visits every element depth-first in render order. Returning false
// from fn stops the walk.
func Walk(t Tree, fn func(el Element) bool) {
	var visit func(els []Element) bool
	visit = func(els []Element) bool {
		for _, el := range els {
			if !fn(el) || !visit(el.Children()) {
				return false
			}
		}
		return true
	}
	visit(t.Roots())
}
