package host

import (
	"fmt"
	"strconv"
	"strings"
)

// Bounds represents a screen rectangle.
type Bounds struct {
	X, Y, Width, Height int
}

// Empty reports whether the rectangle has no area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// ParseBounds parses a "x,y,w,h" string into a Bounds.
func ParseBounds(s string) (*Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid bounds %q: expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid bounds %q: %w", s, err)
		}
		vals[i] = v
	}
	return &Bounds{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// DOMElement is a minimal NativeElement with an optional box.
type DOMElement struct {
	Name string
	Box  Bounds
}

func (e *DOMElement) NodeName() string { return strings.ToUpper(e.Name) }
func (e *DOMElement) Bounds() Bounds   { return e.Box }
