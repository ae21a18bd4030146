// Package overlay paints the highlight box the agent shows over an
// inspected element.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/component-inspector/internal/host"
)

// ErrNoBounds is returned for elements whose native handle has no box.
var ErrNoBounds = errors.New("overlay: element has no on-screen bounds")

var (
	fillColor    = color.RGBA{R: 111, G: 168, B: 220, A: 110}
	borderColor  = color.RGBA{R: 36, G: 105, B: 180, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

const (
	glyphWidth  = 7
	glyphHeight = 13
)

// Painter implements host.Highlighter over an in-memory surface. Only one
// overlay is shown at a time; Hide restores the covered pixels.
type Painter struct {
	mu      sync.Mutex
	surface *image.RGBA
	saved   *image.RGBA
	area    image.Rectangle
	label   string
}

// NewPainter creates a painter over a blank surface of the given size.
func NewPainter(width, height int) *Painter {
	surface := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(surface, surface.Bounds(), image.White, image.Point{}, draw.Src)
	return &Painter{surface: surface}
}

// Highlight draws a box over el's bounds and a label above it, replacing
// any overlay already shown.
func (p *Painter) Highlight(el host.Element, label string) error {
	if el == nil {
		return fmt.Errorf("overlay: nil element")
	}
	bounded, ok := el.Native().(host.Bounded)
	if !ok {
		return ErrNoBounds
	}
	b := bounded.Bounds()
	if b.Empty() {
		return ErrNoBounds
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.restoreLocked()

	box := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
	text := fmt.Sprintf("%s %d × %d", label, b.Width, b.Height)
	textBox := image.Rect(box.Min.X-1, box.Min.Y-glyphHeight-4, box.Min.X+len([]rune(text))*glyphWidth+1, box.Min.Y)
	area := box.Union(textBox).Intersect(p.surface.Bounds())
	if area.Empty() {
		return ErrNoBounds
	}

	p.saved = image.NewRGBA(area)
	draw.Draw(p.saved, area, p.surface, area.Min, draw.Src)
	p.area = area
	p.label = text

	draw.Draw(p.surface, box, image.NewUniform(fillColor), image.Point{}, draw.Over)
	drawRectangle(p.surface, box, borderColor)
	drawTextWithOutline(p.surface, text, box.Min.X, box.Min.Y-4, textColor, outlineColor)
	return nil
}

// Hide removes the overlay, if any.
func (p *Painter) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restoreLocked()
}

// Label returns the text of the overlay currently shown.
func (p *Painter) Label() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.label
}

// Image returns a copy of the surface.
func (p *Painter) Image() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := image.NewRGBA(p.surface.Bounds())
	draw.Draw(out, out.Bounds(), p.surface, image.Point{}, draw.Src)
	return out
}

// WritePNG encodes the surface as PNG.
func (p *Painter) WritePNG(w io.Writer) error {
	return png.Encode(w, p.Image())
}

func (p *Painter) restoreLocked() {
	if p.saved == nil {
		return
	}
	draw.Draw(p.surface, p.area, p.saved, p.area.Min, draw.Src)
	p.saved = nil
	p.area = image.Rectangle{}
	p.label = ""
}

// drawRectangle draws a one pixel border clamped to the image.
func drawRectangle(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawTextWithOutline draws text with its baseline at (x, y) and a one
// pixel outline.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, fg, outline color.Color) {
	d := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	d.Src = image.NewUniform(outline)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.P(x+dx, y+dy)
			d.DrawString(text)
		}
	}
	d.Src = image.NewUniform(fg)
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}
