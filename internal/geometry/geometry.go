// Package geometry holds the viewport math shared by the reader core and its
// host bindings: rectangles in viewport pixel space, page scale factors, and
// the mapping from document-space bounding boxes to on-screen rectangles.
package geometry

import "github.com/lexread/lexread/internal/document"

// Rect is an axis-aligned rectangle in viewport pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether the point (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Intersects reports whether r and o overlap in both axes.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Width == 0 && r.Height == 0 {
		return o
	}
	if o.Width == 0 && o.Height == 0 {
		return r
	}
	x0 := min(r.X, o.X)
	y0 := min(r.Y, o.Y)
	x1 := max(r.Right(), o.Right())
	y1 := max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ScaleFor derives the rendered-to-original page scale factor. Until a page
// has reported its rendered width, callers pass the requested render width
// as the fallback so overlays can render optimistically.
func ScaleFor(renderedWidth, originalWidth float64) float64 {
	if originalWidth <= 0 {
		return 1
	}
	if renderedWidth <= 0 {
		return 1
	}
	return renderedWidth / originalWidth
}

// MapBBox converts a token's document-space bounding box into viewport
// pixels. Pure function of its inputs, safe to call concurrently for
// multiple pages.
func MapBBox(b document.BBox, scale float64) Rect {
	return Rect{
		X:      b.X0 * scale,
		Y:      b.Top * scale,
		Width:  b.Width * scale,
		Height: b.Height * scale,
	}
}

// ClampToViewport shifts a popup rectangle so its full extent stays inside a
// viewport of the given size. Anchors are never negative by construction, so
// only the right and bottom edges need clamping; the result is still floored
// at zero in case the popup is larger than the viewport itself.
func ClampToViewport(r Rect, viewportW, viewportH float64) Rect {
	if r.Right() > viewportW {
		r.X = viewportW - r.Width
	}
	if r.Bottom() > viewportH {
		r.Y = viewportH - r.Height
	}
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	return r
}
