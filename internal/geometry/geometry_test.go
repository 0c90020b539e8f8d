package geometry

import (
	"math"
	"testing"

	"github.com/lexread/lexread/internal/document"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.05
}

func TestScaleFor(t *testing.T) {
	if got := ScaleFor(800, 600); !almostEqual(got, 1.3333) {
		t.Fatalf("expected scale 1.333, got %v", got)
	}
	if got := ScaleFor(0, 600); got != 1 {
		t.Fatalf("expected fallback scale 1 for unreported width, got %v", got)
	}
	if got := ScaleFor(800, 0); got != 1 {
		t.Fatalf("expected fallback scale 1 for zero original width, got %v", got)
	}
}

func TestMapBBoxTwoPagePDFScenario(t *testing.T) {
	// Page 0 reports original width 600 and rendered width 800.
	scale := ScaleFor(800, 600)
	b := document.BBox{Page: 0, X0: 100, Top: 50, X1: 140, Bottom: 70, Width: 40, Height: 20}
	r := MapBBox(b, scale)
	if !almostEqual(r.X, 400.0/3) || !almostEqual(r.Y, 200.0/3) {
		t.Fatalf("unexpected origin: %+v", r)
	}
	if !almostEqual(r.Width, 160.0/3) || !almostEqual(r.Height, 80.0/3) {
		t.Fatalf("unexpected size: %+v", r)
	}
}

func TestClampToViewportRightEdge(t *testing.T) {
	const w = 320
	r := ClampToViewport(Rect{X: 1000, Y: 10, Width: w, Height: 100}, 1280, 800)
	if r.X != 1280-w {
		t.Fatalf("expected x == viewportWidth - width (%v), got %v", 1280-w, r.X)
	}
	if r.Y != 10 {
		t.Fatalf("y should be untouched, got %v", r.Y)
	}
}

func TestClampToViewportBottomEdgeAndFloor(t *testing.T) {
	r := ClampToViewport(Rect{X: 20, Y: 790, Width: 300, Height: 200}, 1280, 800)
	if r.Bottom() != 800 {
		t.Fatalf("expected bottom flush with viewport, got %v", r.Bottom())
	}

	// Larger than the viewport: clamps to the origin rather than going
	// negative.
	r = ClampToViewport(Rect{X: 50, Y: 50, Width: 2000, Height: 1000}, 1280, 800)
	if r.X != 0 || r.Y != 0 {
		t.Fatalf("oversized popup should pin to origin, got %+v", r)
	}
}

func TestRectUnionAndContains(t *testing.T) {
	a := Rect{X: 10, Y: 10, Width: 20, Height: 10}
	b := Rect{X: 40, Y: 5, Width: 10, Height: 10}
	u := a.Union(b)
	if u.X != 10 || u.Y != 5 || u.Width != 40 || u.Height != 15 {
		t.Fatalf("unexpected union: %+v", u)
	}
	if (Rect{}).Union(b) != b {
		t.Fatalf("union with zero rect should return the other rect")
	}
	if !a.Contains(10, 10) || a.Contains(30, 10) {
		t.Fatalf("contains is half-open on the max edges")
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X: 10, Y: 10, Width: 20, Height: 10}
	if !a.Intersects(Rect{X: 25, Y: 15, Width: 20, Height: 20}) {
		t.Fatalf("overlapping rects should intersect")
	}
	if a.Intersects(Rect{X: 30, Y: 10, Width: 5, Height: 5}) {
		t.Fatalf("edge-touching rects should not intersect")
	}
	if a.Intersects(Rect{X: 12, Y: 25, Width: 5, Height: 5}) {
		t.Fatalf("vertically disjoint rects should not intersect")
	}
}
