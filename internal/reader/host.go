// Package reader implements the pointer resolution and interaction layer:
// mapping pointer coordinates to words and their context across the three
// content models, the lookup cache/dedup engine in front of the backend, and
// the floating popup layout engine. The package is host-agnostic; a binding
// (gio, tests) supplies the platform capabilities through Host.
package reader

import (
	"github.com/lexread/lexread/internal/geometry"
	"github.com/lexread/lexread/internal/protocol"
)

// Fragment is one inline run of text under the pointer, together with the
// text of its visually adjacent sibling fragments (empty when absent).
type Fragment struct {
	Text string
	Prev string
	Next string
}

// Caret is a caret-from-point result: a fragment and a rune offset into its
// text.
type Caret struct {
	Fragment Fragment
	Offset   int
}

// Host exposes the platform capabilities the interaction layer depends on.
// Implementations must be safe to call from the UI thread only; the
// controller never calls them concurrently.
type Host interface {
	// CaretAt converts a viewport coordinate to a caret position. ok is
	// false when no text lies under the point, including when the hit
	// element is not a text node.
	CaretAt(x, y float64) (Caret, bool)

	// Selection reports the active text selection and its bounding
	// rectangle in viewport pixels. ok is false when there is none.
	Selection() (text string, rect geometry.Rect, ok bool)

	// ViewportSize returns the current viewport dimensions in pixels.
	ViewportSize() (w, h float64)

	// OnDismissGesture registers the handler invoked on the global
	// dismiss gesture (double-click anywhere).
	OnDismissGesture(handler func())

	// Config and SetConfig read and persist the client AI configuration.
	Config() protocol.AIConfig
	SetConfig(protocol.AIConfig)
}
