package reader

import (
	"github.com/google/uuid"
	"github.com/lexread/lexread/internal/geometry"
	"github.com/lexread/lexread/internal/protocol"
)

const (
	// Floors applied while resizing, in viewport pixels.
	MinPopupWidth  = 200
	MinPopupHeight = 150

	wordPopupWidth  = 280
	wordPopupHeight = 180

	translationPopupWidth  = 420
	translationPopupHeight = 240

	// PendingTranslationText is the literal placeholder shown while a
	// translation is outstanding.
	PendingTranslationText = "Translating..."
)

// WordPopup shows the gloss for a single word. Result is nil while the
// lookup is pending.
type WordPopup struct {
	ID     string
	Key    string // cache key of the lookup this popup is waiting on
	Rect   geometry.Rect
	Word   string
	Result *protocol.ExplainResponse
}

func (p *WordPopup) Pending() bool { return p.Result == nil }

// TranslationPopup shows the translation of a selected span.
type TranslationPopup struct {
	ID         string
	Key        string
	Rect       geometry.Rect
	SourceText string
	Body       string
	pending    bool
}

func (p *TranslationPopup) Pending() bool { return p.pending }

type popupKind int

const (
	kindWord popupKind = iota
	kindTranslation
)

type dragState struct {
	kind     popupKind
	resizing bool
	startX   float64
	startY   float64
	orig     geometry.Rect
}

// Popups maintains the position and size of at most one word popup and one
// translation popup, supports drag-to-move and drag-to-resize, clamps to the
// viewport on open, and enforces mutual exclusion between the two kinds.
// Rects live only while their popup is open; nothing is persisted on close.
type Popups struct {
	Word        *WordPopup
	Translation *TranslationPopup

	drag *dragState
}

func NewPopups() *Popups {
	return &Popups{}
}

// OpenWord closes any translation popup, then opens a pending word popup
// anchored at the pointer coordinate and clamped to the viewport. Mutual
// exclusion runs before the new popup goes pending.
func (ps *Popups) OpenWord(word string, anchorX, anchorY, viewportW, viewportH float64) *WordPopup {
	ps.CloseTranslation()
	rect := geometry.ClampToViewport(geometry.Rect{
		X:      anchorX,
		Y:      anchorY,
		Width:  wordPopupWidth,
		Height: wordPopupHeight,
	}, viewportW, viewportH)
	ps.Word = &WordPopup{ID: uuid.NewString(), Rect: rect, Word: word}
	return ps.Word
}

// ShowWord transitions the word popup to shown with the given gloss.
func (ps *Popups) ShowWord(res protocol.ExplainResponse) {
	if ps.Word == nil {
		return
	}
	ps.Word.Result = &res
}

func (ps *Popups) CloseWord() {
	ps.Word = nil
	if ps.drag != nil && ps.drag.kind == kindWord {
		ps.drag = nil
	}
}

// OpenTranslation closes any word popup, then opens a pending translation
// popup horizontally centered on the selection rectangle and clamped to the
// viewport.
func (ps *Popups) OpenTranslation(sourceText string, selection geometry.Rect, viewportW, viewportH float64) *TranslationPopup {
	ps.CloseWord()
	rect := geometry.ClampToViewport(geometry.Rect{
		X:      selection.X + selection.Width/2 - translationPopupWidth/2,
		Y:      selection.Bottom() + 8,
		Width:  translationPopupWidth,
		Height: translationPopupHeight,
	}, viewportW, viewportH)
	ps.Translation = &TranslationPopup{
		ID:         uuid.NewString(),
		Rect:       rect,
		SourceText: sourceText,
		Body:       PendingTranslationText,
		pending:    true,
	}
	return ps.Translation
}

// ShowTranslation fills in the translation body.
func (ps *Popups) ShowTranslation(translation string) {
	if ps.Translation == nil {
		return
	}
	ps.Translation.Body = translation
	ps.Translation.pending = false
}

// FailTranslation replaces the body with a failure message. The popup stays
// open so the selection and position remain visible for a retry.
func (ps *Popups) FailTranslation(errText string) {
	if ps.Translation == nil {
		return
	}
	ps.Translation.Body = "Translation failed: " + errText
	ps.Translation.pending = false
}

func (ps *Popups) CloseTranslation() {
	ps.Translation = nil
	if ps.drag != nil && ps.drag.kind == kindTranslation {
		ps.drag = nil
	}
}

func (ps *Popups) CloseAll() {
	ps.Word = nil
	ps.Translation = nil
	ps.drag = nil
}

// BeginWordDrag starts dragging the word popup from its header. Only the
// primary pointer button starts a drag.
func (ps *Popups) BeginWordDrag(x, y float64, primary bool) {
	if !primary || ps.Word == nil {
		return
	}
	ps.drag = &dragState{kind: kindWord, startX: x, startY: y, orig: ps.Word.Rect}
}

func (ps *Popups) BeginTranslationDrag(x, y float64, primary bool) {
	if !primary || ps.Translation == nil {
		return
	}
	ps.drag = &dragState{kind: kindTranslation, startX: x, startY: y, orig: ps.Translation.Rect}
}

// BeginTranslationResize starts resizing the translation popup from its
// corner handle.
func (ps *Popups) BeginTranslationResize(x, y float64, primary bool) {
	if !primary || ps.Translation == nil {
		return
	}
	ps.drag = &dragState{kind: kindTranslation, resizing: true, startX: x, startY: y, orig: ps.Translation.Rect}
}

func (ps *Popups) BeginWordResize(x, y float64, primary bool) {
	if !primary || ps.Word == nil {
		return
	}
	ps.drag = &dragState{kind: kindWord, resizing: true, startX: x, startY: y, orig: ps.Word.Rect}
}

// PointerMove applies the raw delta from the press point to the active drag
// or resize. Position is not clamped mid-drag; clamping is an open-time
// concern. Resize floors each dimension at the minimum.
func (ps *Popups) PointerMove(x, y float64) {
	d := ps.drag
	if d == nil {
		return
	}
	rect := ps.activeRect(d.kind)
	if rect == nil {
		ps.drag = nil
		return
	}
	dx := x - d.startX
	dy := y - d.startY
	if d.resizing {
		rect.Width = max(d.orig.Width+dx, MinPopupWidth)
		rect.Height = max(d.orig.Height+dy, MinPopupHeight)
		return
	}
	rect.X = d.orig.X + dx
	rect.Y = d.orig.Y + dy
}

// PointerUp ends the active drag or resize.
func (ps *Popups) PointerUp() {
	ps.drag = nil
}

// Dragging reports whether a drag or resize is in progress.
func (ps *Popups) Dragging() bool { return ps.drag != nil }

func (ps *Popups) activeRect(kind popupKind) *geometry.Rect {
	switch kind {
	case kindWord:
		if ps.Word != nil {
			return &ps.Word.Rect
		}
	case kindTranslation:
		if ps.Translation != nil {
			return &ps.Translation.Rect
		}
	}
	return nil
}
