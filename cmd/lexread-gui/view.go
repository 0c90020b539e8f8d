package main

import (
	"image"
	"image/color"
	"strings"
	"time"
	"unicode"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/lexread/lexread/internal/geometry"
	"github.com/lexread/lexread/internal/reader"
)

const (
	docTextSize = unit.Sp(18)

	// Pointer travel below this is a click, above it a drag selection.
	dragThresholdPx = 6

	doubleClickWindow = 400 * time.Millisecond
)

var (
	docBg       = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	popupBg     = color.NRGBA{R: 0xFC, G: 0xFC, B: 0xF6, A: 0xFF}
	popupHeader = color.NRGBA{R: 0xE4, G: 0xE8, B: 0xF2, A: 0xFF}
	popupHandle = color.NRGBA{R: 0xB0, G: 0xB4, B: 0xBC, A: 0xFF}
	selectionBg = color.NRGBA{R: 0x3D, G: 0x7A, B: 0xF5, A: 0x46}
	scrimBg     = color.NRGBA{A: 0x66}
	errorFg     = color.NRGBA{R: 0xB0, G: 0x20, B: 0x20, A: 0xFF}
)

// docView is the per-frame pointer state of the document area. The tag
// fields exist only so their addresses can serve as input area identities;
// they must not be zero-sized or the addresses would coincide.
type docView struct {
	tag         int
	wordDrag    int
	wordResize  int
	transDrag   int
	transResize int
	alertScrim  int

	pressX, pressY float64
	selecting      bool

	lastClick              time.Time
	lastClickX, lastClickY float64

	contentHeight float64
}

func (m *guiApp) layout(gtx C) D {
	in := layout.UniformInset(unit.Dp(12))
	dims := in.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(m.layoutServerRow),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(m.layoutFileRow),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(m.layoutSettingsPanel),
			layout.Rigid(m.layoutStatusRow),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Flexed(1, m.layoutDocArea),
		)
	})
	if m.alertText != "" {
		m.layoutAlert(gtx)
	}
	return dims
}

// layoutAlert draws the blocking modal: a scrim that swallows pointer input
// over the whole window and a centered panel with the message and an OK
// button. Raised for upload failures.
func (m *guiApp) layoutAlert(gtx C) {
	sz := gtx.Constraints.Max
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  &m.view.alertScrim,
			Kinds:   pointer.Press | pointer.Release | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -400, Max: 400},
		})
		if !ok {
			break
		}
		_ = ev
	}
	defer clip.Rect(image.Rectangle{Max: sz}).Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, scrimBg)
	event.Op(gtx.Ops, &m.view.alertScrim)

	layout.Center.Layout(gtx, func(gtx C) D {
		if limit := gtx.Dp(440); gtx.Constraints.Max.X > limit {
			gtx.Constraints.Max.X = limit
		}
		return layout.Background{}.Layout(gtx,
			func(gtx C) D {
				defer clip.UniformRRect(image.Rectangle{Max: gtx.Constraints.Min}, gtx.Dp(8)).Push(gtx.Ops).Pop()
				paint.Fill(gtx.Ops, popupBg)
				return D{Size: gtx.Constraints.Min}
			},
			func(gtx C) D {
				return layout.UniformInset(unit.Dp(16)).Layout(gtx, func(gtx C) D {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(material.Body1(m.theme, m.alertText).Layout),
						layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
						layout.Rigid(material.Button(m.theme, &m.alertBtn, "OK").Layout),
					)
				})
			},
		)
	})
}

func (m *guiApp) layoutServerRow(gtx C) D {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return material.Body1(m.theme, "Server: ").Layout(gtx)
		}),
		layout.Flexed(1, func(gtx C) D {
			ed := material.Editor(m.theme, &m.serverEditor, "http://127.0.0.1:8000")
			return ed.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx C) D {
			return material.Button(m.theme, &m.discoverBtn, "Discover").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx C) D {
			return material.Button(m.theme, &m.settingsBtn, "Settings").Layout(gtx)
		}),
	)
}

func (m *guiApp) layoutFileRow(gtx C) D {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return material.Body1(m.theme, "File: ").Layout(gtx)
		}),
		layout.Flexed(1, func(gtx C) D {
			ed := material.Editor(m.theme, &m.fileEditor, "/path/to/document.pdf")
			return ed.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx C) D {
			return material.Button(m.theme, &m.loadBtn, "Load").Layout(gtx)
		}),
	)
}

func (m *guiApp) layoutSettingsPanel(gtx C) D {
	if !m.showSettings {
		return D{}
	}
	row := func(label string, ed *widget.Editor, hint string) layout.FlexChild {
		return layout.Rigid(func(gtx C) D {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					gtx.Constraints.Min.X = gtx.Dp(110)
					return material.Body2(m.theme, label).Layout(gtx)
				}),
				layout.Flexed(1, func(gtx C) D {
					return material.Editor(m.theme, ed, hint).Layout(gtx)
				}),
			)
		})
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		row("Provider", &m.providerEditor, "deepseek"),
		row("Model", &m.modelEditor, "deepseek-chat"),
		row("API key", &m.keyEditor, ""),
		row("Base URL", &m.baseURLEditor, "https://api.deepseek.com/v1"),
		layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
		layout.Rigid(func(gtx C) D {
			return layout.Flex{}.Layout(gtx,
				layout.Rigid(func(gtx C) D {
					return material.Button(m.theme, &m.applyBtn, "Apply").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx C) D {
					return material.Button(m.theme, &m.testBtn, "Test").Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
	)
}

func (m *guiApp) layoutStatusRow(gtx C) D {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return material.Body2(m.theme, m.statusText).Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			err := strings.TrimSpace(m.lastError)
			if err == "" {
				return D{}
			}
			lbl := material.Body2(m.theme, err)
			lbl.Color = errorFg
			return lbl.Layout(gtx)
		}),
	)
}

// layoutDocArea renders the document and the popups. Everything interactive
// shares the doc area's local coordinate space: hit rectangles, popup rects,
// and pointer event positions, so no conversions are needed anywhere.
//
// Pointer events are drained before the frame's registries are rebuilt, so
// hits resolve against the rectangles the user actually saw.
func (m *guiApp) layoutDocArea(gtx C) D {
	area := gtx.Constraints.Max

	m.processDocEvents(gtx)
	m.processPopupEvents(gtx)

	m.host.beginFrame(float64(area.X), float64(area.Y))

	defer clip.Rect(image.Rectangle{Max: area}).Push(gtx.Ops).Pop()
	paint.FillShape(gtx.Ops, docBg, clip.Rect(image.Rectangle{Max: area}).Op())
	event.Op(gtx.Ops, &m.view.tag)

	if m.rawMode() {
		m.layoutRawPane(gtx, area)
	} else {
		m.layoutTokenFlow(gtx, area)
	}

	if text, rect, ok := m.host.Selection(); ok && text != "" {
		paint.FillShape(gtx.Ops, selectionBg, clip.Rect(rectToImage(rect)).Op())
	}

	m.layoutPopups(gtx)

	return D{Size: area}
}

// rawMode reports whether the flat raw-text pane is active. OCR output has
// no reliable sentence structure, so image sources render raw.
func (m *guiApp) rawMode() bool {
	return m.sourceType == "image" && m.rawText != ""
}

// measureText records a label into a macro and reports its size, so flow
// layout can decide placement before replaying the drawing ops.
func (m *guiApp) measureText(gtx C, txt string) (op.CallOp, image.Point) {
	macro := op.Record(gtx.Ops)
	mgtx := gtx
	mgtx.Constraints = layout.Constraints{Max: image.Pt(1<<14, 1<<14)}
	dims := material.Label(m.theme, docTextSize, txt).Layout(mgtx)
	return macro.Stop(), dims.Size
}

func (m *guiApp) layoutTokenFlow(gtx C, area image.Point) {
	margin := gtx.Dp(12)
	lineH := gtx.Sp(26)
	indent := gtx.Dp(22)
	spaceW := gtx.Sp(5)
	maxX := area.X - margin
	scroll := int(m.host.scrollY)

	x, y := margin, margin
	lineStart := margin
	for _, sent := range m.sentences {
		if sent.Layout.IsNewParagraph {
			if y > margin || x > lineStart {
				y += lineH + lineH/2
			}
			lineStart = margin + indent*sent.Layout.IndentLevel
			x = lineStart
		}
		for _, tok := range sent.Tokens {
			call, size := m.measureText(gtx, tok.Text)
			if x+size.X > maxX && x > lineStart {
				x = lineStart
				y += lineH
			}
			drawY := y - scroll
			if drawY+size.Y > 0 && drawY < area.Y {
				trans := op.Offset(image.Pt(x, drawY)).Push(gtx.Ops)
				call.Add(gtx.Ops)
				trans.Pop()
			}
			m.host.addTokenHit(geometry.Rect{
				X: float64(x), Y: float64(drawY),
				Width: float64(size.X), Height: float64(size.Y),
			}, tok, sent)
			x += size.X
			if tok.HasTrailingSpace {
				x += spaceW
			}
		}
	}
	m.view.contentHeight = float64(y + lineH + margin)
}

// layoutRawPane renders the raw buffer line by line, word by word. Each word
// hit carries the exact buffer line as its fragment text, which is what lets
// the line-context strategy find the line inside the buffer again.
func (m *guiApp) layoutRawPane(gtx C, area image.Point) {
	margin := gtx.Dp(12)
	lineH := gtx.Sp(26)
	spaceW := gtx.Sp(5)
	maxX := area.X - margin
	scroll := int(m.host.scrollY)

	lines := strings.Split(m.rawText, "\n")
	y := margin
	for li, line := range lines {
		var prev, next string
		if li > 0 {
			prev = lines[li-1]
		}
		if li+1 < len(lines) {
			next = lines[li+1]
		}
		x := margin
		for _, w := range splitLineWords(line) {
			call, size := m.measureText(gtx, w.text)
			if x+size.X > maxX && x > margin {
				x = margin
				y += lineH
			}
			drawY := y - scroll
			if drawY+size.Y > 0 && drawY < area.Y {
				trans := op.Offset(image.Pt(x, drawY)).Push(gtx.Ops)
				call.Add(gtx.Ops)
				trans.Pop()
			}
			m.host.addWordHit(geometry.Rect{
				X: float64(x), Y: float64(drawY),
				Width: float64(size.X), Height: float64(size.Y),
			}, w.text, reader.Caret{
				Fragment: reader.Fragment{Text: line, Prev: prev, Next: next},
				Offset:   w.runeOffset,
			})
			x += size.X + spaceW
		}
		y += lineH
	}
	m.view.contentHeight = float64(y + margin)
}

type lineWord struct {
	text       string
	runeOffset int
}

// splitLineWords returns the non-space runs of a line with the rune offset
// of each run's first character.
func splitLineWords(line string) []lineWord {
	var words []lineWord
	runeIdx := 0
	start, startRune := -1, 0
	for i, r := range line {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, lineWord{text: line[start:i], runeOffset: startRune})
				start = -1
			}
		} else if start < 0 {
			start, startRune = i, runeIdx
		}
		runeIdx++
	}
	if start >= 0 {
		words = append(words, lineWord{text: line[start:], runeOffset: startRune})
	}
	return words
}

func (m *guiApp) processDocEvents(gtx C) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  &m.view.tag,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -400, Max: 400},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		x, y := float64(pe.Position.X), float64(pe.Position.Y)
		switch pe.Kind {
		case pointer.Scroll:
			m.scrollBy(float64(pe.Scroll.Y))
		case pointer.Press:
			if pe.Buttons&pointer.ButtonPrimary == 0 {
				continue
			}
			now := time.Now()
			if now.Sub(m.view.lastClick) < doubleClickWindow &&
				abs(x-m.view.lastClickX) < dragThresholdPx &&
				abs(y-m.view.lastClickY) < dragThresholdPx {
				m.view.lastClick = time.Time{}
				m.host.dismiss()
				continue
			}
			m.view.lastClick = now
			m.view.lastClickX, m.view.lastClickY = x, y
			m.view.pressX, m.view.pressY = x, y
			m.view.selecting = false
			m.host.clearSelection()
		case pointer.Drag:
			if !m.view.selecting &&
				(abs(x-m.view.pressX) > dragThresholdPx || abs(y-m.view.pressY) > dragThresholdPx) {
				m.view.selecting = true
			}
			if m.view.selecting {
				m.updateDragSelection(x, y)
			}
		case pointer.Release:
			if m.view.selecting {
				m.view.selecting = false
				m.controller.FinishSelection()
			} else {
				m.clickAt(x, y)
			}
		}
	}
}

func (m *guiApp) scrollBy(dy float64) {
	_, vh := m.host.ViewportSize()
	maxScroll := m.view.contentHeight - vh
	if maxScroll < 0 {
		maxScroll = 0
	}
	s := m.host.scrollY + dy
	if s < 0 {
		s = 0
	}
	if s > maxScroll {
		s = maxScroll
	}
	m.host.scrollY = s
}

func (m *guiApp) clickAt(x, y float64) {
	if hit, ok := m.host.tokenAt(x, y); ok {
		m.controller.ClickToken(hit.tok, hit.sent, x, y)
		return
	}
	if m.rawMode() {
		m.controller.ClickRawText(x, y, m.rawText)
	}
}

// updateDragSelection rebuilds the selection from the rectangle spanned by
// the press point and the current pointer position, in the reading order the
// hits were recorded in.
func (m *guiApp) updateDragSelection(x, y float64) {
	drag := normRect(m.view.pressX, m.view.pressY, x, y)
	var b strings.Builder
	var union geometry.Rect
	if m.rawMode() {
		for _, h := range m.host.wordHits {
			if !h.rect.Intersects(drag) {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(h.word)
			union = union.Union(h.rect)
		}
	} else {
		for _, h := range m.host.tokenHits {
			if !h.rect.Intersects(drag) {
				continue
			}
			b.WriteString(h.tok.Text)
			if h.tok.HasTrailingSpace {
				b.WriteByte(' ')
			}
			union = union.Union(h.rect)
		}
	}
	if b.Len() == 0 {
		m.host.clearSelection()
		return
	}
	m.host.setSelection(strings.TrimSpace(b.String()), union)
}

func (m *guiApp) processPopupEvents(gtx C) {
	ps := m.controller.Popups()
	drain := func(tag event.Tag, begin func(x, y float64, primary bool)) {
		for {
			ev, ok := gtx.Event(pointer.Filter{
				Target: tag,
				Kinds:  pointer.Press | pointer.Drag | pointer.Release,
			})
			if !ok {
				break
			}
			pe, ok := ev.(pointer.Event)
			if !ok {
				continue
			}
			x, y := float64(pe.Position.X), float64(pe.Position.Y)
			switch pe.Kind {
			case pointer.Press:
				begin(x, y, pe.Buttons&pointer.ButtonPrimary != 0)
			case pointer.Drag:
				ps.PointerMove(x, y)
			case pointer.Release, pointer.Cancel:
				ps.PointerUp()
			}
		}
	}
	drain(&m.view.wordDrag, ps.BeginWordDrag)
	drain(&m.view.wordResize, ps.BeginWordResize)
	drain(&m.view.transDrag, ps.BeginTranslationDrag)
	drain(&m.view.transResize, ps.BeginTranslationResize)
}

func (m *guiApp) layoutPopups(gtx C) {
	ps := m.controller.Popups()
	if w := ps.Word; w != nil {
		body := "Looking up..."
		if r := w.Result; r != nil {
			body = r.MeaningZH
			if r.ExplanationZH != "" {
				body += "\n\n" + r.ExplanationZH
			}
		}
		m.drawPopup(gtx, w.Rect, w.Word, body, &m.view.wordDrag, &m.view.wordResize)
	}
	if t := ps.Translation; t != nil {
		m.drawPopup(gtx, t.Rect, "Translation", t.Body, &m.view.transDrag, &m.view.transResize)
	}
}

// drawPopup renders one floating panel: a draggable header strip with the
// title, a clipped body, and a resize handle in the bottom-right corner. The
// input areas are registered at the popup's current position, so drag deltas
// computed from their local coordinates track the pointer exactly.
func (m *guiApp) drawPopup(gtx C, rect geometry.Rect, title, body string, dragTag, resizeTag event.Tag) {
	r := rectToImage(rect)
	headerH := gtx.Dp(26)
	pad := gtx.Dp(8)
	handleSz := gtx.Dp(14)

	paint.FillShape(gtx.Ops, popupBg, clip.UniformRRect(r, gtx.Dp(6)).Op(gtx.Ops))

	header := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+headerH)
	paint.FillShape(gtx.Ops, popupHeader, clip.Rect(header).Op())
	registerArea(gtx, dragTag, header)

	{
		trans := op.Offset(image.Pt(r.Min.X+pad, r.Min.Y+gtx.Dp(4))).Push(gtx.Ops)
		tgtx := gtx
		tgtx.Constraints = layout.Constraints{Max: image.Pt(r.Dx()-2*pad, headerH)}
		material.Body1(m.theme, title).Layout(tgtx)
		trans.Pop()
	}

	{
		inner := image.Rect(r.Min.X+pad, r.Min.Y+headerH+pad/2, r.Max.X-pad, r.Max.Y-pad)
		cl := clip.Rect(inner).Push(gtx.Ops)
		trans := op.Offset(inner.Min).Push(gtx.Ops)
		bgtx := gtx
		bgtx.Constraints = layout.Constraints{Max: image.Pt(inner.Dx(), inner.Dy())}
		material.Body2(m.theme, body).Layout(bgtx)
		trans.Pop()
		cl.Pop()
	}

	handle := image.Rect(r.Max.X-handleSz, r.Max.Y-handleSz, r.Max.X, r.Max.Y)
	paint.FillShape(gtx.Ops, popupHandle, clip.Rect(handle).Op())
	registerArea(gtx, resizeTag, handle)
}

func registerArea(gtx C, tag event.Tag, r image.Rectangle) {
	cl := clip.Rect(r).Push(gtx.Ops)
	event.Op(gtx.Ops, tag)
	cl.Pop()
}

func rectToImage(r geometry.Rect) image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.Right()), int(r.Bottom()))
}

func normRect(x0, y0, x1, y1 float64) geometry.Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return geometry.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
