package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"github.com/lexread/lexread/internal/document"
)

const (
	// Reassembly thresholds in page points, matching the behavior of the
	// word-based extraction the popup overlay geometry was tuned against.
	lineBreakTopDelta = 5.0
	wordGapXDelta     = 2.0
)

// PDFEngine extracts per-word text and coordinates from PDF files through a
// pdfium webassembly instance pool.
type PDFEngine struct {
	pool pdfium.Pool
}

func NewPDFEngine() (*PDFEngine, error) {
	pool, err := webassembly.Init(webassembly.Config{MinIdle: 1, MaxIdle: 1, MaxTotal: 4})
	if err != nil {
		return nil, fmt.Errorf("init pdfium: %w", err)
	}
	return &PDFEngine{pool: pool}, nil
}

func (e *PDFEngine) Close() error {
	return e.pool.Close()
}

type pdfWord struct {
	text string
	page int
	box  document.BBox
}

// ExtractPDF returns the reassembled full text, the rune-range word map into
// that text, and per-page metadata.
func (e *PDFEngine) ExtractPDF(data []byte) (string, []WordSpan, []document.PageMeta, error) {
	instance, err := e.pool.GetInstance(30 * time.Second)
	if err != nil {
		return "", nil, nil, fmt.Errorf("pdfium instance: %w", err)
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		return "", nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		_, _ = instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
	}()

	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return "", nil, nil, fmt.Errorf("page count: %w", err)
	}

	var (
		words []pdfWord
		pages []document.PageMeta
	)
	for i := 0; i < pageCount.PageCount; i++ {
		byIndex := requests.Page{ByIndex: &requests.PageByIndex{Document: doc.Document, Index: i}}

		size, err := instance.GetPageSize(&requests.GetPageSize{Page: byIndex})
		if err != nil {
			return "", nil, nil, fmt.Errorf("page %d size: %w", i, err)
		}
		pages = append(pages, document.PageMeta{PageIndex: i, Width: size.Width, Height: size.Height})

		text, err := instance.GetPageTextStructured(&requests.GetPageTextStructured{
			Page: byIndex,
			Mode: requests.GetPageTextStructuredModeRects,
		})
		if err != nil {
			return "", nil, nil, fmt.Errorf("page %d text: %w", i, err)
		}
		for _, rect := range text.Rects {
			if rect == nil || strings.TrimSpace(rect.Text) == "" {
				continue
			}
			// pdfium reports y-up page coordinates; flip to
			// top-down distances.
			top := size.Height - rect.PointPosition.Top
			bottom := size.Height - rect.PointPosition.Bottom
			if top > bottom {
				top, bottom = bottom, top
			}
			words = append(words, splitRectWords(rect.Text, i, rect.PointPosition.Left, rect.PointPosition.Right, top, bottom)...)
		}
	}

	fullText, spans := AssembleWords(words)
	return fullText, spans, pages, nil
}

// splitRectWords breaks one extracted rectangle into space-separated words,
// interpolating each word's horizontal extent proportionally to its rune
// positions inside the rectangle.
func splitRectWords(text string, page int, left, right, top, bottom float64) []pdfWord {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}
	width := right - left
	var out []pdfWord
	i := 0
	for i < total {
		if runes[i] == ' ' || runes[i] == '\t' {
			i++
			continue
		}
		j := i
		for j < total && runes[j] != ' ' && runes[j] != '\t' {
			j++
		}
		x0 := left + width*float64(i)/float64(total)
		x1 := left + width*float64(j)/float64(total)
		out = append(out, pdfWord{
			text: string(runes[i:j]),
			page: page,
			box: document.BBox{
				Page: page, X0: x0, Top: top, X1: x1, Bottom: bottom,
				Width: x1 - x0, Height: bottom - top,
			},
		})
		i = j
	}
	return out
}

// AssembleWords rebuilds a flowing text buffer from positioned words: a
// line break when the vertical position jumps by more than the threshold, a
// space when the horizontal gap exceeds the word-gap threshold, and a blank
// line between pages. Returns the buffer and the rune-range map back to the
// word boxes.
func AssembleWords(words []pdfWord) (string, []WordSpan) {
	var (
		b     strings.Builder
		spans []WordSpan
		pos   int // rune position
	)
	prevPage := -1
	var prevTop, prevX1 float64
	havePrev := false

	for _, w := range words {
		switch {
		case prevPage >= 0 && w.page != prevPage:
			b.WriteString("\n\n")
			pos += 2
			havePrev = false
		case havePrev && w.box.Top-prevTop > lineBreakTopDelta:
			b.WriteString("\n")
			pos++
			havePrev = false
		case havePrev && w.box.X0-prevX1 > wordGapXDelta:
			b.WriteString(" ")
			pos++
		}

		runeLen := len([]rune(w.text))
		spans = append(spans, WordSpan{
			Start: pos,
			End:   pos + runeLen,
			Text:  w.text,
			Page:  w.page,
			BBox:  w.box,
		})
		b.WriteString(w.text)
		pos += runeLen

		prevPage = w.page
		prevTop = w.box.Top
		prevX1 = w.box.X1
		havePrev = true
	}
	return b.String(), spans
}
