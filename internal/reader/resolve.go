package reader

import (
	"strings"
	"unicode/utf8"

	"github.com/lexread/lexread/internal/document"
)

// Resolution is the uniform output of all three pointer-resolution
// strategies: the word under the pointer and a best-effort context string.
type Resolution struct {
	Word    string
	Context string
}

// ResolveToken is the structured-token strategy: the clicked element already
// carries its token, so the word is the token text and the context is the
// enclosing sentence. The only strategy with zero ambiguity.
func ResolveToken(tok document.Token, sent document.Sentence) (Resolution, bool) {
	word := strings.TrimSpace(tok.Text)
	if word == "" {
		return Resolution{}, false
	}
	return Resolution{Word: word, Context: strings.TrimSpace(sent.Text)}, true
}

// ResolveCaret is the DOM-caret strategy for flowed text: resolve the
// fragment and offset under the pointer, scan for the word boundary, and
// build the context from the adjacent sibling fragments. The context window
// is a heuristic; it may cover more or less than the enclosing sentence. An
// active non-empty selection takes precedence over the click and aborts the
// resolution.
func ResolveCaret(host Host, x, y float64) (Resolution, bool) {
	if text, _, ok := host.Selection(); ok && strings.TrimSpace(text) != "" {
		return Resolution{}, false
	}
	caret, ok := host.CaretAt(x, y)
	if !ok {
		return Resolution{}, false
	}
	word, _, _ := document.ScanWord(caret.Fragment.Text, caret.Offset)
	if word == "" {
		return Resolution{}, false
	}
	context := collapseSpace(caret.Fragment.Prev + " " + caret.Fragment.Text + " " + caret.Fragment.Next)
	if context == "" {
		context = word
	}
	return Resolution{Word: word, Context: context}, true
}

// ResolveLine is the line-context strategy for the flat raw-text pane: caret
// resolution as above, but the context is the full line containing the word,
// recovered by locating the fragment inside the raw buffer.
func ResolveLine(host Host, x, y float64, buffer string) (Resolution, bool) {
	caret, ok := host.CaretAt(x, y)
	if !ok {
		return Resolution{}, false
	}
	word, start, _ := document.ScanWord(caret.Fragment.Text, caret.Offset)
	if word == "" {
		return Resolution{}, false
	}

	context := strings.TrimSpace(caret.Fragment.Text)
	if idx := strings.Index(buffer, caret.Fragment.Text); idx >= 0 {
		base := utf8.RuneCountInString(buffer[:idx])
		context = strings.TrimSpace(document.LineAround(buffer, base+start))
	}
	if context == "" {
		context = word
	}
	return Resolution{Word: word, Context: context}, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
