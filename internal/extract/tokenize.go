package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lexread/lexread/internal/document"
)

// WordSpan maps a rune range of the reassembled text back to a PDF word box.
type WordSpan struct {
	Start int
	End   int
	Text  string
	Page  int
	BBox  document.BBox
}

// Post-apostrophe contraction parts. A word run split by a curly apostrophe
// ("don’t" -> "don", "’", "t") is rejoined when the tail is one of these.
var contractionSuffixes = map[string]bool{
	"t": true, "s": true, "ll": true, "re": true, "ve": true, "m": true, "d": true,
}

// Tokenize segments cleaned text into sentences of word and punctuation
// tokens with trailing-space flags and paragraph layout hints.
func Tokenize(text string) []document.Sentence {
	return TokenizeWithMap(text, nil)
}

// TokenizeWithMap additionally assigns each token the union of the PDF word
// boxes its rune range overlaps. Tokens without any overlap carry no box.
func TokenizeWithMap(text string, wordMap []WordSpan) []document.Sentence {
	runes := []rune(text)
	raw := splitTokens(runes)
	if len(raw) == 0 {
		return nil
	}

	var sentences []document.Sentence
	var current []rawToken
	flush := func() {
		if len(current) == 0 {
			return
		}
		sentences = append(sentences, buildSentence(runes, current, len(sentences), wordMap))
		current = nil
	}

	for i, tok := range raw {
		current = append(current, tok)
		if !isSentenceTerminator(tok.text) {
			continue
		}
		// Terminators close a sentence when what follows looks like a
		// sentence start (or nothing follows).
		if i+1 >= len(raw) || startsSentence(runes, raw[i+1].start) {
			flush()
		}
	}
	flush()

	// Paragraph layout from the gaps between sentences.
	for i := range sentences {
		if i == 0 {
			sentences[i].Layout.IsNewParagraph = true
			sentences[i].Layout.IndentLevel = indentLevel(runes, sentences[i].Start)
			continue
		}
		gap := string(runes[sentences[i-1].End:sentences[i].Start])
		if strings.Contains(gap, "\n\n") || strings.Count(gap, "\n") >= 2 {
			sentences[i].Layout.IsNewParagraph = true
			sentences[i].Layout.IndentLevel = indentLevel(runes, sentences[i].Start)
		}
	}
	return sentences
}

type rawToken struct {
	start int
	end   int
	text  string
}

func splitTokens(runes []rune) []rawToken {
	var out []rawToken
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case document.IsWordChar(r):
			j := i
			for j < len(runes) && document.IsWordChar(runes[j]) {
				j++
			}
			out = appendWordToken(out, runes, i, j)
			i = j
		default:
			// Punctuation: one token per run of identical characters
			// so "..." stays together but ")," splits.
			j := i
			for j < len(runes) && runes[j] == r {
				j++
			}
			out = append(out, rawToken{start: i, end: j, text: string(runes[i:j])})
			i = j
		}
	}
	return out
}

// appendWordToken emits a word run, peeling leading apostrophes off as
// punctuation (quote characters) and rejoining contractions that a curly
// apostrophe split into word-apostrophe-word.
func appendWordToken(out []rawToken, runes []rune, start, end int) []rawToken {
	for start < end && runes[start] == '\'' {
		out = append(out, rawToken{start: start, end: start + 1, text: "'"})
		start++
	}
	if start >= end {
		return out
	}
	text := string(runes[start:end])
	if len(out) >= 2 && contractionSuffixes[strings.ToLower(text)] {
		ap := out[len(out)-1]
		host := out[len(out)-2]
		if (ap.text == "'" || ap.text == "’") && ap.end == start && host.end == ap.start &&
			document.IsWordChar([]rune(host.text)[0]) {
			merged := rawToken{start: host.start, end: end, text: string(runes[host.start:end])}
			return append(out[:len(out)-2], merged)
		}
	}
	return append(out, rawToken{start: start, end: end, text: text})
}

func buildSentence(runes []rune, toks []rawToken, sentIdx int, wordMap []WordSpan) document.Sentence {
	start := toks[0].start
	end := toks[len(toks)-1].end
	sent := document.Sentence{
		Text:  strings.TrimSpace(string(runes[start:end])),
		Start: start,
		End:   end,
	}
	for i, tok := range toks {
		hasSpace := tok.end < len(runes) && unicode.IsSpace(runes[tok.end])
		dt := document.Token{
			ID:               fmt.Sprintf("sent-%d-token-%d", sentIdx, i),
			Text:             tok.text,
			HasTrailingSpace: hasSpace,
		}
		if bbox, ok := unionBoxFor(tok, wordMap); ok {
			dt.BBox = &bbox
		}
		sent.Tokens = append(sent.Tokens, dt)
	}
	return sent
}

// unionBoxFor returns the union of all word boxes overlapping the token's
// rune range. A token is assumed not to cross pages; the page of the first
// overlap wins.
func unionBoxFor(tok rawToken, wordMap []WordSpan) (document.BBox, bool) {
	var (
		found bool
		box   document.BBox
	)
	for _, ws := range wordMap {
		if max(tok.start, ws.Start) >= min(tok.end, ws.End) {
			continue
		}
		if !found {
			found = true
			box = ws.BBox
			box.Page = ws.Page
			continue
		}
		if ws.Page != box.Page {
			continue
		}
		box.X0 = min(box.X0, ws.BBox.X0)
		box.Top = min(box.Top, ws.BBox.Top)
		box.X1 = max(box.X1, ws.BBox.X1)
		box.Bottom = max(box.Bottom, ws.BBox.Bottom)
	}
	if !found {
		return document.BBox{}, false
	}
	box.Width = box.X1 - box.X0
	box.Height = box.Bottom - box.Top
	return box, true
}

func isSentenceTerminator(text string) bool {
	switch {
	case text == "":
		return false
	case strings.Trim(text, ".") == "", strings.Trim(text, "!") == "", strings.Trim(text, "?") == "":
		return true
	}
	return false
}

// startsSentence reports whether the rune at idx begins something that looks
// like a new sentence: an uppercase letter, a digit, an opening quote, or a
// paragraph break right before it.
func startsSentence(runes []rune, idx int) bool {
	for i := idx - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return true
		}
		if !unicode.IsSpace(runes[i]) {
			break
		}
	}
	if idx >= len(runes) {
		return true
	}
	r := runes[idx]
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '“' || r == '\''
}

func indentLevel(runes []rune, start int) int {
	spaces := 0
	for i := start - 1; i >= 0; i-- {
		switch runes[i] {
		case ' ':
			spaces++
			continue
		case '\t':
			spaces += 4
			continue
		case '\n':
		default:
			return 0
		}
		break
	}
	level := spaces / 4
	if level > 4 {
		level = 4
	}
	return level
}
