// Package extract turns uploaded documents (PDF, DOCX, plain text, scanned
// images) into the parsed document model: cleaned text, sentences, tokens,
// and for PDFs per-token bounding boxes with page metadata.
package extract

import (
	"regexp"
	"strings"
)

var (
	hyphenBreakRe   = regexp.MustCompile(`(\w+)-\s*\n\s*(\w+)`)
	paragraphGapRe  = regexp.MustCompile(`\n\s*\n`)
	examMarkerRe    = regexp.MustCompile(`\b\d{1,2}\.[A-D]\)`)
	examNumberRe    = regexp.MustCompile(`\s*(\d{1,2}\.[A-D]\))`)
	examOptionRe    = regexp.MustCompile(`\s([A-D]\))`)
	blankRunRe      = regexp.MustCompile(`\n\s*\n\s*\n+`)
	sectionMarkerRe = regexp.MustCompile(`(?m)^([A-Z]\))\s*\n\s*`)
	inlineSectionRe = regexp.MustCompile(`([.!?]["”']?)\s*([A-Z]\))`)
)

const paragraphBreak = "\x00PARA\x00"

// CleanText normalizes extracted text while preserving paragraph structure:
// page-number lines are dropped, cross-line hyphenation is repaired, blank
// lines survive as paragraph separators, and remaining newlines inside a
// paragraph are merged into spaces.
func CleanText(text string) string {
	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			cleaned = append(cleaned, "")
			continue
		}
		if isDigits(trimmed) {
			continue
		}
		// Keep leading indentation, drop trailing whitespace.
		cleaned = append(cleaned, strings.TrimRight(line, " \t\r"))
	}
	out := strings.Join(cleaned, "\n")

	out = hyphenBreakRe.ReplaceAllString(out, "$1$2")
	out = paragraphGapRe.ReplaceAllString(out, paragraphBreak)
	out = strings.ReplaceAll(out, "\n", " ")
	out = strings.ReplaceAll(out, paragraphBreak, "\n\n")
	return strings.TrimSpace(out)
}

// DecodeEscapedNewlines restores literal "\n" escape sequences that some
// model APIs emit in place of real newlines.
func DecodeEscapedNewlines(text string) string {
	text = strings.ReplaceAll(text, `\r\n`, "\n")
	text = strings.ReplaceAll(text, `\n\r`, "\n")
	text = strings.ReplaceAll(text, `\n`, "\n")
	return text
}

// NormalizeExamLayout repairs OCR output of exam-style sheets where numbered
// items ("17.A)") and options ("B)") run together on one line. It only
// activates when the marker pattern is present, so ordinary images pass
// through untouched.
func NormalizeExamLayout(text string) string {
	if !examMarkerRe.MatchString(text) {
		return text
	}
	out := examNumberRe.ReplaceAllString(text, "\n$1")
	out = examOptionRe.ReplaceAllString(out, "\n$1")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// NormalizeSectionParagraphs inserts paragraph breaks before section markers
// like "K)" in OCR output and re-joins markers that OCR left alone on their
// own line.
func NormalizeSectionParagraphs(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		stripped := strings.TrimLeft(line, " \t")
		if len(out) > 0 && isSectionMarkerStart(stripped) && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, line)
	}
	normalized := strings.Join(out, "\n")

	// "K)\nThe research..." becomes "K) The research...".
	normalized = sectionMarkerRe.ReplaceAllString(normalized, "$1 ")
	// A marker glued onto the end of the previous sentence starts a new
	// paragraph.
	normalized = inlineSectionRe.ReplaceAllString(normalized, "$1\n\n$2")
	return normalized
}

func isSectionMarkerStart(s string) bool {
	return len(s) >= 2 && s[0] >= 'A' && s[0] <= 'Z' && s[1] == ')'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
