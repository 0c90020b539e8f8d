package document

import "strings"

// IsWordChar reports whether r belongs to a word for boundary scanning:
// ASCII alphanumerics, hyphen, apostrophe, and the extended Latin accented
// letters that show up in PDF text layers. The multiplication and division
// signs sit inside the Latin-1 letter range and are excluded.
func IsWordChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '\'':
		return true
	case r >= 0x00C0 && r <= 0x024F:
		return r != 0x00D7 && r != 0x00F7
	}
	return false
}

// ScanWord expands left and right from offset (a rune index into text) over
// word characters and returns the covered word with its rune bounds. An
// empty or whitespace-only result means no word is under the offset; callers
// treat that as a silent no-op, not an error.
func ScanWord(text string, offset int) (word string, start, end int) {
	runes := []rune(text)
	if offset < 0 || offset >= len(runes) {
		return "", 0, 0
	}
	if !IsWordChar(runes[offset]) {
		// The pointer sits on whitespace or punctuation, not a word.
		return "", 0, 0
	}

	start, end = offset, offset
	for start > 0 && IsWordChar(runes[start-1]) {
		start--
	}
	for end < len(runes) && IsWordChar(runes[end]) {
		end++
	}

	word = string(runes[start:end])
	if strings.TrimSpace(word) == "" {
		return "", 0, 0
	}
	return word, start, end
}

// LineAround returns the full line of text containing the rune index idx,
// bounded by the nearest newline on each side (or the buffer edges).
func LineAround(text string, idx int) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(runes) {
		idx = len(runes) - 1
	}

	start := idx
	for start > 0 && runes[start-1] != '\n' {
		start--
	}
	end := idx
	for end < len(runes) && runes[end] != '\n' {
		end++
	}
	return string(runes[start:end])
}
