// Package document defines the parsed document model shared by the backend
// extraction pipeline and the reader core, plus the text scanning primitives
// the pointer-resolution strategies are built on.
package document

// BBox places a token on one page in the original (unscaled) document
// coordinate space.
type BBox struct {
	Page   int     `json:"page"`
	X0     float64 `json:"x0"`
	Top    float64 `json:"top"`
	X1     float64 `json:"x1"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Token is an atomic clickable unit of text. Tokens are immutable once
// produced by the parser; consumers only read them. BBox is nil outside the
// PDF path.
type Token struct {
	ID               string `json:"token_id"`
	Text             string `json:"text"`
	HasTrailingSpace bool   `json:"has_space_after"`
	BBox             *BBox  `json:"bbox,omitempty"`
}

// Layout carries the paragraph-level rendering hints for a sentence.
type Layout struct {
	IsNewParagraph bool `json:"is_new_paragraph"`
	IndentLevel    int  `json:"indent_level"`
}

// Sentence is an ordered run of tokens in reading order.
type Sentence struct {
	Text   string  `json:"text"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Layout Layout  `json:"layout"`
	Tokens []Token `json:"tokens"`
}

// PageMeta reports the original dimensions of one PDF page. Paired at render
// time with the rendered width to derive the page scale factor.
type PageMeta struct {
	PageIndex int     `json:"page_idx"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// Document is an ordered sequence of sentences plus whatever page metadata
// the source format provides.
type Document struct {
	Sentences  []Sentence `json:"sentences"`
	Pages      []PageMeta `json:"pages,omitempty"`
	RawText    string     `json:"raw_text,omitempty"`
	FileURL    string     `json:"file_url,omitempty"`
	SourceType string     `json:"source_type,omitempty"`
}
