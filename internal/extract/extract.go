// Package extract turns uploaded files into tokenized sentence structures.
// PDF files keep per-word page coordinates for overlay rendering, text-like
// formats go through cleanup and tokenization, and scanned images fall back
// to a flat OCR text buffer.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lexread/lexread/internal/document"
)

// Source type labels reported to clients on upload.
const (
	SourcePDF   = "pdf"
	SourceDOCX  = "docx"
	SourceText  = "text"
	SourceImage = "image"
)

// Result is the parsed form of one uploaded file. Sentences is empty for
// image sources, which only carry RawText.
type Result struct {
	Sentences  []document.Sentence
	Pages      []document.PageMeta
	RawText    string
	SourceType string
}

// Extractor dispatches uploads by file extension. The pdfium engine is
// created lazily on the first PDF so text-only deployments never pay for the
// webassembly runtime.
type Extractor struct {
	pdf          *PDFEngine
	OCRLanguages []string
}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Close() error {
	if e.pdf != nil {
		return e.pdf.Close()
	}
	return nil
}

// Supported reports whether Parse can handle the given filename.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx", ".txt", ".md", ".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".webp":
		return true
	}
	return false
}

func isImageExt(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".webp":
		return true
	}
	return false
}

// Parse extracts and tokenizes one uploaded file.
func (e *Extractor) Parse(filename string, data []byte) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return e.parsePDF(data)
	case ext == ".docx":
		text, err := ExtractDOCX(data)
		if err != nil {
			return nil, err
		}
		return parseText(text, SourceDOCX), nil
	case ext == ".txt" || ext == ".md":
		return parseText(string(data), SourceText), nil
	case isImageExt(ext):
		text, err := ExtractImage(data, e.OCRLanguages...)
		if err != nil {
			return nil, err
		}
		return &Result{RawText: text, SourceType: SourceImage}, nil
	}
	return nil, fmt.Errorf("unsupported file format: %s", ext)
}

// ParseText tokenizes pasted text the same way uploaded text files are.
func ParseText(text string) *Result {
	return parseText(DecodeEscapedNewlines(text), SourceText)
}

func parseText(text, sourceType string) *Result {
	cleaned := CleanText(text)
	cleaned = NormalizeExamLayout(cleaned)
	cleaned = NormalizeSectionParagraphs(cleaned)
	return &Result{
		Sentences:  Tokenize(cleaned),
		SourceType: sourceType,
	}
}

func (e *Extractor) parsePDF(data []byte) (*Result, error) {
	if e.pdf == nil {
		engine, err := NewPDFEngine()
		if err != nil {
			return nil, err
		}
		e.pdf = engine
	}
	text, spans, pages, err := e.pdf.ExtractPDF(data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Sentences:  TokenizeWithMap(text, spans),
		Pages:      pages,
		SourceType: SourcePDF,
	}, nil
}
