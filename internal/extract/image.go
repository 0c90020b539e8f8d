package extract

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// ExtractImage runs OCR over an image and returns the recognized raw text.
// The layout of scanned pages is unreliable, so the result is served as a
// flat text buffer rather than positioned words.
func ExtractImage(data []byte, languages ...string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("ocr language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return text, nil
}
