// Package ai calls the configured language model provider for word glosses
// and translations. All providers except Gemini are reached through the
// OpenAI-compatible chat completion API.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexread/lexread/internal/protocol"
)

// Service is one configured model endpoint.
type Service interface {
	// ExplainWord returns the in-context Chinese meaning of word and a
	// one-sentence explanation.
	ExplainWord(ctx context.Context, word, sentence string) (meaning, explanation string, err error)
	// TranslateText returns the Chinese translation of text.
	TranslateText(ctx context.Context, text string) (string, error)
	// Probe performs a minimal completion to verify the configuration.
	Probe(ctx context.Context) error
}

// New builds a Service for the given effective configuration.
func New(cfg protocol.AIConfig) (Service, error) {
	if cfg.Provider == protocol.ProviderGemini {
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini_api_key is missing")
		}
		model := cfg.GeminiModelName
		if model == "" {
			model = "gemini-1.5-flash"
		}
		return newGeminiService(cfg.GeminiAPIKey, model), nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai_api_key is missing")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("ai_model_name is missing")
	}
	return newOpenAIService(cfg.APIKey, cfg.BaseURL, cfg.ModelName), nil
}

// splitExplain extracts (meaning, explanation) from the first two non-blank
// lines of a model reply. A single-line reply serves as both.
func splitExplain(content string) (string, string, error) {
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		if s := strings.TrimSpace(l); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return "", "", fmt.Errorf("empty model reply")
	}
	if len(lines) == 1 {
		return lines[0], lines[0], nil
	}
	return lines[0], lines[1], nil
}
