// Package protocol defines the JSON request/response types exchanged between
// the reader client and the backend service.
package protocol

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/lexread/lexread/internal/document"
)

// ProviderGemini selects the native Gemini API shape of AIConfig; every
// other provider uses the OpenAI-compatible fields.
const ProviderGemini = "gemini"

// AIConfig is the effective AI configuration forwarded with each lookup.
// The zero value means "use the backend default". For OpenAI-compatible
// providers the ai_* fields apply; for Gemini the gemini_* fields apply.
type AIConfig struct {
	Provider        string `json:"ai_provider,omitempty"`
	APIKey          string `json:"ai_api_key,omitempty"`
	BaseURL         string `json:"ai_base_url,omitempty"`
	ModelName       string `json:"ai_model_name,omitempty"`
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`
	GeminiModelName string `json:"gemini_model_name,omitempty"`
}

// IsZero reports whether the config requests the backend default.
func (c AIConfig) IsZero() bool {
	return c == AIConfig{}
}

// Fingerprint returns a deterministic string identity for the config. Two
// lookups agree on a cache entry only when their fingerprints agree, so
// switching providers or models never serves an answer computed under a
// different configuration.
func (c AIConfig) Fingerprint() string {
	if c.IsZero() {
		return "default"
	}
	return strings.Join([]string{
		c.Provider, c.BaseURL, c.ModelName, c.APIKey, c.GeminiModelName, c.GeminiAPIKey,
	}, "|")
}

// CacheKey builds the deterministic request identity for one lookup kind.
// Key equality is the sole criterion for a cache hit.
func CacheKey(kind, word, context string, cfg AIConfig) string {
	h := md5.Sum([]byte(cfg.Fingerprint() + "\x00" + strings.ToLower(strings.TrimSpace(context))))
	key := kind + ":" + hex.EncodeToString(h[:])[:8]
	if word != "" {
		key += ":" + strings.ToLower(word)
	}
	return key
}

// UploadResponse is the body of a successful POST /upload-file.
type UploadResponse struct {
	Sentences  []document.Sentence `json:"sentences"`
	FileURL    string              `json:"file_url,omitempty"`
	Pages      []document.PageMeta `json:"pages,omitempty"`
	RawText    string              `json:"raw_text,omitempty"`
	SourceType string              `json:"source_type,omitempty"`
}

// ErrorResponse is the body of any non-2xx backend response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type ParseTextRequest struct {
	Text string `json:"text"`
}

type ExplainRequest struct {
	TokenID  string `json:"token_id"`
	Word     string `json:"word"`
	Sentence string `json:"sentence"`
	AIConfig
}

// ExplainResponse is the gloss returned for a single token.
type ExplainResponse struct {
	Word          string  `json:"word"`
	MeaningZH     string  `json:"meaning_zh"`
	ExplanationZH string  `json:"explanation_zh"`
	Confidence    float64 `json:"confidence"`
}

type TranslateRequest struct {
	Text string `json:"text"`
	AIConfig
}

type TranslateResponse struct {
	TranslationZH string `json:"translation_zh"`
}

// ProviderPreset describes one selectable AI provider for the settings UI.
type ProviderPreset struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProviderType string `json:"provider_type"`
	BaseURL      string `json:"base_url"`
	ModelName    string `json:"model_name"`
	NeedsAPIKey  bool   `json:"needs_api_key"`
}

type ProvidersResponse struct {
	Providers []ProviderPreset `json:"providers"`
}

type ConfigTestRequest struct {
	AIConfig
}

type ConfigTestResponse struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}
