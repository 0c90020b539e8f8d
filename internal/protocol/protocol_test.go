package protocol

import (
	"strings"
	"testing"
)

func TestCacheKeyDeterministic(t *testing.T) {
	cfg := AIConfig{Provider: "openai", ModelName: "gpt-4o-mini"}
	a := CacheKey("explain", "Run", "I run fast", cfg)
	b := CacheKey("explain", "run", "I run fast", cfg)
	if a != b {
		t.Fatalf("word case must not change the key: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "explain:") || !strings.HasSuffix(a, ":run") {
		t.Fatalf("unexpected key shape: %q", a)
	}
}

func TestCacheKeyConfigSensitivity(t *testing.T) {
	ctx := "I run fast"
	a := CacheKey("explain", "run", ctx, AIConfig{Provider: "openai", ModelName: "gpt-4o-mini"})
	b := CacheKey("explain", "run", ctx, AIConfig{Provider: "deepseek", ModelName: "deepseek-chat"})
	if a == b {
		t.Fatalf("different configs must never share a cache entry")
	}

	c := CacheKey("explain", "run", ctx, AIConfig{})
	if c == a {
		t.Fatalf("default config must not collide with an explicit one")
	}
}

func TestCacheKeyContextSensitivity(t *testing.T) {
	a := CacheKey("explain", "run", "I run fast", AIConfig{})
	b := CacheKey("explain", "run", "They run a company", AIConfig{})
	if a == b {
		t.Fatalf("different contexts must produce different keys")
	}
	// Context is trimmed and lowercased before hashing.
	if a != CacheKey("explain", "run", "  I RUN FAST  ", AIConfig{}) {
		t.Fatalf("context normalization should be stable")
	}
}

func TestTranslateKeyHasNoWordPart(t *testing.T) {
	k := CacheKey("translate", "", "Some longer passage.", AIConfig{})
	if strings.Count(k, ":") != 1 {
		t.Fatalf("translate keys carry only kind and hash, got %q", k)
	}
}

func TestFingerprintZero(t *testing.T) {
	if (AIConfig{}).Fingerprint() != "default" {
		t.Fatalf("zero config should fingerprint as default")
	}
	if (AIConfig{Provider: ProviderGemini, GeminiModelName: "gemini-1.5-flash"}).IsZero() {
		t.Fatalf("gemini config is not zero")
	}
}
