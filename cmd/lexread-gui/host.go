package main

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lexread/lexread/internal/document"
	"github.com/lexread/lexread/internal/geometry"
	"github.com/lexread/lexread/internal/protocol"
	"github.com/lexread/lexread/internal/reader"
)

// tokenHit is one rendered structured token and its on-screen rectangle.
type tokenHit struct {
	rect geometry.Rect
	tok  document.Token
	sent document.Sentence
}

// wordHit is one rendered raw-text word rectangle together with the caret a
// pointer inside it resolves to. caret.Fragment.Text is the exact buffer
// line the word sits on, untrimmed, so the line-context strategy can locate
// it inside the raw buffer.
type wordHit struct {
	rect  geometry.Rect
	word  string
	caret reader.Caret
}

// gioHost backs reader.Host with the state of the gio frame: hit rectangles
// recorded during layout, the active drag selection, the document scroll
// offset, and the AI configuration persisted in the user config dir.
//
// The hit registries are rebuilt every frame; interaction handlers run after
// layout within the same frame, so they always see current rectangles.
type gioHost struct {
	configFile string

	vw, vh float64

	tokenHits []tokenHit
	wordHits  []wordHit

	selText   string
	selRect   geometry.Rect
	selActive bool

	scrollY float64

	onDismiss func()

	cfgMu sync.Mutex
	cfg   protocol.AIConfig
}

func newGioHost(configFile string) *gioHost {
	return &gioHost{
		configFile: configFile,
		cfg:        loadHostConfig(configFile),
	}
}

func (h *gioHost) CaretAt(x, y float64) (reader.Caret, bool) {
	for i := len(h.wordHits) - 1; i >= 0; i-- {
		if h.wordHits[i].rect.Contains(x, y) {
			return h.wordHits[i].caret, true
		}
	}
	return reader.Caret{}, false
}

func (h *gioHost) Selection() (string, geometry.Rect, bool) {
	if !h.selActive {
		return "", geometry.Rect{}, false
	}
	return h.selText, h.selRect, true
}

func (h *gioHost) ViewportSize() (float64, float64) { return h.vw, h.vh }

func (h *gioHost) OnDismissGesture(handler func()) { h.onDismiss = handler }

func (h *gioHost) Config() protocol.AIConfig {
	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()
	return h.cfg
}

func (h *gioHost) SetConfig(cfg protocol.AIConfig) {
	h.cfgMu.Lock()
	h.cfg = cfg
	h.cfgMu.Unlock()
	if err := saveHostConfig(h.configFile, cfg); err != nil {
		log.Printf("lexread-gui: save config: %v", err)
	}
}

// beginFrame resets the per-frame hit registries before layout records them
// anew.
func (h *gioHost) beginFrame(vw, vh float64) {
	h.vw, h.vh = vw, vh
	h.tokenHits = h.tokenHits[:0]
	h.wordHits = h.wordHits[:0]
}

func (h *gioHost) addTokenHit(rect geometry.Rect, tok document.Token, sent document.Sentence) {
	h.tokenHits = append(h.tokenHits, tokenHit{rect: rect, tok: tok, sent: sent})
}

func (h *gioHost) addWordHit(rect geometry.Rect, word string, caret reader.Caret) {
	h.wordHits = append(h.wordHits, wordHit{rect: rect, word: word, caret: caret})
}

func (h *gioHost) tokenAt(x, y float64) (tokenHit, bool) {
	for i := len(h.tokenHits) - 1; i >= 0; i-- {
		if h.tokenHits[i].rect.Contains(x, y) {
			return h.tokenHits[i], true
		}
	}
	return tokenHit{}, false
}

func (h *gioHost) setSelection(text string, rect geometry.Rect) {
	h.selText, h.selRect, h.selActive = text, rect, true
}

func (h *gioHost) clearSelection() {
	h.selText, h.selRect, h.selActive = "", geometry.Rect{}, false
}

func (h *gioHost) resetScroll() { h.scrollY = 0 }

func (h *gioHost) dismiss() {
	if h.onDismiss != nil {
		h.onDismiss()
	}
	h.clearSelection()
}

// hostConfigFile is the on-disk shape of the persisted client settings.
type hostConfigFile struct {
	AI struct {
		Provider        string `yaml:"provider,omitempty"`
		APIKey          string `yaml:"api_key,omitempty"`
		BaseURL         string `yaml:"base_url,omitempty"`
		ModelName       string `yaml:"model_name,omitempty"`
		GeminiAPIKey    string `yaml:"gemini_api_key,omitempty"`
		GeminiModelName string `yaml:"gemini_model_name,omitempty"`
	} `yaml:"ai"`
}

func loadHostConfig(path string) protocol.AIConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		return protocol.AIConfig{}
	}
	var f hostConfigFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		log.Printf("lexread-gui: read config %s: %v", path, err)
		return protocol.AIConfig{}
	}
	return protocol.AIConfig{
		Provider:        f.AI.Provider,
		APIKey:          f.AI.APIKey,
		BaseURL:         f.AI.BaseURL,
		ModelName:       f.AI.ModelName,
		GeminiAPIKey:    f.AI.GeminiAPIKey,
		GeminiModelName: f.AI.GeminiModelName,
	}
}

func saveHostConfig(path string, cfg protocol.AIConfig) error {
	var f hostConfigFile
	f.AI.Provider = cfg.Provider
	f.AI.APIKey = cfg.APIKey
	f.AI.BaseURL = cfg.BaseURL
	f.AI.ModelName = cfg.ModelName
	f.AI.GeminiAPIKey = cfg.GeminiAPIKey
	f.AI.GeminiModelName = cfg.GeminiModelName
	data, err := yaml.Marshal(&f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
