package reader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lexread/lexread/internal/document"
	"github.com/lexread/lexread/internal/geometry"
	"github.com/lexread/lexread/internal/protocol"
)

type fakeBackend struct {
	mu             sync.Mutex
	explainCalls   int
	translateCalls int
	explainErr     error
	translateErr   error
	gate           chan struct{} // when set, explain blocks until closed
	started        chan struct{} // when set, signaled as each explain call enters
}

func (b *fakeBackend) ExplainToken(ctx context.Context, req protocol.ExplainRequest) (protocol.ExplainResponse, error) {
	b.mu.Lock()
	b.explainCalls++
	gate := b.gate
	b.mu.Unlock()
	if b.started != nil {
		b.started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if b.explainErr != nil {
		return protocol.ExplainResponse{}, b.explainErr
	}
	return protocol.ExplainResponse{
		Word:          req.Word,
		MeaningZH:     "释义:" + req.Word,
		ExplanationZH: "语境解释",
		Confidence:    0.95,
	}, nil
}

func (b *fakeBackend) TranslateText(ctx context.Context, req protocol.TranslateRequest) (protocol.TranslateResponse, error) {
	b.mu.Lock()
	b.translateCalls++
	b.mu.Unlock()
	if b.translateErr != nil {
		return protocol.TranslateResponse{}, b.translateErr
	}
	return protocol.TranslateResponse{TranslationZH: "译文"}, nil
}

func (b *fakeBackend) calls() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.explainCalls, b.translateCalls
}

// waitStarted blocks until the backend has entered an explain call, so call
// counts can be asserted without racing the request goroutine.
func waitStarted(t *testing.T, b *fakeBackend) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the backend call to start")
	}
}

func flushOne(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case fn := <-c.updates:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a lookup completion")
	}
}

var testSentence = document.Sentence{
	Text: "I run fast.",
	Tokens: []document.Token{
		{ID: "sent-0-token-0", Text: "I", HasTrailingSpace: true},
		{ID: "sent-0-token-1", Text: "run", HasTrailingSpace: true},
		{ID: "sent-0-token-2", Text: "fast", HasTrailingSpace: false},
	},
}

func TestExplainCacheIsIdempotent(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{}
	c := NewController(host, backend)

	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100)
	flushOne(t, c)
	if c.popups.Word == nil || c.popups.Word.Pending() {
		t.Fatalf("word popup should be shown after completion")
	}

	// Second identical lookup: served from cache, no new backend call.
	c.ClickToken(testSentence.Tokens[1], testSentence, 200, 200)
	if c.popups.Word == nil || c.popups.Word.Pending() {
		t.Fatalf("cache hit should show immediately")
	}
	if n, _ := backend.calls(); n != 1 {
		t.Fatalf("expected exactly one backend call, got %d", n)
	}
}

func TestExplainConfigSensitivity(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{}
	c := NewController(host, backend)

	host.cfg = protocol.AIConfig{Provider: "openai", ModelName: "gpt-4o-mini"}
	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100)
	flushOne(t, c)

	host.cfg = protocol.AIConfig{Provider: "deepseek", ModelName: "deepseek-chat"}
	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100)
	if !c.popups.Word.Pending() {
		t.Fatalf("a different config must miss the cache")
	}
	flushOne(t, c)
	if n, _ := backend.calls(); n != 2 {
		t.Fatalf("expected two backend calls across configs, got %d", n)
	}
}

func TestExplainInFlightDedup(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{gate: make(chan struct{}), started: make(chan struct{}, 2)}
	c := NewController(host, backend)

	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100)
	waitStarted(t, backend)
	// Re-click while the first request is still in flight. The in-flight
	// marker is set synchronously, so no second call can start.
	c.ClickToken(testSentence.Tokens[1], testSentence, 120, 120)

	if n, _ := backend.calls(); n != 1 {
		t.Fatalf("in-flight key must suppress the duplicate call, got %d calls", n)
	}

	close(backend.gate)
	flushOne(t, c)
	if c.popups.Word == nil || c.popups.Word.Pending() {
		t.Fatalf("the outstanding completion should land on the re-opened popup")
	}
	if c.lookups.InFlight(c.popups.Word.Key) {
		t.Fatalf("in-flight marker must be released after completion")
	}
}

func TestExplainFailureClosesPendingPopup(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{explainErr: errors.New("upstream exploded"), started: make(chan struct{}, 2)}
	c := NewController(host, backend)

	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100)
	waitStarted(t, backend)
	key := c.popups.Word.Key
	flushOne(t, c)

	if c.popups.Word != nil {
		t.Fatalf("a failed gloss lookup must close the pending popup")
	}
	if c.lookups.InFlight(key) {
		t.Fatalf("failure must still release the in-flight marker")
	}

	// The key is retriable after the failure.
	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100)
	waitStarted(t, backend)
	if n, _ := backend.calls(); n != 2 {
		t.Fatalf("expected a retry to issue a new call, got %d", n)
	}
}

func TestStaleExplainUpdatesCacheOnly(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{}
	c := NewController(host, backend)

	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100) // "run", slow
	c.ClickToken(testSentence.Tokens[2], testSentence, 150, 100) // "fast", supersedes

	// Drain both completions in arrival order; whichever belongs to "run"
	// must not clobber the "fast" popup.
	flushOne(t, c)
	flushOne(t, c)

	if c.popups.Word == nil || c.popups.Word.Word != "fast" {
		t.Fatalf("most recent lookup must win, got %+v", c.popups.Word)
	}
	staleKey := protocol.CacheKey("explain", "run", testSentence.Text, protocol.AIConfig{})
	if _, ok := c.lookups.Gloss(staleKey); !ok {
		t.Fatalf("the superseded response must still be applied to the cache")
	}
}

func TestTranslateFlowAndMutualExclusion(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{}
	c := NewController(host, backend)

	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100)
	flushOne(t, c)

	host.selOK = true
	host.selText = "I run fast."
	host.selRect = geometry.Rect{X: 300, Y: 200, Width: 120, Height: 18}
	c.FinishSelection()

	if c.popups.Word != nil {
		t.Fatalf("opening the translation popup must close the word popup")
	}
	if c.popups.Translation == nil || c.popups.Translation.Body != PendingTranslationText {
		t.Fatalf("translation popup should be pending")
	}
	flushOne(t, c)
	if c.popups.Translation.Body != "译文" {
		t.Fatalf("expected translation body, got %q", c.popups.Translation.Body)
	}

	// Cached on the second identical selection.
	c.FinishSelection()
	if c.popups.Translation.Pending() {
		t.Fatalf("second identical selection should hit the cache")
	}
	if _, n := backend.calls(); n != 1 {
		t.Fatalf("expected one translate call, got %d", n)
	}
}

func TestTranslateFailureKeepsPopupOpen(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{translateErr: errors.New("model unavailable")}
	c := NewController(host, backend)

	host.selOK = true
	host.selText = "Some passage."
	c.FinishSelection()
	flushOne(t, c)

	p := c.popups.Translation
	if p == nil {
		t.Fatalf("translation popup must stay open on failure")
	}
	if p.Body != "Translation failed: model unavailable" {
		t.Fatalf("failure message must embed the error, got %q", p.Body)
	}
}

func TestEmptySelectionIsNoOp(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{}
	c := NewController(host, backend)

	host.selOK = true
	host.selText = "   "
	c.FinishSelection()
	if c.popups.Translation != nil {
		t.Fatalf("whitespace-only selection must not open a popup")
	}
	if _, n := backend.calls(); n != 0 {
		t.Fatalf("no backend call expected")
	}
}

func TestDismissGestureClosesEverything(t *testing.T) {
	host := newFakeHost()
	backend := &fakeBackend{}
	c := NewController(host, backend)

	c.ClickToken(testSentence.Tokens[1], testSentence, 100, 100)
	if host.dismiss == nil {
		t.Fatalf("controller must register the dismiss gesture handler")
	}
	host.dismiss()
	if c.popups.Word != nil || c.popups.Translation != nil {
		t.Fatalf("dismiss gesture must close all popups")
	}
	// Late completion after dismissal only updates the cache.
	flushOne(t, c)
	if c.popups.Word != nil {
		t.Fatalf("a completion must not reopen a dismissed popup")
	}
}

func TestResolutionFailureOpensNothing(t *testing.T) {
	host := newFakeHost() // caretOK is false
	backend := &fakeBackend{}
	c := NewController(host, backend)

	c.ClickFlowedText(10, 10)
	c.ClickRawText(10, 10, "buffer")
	if c.popups.Word != nil {
		t.Fatalf("failed resolution must be a silent no-op")
	}
	if n, _ := backend.calls(); n != 0 {
		t.Fatalf("no backend call expected")
	}
}
