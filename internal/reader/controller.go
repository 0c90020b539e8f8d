package reader

import (
	"context"
	"strings"

	"github.com/lexread/lexread/internal/document"
	"github.com/lexread/lexread/internal/geometry"
	"github.com/lexread/lexread/internal/protocol"
)

// Backend is the asynchronous lookup surface of the reader service.
type Backend interface {
	ExplainToken(ctx context.Context, req protocol.ExplainRequest) (protocol.ExplainResponse, error)
	TranslateText(ctx context.Context, req protocol.TranslateRequest) (protocol.TranslateResponse, error)
}

// Controller is the interaction dispatcher: it wires pointer events to the
// resolution strategies, the lookup engine, and the popup layout engine.
//
// All state mutation happens on the UI thread. Backend calls run in their
// own goroutines and deliver completions through the updates queue, which
// the host drains via Flush on its frame loop. A completion carries the ID
// of the popup instance that spawned it; a stale completion still populates
// the cache but never reopens or clobbers a popup it no longer owns.
type Controller struct {
	host    Host
	backend Backend
	lookups *Lookups
	popups  *Popups

	updates  chan func()
	onUpdate func()
}

func NewController(host Host, backend Backend) *Controller {
	c := &Controller{
		host:    host,
		backend: backend,
		lookups: NewLookups(),
		popups:  NewPopups(),
		updates: make(chan func(), 64),
	}
	host.OnDismissGesture(c.DismissAll)
	return c
}

// Popups exposes the popup state for rendering.
func (c *Controller) Popups() *Popups { return c.popups }

// Lookups exposes the cache/dedup engine, mainly for tests and diagnostics.
func (c *Controller) Lookups() *Lookups { return c.lookups }

// SetOnUpdate registers a hook invoked whenever a completion is queued, so
// the host can request a redraw.
func (c *Controller) SetOnUpdate(fn func()) { c.onUpdate = fn }

// Flush runs queued lookup completions on the caller's (UI) thread. Call it
// once per frame.
func (c *Controller) Flush() {
	for {
		select {
		case fn := <-c.updates:
			fn()
		default:
			return
		}
	}
}

// ClickToken handles a click on a structured token at the given pointer
// coordinate.
func (c *Controller) ClickToken(tok document.Token, sent document.Sentence, x, y float64) {
	res, ok := ResolveToken(tok, sent)
	if !ok {
		return
	}
	c.requestGloss(res, tok.ID, x, y)
}

// ClickFlowedText handles a click inside flowed text (PDF text layer or OCR
// text rendered as paragraphs), using the caret strategy.
func (c *Controller) ClickFlowedText(x, y float64) {
	res, ok := ResolveCaret(c.host, x, y)
	if !ok {
		return
	}
	c.requestGloss(res, "", x, y)
}

// ClickRawText handles a click inside the flat raw-text pane, using the
// line-context strategy against the full raw buffer.
func (c *Controller) ClickRawText(x, y float64, buffer string) {
	res, ok := ResolveLine(c.host, x, y, buffer)
	if !ok {
		return
	}
	c.requestGloss(res, "", x, y)
}

// FinishSelection handles mouse-up after a drag selection: a non-empty
// selection opens the translation popup anchored to the selection bounds.
func (c *Controller) FinishSelection() {
	text, rect, ok := c.host.Selection()
	if !ok {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.requestTranslation(text, rect)
}

// DismissAll closes both popups (global double-click gesture).
func (c *Controller) DismissAll() {
	c.popups.CloseAll()
}

func (c *Controller) requestGloss(res Resolution, tokenID string, x, y float64) {
	cfg := c.host.Config()
	key := protocol.CacheKey("explain", res.Word, res.Context, cfg)
	vw, vh := c.host.ViewportSize()
	popup := c.popups.OpenWord(res.Word, x, y, vw, vh)
	popup.Key = key

	if cached, ok := c.lookups.Gloss(key); ok {
		c.popups.ShowWord(cached)
		return
	}
	if !c.lookups.Begin(key) {
		// Same key already in flight; the pending indicator stands and
		// the outstanding completion will land on this popup by key.
		return
	}

	req := protocol.ExplainRequest{TokenID: tokenID, Word: res.Word, Sentence: res.Context, AIConfig: cfg}
	go func() {
		resp, err := c.backend.ExplainToken(context.Background(), req)
		c.post(func() {
			c.lookups.End(key)
			owned := c.popups.Word != nil && c.popups.Word.Key == key && c.popups.Word.Pending()
			if err != nil {
				// A hanging pending gloss is worse than no popup.
				if owned {
					c.popups.CloseWord()
				}
				return
			}
			c.lookups.StoreGloss(key, resp)
			if owned {
				c.popups.ShowWord(resp)
			}
		})
	}()
}

func (c *Controller) requestTranslation(text string, rect geometry.Rect) {
	cfg := c.host.Config()
	key := protocol.CacheKey("translate", "", text, cfg)
	vw, vh := c.host.ViewportSize()
	popup := c.popups.OpenTranslation(text, rect, vw, vh)
	popup.Key = key

	if cached, ok := c.lookups.Translation(key); ok {
		c.popups.ShowTranslation(cached)
		return
	}
	if !c.lookups.Begin(key) {
		return
	}

	req := protocol.TranslateRequest{Text: text, AIConfig: cfg}
	go func() {
		resp, err := c.backend.TranslateText(context.Background(), req)
		c.post(func() {
			c.lookups.End(key)
			owned := c.popups.Translation != nil && c.popups.Translation.Key == key && c.popups.Translation.Pending()
			if err != nil {
				// The popup stays open so the selection remains
				// visible for a retry.
				if owned {
					c.popups.FailTranslation(err.Error())
				}
				return
			}
			c.lookups.StoreTranslation(key, resp.TranslationZH)
			if owned {
				c.popups.ShowTranslation(resp.TranslationZH)
			}
		})
	}()
}

func (c *Controller) post(fn func()) {
	c.updates <- fn
	if c.onUpdate != nil {
		c.onUpdate()
	}
}
