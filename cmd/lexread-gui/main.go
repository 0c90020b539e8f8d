// lexread-gui is the desktop reader: it uploads documents to a lexread
// server, renders the tokenized text, and opens gloss/translation popups on
// pointer interactions.
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/hashicorp/mdns"

	"github.com/lexread/lexread/internal/document"
	"github.com/lexread/lexread/internal/protocol"
	"github.com/lexread/lexread/internal/reader"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

// guiUpdate is one message from a background task to the UI loop. alertText
// raises the blocking modal; errText only colors the status row.
type guiUpdate struct {
	statusText string
	errText    string
	alertText  string
	serverAddr string
	doc        *protocol.UploadResponse
}

type guiApp struct {
	theme *material.Theme
	ops   op.Ops

	window *app.Window
	host   *gioHost

	client     *reader.Client
	controller *reader.Controller

	serverEditor widget.Editor
	fileEditor   widget.Editor
	loadBtn      widget.Clickable
	discoverBtn  widget.Clickable
	settingsBtn  widget.Clickable

	showSettings   bool
	providerEditor widget.Editor
	modelEditor    widget.Editor
	keyEditor      widget.Editor
	baseURLEditor  widget.Editor
	applyBtn       widget.Clickable
	testBtn        widget.Clickable

	updates chan guiUpdate

	view docView

	sentences  []document.Sentence
	rawText    string
	sourceType string

	statusText string
	lastError  string
	alertText  string
	alertBtn   widget.Clickable
	loading    bool
}

func main() {
	go func() {
		w := new(app.Window)
		w.Option(
			app.Title("lexread"),
			app.Size(unit.Dp(1080), unit.Dp(760)),
		)
		if err := run(w); err != nil {
			log.Printf("lexread-gui: %v", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func run(w *app.Window) error {
	host := newGioHost(configPath())
	model := &guiApp{
		theme:      material.NewTheme(),
		window:     w,
		host:       host,
		updates:    make(chan guiUpdate, 64),
		statusText: "No document loaded",
	}
	model.client = reader.NewClient(defaultServerAddr())
	model.controller = reader.NewController(host, model.client)
	model.controller.SetOnUpdate(w.Invalidate)

	model.serverEditor.SingleLine = true
	model.serverEditor.SetText(defaultServerAddr())
	model.fileEditor.SingleLine = true
	model.providerEditor.SingleLine = true
	model.modelEditor.SingleLine = true
	model.keyEditor.SingleLine = true
	model.baseURLEditor.SingleLine = true
	model.fillSettingsEditors()

	for {
		e := w.Event()
		switch e := e.(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&model.ops, e)
			model.controller.Flush()
			model.processUpdates()
			model.processActions(gtx)
			model.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func defaultServerAddr() string {
	if v := strings.TrimSpace(os.Getenv("LEXREAD_GUI_SERVER")); v != "" {
		return normalizeServerAddr(v)
	}
	return "http://127.0.0.1:8000"
}

func normalizeServerAddr(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || strings.TrimSpace(u.Host) == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "lexread-gui.yaml"
	}
	return filepath.Join(dir, "lexread", "config.yaml")
}

func (m *guiApp) processActions(gtx C) {
	for m.alertBtn.Clicked(gtx) {
		m.alertText = ""
	}
	if m.alertText != "" {
		// The modal blocks everything else until acknowledged.
		return
	}
	for m.loadBtn.Clicked(gtx) {
		m.startUpload()
	}
	for m.discoverBtn.Clicked(gtx) {
		m.startDiscovery()
	}
	for m.settingsBtn.Clicked(gtx) {
		m.showSettings = !m.showSettings
		if m.showSettings {
			m.fillSettingsEditors()
		}
	}
	for m.applyBtn.Clicked(gtx) {
		m.applySettings()
	}
	for m.testBtn.Clicked(gtx) {
		m.startConfigTest()
	}
}

func (m *guiApp) startUpload() {
	path := strings.TrimSpace(m.fileEditor.Text())
	if path == "" {
		m.lastError = "enter a file path"
		return
	}
	if m.loading {
		return
	}
	m.loading = true
	m.statusText = "Uploading " + filepath.Base(path)
	m.lastError = ""
	m.refreshClient()

	go func() {
		f, err := os.Open(path)
		if err != nil {
			m.enqueueUpdate(guiUpdate{alertText: "Upload failed: " + err.Error()})
			return
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		resp, err := m.client.UploadFile(ctx, filepath.Base(path), f)
		if err != nil {
			m.enqueueUpdate(guiUpdate{alertText: "Upload failed: " + err.Error()})
			return
		}
		m.enqueueUpdate(guiUpdate{
			statusText: fmt.Sprintf("Loaded %s (%d sentences)", filepath.Base(path), len(resp.Sentences)),
			doc:        &resp,
		})
	}()
}

// startDiscovery browses mdns for an advertised server and adopts the first
// answer.
func (m *guiApp) startDiscovery() {
	m.statusText = "Searching for lexread servers"
	go func() {
		entries := make(chan *mdns.ServiceEntry, 8)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for entry := range entries {
				if entry == nil || entry.AddrV4 == nil {
					continue
				}
				addr := fmt.Sprintf("http://%s:%d", entry.AddrV4, entry.Port)
				m.enqueueUpdate(guiUpdate{serverAddr: addr, statusText: "Found server " + addr})
				return
			}
		}()
		err := mdns.Query(&mdns.QueryParam{
			Service:     "_lexread._tcp",
			Entries:     entries,
			Timeout:     3 * time.Second,
			DisableIPv6: true,
		})
		close(entries)
		<-done
		if err != nil {
			m.enqueueUpdate(guiUpdate{errText: "discovery failed: " + err.Error()})
		}
	}()
}

func (m *guiApp) startConfigTest() {
	m.refreshClient()
	cfg := m.settingsConfig()
	m.statusText = "Testing configuration"
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		res, err := m.client.TestConfig(ctx, cfg)
		switch {
		case err != nil:
			m.enqueueUpdate(guiUpdate{errText: "config test: " + err.Error()})
		case !res.OK:
			m.enqueueUpdate(guiUpdate{errText: "config test: " + res.Detail})
		default:
			m.enqueueUpdate(guiUpdate{statusText: "Configuration OK"})
		}
	}()
}

func (m *guiApp) applySettings() {
	cfg := m.settingsConfig()
	m.host.SetConfig(cfg)
	m.statusText = "Configuration saved"
}

func (m *guiApp) settingsConfig() protocol.AIConfig {
	cfg := protocol.AIConfig{
		Provider:  strings.TrimSpace(m.providerEditor.Text()),
		ModelName: strings.TrimSpace(m.modelEditor.Text()),
		BaseURL:   strings.TrimSpace(m.baseURLEditor.Text()),
	}
	key := strings.TrimSpace(m.keyEditor.Text())
	if cfg.Provider == protocol.ProviderGemini {
		cfg.GeminiAPIKey = key
		cfg.GeminiModelName = cfg.ModelName
		cfg.ModelName = ""
	} else {
		cfg.APIKey = key
	}
	return cfg
}

func (m *guiApp) fillSettingsEditors() {
	cfg := m.host.Config()
	m.providerEditor.SetText(cfg.Provider)
	if cfg.Provider == protocol.ProviderGemini {
		m.modelEditor.SetText(cfg.GeminiModelName)
		m.keyEditor.SetText(cfg.GeminiAPIKey)
	} else {
		m.modelEditor.SetText(cfg.ModelName)
		m.keyEditor.SetText(cfg.APIKey)
	}
	m.baseURLEditor.SetText(cfg.BaseURL)
}

// refreshClient points the backend client at the address in the server
// editor.
func (m *guiApp) refreshClient() {
	addr := normalizeServerAddr(m.serverEditor.Text())
	if addr == "" {
		return
	}
	m.serverEditor.SetText(addr)
	m.client.SetBaseURL(addr)
}

func (m *guiApp) enqueueUpdate(u guiUpdate) {
	select {
	case m.updates <- u:
	default:
	}
	if m.window != nil {
		m.window.Invalidate()
	}
}

func (m *guiApp) processUpdates() {
	for {
		select {
		case u := <-m.updates:
			if strings.TrimSpace(u.statusText) != "" {
				m.statusText = u.statusText
				m.lastError = ""
			}
			if strings.TrimSpace(u.errText) != "" {
				m.lastError = u.errText
				m.loading = false
			}
			if strings.TrimSpace(u.alertText) != "" {
				m.alertText = u.alertText
				m.loading = false
			}
			if u.serverAddr != "" {
				m.serverEditor.SetText(u.serverAddr)
				m.refreshClient()
			}
			if u.doc != nil {
				m.sentences = u.doc.Sentences
				m.rawText = u.doc.RawText
				m.sourceType = u.doc.SourceType
				m.loading = false
				m.host.resetScroll()
				m.controller.DismissAll()
			}
		default:
			return
		}
	}
}
