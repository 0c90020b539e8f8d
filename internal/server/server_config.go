package server

import (
	"context"
	"net/http"
	"time"

	"github.com/lexread/lexread/internal/ai"
	"github.com/lexread/lexread/internal/protocol"
	"github.com/lexread/lexread/internal/server/httpx"
)

func providersHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, protocol.ProvidersResponse{Providers: ai.Presets})
}

// currentConfigHandler returns the server default AI configuration with the
// API keys masked.
func (s *service) currentConfigHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.cfg.AIConfig()
	s.mu.Unlock()

	cfg.APIKey = maskSecret(cfg.APIKey)
	cfg.GeminiAPIKey = maskSecret(cfg.GeminiAPIKey)
	httpx.WriteJSON(w, http.StatusOK, cfg)
}

// updateConfigHandler replaces the server default AI configuration for the
// running process.
func (s *service) updateConfigHandler(w http.ResponseWriter, r *http.Request) {
	var req protocol.AIConfig
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsZero() {
		httpx.WriteDetail(w, http.StatusBadRequest, "configuration is empty")
		return
	}

	s.mu.Lock()
	s.cfg.AI.Provider = req.Provider
	s.cfg.AI.APIKey = req.APIKey
	s.cfg.AI.BaseURL = req.BaseURL
	s.cfg.AI.ModelName = req.ModelName
	s.cfg.AI.GeminiAPIKey = req.GeminiAPIKey
	s.cfg.AI.GeminiModelName = req.GeminiModelName
	s.mu.Unlock()

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// testConfigHandler probes the supplied configuration with a minimal model
// call and reports the outcome without failing the HTTP request.
func (s *service) testConfigHandler(w http.ResponseWriter, r *http.Request) {
	var req protocol.ConfigTestRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := s.effectiveAIConfig(req.AIConfig)
	svc, err := s.newAI(cfg)
	if err != nil {
		httpx.WriteJSON(w, http.StatusOK, protocol.ConfigTestResponse{OK: false, Detail: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()
	if err := svc.Probe(ctx); err != nil {
		httpx.WriteJSON(w, http.StatusOK, protocol.ConfigTestResponse{OK: false, Detail: err.Error()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, protocol.ConfigTestResponse{OK: true})
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
