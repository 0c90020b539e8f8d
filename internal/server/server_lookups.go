package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lexread/lexread/internal/protocol"
	"github.com/lexread/lexread/internal/server/httpx"
	"github.com/lexread/lexread/internal/store"
)

func (s *service) explainTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req protocol.ExplainRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Word) == "" || strings.TrimSpace(req.Sentence) == "" {
		httpx.WriteDetail(w, http.StatusBadRequest, "word and sentence are required")
		return
	}

	cfg := s.effectiveAIConfig(req.AIConfig)
	key := protocol.CacheKey("explain", req.Word, req.Sentence, cfg)

	cached, err := s.db.GetGloss(r.Context(), key)
	if err != nil {
		slog.Error("gloss cache read failed", "key", key, "error", err)
	}
	if cached != nil {
		httpx.WriteJSON(w, http.StatusOK, protocol.ExplainResponse{
			Word:          req.Word,
			MeaningZH:     cached.MeaningZH,
			ExplanationZH: cached.ExplanationZH,
			Confidence:    0.95,
		})
		return
	}

	svc, err := s.newAI(cfg)
	if err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), aiTimeout)
	defer cancel()
	meaning, explanation, err := svc.ExplainWord(ctx, req.Word, req.Sentence)
	if err != nil {
		slog.Error("explain failed", "word", req.Word, "error", err)
		httpx.WriteDetail(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := s.db.PutGloss(r.Context(), store.Gloss{
		Key:           key,
		Word:          req.Word,
		Sentence:      req.Sentence,
		MeaningZH:     meaning,
		ExplanationZH: explanation,
	}); err != nil {
		slog.Error("gloss cache write failed", "key", key, "error", err)
	}

	httpx.WriteJSON(w, http.StatusOK, protocol.ExplainResponse{
		Word:          req.Word,
		MeaningZH:     meaning,
		ExplanationZH: explanation,
		Confidence:    0.95,
	})
}

func (s *service) translateTextHandler(w http.ResponseWriter, r *http.Request) {
	var req protocol.TranslateRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httpx.WriteDetail(w, http.StatusBadRequest, "text is required")
		return
	}

	cfg := s.effectiveAIConfig(req.AIConfig)
	svc, err := s.newAI(cfg)
	if err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), aiTimeout)
	defer cancel()
	translation, err := svc.TranslateText(ctx, req.Text)
	if err != nil {
		slog.Error("translate failed", "error", err)
		httpx.WriteDetail(w, http.StatusBadGateway, err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, protocol.TranslateResponse{TranslationZH: translation})
}
