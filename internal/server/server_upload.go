package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lexread/lexread/internal/extract"
	"github.com/lexread/lexread/internal/protocol"
	"github.com/lexread/lexread/internal/server/httpx"
)

func (s *service) uploadFileHandler(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.Uploads.MaxSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteDetail(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		httpx.WriteDetail(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !extract.Supported(filename) || !s.cfg.Accepts(filename) {
		httpx.WriteDetail(w, http.StatusBadRequest, "unsupported file format")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	result, err := s.extractor.Parse(filename, data)
	if err != nil {
		slog.Error("parse upload failed", "file", filename, "error", err)
		httpx.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := protocol.UploadResponse{
		Sentences:  result.Sentences,
		Pages:      result.Pages,
		RawText:    result.RawText,
		SourceType: result.SourceType,
	}

	// PDFs are kept on disk so the client can render pages alongside the
	// token overlay.
	if result.SourceType == extract.SourcePDF {
		stored := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
		path := filepath.Join(s.cfg.Server.UploadsDir, stored)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			slog.Error("persist upload failed", "file", filename, "error", err)
			httpx.WriteDetail(w, http.StatusInternalServerError, "persist upload failed")
			return
		}
		resp.FileURL = "/static/uploads/" + stored
	}

	slog.Info("upload parsed", "file", filename, "source_type", result.SourceType,
		"sentences", len(result.Sentences), "pages", len(result.Pages))
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *service) parseTextHandler(w http.ResponseWriter, r *http.Request) {
	var req protocol.ParseTextRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httpx.WriteDetail(w, http.StatusBadRequest, "text is required")
		return
	}

	result := extract.ParseText(req.Text)
	httpx.WriteJSON(w, http.StatusOK, protocol.UploadResponse{
		Sentences:  result.Sentences,
		SourceType: result.SourceType,
	})
}
