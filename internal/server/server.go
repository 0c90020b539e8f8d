// Package server implements the lexread backend: document upload and
// tokenization, AI-backed word glosses and translations with a sqlite
// cache, and the provider configuration API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lexread/lexread/internal/ai"
	"github.com/lexread/lexread/internal/config"
	"github.com/lexread/lexread/internal/extract"
	"github.com/lexread/lexread/internal/protocol"
	"github.com/lexread/lexread/internal/store"
)

// aiTimeout bounds a single model call.
const aiTimeout = 60 * time.Second

type service struct {
	cfg       config.File
	db        *store.Store
	extractor *extract.Extractor

	// newAI is swapped out by tests.
	newAI func(protocol.AIConfig) (ai.Service, error)

	mu sync.Mutex // guards cfg.AI updates from the config API
}

func Run(ctx context.Context) error {
	cfg, err := config.Load(envOrDefault("LEXREAD_CONFIG", "lexread.yaml"))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Server.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	db, err := store.Open(filepath.Join(cfg.Server.DataDir, "lexread.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	extractor := extract.NewExtractor()
	extractor.OCRLanguages = cfg.OCR.Languages
	defer extractor.Close()

	s := &service{
		cfg:       cfg,
		db:        db,
		extractor: extractor,
		newAI:     ai.New,
	}

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           buildRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var stopMDNS func()
	if cfg.Server.MDNS {
		stopMDNS = startMDNSAdvertiser(cfg.Server.Listen)
		defer stopMDNS()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("lexread server started on %s", cfg.Server.Listen)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen and serve: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		log.Println("lexread server stopped")
		return nil
	case err := <-errCh:
		if err != nil {
			return err
		}
		log.Println("lexread server stopped")
		return nil
	}
}

// effectiveAIConfig resolves the configuration for one request: a non-zero
// request config wins, otherwise the server default applies.
func (s *service) effectiveAIConfig(req protocol.AIConfig) protocol.AIConfig {
	if !req.IsZero() {
		return req
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.AIConfig()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
