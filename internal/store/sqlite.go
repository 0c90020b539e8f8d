// Package store persists the server-side gloss cache in sqlite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Gloss is one cached word explanation. Key is the deterministic cache key
// derived from the provider fingerprint, sentence and word.
type Gloss struct {
	Key           string
	Word          string
	Sentence      string
	MeaningZH     string
	ExplanationZH string
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS gloss_cache (
			cache_key TEXT PRIMARY KEY,
			word TEXT NOT NULL,
			sentence TEXT NOT NULL,
			meaning_zh TEXT NOT NULL,
			explanation_zh TEXT NOT NULL,
			created_utc TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_gloss_cache_word ON gloss_cache(word);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// GetGloss returns the cached gloss for key, or nil on a miss.
func (s *Store) GetGloss(ctx context.Context, key string) (*Gloss, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cache_key, word, sentence, meaning_zh, explanation_zh
		 FROM gloss_cache WHERE cache_key = ?`, key)
	var g Gloss
	err := row.Scan(&g.Key, &g.Word, &g.Sentence, &g.MeaningZH, &g.ExplanationZH)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gloss: %w", err)
	}
	return &g, nil
}

// PutGloss stores or replaces the gloss under its key.
func (s *Store) PutGloss(ctx context.Context, g Gloss) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO gloss_cache
		 (cache_key, word, sentence, meaning_zh, explanation_zh, created_utc)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.Key, g.Word, g.Sentence, g.MeaningZH, g.ExplanationZH,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put gloss: %w", err)
	}
	return nil
}

// CountGlosses returns the number of cached entries.
func (s *Store) CountGlosses(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gloss_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count glosses: %w", err)
	}
	return n, nil
}
