package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "lexread.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGlossRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.GetGloss(ctx, "explain:abcd1234:run")
	if err != nil {
		t.Fatalf("get on empty store: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}

	g := Gloss{
		Key:           "explain:abcd1234:run",
		Word:          "run",
		Sentence:      "I run fast.",
		MeaningZH:     "奔跑",
		ExplanationZH: "表示快速移动的动作。",
	}
	if err := s.PutGloss(ctx, g); err != nil {
		t.Fatalf("put gloss: %v", err)
	}

	got, err = s.GetGloss(ctx, g.Key)
	if err != nil {
		t.Fatalf("get gloss: %v", err)
	}
	if got == nil {
		t.Fatal("expected hit")
	}
	if got.MeaningZH != g.MeaningZH || got.ExplanationZH != g.ExplanationZH {
		t.Fatalf("got %+v", got)
	}
}

func TestPutGlossReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g := Gloss{Key: "explain:k:word", Word: "word", Sentence: "s", MeaningZH: "旧", ExplanationZH: "旧解释"}
	if err := s.PutGloss(ctx, g); err != nil {
		t.Fatal(err)
	}
	g.MeaningZH = "新"
	if err := s.PutGloss(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetGloss(ctx, g.Key)
	if err != nil {
		t.Fatal(err)
	}
	if got.MeaningZH != "新" {
		t.Fatalf("replace did not take: %+v", got)
	}
	n, err := s.CountGlosses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestOpenTwiceSameFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexread.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.PutGloss(context.Background(), Gloss{Key: "explain:x:w", Word: "w", Sentence: "s", MeaningZH: "m", ExplanationZH: "e"}); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.GetGloss(context.Background(), "explain:x:w")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.MeaningZH != "m" {
		t.Fatalf("entry lost across reopen: %+v", got)
	}
}
