package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	if err := InitDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUpsertSource(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if err := UpsertSource(db, 1, "/tmp/personal"); err != nil {
		t.Fatalf("upsert source: %v", err)
	}
	if err := UpsertSource(db, 1, "/tmp/moved"); err != nil {
		t.Fatalf("upsert source again: %v", err)
	}
	s, err := GetSource(db, 1)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if s.Path != "/tmp/moved" {
		t.Fatalf("expected path /tmp/moved, got %s", s.Path)
	}
	if s.ExportedAt.IsZero() {
		t.Fatalf("expected exported_at to be set")
	}
	if err := UpsertSource(db, 0, "/tmp/x"); err == nil {
		t.Fatalf("expected error for source id 0")
	}
}

func TestUpsertWordAndLookup(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if err := UpsertSource(db, 2, "/tmp/reference"); err != nil {
		t.Fatalf("upsert source: %v", err)
	}
	words := []Word{
		{GUID: "g1", SourceID: 2, Key: "ai", Traditional: "愛", Simplified: "爱", Pinyin: "ài", Definition: "to love"},
		{GUID: "g2", SourceID: 2, Key: "airen", Traditional: "愛人", Simplified: "爱人", Pinyin: "àirén", Definition: "spouse"},
		{GUID: "g3", SourceID: 2, Key: "nihao", Traditional: "你好", Simplified: "你好", Pinyin: "nǐhǎo", Definition: "hello"},
	}
	for _, w := range words {
		if err := UpsertWord(db, w); err != nil {
			t.Fatalf("upsert word: %v", err)
		}
	}
	// Upsert again to test update via guid conflict
	words[0].Definition = "love"
	if err := UpsertWord(db, words[0]); err != nil {
		t.Fatalf("upsert word 2: %v", err)
	}

	n, err := CountWords(db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 words, got %d", n)
	}

	got, err := LookupWords(db, "ai")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 words, got %d", len(got))
	}
	if got[0].Definition != "love" || got[1].Traditional != "愛人" {
		t.Fatalf("unexpected lookup result %+v", got)
	}

	got, err = LookupWords(db, "")
	if err != nil || got != nil {
		t.Fatalf("expected nothing for empty prefix, got %v, %v", got, err)
	}
}

func TestWordsBySource(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	for id, path := range map[int64]string{1: "/tmp/personal", 2: "/tmp/reference"} {
		if err := UpsertSource(db, id, path); err != nil {
			t.Fatalf("upsert source: %v", err)
		}
	}
	if err := UpsertWord(db, Word{GUID: "p1", SourceID: 1, Key: "ai", Traditional: "哀", Simplified: "哀", Pinyin: "āi"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := UpsertWord(db, Word{GUID: "r1", SourceID: 2, Key: "ai", Traditional: "愛", Simplified: "爱", Pinyin: "ài"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	words, err := GetWordsBySource(db, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(words) != 1 || words[0].GUID != "p1" {
		t.Fatalf("expected only p1, got %+v", words)
	}

	removed, err := DeleteWordsBySource(db, 2)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed row, got %d", removed)
	}
	n, _ := CountWords(db)
	if n != 1 {
		t.Fatalf("expected 1 word left, got %d", n)
	}
}

func TestUpsertWordValidation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if err := UpsertWord(db, Word{SourceID: 1, Key: "ai"}); err == nil {
		t.Fatalf("expected error for empty guid")
	}
	if err := UpsertWord(db, Word{GUID: "x", Key: "ai"}); err == nil {
		t.Fatalf("expected error for missing source")
	}
}
