package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "clipbook.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCacheRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, hit, err := s.CacheLookup(ctx, "fp1", time.Hour); err != nil || hit {
		t.Fatalf("lookup before store: hit=%v err=%v", hit, err)
	}
	stored := CacheEntry{Path: "/books/a.epub", Title: "Book A", Chapters: 3}
	if err := s.CacheStore(ctx, "fp1", stored); err != nil {
		t.Fatalf("CacheStore: %v", err)
	}
	e, hit, err := s.CacheLookup(ctx, "fp1", time.Hour)
	if err != nil {
		t.Fatalf("CacheLookup: %v", err)
	}
	if !hit || e != stored {
		t.Errorf("hit=%v entry=%+v", hit, e)
	}
}

func TestCacheDisabled(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CacheStore(ctx, "fp1", CacheEntry{Path: "/books/a.epub"}); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := s.CacheLookup(ctx, "fp1", 0); err != nil || hit {
		t.Errorf("ttl 0 must disable the cache: hit=%v err=%v", hit, err)
	}
}

func TestCacheLazyEviction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CacheStore(ctx, "fp1", CacheEntry{Path: "/books/a.epub"}); err != nil {
		t.Fatal(err)
	}
	// Age the entry past any ttl.
	old := time.Now().Add(-48 * time.Hour).UnixMilli()
	if _, err := s.db.Exec(`UPDATE cache SET created_at = ?`, old); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := s.CacheLookup(ctx, "fp1", time.Hour); err != nil || hit {
		t.Fatalf("expired entry must miss: hit=%v err=%v", hit, err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cache`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expired entry not evicted, %d rows remain", count)
	}
}

func TestCacheReplace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CacheStore(ctx, "fp1", CacheEntry{Path: "/books/old.epub"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CacheStore(ctx, "fp1", CacheEntry{Path: "/books/new.epub", Title: "New"}); err != nil {
		t.Fatal(err)
	}
	e, hit, err := s.CacheLookup(ctx, "fp1", time.Hour)
	if err != nil || !hit {
		t.Fatalf("hit=%v err=%v", hit, err)
	}
	if e.Path != "/books/new.epub" || e.Title != "New" {
		t.Errorf("entry = %+v, want replacement", e)
	}
}

func TestClearCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CacheStore(ctx, "fp1", CacheEntry{Path: "/books/a.epub"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if _, hit, _ := s.CacheLookup(ctx, "fp1", time.Hour); hit {
		t.Errorf("cache not cleared")
	}
}

func TestHistoryAppendAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		_, err := s.AppendHistory(ctx, HistoryEntry{
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
			SourceKind: "url",
			Title:      "Book " + string(rune('A'+i)),
			Path:       "/books/x.epub",
			Chapters:   i + 1,
			SizeBytes:  1000,
		})
		if err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	entries, err := s.RecentHistory(ctx, 2)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want limit 2", len(entries))
	}
	if entries[0].Title != "Book C" || entries[1].Title != "Book B" {
		t.Errorf("order = %q, %q, want newest first", entries[0].Title, entries[1].Title)
	}
	if entries[0].ID == "" {
		t.Errorf("id not assigned")
	}
	if entries[0].Chapters != 3 {
		t.Errorf("Chapters = %d", entries[0].Chapters)
	}
}

func TestHistoryEmpty(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.RecentHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentHistory: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}
