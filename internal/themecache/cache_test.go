package themecache

import (
	"testing"
	"time"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	themes := []string{"career", "anxiety", "goal"}

	if _, ok := c.Get(date, "some writing"); ok {
		t.Fatalf("Unexpected hit on empty cache")
	}

	c.Put(date, "some writing", themes)
	got, ok := c.Get(date, "some writing")
	if !ok {
		t.Fatalf("Expected cache hit after Put")
	}
	if len(got) != 3 || got[0] != "career" || got[2] != "goal" {
		t.Errorf("Got %v, want %v", got, themes)
	}
}

func TestContentChangeMisses(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	c.Put(date, "first draft", []string{"marathon"})

	if _, ok := c.Get(date, "second draft"); ok {
		t.Errorf("Edited content must invalidate the cached theme set")
	}
}

func TestPutDropsStaleRows(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	c.Put(date, "first draft", []string{"marathon"})
	c.Put(date, "second draft", []string{"career"})

	if _, ok := c.Get(date, "first draft"); ok {
		t.Errorf("Stale row for superseded content should be gone")
	}
	got, ok := c.Get(date, "second draft")
	if !ok || len(got) != 1 || got[0] != "career" {
		t.Errorf("Latest row missing or wrong: %v (hit=%v)", got, ok)
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c.Put(date, "persistent writing", []string{"heron", "marsh"})
	c.Close()

	c2, err := Open(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer c2.Close()

	got, ok := c2.Get(date, "persistent writing")
	if !ok || len(got) != 2 {
		t.Errorf("Cache did not survive reopen: %v (hit=%v)", got, ok)
	}
}
