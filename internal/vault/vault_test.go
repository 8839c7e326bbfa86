package vault

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func date(s string) time.Time {
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestWriteAndReadSections(t *testing.T) {
	v := New(t.TempDir())
	d := date("2026-03-14")

	if err := v.WriteSection(d, SectionBrainDump, "Thought a lot about career goals today."); err != nil {
		t.Fatalf("WriteSection failed: %v", err)
	}
	if err := v.WriteSection(d, SectionReflections, "**1. What felt meaningful?**"); err != nil {
		t.Fatalf("WriteSection failed: %v", err)
	}

	entry, err := v.Read(d)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if entry.BrainDump != "Thought a lot about career goals today." {
		t.Errorf("Unexpected brain dump: %q", entry.BrainDump)
	}
	if entry.Reflections != "**1. What felt meaningful?**" {
		t.Errorf("Unexpected reflections: %q", entry.Reflections)
	}
	if entry.MemoryLinks != "" {
		t.Errorf("Expected empty memory links, got %q", entry.MemoryLinks)
	}
}

func TestWriteSectionPreservesOthers(t *testing.T) {
	v := New(t.TempDir())
	d := date("2026-03-14")

	v.WriteSection(d, SectionBrainDump, "original writing")
	v.WriteSection(d, SectionMemoryLinks, "**Temporal connections:** [[2026-03-10]]")

	// Rewriting one section must not disturb the others
	if err := v.WriteSection(d, SectionMemoryLinks, "**Temporal connections:** [[2026-03-10]]"); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	entry, err := v.Read(d)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if entry.BrainDump != "original writing" {
		t.Errorf("Brain dump corrupted: %q", entry.BrainDump)
	}
	if entry.MemoryLinks != "**Temporal connections:** [[2026-03-10]]" {
		t.Errorf("Memory links corrupted: %q", entry.MemoryLinks)
	}
}

func TestIdempotentRewrite(t *testing.T) {
	v := New(t.TempDir())
	d := date("2026-03-14")

	v.WriteSection(d, SectionBrainDump, "same content")
	first, err := os.ReadFile(v.EntryPath(d))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	v.WriteSection(d, SectionBrainDump, "same content")
	second, _ := os.ReadFile(v.EntryPath(d))

	if string(first) != string(second) {
		t.Errorf("Re-writing identical content changed the file:\n%s\nvs\n%s", first, second)
	}
}

func TestReadNotFound(t *testing.T) {
	v := New(t.TempDir())
	_, err := v.Read(date("2026-01-01"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListDatesInRange(t *testing.T) {
	v := New(t.TempDir())

	for _, s := range []string{"2026-03-10", "2026-03-12", "2026-03-14", "2026-02-01"} {
		v.WriteSection(date(s), SectionBrainDump, "content for "+s)
	}
	// Non-entry files are ignored
	os.WriteFile(v.Path()+"/notes.md", []byte("not an entry"), 0644)
	os.WriteFile(v.Path()+"/.2026-03-13.md.swp", []byte("junk"), 0644)

	dates, err := v.ListDatesInRange(date("2026-03-01"), date("2026-03-31"))
	if err != nil {
		t.Fatalf("ListDatesInRange failed: %v", err)
	}
	if len(dates) != 3 {
		t.Fatalf("Expected 3 dates, got %d", len(dates))
	}
	// Ordered oldest first
	for i, want := range []string{"2026-03-10", "2026-03-12", "2026-03-14"} {
		if got := dates[i].Format(DateFormat); got != want {
			t.Errorf("dates[%d] = %s, want %s", i, got, want)
		}
	}
}

func TestRecentDates(t *testing.T) {
	v := New(t.TempDir())
	for _, s := range []string{"2026-03-10", "2026-03-12", "2026-03-14", "2026-03-20"} {
		v.WriteSection(date(s), SectionBrainDump, "content")
	}

	recent, err := v.RecentDates(date("2026-03-15"), 2)
	if err != nil {
		t.Fatalf("RecentDates failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 dates, got %d", len(recent))
	}
	if recent[0].Format(DateFormat) != "2026-03-14" || recent[1].Format(DateFormat) != "2026-03-12" {
		t.Errorf("Unexpected recent dates: %v", recent)
	}
}

func TestRenderHasTitle(t *testing.T) {
	v := New(t.TempDir())
	d := date("2026-03-14") // a Saturday
	v.WriteSection(d, SectionBrainDump, "x")

	data, _ := os.ReadFile(v.EntryPath(d))
	if !strings.HasPrefix(string(data), "# Saturday, March 14, 2026") {
		t.Errorf("Missing or wrong title line:\n%s", data)
	}
}
