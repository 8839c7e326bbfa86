package similarity

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vthunder/daybook/internal/themes"
	"github.com/vthunder/daybook/internal/vault"
)

func date(s string) time.Time {
	d, err := time.Parse(vault.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestJaccardProperties(t *testing.T) {
	a := []string{"career", "anxiety", "goals"}
	b := []string{"career", "goals", "weather"}

	if got, want := Jaccard(a, b), Jaccard(b, a); got != want {
		t.Errorf("Jaccard not symmetric: %f vs %f", got, want)
	}
	if got := Jaccard(a, a); got != 1.0 {
		t.Errorf("Jaccard(A,A) = %f, want 1.0", got)
	}
	if got := Jaccard(a, nil); got != 0 {
		t.Errorf("Jaccard with empty set = %f, want 0", got)
	}
	if got := Jaccard(nil, nil); got != 0 {
		t.Errorf("Jaccard(empty,empty) = %f, want 0", got)
	}
}

func TestJaccardThresholdScenario(t *testing.T) {
	// 3 shared of 5 combined distinct themes = 60% overlap
	a := []string{"career", "anxiety", "goals", "weather"}
	b := []string{"career", "anxiety", "goals", "coffee"}
	if got := Jaccard(a, b); got != 0.6 {
		t.Errorf("Jaccard = %f, want 0.6", got)
	}
	if !(Jaccard(a, b) > 0.08) {
		t.Errorf("60%% overlap must qualify at the 8%% threshold")
	}

	// 0 shared of 10 combined does not qualify
	c := []string{"birds", "marsh", "dawn", "migration", "wetlands"}
	d := []string{"career", "anxiety", "goals", "coffee", "weather"}
	if got := Jaccard(c, d); got != 0 {
		t.Errorf("Disjoint sets Jaccard = %f, want 0", got)
	}
}

func newTestEngine(t *testing.T) (*Engine, *vault.Vault) {
	t.Helper()
	v := vault.New(t.TempDir())
	return NewEngine(v, themes.Default(), 0.08, 6), v
}

func seedEntries(v *vault.Vault) {
	v.WriteSection(date("2026-03-14"), vault.SectionBrainDump,
		"Career anxiety again today. My career goals feel heavy and the anxiety about those goals will not quiet down before the interview.")
	v.WriteSection(date("2026-03-12"), vault.SectionBrainDump,
		"Spent the evening mapping career goals over coffee. Some anxiety crept in about whether the goals are mine at all.")
	v.WriteSection(date("2026-03-10"), vault.SectionBrainDump,
		"Watched herons stalk the marsh shallows at dawn. Counted wingbeats, sketched reeds, forgot everything else.")
}

func TestLinkEntryCreatesBacklinks(t *testing.T) {
	e, v := newTestEngine(t)
	seedEntries(v)

	report, err := e.LinkEntry(date("2026-03-14"), 30)
	if err != nil {
		t.Fatalf("LinkEntry failed: %v", err)
	}
	if len(report.Edges) != 1 {
		t.Fatalf("Expected 1 qualifying edge, got %d: %+v", len(report.Edges), report.Edges)
	}
	if got := report.Edges[0].B.Format(vault.DateFormat); got != "2026-03-12" {
		t.Errorf("Linked to %s, want 2026-03-12", got)
	}

	entry, _ := v.Read(date("2026-03-14"))
	if !strings.Contains(entry.MemoryLinks, "[[2026-03-12]]") {
		t.Errorf("Backlink marker missing:\n%s", entry.MemoryLinks)
	}
	if strings.Contains(entry.MemoryLinks, "[[2026-03-10]]") {
		t.Errorf("Disjoint entry linked:\n%s", entry.MemoryLinks)
	}

	// Reciprocal side
	other, _ := v.Read(date("2026-03-12"))
	if !strings.Contains(other.MemoryLinks, "[[2026-03-14]]") {
		t.Errorf("Reciprocal backlink missing:\n%s", other.MemoryLinks)
	}
}

func TestLinkEntryIdempotent(t *testing.T) {
	e, v := newTestEngine(t)
	seedEntries(v)

	if _, err := e.LinkEntry(date("2026-03-14"), 30); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	first, _ := os.ReadFile(v.EntryPath(date("2026-03-14")))
	firstOther, _ := os.ReadFile(v.EntryPath(date("2026-03-12")))

	report, err := e.LinkEntry(date("2026-03-14"), 30)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(report.Added) != 0 {
		t.Errorf("Second run added markers: %v", report.Added)
	}
	if len(report.Skipped) != 1 {
		t.Errorf("Expected existing link to be skipped, got %v", report.Skipped)
	}

	second, _ := os.ReadFile(v.EntryPath(date("2026-03-14")))
	secondOther, _ := os.ReadFile(v.EntryPath(date("2026-03-12")))
	if string(first) != string(second) {
		t.Errorf("Re-running changed the entry:\n%s\nvs\n%s", first, second)
	}
	if string(firstOther) != string(secondOther) {
		t.Errorf("Re-running changed the partner entry")
	}
	if strings.Count(string(second), "[[2026-03-12]]") != 1 {
		t.Errorf("Duplicate backlink marker:\n%s", second)
	}
}

func TestSparseEntryNotCompared(t *testing.T) {
	e, v := newTestEngine(t)
	seedEntries(v)
	v.WriteSection(date("2026-03-13"), vault.SectionBrainDump, "tired")

	report, err := e.LinkEntry(date("2026-03-13"), 30)
	if err != nil {
		t.Fatalf("LinkEntry failed: %v", err)
	}
	if len(report.Edges) != 0 {
		t.Errorf("Sparse entry produced edges: %+v", report.Edges)
	}

	// And sparse entries never appear as partners either
	report, _ = e.LinkEntry(date("2026-03-14"), 30)
	for _, edge := range report.Edges {
		if edge.B.Equal(date("2026-03-13")) {
			t.Errorf("Sparse entry was linked")
		}
	}
}

func TestLinkEntryMissingDate(t *testing.T) {
	e, _ := newTestEngine(t)
	report, err := e.LinkEntry(date("2026-01-01"), 30)
	if err != nil {
		t.Fatalf("Missing entry must not be fatal: %v", err)
	}
	if len(report.Edges) != 0 {
		t.Errorf("Missing entry produced edges")
	}
}

func TestTagsPromoted(t *testing.T) {
	e, v := newTestEngine(t)
	seedEntries(v)

	report, err := e.LinkEntry(date("2026-03-14"), 30)
	if err != nil {
		t.Fatalf("LinkEntry failed: %v", err)
	}
	if len(report.Tags) == 0 {
		t.Fatalf("No tags promoted")
	}
	if len(report.Tags) > tagCap {
		t.Errorf("Tag count %d exceeds cap", len(report.Tags))
	}
	entry, _ := v.Read(date("2026-03-14"))
	for _, tag := range report.Tags {
		if !strings.Contains(entry.MemoryLinks, tag) {
			t.Errorf("Tag %q not persisted:\n%s", tag, entry.MemoryLinks)
		}
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	// Same texts in fresh vaults always produce the same qualifying set
	var signatures []string
	for i := 0; i < 3; i++ {
		e, v := newTestEngine(t)
		seedEntries(v)
		report, err := e.LinkEntry(date("2026-03-14"), 30)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		var sig []string
		for _, edge := range report.Edges {
			sig = append(sig, edge.B.Format(vault.DateFormat))
		}
		signatures = append(signatures, strings.Join(sig, ","))
	}
	if signatures[0] != signatures[1] || signatures[1] != signatures[2] {
		t.Errorf("Qualifying set varies across runs: %v", signatures)
	}
}
