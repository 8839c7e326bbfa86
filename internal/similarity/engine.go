// Package similarity decides which entries should be cross-linked based on
// thematic overlap of their brain-dump sections.
package similarity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vthunder/daybook/internal/citation"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/themes"
	"github.com/vthunder/daybook/internal/vault"
)

// tagCap bounds the persisted topic-tag list per entry so long-running
// journals don't accumulate unbounded tags.
const tagCap = 12

// ThemeCache is an optional cache of extracted theme sets keyed by entry
// content, so unchanged entries are not re-tokenized on every run.
type ThemeCache interface {
	Get(date time.Time, content string) ([]string, bool)
	Put(date time.Time, content string, set []string)
}

// Edge is a qualifying undirected relation between two entry dates
type Edge struct {
	A, B   time.Time
	Score  float64
	Shared []string // overlapping theme terms
}

// Report describes the outcome of one linking run for one entry
type Report struct {
	Date    time.Time
	Edges   []Edge
	Added   []time.Time // backlinks newly written
	Skipped []time.Time // already present, left untouched
	Tags    []string    // persisted tags after the run
}

// Engine computes pairwise entry similarity over a calendar window
type Engine struct {
	vault     *vault.Vault
	extractor *themes.Extractor
	cache     ThemeCache // may be nil

	threshold  float64 // strictly-greater-than qualification
	maxRelated int
}

// NewEngine creates a similarity engine. threshold is the Jaccard score a
// pair must strictly exceed to qualify; brief personal entries share little
// vocabulary, so the default sits low at 0.08.
func NewEngine(v *vault.Vault, e *themes.Extractor, threshold float64, maxRelated int) *Engine {
	return &Engine{
		vault:      v,
		extractor:  e,
		threshold:  threshold,
		maxRelated: maxRelated,
	}
}

// SetCache attaches a theme cache
func (e *Engine) SetCache(c ThemeCache) {
	e.cache = c
}

// Jaccard computes |intersection| / |union| of two term sets.
// Symmetric; 1.0 for identical non-empty sets; 0 when either is empty.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// shared returns the sorted intersection of two term sets
func shared(a, b []string) []string {
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}
	var out []string
	seen := make(map[string]bool)
	for _, t := range a {
		if setB[t] && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// themesFor extracts (or recalls) the theme set for one entry's writing
func (e *Engine) themesFor(date time.Time, brainDump string) []string {
	if e.cache != nil {
		if set, ok := e.cache.Get(date, brainDump); ok {
			return set
		}
	}
	set := e.extractor.Themes(brainDump)
	if e.cache != nil {
		e.cache.Put(date, brainDump, set)
	}
	return set
}

// LinkEntry links one entry against the window of windowDays calendar days
// ending at its date. Qualifying partners get a backlink on both sides.
// Re-running with unchanged text is a no-op: existing markers are checked
// before anything is appended.
func (e *Engine) LinkEntry(date time.Time, windowDays int) (*Report, error) {
	entry, err := e.vault.Read(date)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			// Nothing to link is a normal outcome, not a fault
			return &Report{Date: date}, nil
		}
		return nil, err
	}

	target := e.themesFor(date, entry.BrainDump)
	report := &Report{Date: date}
	if len(target) == 0 {
		logging.Debug("similarity", "entry %s below content threshold, skipping", date.Format(vault.DateFormat))
		return report, nil
	}

	start := date.AddDate(0, 0, -windowDays)
	dates, err := e.vault.ListDatesInRange(start, date)
	if err != nil {
		return nil, err
	}

	for _, other := range dates {
		if other.Equal(date) {
			continue
		}
		otherEntry, err := e.vault.Read(other)
		if err != nil {
			continue
		}
		otherThemes := e.themesFor(other, otherEntry.BrainDump)
		if len(otherThemes) == 0 {
			continue
		}
		score := Jaccard(target, otherThemes)
		if score > e.threshold {
			report.Edges = append(report.Edges, Edge{
				A: date, B: other, Score: score, Shared: shared(target, otherThemes),
			})
		}
	}

	// Deterministic regardless of scan order: best score first, then date
	sort.Slice(report.Edges, func(i, j int) bool {
		if report.Edges[i].Score != report.Edges[j].Score {
			return report.Edges[i].Score > report.Edges[j].Score
		}
		return report.Edges[i].B.Before(report.Edges[j].B)
	})
	if len(report.Edges) > e.maxRelated {
		report.Edges = report.Edges[:e.maxRelated]
	}

	return report, e.applyEdges(report, entry)
}

// applyEdges persists the qualifying edges: a backlink on each side of
// every pair plus promoted topic tags, all idempotently.
func (e *Engine) applyEdges(report *Report, entry *vault.Entry) error {
	existing := citation.ParseBacklinks(entry.MemoryLinks)
	present := make(map[string]bool, len(existing))
	for _, d := range existing {
		present[d.Format(vault.DateFormat)] = true
	}

	var sharedTerms []string
	var partners []time.Time
	for _, edge := range report.Edges {
		partners = append(partners, edge.B)
		sharedTerms = append(sharedTerms, edge.Shared...)
		if present[edge.B.Format(vault.DateFormat)] {
			report.Skipped = append(report.Skipped, edge.B)
		} else {
			report.Added = append(report.Added, edge.B)
		}
	}

	ownTags := e.extractor.Tags(entry.BrainDump)
	tags := promoteTags(citation.ParseTags(entry.MemoryLinks), ownTags, sharedTerms)
	report.Tags = tags

	links := mergeBacklinks(existing, partners)
	if err := e.vault.WriteSection(report.Date, vault.SectionMemoryLinks, RenderLinks(links, tags)); err != nil {
		return fmt.Errorf("failed to write memory links for %s: %w", report.Date.Format(vault.DateFormat), err)
	}

	// Reciprocal side of each edge
	for _, edge := range report.Edges {
		if err := e.appendReciprocal(edge); err != nil {
			return err
		}
	}
	return nil
}

// appendReciprocal adds the backlink and shared-term tags on the partner
// entry, leaving everything else about it alone.
func (e *Engine) appendReciprocal(edge Edge) error {
	other, err := e.vault.Read(edge.B)
	if err != nil {
		return err
	}
	existing := citation.ParseBacklinks(other.MemoryLinks)
	for _, d := range existing {
		if d.Equal(edge.A) {
			// Already linked from this side too; tags were settled then
			return nil
		}
	}
	links := mergeBacklinks(existing, []time.Time{edge.A})
	tags := promoteTags(citation.ParseTags(other.MemoryLinks), nil, edge.Shared)
	return e.vault.WriteSection(edge.B, vault.SectionMemoryLinks, RenderLinks(links, tags))
}

// mergeBacklinks unions existing and new dates, sorted ascending
func mergeBacklinks(existing, added []time.Time) []time.Time {
	seen := make(map[string]bool)
	var out []time.Time
	for _, d := range append(append([]time.Time{}, existing...), added...) {
		key := d.Format(vault.DateFormat)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// promoteTags merges existing tags, the entry's own promoted tags and
// shared-overlap terms, deduplicated in that order and capped.
func promoteTags(existing, own []string, sharedTerms []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tag string) {
		if tag == "" || seen[tag] || len(out) >= tagCap {
			return
		}
		seen[tag] = true
		out = append(out, tag)
	}
	for _, t := range existing {
		add(t)
	}
	for _, t := range own {
		add(t)
	}
	for _, term := range sharedTerms {
		add(citation.FormatTag(term))
	}
	return out
}

// RenderLinks produces the Memory Links section body. Byte-for-byte
// marker forms are a compatibility contract with the external viewer.
func RenderLinks(links []time.Time, tags []string) string {
	var b strings.Builder
	if len(links) > 0 {
		markers := make([]string, len(links))
		for i, d := range links {
			markers[i] = citation.FormatBacklink(d)
		}
		b.WriteString("**Temporal connections:** " + strings.Join(markers, " • "))
	}
	if len(tags) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("**Topic tags:** " + strings.Join(tags, " "))
	}
	if b.Len() == 0 {
		return "*No connections found yet.*"
	}
	return b.String()
}
