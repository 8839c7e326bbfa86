// Package citation owns the marker grammars shared across the engine:
// the relative "[Day k]" citation the model emits, the permanent
// "[[YYYY-MM-DD]]" backlink marker, and the "#topic-tag" form. Defining
// parser and formatter in one place keeps emission and resolution
// round-trip stable.
package citation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/vault"
)

var (
	dayRefRegex   = regexp.MustCompile(`(?i)\[day (\d+)\]`)
	backlinkRegex = regexp.MustCompile(`\[\[(\d{4}-\d{2}-\d{2})\]\]`)
	tagRegex      = regexp.MustCompile(`#([a-z0-9][a-z0-9-]*)`)
	nonTagChars   = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// FormatDayRef renders the canonical relative citation for position k
func FormatDayRef(k int) string {
	return fmt.Sprintf("[Day %d]", k)
}

// FormatBacklink renders the permanent date-backlink marker. The exact
// textual form is a compatibility contract with the external viewer.
func FormatBacklink(date time.Time) string {
	return "[[" + date.Format(vault.DateFormat) + "]]"
}

// FormatTag renders a normalized term as a topic tag: lowercase,
// punctuation stripped, inner whitespace collapsed to hyphens.
func FormatTag(term string) string {
	t := strings.ToLower(strings.TrimSpace(term))
	t = nonTagChars.ReplaceAllString(t, "")
	t = whitespace.ReplaceAllString(strings.TrimSpace(t), "-")
	if t == "" {
		return ""
	}
	return "#" + t
}

// ParseBacklinks extracts all date-backlink markers from text, in order,
// deduplicated. Markers with impossible dates are ignored.
func ParseBacklinks(text string) []time.Time {
	var dates []time.Time
	seen := make(map[string]bool)
	for _, m := range backlinkRegex.FindAllStringSubmatch(text, -1) {
		if seen[m[1]] {
			continue
		}
		d, err := time.Parse(vault.DateFormat, m[1])
		if err != nil {
			continue
		}
		seen[m[1]] = true
		dates = append(dates, d)
	}
	return dates
}

// ParseTags extracts all topic tags from text, in order, deduplicated
func ParseTags(text string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, m := range tagRegex.FindAllStringSubmatch(text, -1) {
		tag := "#" + m[1]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// Resolver maps relative day citations to the concrete dates of one
// generation call's context window. Position mapping convention:
// Day 1 = earliest date supplied, Day N = most recent. The orchestrator
// numbers its context identically.
type Resolver struct {
	dates []time.Time // oldest first
}

// NewResolver creates a resolver over the ordered context window.
// The dates must be sorted oldest first; they are re-sorted defensively
// so both sides of the convention agree.
func NewResolver(dates []time.Time) *Resolver {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return &Resolver{dates: sorted}
}

// Window returns the ordered context dates
func (r *Resolver) Window() []time.Time {
	return r.dates
}

// Result is the outcome of resolving one generated text
type Result struct {
	Text       string // text with citations replaced by backlink markers
	Resolved   int    // citations successfully resolved
	OutOfRange []int  // day indices outside [1, N], stripped from the text
}

// Resolve scans text for relative day citations and replaces each with the
// permanent backlink marker for the corresponding context date. Citations
// referencing a position outside the window are stripped and reported
// rather than propagated as broken links; resolution itself never fails.
func (r *Resolver) Resolve(text string) Result {
	res := Result{}
	res.Text = dayRefRegex.ReplaceAllStringFunc(text, func(m string) string {
		sub := dayRefRegex.FindStringSubmatch(m)
		k, err := strconv.Atoi(sub[1])
		if err != nil || k < 1 || k > len(r.dates) {
			res.OutOfRange = append(res.OutOfRange, k)
			logging.Warn("citation", "stripped out-of-range citation %s (window size %d)", m, len(r.dates))
			return ""
		}
		res.Resolved++
		return FormatBacklink(r.dates[k-1])
	})
	return res
}
