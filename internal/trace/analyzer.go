// Package trace reports how themes evolve across a rolling day window.
// Purely observational: it never mutates any entry.
package trace

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vthunder/daybook/internal/themes"
	"github.com/vthunder/daybook/internal/vault"
)

// ThemeCache is the optional theme-set cache (see internal/themecache)
type ThemeCache interface {
	Get(date time.Time, content string) ([]string, bool)
	Put(date time.Time, content string, set []string)
}

// DayThemes is one window element: a date and its theme set
type DayThemes struct {
	Date   time.Time
	Themes []string
}

// ThemeCount pairs a theme with the number of window days it appears in
type ThemeCount struct {
	Theme string
	Days  int
}

// PairCount is a co-occurring theme pair and its day count
type PairCount struct {
	A, B string
	Days int
}

// Summary is the derived theme-evolution record for one window
type Summary struct {
	Start, End time.Time
	Days       []DayThemes // ordered oldest first, empty theme sets omitted

	Emerging   []string // absent in the window's first half, present in the second
	Faded      []string // present in the first half, absent in the second
	Persistent []string // present in both halves

	Frequency []ThemeCount // per-theme day counts, most frequent first
	Pairs     []PairCount  // top co-occurring pairs
}

// Analyzer aggregates theme extractor output over a calendar window
type Analyzer struct {
	vault     *vault.Vault
	extractor *themes.Extractor
	cache     ThemeCache // may be nil
}

// NewAnalyzer creates a memory trace analyzer
func NewAnalyzer(v *vault.Vault, e *themes.Extractor) *Analyzer {
	return &Analyzer{vault: v, extractor: e}
}

// SetCache attaches a theme cache
func (a *Analyzer) SetCache(c ThemeCache) {
	a.cache = c
}

func (a *Analyzer) themesFor(date time.Time, brainDump string) []string {
	if a.cache != nil {
		if set, ok := a.cache.Get(date, brainDump); ok {
			return set
		}
	}
	set := a.extractor.Themes(brainDump)
	if a.cache != nil {
		a.cache.Put(date, brainDump, set)
	}
	return set
}

// Analyze builds the theme-evolution summary for the windowDays calendar
// days ending at end. Dates without entries or with sparse writing simply
// contribute nothing.
func (a *Analyzer) Analyze(end time.Time, windowDays int) (*Summary, error) {
	start := end.AddDate(0, 0, -windowDays)
	summary := &Summary{Start: start, End: end}

	dates, err := a.vault.ListDatesInRange(start, end)
	if err != nil {
		return nil, err
	}

	for _, d := range dates {
		entry, err := a.vault.Read(d)
		if err != nil {
			continue
		}
		set := a.themesFor(d, entry.BrainDump)
		if len(set) == 0 {
			continue
		}
		summary.Days = append(summary.Days, DayThemes{Date: d, Themes: set})
	}

	summary.computeDelta()
	summary.computeFrequency()
	summary.computePairs()
	return summary, nil
}

// computeDelta splits the recorded days into first and second half and
// classifies each theme by which halves it appears in. A single recorded
// day counts as both halves.
func (s *Summary) computeDelta() {
	if len(s.Days) == 0 {
		return
	}
	mid := len(s.Days) / 2
	if mid == 0 {
		mid = 1
	}
	first := unionThemes(s.Days[:mid])
	second := unionThemes(s.Days[mid:])
	if len(s.Days) == 1 {
		second = first
	}

	for _, th := range sortedKeys(first) {
		if second[th] {
			s.Persistent = append(s.Persistent, th)
		} else {
			s.Faded = append(s.Faded, th)
		}
	}
	for _, th := range sortedKeys(second) {
		if !first[th] {
			s.Emerging = append(s.Emerging, th)
		}
	}
}

func (s *Summary) computeFrequency() {
	counts := make(map[string]int)
	for _, day := range s.Days {
		for _, th := range day.Themes {
			counts[th]++
		}
	}
	for th, n := range counts {
		s.Frequency = append(s.Frequency, ThemeCount{Theme: th, Days: n})
	}
	sort.Slice(s.Frequency, func(i, j int) bool {
		if s.Frequency[i].Days != s.Frequency[j].Days {
			return s.Frequency[i].Days > s.Frequency[j].Days
		}
		return s.Frequency[i].Theme < s.Frequency[j].Theme
	})
}

func (s *Summary) computePairs() {
	counts := make(map[[2]string]int)
	for _, day := range s.Days {
		set := append([]string{}, day.Themes...)
		sort.Strings(set)
		for i, a := range set {
			for _, b := range set[i+1:] {
				counts[[2]string{a, b}]++
			}
		}
	}
	for pair, n := range counts {
		if n < 2 {
			continue // a pair seen once is noise, not a pattern
		}
		s.Pairs = append(s.Pairs, PairCount{A: pair[0], B: pair[1], Days: n})
	}
	sort.Slice(s.Pairs, func(i, j int) bool {
		if s.Pairs[i].Days != s.Pairs[j].Days {
			return s.Pairs[i].Days > s.Pairs[j].Days
		}
		if s.Pairs[i].A != s.Pairs[j].A {
			return s.Pairs[i].A < s.Pairs[j].A
		}
		return s.Pairs[i].B < s.Pairs[j].B
	})
	if len(s.Pairs) > 5 {
		s.Pairs = s.Pairs[:5]
	}
}

func unionThemes(days []DayThemes) map[string]bool {
	out := make(map[string]bool)
	for _, d := range days {
		for _, th := range d.Themes {
			out[th] = true
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render produces the memory trace markdown document
func (s *Summary) Render() string {
	var b strings.Builder
	b.WriteString("# Memory Trace\n\n")
	b.WriteString(fmt.Sprintf("*Window: %s to %s*\n\n",
		s.Start.Format(vault.DateFormat), s.End.Format(vault.DateFormat)))

	if len(s.Days) == 0 {
		b.WriteString("*No entries with substantial content in this window.*\n")
		return b.String()
	}

	b.WriteString("## Theme Evolution\n\n")
	writeThemeList(&b, "Emerging", s.Emerging)
	writeThemeList(&b, "Persistent", s.Persistent)
	writeThemeList(&b, "Faded", s.Faded)
	b.WriteString("\n")

	b.WriteString("## Theme Frequency\n\n")
	for _, tc := range s.Frequency {
		pct := float64(tc.Days) / float64(len(s.Days)) * 100
		b.WriteString(fmt.Sprintf("- **%s**: %d of %d days (%.0f%%)\n", tc.Theme, tc.Days, len(s.Days), pct))
	}
	b.WriteString("\n")

	if len(s.Pairs) > 0 {
		b.WriteString("## Recurring Pairs\n\n")
		for _, p := range s.Pairs {
			b.WriteString(fmt.Sprintf("- **%s** + **%s** (%d days)\n", p.A, p.B, p.Days))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Timeline\n\n")
	for _, day := range s.Days {
		n := len(day.Themes)
		if n > 3 {
			n = 3
		}
		b.WriteString(fmt.Sprintf("- **%s**: %s\n", day.Date.Format(vault.DateFormat), strings.Join(day.Themes[:n], ", ")))
	}

	return b.String()
}

func writeThemeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		b.WriteString(fmt.Sprintf("- %s: *none*\n", label))
		return
	}
	b.WriteString(fmt.Sprintf("- %s: %s\n", label, strings.Join(items, ", ")))
}
