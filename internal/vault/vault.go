package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DateFormat is the canonical entry key: one file per calendar date.
const DateFormat = "2006-01-02"

// Section identifies one of the three logical blocks of an entry file.
type Section string

const (
	SectionReflections Section = "Reflections"
	SectionBrainDump   Section = "Brain Dump"
	SectionMemoryLinks Section = "Memory Links"
)

// ErrNotFound is returned when no entry file exists for a requested date.
var ErrNotFound = errors.New("entry not found")

// Entry is one calendar date's journal document.
type Entry struct {
	Date        time.Time
	Reflections string
	BrainDump   string
	MemoryLinks string
}

// Vault manages the diary directory: one YYYY-MM-DD.md file per entry.
// Writes are serialized per date so concurrent operations against different
// dates are safe while the same date gets single-writer semantics.
type Vault struct {
	path string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a vault over the given diary directory
func New(path string) *Vault {
	return &Vault{
		path:  path,
		locks: make(map[string]*sync.Mutex),
	}
}

// Path returns the vault directory
func (v *Vault) Path() string {
	return v.path
}

// dateLock returns the per-date write lock, creating it on first use
func (v *Vault) dateLock(key string) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()
	l, ok := v.locks[key]
	if !ok {
		l = &sync.Mutex{}
		v.locks[key] = l
	}
	return l
}

// EntryPath returns the file path for a date's entry
func (v *Vault) EntryPath(date time.Time) string {
	return filepath.Join(v.path, date.Format(DateFormat)+".md")
}

// Exists reports whether an entry file exists for the date
func (v *Vault) Exists(date time.Time) bool {
	_, err := os.Stat(v.EntryPath(date))
	return err == nil
}

// Read loads and parses the entry for a date
func (v *Vault) Read(date time.Time) (*Entry, error) {
	data, err := os.ReadFile(v.EntryPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}
	e := parseEntry(string(data))
	e.Date = date
	return e, nil
}

// WriteSection replaces one section of a date's entry, creating a fresh
// entry skeleton if none exists. Rewriting the same content is a no-op at
// the byte level: surrounding sections are preserved verbatim.
func (v *Vault) WriteSection(date time.Time, section Section, content string) error {
	key := date.Format(DateFormat)
	lock := v.dateLock(key)
	lock.Lock()
	defer lock.Unlock()

	entry, err := v.Read(date)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		entry = &Entry{Date: date}
	}

	switch section {
	case SectionReflections:
		entry.Reflections = strings.TrimSpace(content)
	case SectionBrainDump:
		entry.BrainDump = strings.TrimSpace(content)
	case SectionMemoryLinks:
		entry.MemoryLinks = strings.TrimSpace(content)
	default:
		return fmt.Errorf("unknown section %q", section)
	}

	if err := os.MkdirAll(v.path, 0755); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}
	return os.WriteFile(v.EntryPath(date), []byte(renderEntry(entry)), 0644)
}

// ListDatesInRange returns the dates with existing entries in [start, end],
// ordered oldest first. Files whose names are not dates are skipped.
func (v *Vault) ListDatesInRange(start, end time.Time) ([]time.Time, error) {
	files, err := os.ReadDir(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list vault: %w", err)
	}

	var dates []time.Time
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
			continue
		}
		date, err := time.Parse(DateFormat, strings.TrimSuffix(name, ".md"))
		if err != nil {
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// RecentDates returns up to n entry dates at or before the reference date,
// most recent first.
func (v *Vault) RecentDates(before time.Time, n int) ([]time.Time, error) {
	dates, err := v.ListDatesInRange(time.Time{}, before)
	if err != nil {
		return nil, err
	}
	// reverse to newest-first
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	if n < len(dates) {
		dates = dates[:n]
	}
	return dates, nil
}

// parseEntry splits an entry file into its three sections. Unknown leading
// material (the title line) is discarded on parse and regenerated on render.
func parseEntry(content string) *Entry {
	e := &Entry{}

	type mark struct {
		section Section
		start   int // index just past the header line
		header  int // index of the header itself
	}
	var marks []mark
	for _, s := range []Section{SectionReflections, SectionBrainDump, SectionMemoryLinks} {
		header := "## " + string(s)
		idx := strings.Index(content, header)
		if idx < 0 {
			continue
		}
		marks = append(marks, mark{section: s, start: idx + len(header), header: idx})
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].header < marks[j].header })

	for i, m := range marks {
		end := len(content)
		if i+1 < len(marks) {
			end = marks[i+1].header
		}
		body := strings.TrimSpace(content[m.start:end])
		body = strings.TrimSuffix(body, "---")
		body = strings.TrimSpace(body)
		switch m.section {
		case SectionReflections:
			e.Reflections = body
		case SectionBrainDump:
			e.BrainDump = body
		case SectionMemoryLinks:
			e.MemoryLinks = body
		}
	}
	return e
}

// renderEntry produces the canonical entry file text. The renderer is
// deterministic so re-writing an unchanged entry yields identical bytes.
func renderEntry(e *Entry) string {
	var b strings.Builder
	b.WriteString("# " + e.Date.Format("Monday, January 2, 2006") + "\n\n")

	b.WriteString("## " + string(SectionReflections) + "\n\n")
	if e.Reflections != "" {
		b.WriteString(e.Reflections + "\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("## " + string(SectionBrainDump) + "\n\n")
	if e.BrainDump != "" {
		b.WriteString(e.BrainDump + "\n\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("## " + string(SectionMemoryLinks) + "\n\n")
	if e.MemoryLinks != "" {
		b.WriteString(e.MemoryLinks + "\n")
	}

	return b.String()
}
