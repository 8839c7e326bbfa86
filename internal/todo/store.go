package todo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const storeFilename = "checklist.json"

var spaceRegex = regexp.MustCompile(`\s+`)

// Store manages the planner checklist with thread-safe operations.
// Append-only by design: items are never removed by the engine, and no
// two items share the same normalized text.
type Store struct {
	path string
	mu   sync.RWMutex
	data Checklist
}

// NewStore creates a checklist store under the planner directory
func NewStore(plannerPath string) *Store {
	return &Store{
		path: filepath.Join(plannerPath, storeFilename),
		data: Checklist{Items: []Item{}},
	}
}

// Load reads the checklist from disk; a missing file starts empty
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.data = Checklist{Items: []Item{}}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read checklist: %w", err)
	}
	if err := json.Unmarshal(data, &s.data); err != nil {
		return fmt.Errorf("failed to parse checklist: %w", err)
	}
	if s.data.Items == nil {
		s.data.Items = []Item{}
	}
	return nil
}

// Save writes the checklist to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checklist: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create planner directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checklist: %w", err)
	}
	return nil
}

// Items returns a copy of all checklist items
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.data.Items))
	copy(out, s.data.Items)
	return out
}

// Append adds novel candidate items in discovery order, skipping any whose
// normalized text already exists in the checklist.
func (s *Store) Append(candidates []string, source string) AppendResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := make(map[string]bool, len(s.data.Items))
	for _, item := range s.data.Items {
		present[Normalize(item.Text)] = true
	}

	var result AppendResult
	for _, c := range candidates {
		text := strings.TrimSpace(c)
		if text == "" {
			continue
		}
		key := Normalize(text)
		if key == "" {
			continue
		}
		if present[key] {
			result.Skipped = append(result.Skipped, key)
			continue
		}
		present[key] = true
		item := Item{
			ID:        generateID(),
			Text:      text,
			Source:    source,
			CreatedAt: time.Now(),
		}
		s.data.Items = append(s.data.Items, item)
		result.Added = append(result.Added, item)
	}
	return result
}

// Normalize produces the comparison key for duplicate detection:
// lowercase, trailing punctuation trimmed, whitespace collapsed.
func Normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimRight(t, ".!?;:")
	t = spaceRegex.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// idCounter ensures unique IDs even within the same nanosecond
var idCounter int64

func generateID() string {
	count := atomic.AddInt64(&idCounter, 1)
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), count)
}
