package todo

import "time"

// Item is one action item in the planner checklist
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"` // entry date the item came from (YYYY-MM-DD)
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// Checklist is the persisted planner data
type Checklist struct {
	Items []Item `json:"items"`
}

// AppendResult reports what one extraction run changed
type AppendResult struct {
	Added   []Item
	Skipped []string // normalized duplicates, silently not re-appended
}
