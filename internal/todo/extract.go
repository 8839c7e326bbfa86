package todo

import (
	"regexp"
	"strings"
)

// Action-item cues in free writing. Each pattern captures the item text.
var candidatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^-\s*\[\s*\]\s*(.+)$`),         // markdown task line
	regexp.MustCompile(`(?i)\btodo:?\s+([^.!?\n]{3,120})`), // explicit todo cue, anywhere in the line
	regexp.MustCompile(`(?i)\bneed to\s+([^.!?\n]{3,120})`),
	regexp.MustCompile(`(?i)\bhave to\s+([^.!?\n]{3,120})`),
	regexp.MustCompile(`(?i)\bi should\s+([^.!?\n]{3,120})`),
	regexp.MustCompile(`(?i)\bremember to\s+([^.!?\n]{3,120})`),
	regexp.MustCompile(`(?i)\bdon't forget to\s+([^.!?\n]{3,120})`),
	regexp.MustCompile(`(?i)\bmust\s+([^.!?\n]{3,120})`),
}

// Extract finds candidate action items in brain-dump text. Extra holds
// model-furnished candidates (when generation surfaced action items); the
// extractor's job is only to normalize and deduplicate whatever candidates
// are surfaced, so both sources flow through the same path. No due dates
// or priorities are inferred.
func Extract(text string, extra []string) []string {
	var candidates []string
	seen := make(map[string]bool)
	add := func(c string) {
		c = strings.TrimSpace(c)
		key := Normalize(c)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, c)
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, re := range candidatePatterns {
			for _, m := range re.FindAllStringSubmatch(line, -1) {
				add(m[1])
			}
		}
	}
	for _, c := range extra {
		add(c)
	}
	return candidates
}
