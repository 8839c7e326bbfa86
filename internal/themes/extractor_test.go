package themes

import (
	"strings"
	"testing"
)

func TestSparseContentYieldsEmptySet(t *testing.T) {
	e := Default()

	for _, text := range []string{"", "   ", "hi", "short note", "slept early"} {
		if got := e.Themes(text); len(got) != 0 {
			t.Errorf("Themes(%q) = %v, want empty set for sparse content", text, got)
		}
	}
}

func TestThemesBoundedAndDeduplicated(t *testing.T) {
	e := Default()
	text := strings.Repeat("career anxiety goals deadline project meeting focus energy sleep exercise ", 3)

	themes := e.Themes(text)
	if len(themes) > 8 {
		t.Errorf("Theme set size %d exceeds cap", len(themes))
	}
	seen := make(map[string]bool)
	for _, th := range themes {
		if seen[th] {
			t.Errorf("Duplicate theme %q", th)
		}
		seen[th] = true
		if th != strings.ToLower(th) {
			t.Errorf("Theme %q not case-normalized", th)
		}
	}
}

func TestFrequencyRanking(t *testing.T) {
	e := Default()
	text := "The interview went fine. Thinking about the interview again, the interview " +
		"keeps coming up. Career questions linger, career doubts too. Weather was grey."

	themes := e.Themes(text)
	if len(themes) < 2 {
		t.Fatalf("Expected several themes, got %v", themes)
	}
	if themes[0] != "interview" {
		t.Errorf("Most frequent term should rank first, got %v", themes)
	}
	if themes[1] != "career" {
		t.Errorf("Second most frequent term should rank second, got %v", themes)
	}
}

func TestMorphologicalCollapse(t *testing.T) {
	e := Default()
	text := "Wrote down my goals again. One goal dominates the other goals lately, honestly."

	themes := e.Themes(text)
	count := 0
	for _, th := range themes {
		if th == "goal" {
			count++
		}
		if th == "goals" {
			t.Errorf("Plural variant not collapsed: %v", themes)
		}
	}
	if count != 1 {
		t.Errorf("Expected collapsed 'goal' theme exactly once, got %v", themes)
	}
}

func TestDeterministicTieBreak(t *testing.T) {
	e := Default()
	text := "Alpha conversations, borrowed equipment, cycling weather, drained battery completely."

	first := e.Themes(text)
	for i := 0; i < 5; i++ {
		if got := strings.Join(e.Themes(text), ","); got != strings.Join(first, ",") {
			t.Fatalf("Theme order not deterministic: %v vs %v", got, first)
		}
	}
}

func TestExistingMarkersIgnored(t *testing.T) {
	e := Default()
	text := "Quiet reflective morning spent reading philosophy essays outside. " +
		"[[2026-03-10]] [[2026-03-11]] #career #career #career"

	for _, th := range e.Themes(text) {
		if th == "career" {
			t.Errorf("Tag marker leaked into themes: %v", e.Themes(text))
		}
	}
}

func TestTagsFormattedAndCapped(t *testing.T) {
	e := Default()
	text := strings.Repeat("career anxiety goals deadline project meeting focus energy ", 2)

	tags := e.Tags(text)
	if len(tags) > 5 {
		t.Errorf("Tag count %d exceeds cap", len(tags))
	}
	for _, tag := range tags {
		if !strings.HasPrefix(tag, "#") {
			t.Errorf("Tag %q missing # prefix", tag)
		}
	}
}
