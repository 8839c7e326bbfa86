// Package orchestrator assembles generation context, invokes the local
// model, and routes its output through the citation resolver.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vthunder/daybook/internal/citation"
	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/ollama"
	"github.com/vthunder/daybook/internal/vault"
)

// State tracks one generation call through its lifecycle
type State string

const (
	StateIdle             State = "idle"
	StateContextAssembled State = "context_assembled"
	StateModelInvoked     State = "model_invoked"
	StateResolvedSuccess  State = "resolved_success"
	StateResolutionFailed State = "resolution_failed"
	StateModelFailed      State = "model_failed"
)

// Model is the invocation transport contract
type Model interface {
	Generate(ctx context.Context, prompt, system string, opts ollama.Options) (string, error)
}

// ContextEntry is one prior day's writing supplied as model context
type ContextEntry struct {
	Date    time.Time
	Writing string
}

// Result is the terminal outcome of a successful generation call.
// Nothing is persisted here; the caller writes the template.
type Result struct {
	Date      time.Time
	Synthesis bool
	State     State

	ContextDates []time.Time // oldest first, the citation window
	Prompts      []string    // resolved reflection prompts
	Template     string      // full Reflections section content

	CitationsResolved   int
	CitationsOutOfRange []int
	UsedFallback        bool
}

const systemPrompt = "You are a thoughtful journaling coach. Generate personal reflection " +
	"questions that cover different life areas, address the writer as \"you\", and use " +
	"clear simple language. When a question builds on an earlier entry, cite it with " +
	"its day marker, e.g. [Day 2]."

// Generator is the entry point for reflection generation
type Generator struct {
	vault *vault.Vault
	model Model
	cfg   config.Config
}

// New creates a prompt orchestrator
func New(v *vault.Vault, m Model, cfg config.Config) *Generator {
	return &Generator{vault: v, model: m, cfg: cfg}
}

// IsSynthesisDay reports whether the target date triggers the expanded
// weekly-synthesis prompt set
func (g *Generator) IsSynthesisDay(date time.Time) bool {
	return date.Weekday() == g.cfg.SynthesisDay()
}

// AssembleContext returns the most recent calendar days with content
// strictly before the target date, oldest first. Synthesis days look back
// over a wider window. Gap days count as elapsed time: the lookup is by
// calendar date, not entry count position.
func (g *Generator) AssembleContext(target time.Time) ([]ContextEntry, error) {
	n := g.cfg.RecentDays
	if g.IsSynthesisDay(target) {
		n = g.cfg.SynthesisDays
	}

	dates, err := g.vault.RecentDates(target.AddDate(0, 0, -1), n)
	if err != nil {
		return nil, err
	}

	// RecentDates is newest-first; context is supplied oldest-first so
	// Day 1 is the earliest date, matching the citation resolver.
	var entries []ContextEntry
	for i := len(dates) - 1; i >= 0; i-- {
		entry, err := g.vault.Read(dates[i])
		if err != nil {
			continue
		}
		if strings.TrimSpace(entry.BrainDump) == "" {
			continue
		}
		entries = append(entries, ContextEntry{Date: dates[i], Writing: entry.BrainDump})
	}
	return entries, nil
}

// Generate runs one full generation call for the target date. Model
// transport failures surface as errors and nothing is returned for
// persistence; a model response with no usable questions falls back to
// the static prompt set.
func (g *Generator) Generate(ctx context.Context, target time.Time, focus string) (*Result, error) {
	synthesis := g.IsSynthesisDay(target)
	count := 3
	if synthesis {
		count = 5
	}

	entries, err := g.AssembleContext(target)
	if err != nil {
		return nil, err
	}

	res := &Result{Date: target, Synthesis: synthesis, State: StateContextAssembled}
	for _, e := range entries {
		res.ContextDates = append(res.ContextDates, e.Date)
	}

	if contextTooSparse(entries, g.cfg.MinContentLen) {
		// Not an error: a fresh journal has nothing to reflect on yet
		logging.Info("orchestrator", "no substantial context before %s, using fallback prompts", target.Format(vault.DateFormat))
		res.Prompts = fallbackPrompts(synthesis)
		res.UsedFallback = true
		res.State = StateResolvedSuccess
		res.Template = buildTemplate(res.Prompts, synthesis)
		return res, nil
	}

	prompt := buildModelPrompt(entries, count, focus, synthesis)
	res.State = StateModelInvoked

	raw, err := g.model.Generate(ctx, prompt, systemPrompt, ollama.Options{
		Temperature: g.cfg.Ollama.Temperature,
		NumPredict:  g.cfg.Ollama.NumPredict,
		Timeout:     g.cfg.Ollama.Timeout(),
	})
	if err != nil {
		res.State = StateModelFailed
		return nil, fmt.Errorf("reflection generation for %s: %w", target.Format(vault.DateFormat), err)
	}

	resolver := citation.NewResolver(res.ContextDates)
	questions := parseQuestions(raw, count)

	for _, q := range questions {
		r := resolver.Resolve(q)
		res.CitationsResolved += r.Resolved
		res.CitationsOutOfRange = append(res.CitationsOutOfRange, r.OutOfRange...)
		if text := strings.TrimSpace(r.Text); text != "" {
			res.Prompts = append(res.Prompts, text)
		}
	}

	if len(res.Prompts) == 0 {
		res.State = StateResolutionFailed
		res.Prompts = fallbackPrompts(synthesis)
		res.UsedFallback = true
	} else {
		res.State = StateResolvedSuccess
	}

	res.Template = buildTemplate(res.Prompts, synthesis)
	return res, nil
}

func contextTooSparse(entries []ContextEntry, minLen int) bool {
	total := 0
	for _, e := range entries {
		total += len(strings.TrimSpace(e.Writing))
	}
	return total < minLen
}

// buildModelPrompt numbers the context oldest-first with the same Day-k
// convention the resolver uses.
func buildModelPrompt(entries []ContextEntry, count int, focus string, synthesis bool) string {
	var b strings.Builder
	b.WriteString("Recent journal entries:\n\n")
	for i, e := range entries {
		b.WriteString(fmt.Sprintf("Day %d (%s):\n%s\n\n", i+1, e.Date.Format(vault.DateFormat), e.Writing))
	}

	b.WriteString(fmt.Sprintf("Based on these entries, generate %d reflection questions. ", count))
	b.WriteString("Each question must be about a different theme or life area. ")
	b.WriteString("When a question refers to something from a specific entry, cite it as [Day k] using the numbering above. ")
	if focus != "" {
		b.WriteString(fmt.Sprintf("Focus every question on: %s. ", focus))
	}
	if synthesis {
		b.WriteString("This is a weekly synthesis: look back over the whole week and ahead to the next one. ")
	}
	b.WriteString(fmt.Sprintf("\n\nFormat as %d numbered questions with no other text.", count))
	return b.String()
}

var questionLineRegex = regexp.MustCompile(`^\s*(?:\d+[.)]|-)\s*(.+)$`)

// parseQuestions pulls numbered or bulleted questions out of the raw
// model response, capped at count.
func parseQuestions(raw string, count int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		m := questionLineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		q := strings.TrimSpace(m[1])
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out
}

// fallbackPrompts are used when the model produced nothing usable
func fallbackPrompts(synthesis bool) []string {
	if synthesis {
		return []string{
			"What patterns from this past week stand out to you?",
			"How did your decisions this week line up with what matters to you?",
			"What assumption of yours was challenged this week?",
			"Where do you need to refocus for the coming week?",
			"What question from this week deserves more of your attention?",
		}
	}
	return []string{
		"What is taking up the most mental space right now?",
		"What happened recently that you haven't fully processed?",
		"What would make tomorrow feel meaningful?",
	}
}

// buildTemplate renders the Reflections section content
func buildTemplate(prompts []string, synthesis bool) string {
	var b strings.Builder
	if synthesis {
		b.WriteString("*Weekly synthesis: a deeper look at the past week and the one ahead.*\n\n")
	} else {
		b.WriteString("*Building on your recent entries.*\n\n")
	}
	for i, p := range prompts {
		b.WriteString(fmt.Sprintf("**%d. %s**\n\n", i+1, p))
	}
	return strings.TrimSpace(b.String())
}
