// daybook-mcp exposes the journal engine over MCP stdio.
//
// Tools: generate_today, save_entry, link_entry, extract_todos,
// analyze_trace, read_entry, list_recent.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/notify"
	"github.com/vthunder/daybook/internal/ollama"
	"github.com/vthunder/daybook/internal/orchestrator"
	"github.com/vthunder/daybook/internal/similarity"
	"github.com/vthunder/daybook/internal/themecache"
	"github.com/vthunder/daybook/internal/themes"
	"github.com/vthunder/daybook/internal/todo"
	"github.com/vthunder/daybook/internal/trace"
	"github.com/vthunder/daybook/internal/vault"
)

type app struct {
	cfg       config.Config
	vault     *vault.Vault
	engine    *similarity.Engine
	analyzer  *trace.Analyzer
	generator *orchestrator.Generator
	todos     *todo.Store
	notifier  *notify.Discord
}

func main() {
	// Load .env - try executable's parent dir (repo root), then exe dir, then cwd
	envPaths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		envPaths = append([]string{
			filepath.Join(filepath.Dir(exeDir), ".env"),
			filepath.Join(exeDir, ".env"),
		}, envPaths...)
	}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	cfg, err := config.Load(os.Getenv("DAYBOOK_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup error: %v\n", err)
		os.Exit(1)
	}
	defer a.notifier.Close()

	s := server.NewMCPServer(
		"daybook-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(generateTodayTool(), a.handleGenerateToday)
	s.AddTool(saveEntryTool(), a.handleSaveEntry)
	s.AddTool(linkEntryTool(), a.handleLinkEntry)
	s.AddTool(extractTodosTool(), a.handleExtractTodos)
	s.AddTool(analyzeTraceTool(), a.handleAnalyzeTrace)
	s.AddTool(readEntryTool(), a.handleReadEntry)
	s.AddTool(listRecentTool(), a.handleListRecent)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cfg config.Config) (*app, error) {
	v := vault.New(cfg.VaultPath)
	extractor := themes.NewExtractor(cfg.MaxThemes, cfg.MaxTags, cfg.MinContentLen)

	engine := similarity.NewEngine(v, extractor, cfg.LinkThreshold, cfg.MaxRelated)
	analyzer := trace.NewAnalyzer(v, extractor)

	cache, err := themecache.Open(filepath.Join(cfg.VaultPath, ".daybook"))
	if err != nil {
		// Cache is an optimization: linking still works without it
		logging.Warn("daybook-mcp", "theme cache unavailable: %v", err)
	} else {
		engine.SetCache(cache)
		analyzer.SetCache(cache)
	}

	client := ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.Model)
	generator := orchestrator.New(v, client, cfg)

	todos := todo.NewStore(cfg.PlannerPath)
	if err := todos.Load(); err != nil {
		return nil, fmt.Errorf("planner checklist: %w", err)
	}

	notifier, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		vault:     v,
		engine:    engine,
		analyzer:  analyzer,
		generator: generator,
		todos:     todos,
		notifier:  notifier,
	}, nil
}

// argDate reads an optional YYYY-MM-DD argument, defaulting to today
func argDate(args map[string]any, key string) (time.Time, error) {
	raw, _ := args[key].(string)
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(vault.DateFormat, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return d, nil
}

func generateTodayTool() mcp.Tool {
	return mcp.NewTool("generate_today",
		mcp.WithDescription("Generate reflection prompts for a date from recent entries and write them into the entry's Reflections section. Sundays get an expanded weekly-synthesis set."),
		mcp.WithString("date",
			mcp.Description("Target date (YYYY-MM-DD). Default: today."),
		),
		mcp.WithString("focus",
			mcp.Description("Optional topic to steer the prompts toward."),
		),
	)
}

func (a *app) handleGenerateToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	date, err := argDate(args, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	focus, _ := args["focus"].(string)

	res, err := a.generator.Generate(ctx, date, focus)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	if err := a.vault.WriteSection(date, vault.SectionReflections, res.Template); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write entry: %v", err)), nil
	}

	if err := a.notifier.PromptsReady(date, res.Prompts); err != nil {
		logging.Warn("daybook-mcp", "notify failed: %v", err)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Wrote %d prompts to %s", len(res.Prompts), a.vault.EntryPath(date)))
	if res.Synthesis {
		b.WriteString(" (weekly synthesis)")
	}
	if res.UsedFallback {
		b.WriteString(" [fallback prompts]")
	}
	b.WriteString("\n\n")
	for i, p := range res.Prompts {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
	}
	if len(res.CitationsOutOfRange) > 0 {
		b.WriteString(fmt.Sprintf("\nDropped out-of-range citations: %v\n", res.CitationsOutOfRange))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func saveEntryTool() mcp.Tool {
	return mcp.NewTool("save_entry",
		mcp.WithDescription("Save free-writing into a date's Brain Dump section, then recompute that entry's cross-links against the recent window."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The entry text."),
		),
		mcp.WithString("date",
			mcp.Description("Target date (YYYY-MM-DD). Default: today."),
		),
	)
}

func (a *app) handleSaveEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	content, _ := args["content"].(string)
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	date, err := argDate(args, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := a.vault.WriteSection(date, vault.SectionBrainDump, content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write entry: %v", err)), nil
	}

	report, err := a.engine.LinkEntry(date, a.cfg.HorizonDays)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("saved, but linking failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Saved %s.\n%s", a.vault.EntryPath(date), renderReport(report),
	)), nil
}

func linkEntryTool() mcp.Tool {
	return mcp.NewTool("link_entry",
		mcp.WithDescription("Recompute an entry's Memory Links section: theme-overlap backlinks to similar entries plus promoted topic tags. Idempotent."),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Entry date (YYYY-MM-DD)."),
		),
		mcp.WithNumber("window_days",
			mcp.Description("How far back to look for similar entries. Default: configured horizon."),
		),
	)
}

func (a *app) handleLinkEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	date, err := argDate(args, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	window := a.cfg.HorizonDays
	if w, ok := args["window_days"].(float64); ok && w > 0 {
		window = int(w)
	}

	report, err := a.engine.LinkEntry(date, window)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("linking failed: %v", err)), nil
	}
	return mcp.NewToolResultText(renderReport(report)), nil
}

func renderReport(r *similarity.Report) string {
	if len(r.Edges) == 0 {
		return "No connections above threshold."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Linked %d related entries (%d new, %d already present):\n",
		len(r.Edges), len(r.Added), len(r.Skipped)))
	for _, e := range r.Edges {
		b.WriteString(fmt.Sprintf("  [[%s]] score %.2f, shared: %s\n",
			e.B.Format(vault.DateFormat), e.Score, strings.Join(e.Shared, ", ")))
	}
	if len(r.Tags) > 0 {
		b.WriteString("Tags: " + strings.Join(r.Tags, " ") + "\n")
	}
	return b.String()
}

func extractTodosTool() mcp.Tool {
	return mcp.NewTool("extract_todos",
		mcp.WithDescription("Scan an entry's Brain Dump (or supplied text) for action items and append the new ones to the planner checklist. Already-present items are skipped."),
		mcp.WithString("date",
			mcp.Description("Entry date to scan (YYYY-MM-DD). Default: today."),
		),
		mcp.WithString("text",
			mcp.Description("Scan this text instead of a vault entry."),
		),
		mcp.WithString("candidates",
			mcp.Description("Extra candidate items, one per line (e.g. from a model pass), merged with the heuristic scan."),
		),
	)
}

func (a *app) handleExtractTodos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	date, err := argDate(args, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, _ := args["text"].(string)
	source := "manual"
	if text == "" {
		entry, err := a.vault.Read(date)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("no entry for %s", date.Format(vault.DateFormat))), nil
		}
		text = entry.BrainDump
		source = date.Format(vault.DateFormat)
	}

	var extra []string
	if raw, _ := args["candidates"].(string); raw != "" {
		for _, line := range strings.Split(raw, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				extra = append(extra, line)
			}
		}
	}

	candidates := todo.Extract(text, extra)
	result := a.todos.Append(candidates, source)
	if err := a.todos.Save(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save checklist: %v", err)), nil
	}

	if err := a.notifier.TodosAdded(date, len(result.Added)); err != nil {
		logging.Warn("daybook-mcp", "notify failed: %v", err)
	}

	return mcp.NewToolResultText(renderTodoResult(len(candidates), result)), nil
}

func renderTodoResult(candidates int, res todo.AppendResult) string {
	return fmt.Sprintf("Found %d candidate(s): %d added, %d already on the checklist.",
		candidates, len(res.Added), len(res.Skipped))
}

func analyzeTraceTool() mcp.Tool {
	return mcp.NewTool("analyze_trace",
		mcp.WithDescription("Summarize theme evolution over a window of entries: emerging, faded, and persistent themes, frequency, and recurring theme pairs."),
		mcp.WithString("end",
			mcp.Description("Window end date (YYYY-MM-DD). Default: today."),
		),
		mcp.WithNumber("window_days",
			mcp.Description("Window size in calendar days. Default: configured horizon."),
		),
	)
}

func (a *app) handleAnalyzeTrace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	end, err := argDate(args, "end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	window := a.cfg.HorizonDays
	if w, ok := args["window_days"].(float64); ok && w > 0 {
		window = int(w)
	}

	summary, err := a.analyzer.Analyze(end, window)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return mcp.NewToolResultText(summary.Render()), nil
}

func readEntryTool() mcp.Tool {
	return mcp.NewTool("read_entry",
		mcp.WithDescription("Read a journal entry's sections."),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Entry date (YYYY-MM-DD)."),
		),
	)
}

func (a *app) handleReadEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	date, err := argDate(args, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := a.vault.Read(date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("no entry for %s", date.Format(vault.DateFormat))), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Entry %s\n\n", date.Format(vault.DateFormat)))
	b.WriteString("## Reflections\n" + entry.Reflections + "\n\n")
	b.WriteString("## Brain Dump\n" + entry.BrainDump + "\n\n")
	b.WriteString("## Memory Links\n" + entry.MemoryLinks + "\n")
	return mcp.NewToolResultText(b.String()), nil
}

func listRecentTool() mcp.Tool {
	return mcp.NewTool("list_recent",
		mcp.WithDescription("List the most recent entry dates, newest first."),
		mcp.WithNumber("count",
			mcp.Description("How many dates to return. Default: 10."),
		),
	)
}

func (a *app) handleListRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	count := 10
	if c, ok := args["count"].(float64); ok && c > 0 {
		count = int(c)
	}

	dates, err := a.vault.RecentDates(time.Now(), count)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list vault: %v", err)), nil
	}
	if len(dates) == 0 {
		return mcp.NewToolResultText("No entries yet."), nil
	}

	var b strings.Builder
	for _, d := range dates {
		b.WriteString(d.Format(vault.DateFormat) + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
