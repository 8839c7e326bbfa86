// trace-report prints a theme-evolution digest for a window of entries,
// optionally pushing it to Discord.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/notify"
	"github.com/vthunder/daybook/internal/themecache"
	"github.com/vthunder/daybook/internal/themes"
	"github.com/vthunder/daybook/internal/trace"
	"github.com/vthunder/daybook/internal/vault"
)

func main() {
	configPath := flag.String("config", "", "Path to daybook config file")
	endArg := flag.String("end", "", "Window end date (YYYY-MM-DD, default: today)")
	window := flag.Int("window", 0, "Window size in days (default: configured horizon)")
	discord := flag.Bool("discord", false, "Also send the report to the configured Discord channel")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *window <= 0 {
		*window = cfg.HorizonDays
	}

	end := time.Now()
	if *endArg != "" {
		if end, err = time.Parse(vault.DateFormat, *endArg); err != nil {
			log.Fatalf("Invalid -end date: %v", err)
		}
	}

	v := vault.New(cfg.VaultPath)
	analyzer := trace.NewAnalyzer(v, themes.NewExtractor(cfg.MaxThemes, cfg.MaxTags, cfg.MinContentLen))

	cache, err := themecache.Open(filepath.Join(cfg.VaultPath, ".daybook"))
	if err == nil {
		analyzer.SetCache(cache)
		defer cache.Close()
	}

	summary, err := analyzer.Analyze(end, *window)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	report := summary.Render()
	fmt.Println(report)

	if *discord {
		notifier, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			log.Fatalf("Discord: %v", err)
		}
		defer notifier.Close()
		if !notifier.Enabled() {
			log.Fatal("Discord requested but DISCORD_TOKEN/DISCORD_CHANNEL not configured")
		}
		if err := notifier.TraceReport(report); err != nil {
			log.Fatalf("Discord send failed: %v", err)
		}
		log.Println("Report sent to Discord")
	}
}
