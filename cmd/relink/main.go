// relink recomputes Memory Links for every entry in a date range.
// Useful after bulk imports or after changing the link threshold.
package main

import (
	"flag"
	"log"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/similarity"
	"github.com/vthunder/daybook/internal/themecache"
	"github.com/vthunder/daybook/internal/themes"
	"github.com/vthunder/daybook/internal/vault"
)

func main() {
	configPath := flag.String("config", "", "Path to daybook config file")
	vaultPath := flag.String("vault", "", "Override vault path")
	startArg := flag.String("start", "", "First date to relink (YYYY-MM-DD, default: window start)")
	endArg := flag.String("end", "", "Last date to relink (YYYY-MM-DD, default: today)")
	window := flag.Int("window", 0, "Lookback window per entry in days (default: configured horizon)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *vaultPath != "" {
		cfg.VaultPath = *vaultPath
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
	start := end.AddDate(0, 0, -*window)
	if *startArg != "" {
		if start, err = time.Parse(vault.DateFormat, *startArg); err != nil {
			log.Fatalf("Invalid -start date: %v", err)
		}
	}

	v := vault.New(cfg.VaultPath)
	extractor := themes.NewExtractor(cfg.MaxThemes, cfg.MaxTags, cfg.MinContentLen)
	engine := similarity.NewEngine(v, extractor, cfg.LinkThreshold, cfg.MaxRelated)

	cache, err := themecache.Open(filepath.Join(cfg.VaultPath, ".daybook"))
	if err != nil {
		log.Printf("Theme cache unavailable, extracting fresh: %v", err)
	} else {
		engine.SetCache(cache)
		defer cache.Close()
	}

	dates, err := v.ListDatesInRange(start, end)
	if err != nil {
		log.Fatalf("Failed to list vault: %v", err)
	}
	if len(dates) == 0 {
		log.Printf("No entries between %s and %s", start.Format(vault.DateFormat), end.Format(vault.DateFormat))
		return
	}

	log.Printf("Relinking %d entries in %s", len(dates), cfg.VaultPath)

	linked, skipped := 0, 0
	for _, d := range dates {
		report, err := engine.LinkEntry(d, *window)
		if err != nil {
			log.Printf("  %s: FAILED: %v", d.Format(vault.DateFormat), err)
			continue
		}
		if len(report.Edges) == 0 {
			skipped++
			continue
		}
		linked++
		log.Printf("  %s: %d connections, %d new", d.Format(vault.DateFormat), len(report.Edges), len(report.Added))
	}

	log.Printf("Done: %d entries linked, %d with no connections", linked, skipped)
}
