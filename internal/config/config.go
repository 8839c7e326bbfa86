package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all daybook settings. Loaded from an optional YAML file,
// then overridden by environment variables so .env deployments keep working.
type Config struct {
	VaultPath   string `yaml:"vault_path"`
	PlannerPath string `yaml:"planner_path"`

	// Generation context
	RecentDays       int    `yaml:"recent_days"`       // ordinary context window (calendar days with content)
	SynthesisDays    int    `yaml:"synthesis_days"`    // expanded window on the synthesis day
	SynthesisWeekday string `yaml:"synthesis_weekday"` // e.g. "Sunday"

	// Linking
	LinkThreshold float64 `yaml:"link_threshold"` // Jaccard, strictly-greater-than
	MaxRelated    int     `yaml:"max_related"`    // backlinks kept per entry
	HorizonDays   int     `yaml:"horizon_days"`   // default analysis window

	// Theme extraction
	MaxThemes     int `yaml:"max_themes"`
	MaxTags       int `yaml:"max_tags"`
	MinContentLen int `yaml:"min_content_len"`

	Ollama OllamaConfig `yaml:"ollama"`

	// Optional Discord notification of generated prompts
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// OllamaConfig holds model invocation settings
type OllamaConfig struct {
	URL         string  `yaml:"url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	NumPredict  int     `yaml:"num_predict"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// Default returns the baseline configuration
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		VaultPath:        filepath.Join(home, "Documents", "diary"),
		PlannerPath:      filepath.Join(home, "Documents", "planner"),
		RecentDays:       3,
		SynthesisDays:    7,
		SynthesisWeekday: "Sunday",
		LinkThreshold:    0.08,
		MaxRelated:       6,
		HorizonDays:      30,
		MaxThemes:        8,
		MaxTags:          5,
		MinContentLen:    20,
		Ollama: OllamaConfig{
			URL:         "http://localhost:11434",
			Model:       "llama3.1:latest",
			Temperature: 0.7,
			NumPredict:  200,
			TimeoutSec:  30,
		},
	}
}

// Load reads configuration from the given YAML file (missing file is fine)
// and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DIARY_PATH"); v != "" {
		c.VaultPath = v
	}
	if v := os.Getenv("PLANNER_PATH"); v != "" {
		c.PlannerPath = v
	}
	if v := os.Getenv("RECENT_ENTRIES_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RecentDays = n
		}
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("OLLAMA_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Ollama.Temperature = f
		}
	}
	if v := os.Getenv("OLLAMA_NUM_PREDICT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ollama.NumPredict = n
		}
	}
	if v := os.Getenv("OLLAMA_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ollama.TimeoutSec = n
		}
	}
	if v := os.Getenv("LINK_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LinkThreshold = f
		}
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.DiscordToken = v
	}
	if v := os.Getenv("DISCORD_CHANNEL_ID"); v != "" {
		c.DiscordChannel = v
	}
}

// Timeout returns the configured model timeout as a duration
func (o OllamaConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSec) * time.Second
}

// SynthesisDay parses the configured synthesis weekday (defaults to Sunday)
func (c Config) SynthesisDay() time.Weekday {
	switch c.SynthesisWeekday {
	case "Monday":
		return time.Monday
	case "Tuesday":
		return time.Tuesday
	case "Wednesday":
		return time.Wednesday
	case "Thursday":
		return time.Thursday
	case "Friday":
		return time.Friday
	case "Saturday":
		return time.Saturday
	default:
		return time.Sunday
	}
}
