// Package config provides centralized configuration loaded from
// environment variables. There is no ambient state: the loaded value is
// passed explicitly into every component that needs it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends for the seen-hash store.
const (
	StoreBackendDir    = "dir"
	StoreBackendSQLite = "sqlite"
)

// Config is populated from environment variables; path and mode fields may
// be overridden by CLI flags.
type Config struct {
	// Directories
	InputDir string // raw source documents (feed drops, recognizer output)
	OutDir   string // rendered table images

	// Seen-hash store
	StoreBackend string // "dir" or "sqlite"
	StorePath    string // marker-file root or sqlite file

	// Schedule interpretation
	GroupPrefix string // supplier label prefix to strip, e.g. "GPV"
	Timezone    *time.Location

	// Notification transport
	TelegramToken string
	DryRun        bool
	Subscriptions map[int64][]string // channel id → subscribed groups
	QuietHours    string             // "HH-HH", empty disables

	// Rendering
	FontPath string

	// Retention
	KeepFiles      int
	StoreRetention time.Duration

	// Watch mode
	WatchInterval time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults. The subscription table (CHAT_ID_TO_BLACKOUT_GROUPS) is a JSON
// object of chat id to group list; a channel naming zero groups is a
// configuration error.
func Load() (*Config, error) {
	tzName := envOr("SCHEDULE_TZ", "Europe/Kyiv")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tzName, err)
	}

	subs, err := parseSubscriptions(os.Getenv("CHAT_ID_TO_BLACKOUT_GROUPS"))
	if err != nil {
		return nil, err
	}

	quiet := envOr("QUIET_HOURS", "")
	if quiet != "" {
		if _, _, err := ParseQuietHours(quiet); err != nil {
			return nil, err
		}
	}

	return &Config{
		InputDir: envOr("INPUT_DIR", "input"),
		OutDir:   envOr("OUT_DIR", "out"),

		StoreBackend: envOr("STORE_BACKEND", StoreBackendDir),
		StorePath:    envOr("STORE_PATH", "seen"),

		GroupPrefix: envOr("GROUP_PREFIX", "GPV"),
		Timezone:    loc,

		TelegramToken: envOr("TELEGRAM_BOT_TOKEN", ""),
		DryRun:        envBool("DRY_RUN", false),
		Subscriptions: subs,
		QuietHours:    quiet,

		FontPath: envOr("FONT_PATH", ""),

		KeepFiles:      envInt("KEEP_FILES", 10),
		StoreRetention: time.Duration(envInt("STORE_RETENTION_DAYS", 30)) * 24 * time.Hour,

		WatchInterval: time.Duration(envInt("WATCH_INTERVAL_MINUTES", 10)) * time.Minute,
	}, nil
}

// Validate checks invariants that only matter once a run starts.
func (c *Config) Validate() error {
	if c.StoreBackend != StoreBackendDir && c.StoreBackend != StoreBackendSQLite {
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.KeepFiles < 1 {
		return fmt.Errorf("KEEP_FILES must be at least 1, got %d", c.KeepFiles)
	}
	return nil
}

// ParseQuietHours splits a "HH-HH" window into its start and end hours.
func ParseQuietHours(s string) (start, end int, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("quiet hours %q: want HH-HH", s)
	}
	start, err = strconv.Atoi(parts[0])
	if err != nil || start < 0 || start > 23 {
		return 0, 0, fmt.Errorf("quiet hours %q: bad start hour", s)
	}
	end, err = strconv.Atoi(parts[1])
	if err != nil || end < 0 || end > 23 {
		return 0, 0, fmt.Errorf("quiet hours %q: bad end hour", s)
	}
	return start, end, nil
}

func parseSubscriptions(raw string) (map[int64][]string, error) {
	if raw == "" {
		return nil, nil
	}
	var byName map[string][]string
	if err := json.Unmarshal([]byte(raw), &byName); err != nil {
		return nil, fmt.Errorf("parse CHAT_ID_TO_BLACKOUT_GROUPS: %w", err)
	}
	subs := make(map[int64][]string, len(byName))
	for key, groups := range byName {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse CHAT_ID_TO_BLACKOUT_GROUPS: bad chat id %q: %w", key, err)
		}
		if len(groups) == 0 {
			return nil, fmt.Errorf("parse CHAT_ID_TO_BLACKOUT_GROUPS: chat %s subscribes to zero groups", key)
		}
		subs[id] = groups
	}
	return subs, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
