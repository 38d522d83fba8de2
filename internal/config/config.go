package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Storage   Storage   `json:"storage"`
	Limits    Limits    `json:"limits"`
	Auth      Auth      `json:"auth"`
	RateLimit RateLimit `json:"rateLimit"`
	Events    Events    `json:"events"`
	Log       Log       `json:"log"`
}

// Storage selects and tunes the ledger substrate.
type Storage struct {
	// Backend is pebble, sqlite or memory.
	Backend         string `json:"backend"`
	Fsync           string `json:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs"`
	// SQLitePath defaults to {dataDir}/audit.db.
	SQLitePath string `json:"sqlitePath"`
}

// Limits bound a single append. Zero disables a limit.
type Limits struct {
	MaxTitleBytes     int `json:"maxTitleBytes"`
	MaxContentBytes   int `json:"maxContentBytes"`
	MaxTimestampBytes int `json:"maxTimestampBytes"`
	MaxEntriesPerKey  int `json:"maxEntriesPerKey"`
}

// Auth configures how callers are identified.
type Auth struct {
	// Mode is jwt (HS256 bearer tokens) or header (trust Header, dev only).
	Mode   string `json:"mode"`
	Secret string `json:"secret"`
	Issuer string `json:"issuer"`
	Header string `json:"header"`
	// TokenTTLSeconds is the lifetime of tokens minted by `token issue`.
	TokenTTLSeconds int `json:"tokenTTLSeconds"`
}

// RateLimit applies per-caller to the HTTP API. RPS <= 0 disables it.
type RateLimit struct {
	RPS   float64 `json:"rps"`
	Burst int     `json:"burst"`
}

// Events configures the durable notification log.
type Events struct {
	Topic          string `json:"topic"`
	MaxEntries     int    `json:"maxEntries"`
	MaxAgeHours    int    `json:"maxAgeHours"`
	TrimIntervalMs int    `json:"trimIntervalMs"`
}

// Log mirrors the logger settings accepted by pkg/log.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

const (
	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"
)

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Storage: Storage{Backend: "pebble", Fsync: "always", FsyncIntervalMs: 5},
		Limits: Limits{
			MaxTitleBytes:     1 << 10,
			MaxContentBytes:   64 << 10,
			MaxTimestampBytes: 64,
			MaxEntriesPerKey:  0,
		},
		Auth:      Auth{Mode: AuthModeHeader, Issuer: "auditlog", Header: "X-Audit-Account", TokenTTLSeconds: 3600},
		RateLimit: RateLimit{RPS: 0, Burst: 20},
		Events:    Events{Topic: "audit-events", MaxEntries: 1_000_000, MaxAgeHours: 0, TrimIntervalMs: 60_000},
		Log:       Log{Level: "info", Format: "text"},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "pebble", "sqlite", "memory":
	default:
		return fmt.Errorf("config: storage.backend %q; use pebble|sqlite|memory", c.Storage.Backend)
	}
	switch c.Auth.Mode {
	case AuthModeJWT:
		if c.Auth.Secret == "" {
			return errors.New("config: auth.secret is required in jwt mode")
		}
	case AuthModeHeader:
		if c.Auth.Header == "" {
			return errors.New("config: auth.header is required in header mode")
		}
	default:
		return fmt.Errorf("config: auth.mode %q; use jwt|header", c.Auth.Mode)
	}
	if c.Limits.MaxTitleBytes < 0 || c.Limits.MaxContentBytes < 0 || c.Limits.MaxTimestampBytes < 0 || c.Limits.MaxEntriesPerKey < 0 {
		return errors.New("config: limits must not be negative")
	}
	if c.Events.Topic == "" {
		return errors.New("config: events.topic is required")
	}
	return nil
}

// Load reads configuration from a JSON file. If path is empty, returns defaults.
// Fields absent from the file keep their default values.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported; use JSON")
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
