package config

import (
	"os"
	"strconv"
)

// FromEnv overlays AUDITLOG_* environment variables onto cfg. Malformed
// numeric values are ignored.
func FromEnv(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("AUDITLOG_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("AUDITLOG_STORAGE_FSYNC", &cfg.Storage.Fsync)
	num("AUDITLOG_STORAGE_FSYNC_INTERVAL_MS", &cfg.Storage.FsyncIntervalMs)
	str("AUDITLOG_STORAGE_SQLITE_PATH", &cfg.Storage.SQLitePath)

	num("AUDITLOG_LIMITS_MAX_TITLE_BYTES", &cfg.Limits.MaxTitleBytes)
	num("AUDITLOG_LIMITS_MAX_CONTENT_BYTES", &cfg.Limits.MaxContentBytes)
	num("AUDITLOG_LIMITS_MAX_TIMESTAMP_BYTES", &cfg.Limits.MaxTimestampBytes)
	num("AUDITLOG_LIMITS_MAX_ENTRIES_PER_KEY", &cfg.Limits.MaxEntriesPerKey)

	str("AUDITLOG_AUTH_MODE", &cfg.Auth.Mode)
	str("AUDITLOG_AUTH_SECRET", &cfg.Auth.Secret)
	str("AUDITLOG_AUTH_ISSUER", &cfg.Auth.Issuer)
	str("AUDITLOG_AUTH_HEADER", &cfg.Auth.Header)
	num("AUDITLOG_AUTH_TOKEN_TTL_SECONDS", &cfg.Auth.TokenTTLSeconds)

	if v := os.Getenv("AUDITLOG_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RPS = f
		}
	}
	num("AUDITLOG_RATE_LIMIT_BURST", &cfg.RateLimit.Burst)

	str("AUDITLOG_EVENTS_TOPIC", &cfg.Events.Topic)
	num("AUDITLOG_EVENTS_MAX_ENTRIES", &cfg.Events.MaxEntries)
	num("AUDITLOG_EVENTS_MAX_AGE_HOURS", &cfg.Events.MaxAgeHours)
	num("AUDITLOG_EVENTS_TRIM_INTERVAL_MS", &cfg.Events.TrimIntervalMs)

	str("AUDITLOG_LOG_LEVEL", &cfg.Log.Level)
	str("AUDITLOG_LOG_FORMAT", &cfg.Log.Format)
}
