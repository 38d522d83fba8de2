// Package config provides loading and environment overlay for the audit log
// server configuration. It exposes a Default() baseline, a JSON file loader
// and an AUDITLOG_* environment overlay.
//
// Example:
//
//	cfg, err := config.Load("/etc/auditlog.json") // "" yields Default()
//	if err != nil { ... }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { ... }
//	rt, _ := runtime.Open(runtime.Options{DataDir: config.DefaultDataDir(), Config: cfg})
//	defer rt.Close()
package config
