// Package log provides the structured logging facade used across auditlog.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Records flow through a slog handler that
// feeds our formatter/outputs pipeline, so any slog-aware library can share the
// same sinks.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("server"), log.Str("backend", "pebble"))
//	l.Info("server started", log.Int("port", 8080))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or json
// format, console/file/null outputs, redacted keys and sampling).
//
// # Interop
//
// ToStdLogger and RedirectStdLog route the standard library logger (used by
// Pebble) into a Logger.
package log
