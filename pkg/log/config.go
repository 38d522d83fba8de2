package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config declares how a process logger is built.
type Config struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	// Outputs lists "console", "null" or "file:<path>". Defaults to console.
	Outputs []string `json:"outputs,omitempty"`
	// RedactKeys replaces the values of these record keys with [REDACTED].
	RedactKeys []string `json:"redactKeys,omitempty"`
	// SampleInitial/SampleThereafter keep the first N identical messages and
	// then every Mth one. Zero disables sampling.
	SampleInitial    int `json:"sampleInitial,omitempty"`
	SampleThereafter int `json:"sampleThereafter,omitempty"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	opts := []LoggerOption{WithLevel(lvl), WithFormatter(formatter)}
	for _, o := range cfg.Outputs {
		switch {
		case o == "console":
			opts = append(opts, WithOutput(NewConsoleOutput()))
		case o == "null":
			opts = append(opts, WithOutput(NullOutput{}))
		case strings.HasPrefix(o, "file:"):
			fo, err := NewFileOutput(strings.TrimPrefix(o, "file:"))
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithOutput(fo))
		default:
			return nil, fmt.Errorf("unknown log output %q", o)
		}
	}
	l := NewLogger(opts...).(*BaseLogger)
	h := l.handler.withRedactions(cfg.RedactKeys).withSampler(cfg.SampleInitial, cfg.SampleThereafter)
	if h != l.handler {
		h.logger = l
		l.handler = h
		l.slogLogger = slog.New(h)
	}
	return l, nil
}
