package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(WithLevel(level), WithFormatter(f), WithOutput(&ConsoleOutput{W: buf}))
	return l, buf
}

func TestJSONOutputCarriesFields(t *testing.T) {
	l, buf := newBufLogger(InfoLevel, &JSONFormatter{})
	l.With(Component("ledger")).Info("append", Str("log_id", "a"), Int("n", 2))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if got["msg"] != "append" || got["level"] != "INFO" {
		t.Fatalf("unexpected entry: %v", got)
	}
	if got["component"] != "ledger" || got["log_id"] != "a" {
		t.Fatalf("missing fields: %v", got)
	}
}

func TestLevelGate(t *testing.T) {
	l, buf := newBufLogger(WarnLevel, &TextFormatter{})
	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestChildSharesLevel(t *testing.T) {
	l, buf := newBufLogger(InfoLevel, &TextFormatter{})
	child := l.WithComponent("svc")
	l.SetLevel(ErrorLevel)
	child.Warn("dropped")
	if buf.Len() != 0 {
		t.Fatalf("child should follow parent level, got %q", buf.String())
	}
	if child.GetLevel() != ErrorLevel {
		t.Fatalf("child level = %v", child.GetLevel())
	}
}

func TestWithErrorAndBytes(t *testing.T) {
	l, buf := newBufLogger(InfoLevel, &TextFormatter{DisableCaller: true})
	l.WithError(errors.New("boom")).Info("x", Bytes("raw", []byte{0x00, 0xff}), Bytes("txt", []byte("log-a")))
	out := buf.String()
	for _, want := range []string{"error=boom", "raw=0x00ff", "txt=log-a"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"debug", DebugLevel, false},
		{"", InfoLevel, false},
		{"warn", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"nope", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestApplyConfigRedacts(t *testing.T) {
	l, err := ApplyConfig(&Config{Level: "info", Format: "json", Outputs: []string{"null"}, RedactKeys: []string{"token"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	buf := &bytes.Buffer{}
	bl := l.(*BaseLogger)
	bl.outputs = []Output{&ConsoleOutput{W: buf}}
	l.Info("login", Str("token", "secret"))
	if strings.Contains(buf.String(), "secret") || !strings.Contains(buf.String(), "[REDACTED]") {
		t.Fatalf("expected redaction, got %q", buf.String())
	}
}

func TestApplyConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSamplerKeepsEveryNth(t *testing.T) {
	s := newSampler(1, 2)
	var kept int
	for i := 0; i < 5; i++ {
		if s.allow(0, "m") {
			kept++
		}
	}
	// first one, then the 2nd and 4th of the remaining four
	if kept != 3 {
		t.Fatalf("kept %d, want 3", kept)
	}
}

func TestToStdLogger(t *testing.T) {
	l, buf := newBufLogger(DebugLevel, &TextFormatter{})
	std := ToStdLogger(l, WarnLevel)
	std.Printf("pebble says %d", 7)
	if !strings.Contains(buf.String(), "pebble says 7") || !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("unexpected %q", buf.String())
	}
}

func TestSlogGroupsFlattenAndRedact(t *testing.T) {
	l, err := ApplyConfig(&Config{Format: "json", Outputs: []string{"null"}, RedactKeys: []string{"Authorization"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	buf := &bytes.Buffer{}
	bl := l.(*BaseLogger)
	bl.outputs = []Output{&ConsoleOutput{W: buf}}
	bl.Slog().WithGroup("http").Info("request", "method", "POST", "authorization", "Bearer x")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if got["http.method"] != "POST" || got["http.authorization"] != "[REDACTED]" {
		t.Fatalf("unexpected entry: %v", got)
	}
}

func TestArgsToAttrs(t *testing.T) {
	attrs := argsToAttrs([]interface{}{"a", 1, 2, 3, "tail"})
	if len(attrs) != 3 || attrs[0].Key != "a" || attrs[1].Key != "arg2" || attrs[2].Key != "arg4" {
		t.Fatalf("unexpected attrs: %v", attrs)
	}
}
