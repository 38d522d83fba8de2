package log

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// bridgeHandler adapts slog records to the Formatter and Output pipeline of
// a BaseLogger. Attributes under a group are flattened to "group.key".
type bridgeHandler struct {
	logger *BaseLogger
	attrs  []slog.Attr
	prefix string
	policy *recordPolicy
}

// recordPolicy holds the optional redaction and sampling rules shared by a
// handler and its derivatives.
type recordPolicy struct {
	redact  map[string]struct{}
	sampler *sampler
}

const redacted = "[REDACTED]"

func newBridgeHandler(logger *BaseLogger) *bridgeHandler {
	return &bridgeHandler{logger: logger}
}

func (h *bridgeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return fromSlogLevel(level) >= h.logger.level.v
}

func (h *bridgeHandler) Handle(_ context.Context, r slog.Record) error {
	if p := h.policy; p != nil && p.sampler != nil && !p.sampler.allow(r.Level, r.Message) {
		return nil
	}
	fields := make(Fields, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		h.put(fields, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.put(fields, h.prefix, a)
		return true
	})

	entry := &Entry{
		Level:     fromSlogLevel(r.Level),
		Message:   r.Message,
		Fields:    fields,
		Timestamp: r.Time,
		Caller:    recordCaller(r.PC),
	}
	formatted, err := h.logger.formatter.Format(entry)
	if err != nil {
		return err
	}
	for _, out := range h.logger.outputs {
		_ = out.Write(entry, formatted)
	}
	return nil
}

// put stores a under prefix+key, expanding nested groups and applying the
// redaction list to the leaf key.
func (h *bridgeHandler) put(fields Fields, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			h.put(fields, p, ga)
		}
		return
	}
	if h.policy != nil {
		if _, ok := h.policy.redact[strings.ToLower(a.Key)]; ok {
			fields[prefix+a.Key] = redacted
			return
		}
	}
	val := v.Any()
	if err, ok := val.(error); ok {
		val = err.Error()
	}
	fields[prefix+a.Key] = val
}

func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *bridgeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

// withRedactions returns a copy that masks the values of keys,
// case-insensitively.
func (h *bridgeHandler) withRedactions(keys []string) *bridgeHandler {
	if len(keys) == 0 {
		return h
	}
	nh := *h
	nh.policy = h.policy.clone()
	nh.policy.redact = make(map[string]struct{}, len(keys))
	for _, k := range keys {
		nh.policy.redact[strings.ToLower(k)] = struct{}{}
	}
	return &nh
}

// withSampler returns a copy that keeps the first initial records of each
// (level, message) pair and every thereafter-th one after that.
func (h *bridgeHandler) withSampler(initial, thereafter int) *bridgeHandler {
	if thereafter <= 0 {
		return h
	}
	nh := *h
	nh.policy = h.policy.clone()
	nh.policy.sampler = newSampler(initial, thereafter)
	return &nh
}

func (p *recordPolicy) clone() *recordPolicy {
	if p == nil {
		return &recordPolicy{}
	}
	c := *p
	return &c
}

// recordCaller reports file:line for pc, or for the frame that called a
// BaseLogger method when the record carries no pc.
func recordCaller(pc uintptr) string {
	if pc != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
		if frame.File != "" {
			return frame.File + ":" + strconv.Itoa(frame.Line)
		}
	}
	if _, file, line, ok := runtime.Caller(5); ok {
		return file + ":" + strconv.Itoa(line)
	}
	return ""
}

type sampler struct {
	mu         sync.Mutex
	initial    uint64
	thereafter uint64
	seen       map[string]uint64
}

func newSampler(initial, thereafter int) *sampler {
	s := &sampler{thereafter: 1, seen: make(map[string]uint64)}
	if initial > 0 {
		s.initial = uint64(initial)
	}
	if thereafter > 0 {
		s.thereafter = uint64(thereafter)
	}
	return s
}

func (s *sampler) allow(level slog.Level, message string) bool {
	key := level.String() + "|" + message
	s.mu.Lock()
	n := s.seen[key]
	s.seen[key] = n + 1
	s.mu.Unlock()
	return n < s.initial || (n-s.initial)%s.thereafter == 0
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel, FatalLevel:
		return slog.LevelError
	}
	return slog.LevelInfo
}

func fromSlogLevel(level slog.Level) Level {
	switch {
	case level < slog.LevelInfo:
		return DebugLevel
	case level < slog.LevelWarn:
		return InfoLevel
	case level < slog.LevelError:
		return WarnLevel
	}
	return ErrorLevel
}

func attrsFromMap(m Fields) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(m))
	for k, v := range m {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func attrsFromFieldSlice(fields []Field) []slog.Attr {
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	return attrs
}

// argsToAttrs pairs up key/value args. A non-string key, or a trailing
// value with no key, is stored under "argN".
func argsToAttrs(args []interface{}) []slog.Attr {
	attrs := make([]slog.Attr, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			attrs = append(attrs, slog.Any("arg"+strconv.Itoa(i), args[i]))
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = "arg" + strconv.Itoa(i)
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return attrs
}
