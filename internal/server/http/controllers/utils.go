package controllers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rzbill/auditlog/internal/audit"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service errors onto HTTP statuses. Storage
// failures are reported without detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, audit.ErrUnauthorized):
		writeError(w, http.StatusForbidden, audit.ErrUnauthorized.Error())
	case errors.Is(err, audit.ErrNoCaller):
		writeError(w, http.StatusUnauthorized, audit.ErrNoCaller.Error())
	case errors.Is(err, auditsvc.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, auditsvc.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auditsvc.ErrNoEvents):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Encoding selects how opaque byte fields travel in JSON.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf8"
	EncodingBase64 Encoding = "base64"
)

func parseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingUTF8:
		return EncodingUTF8, nil
	case EncodingBase64:
		return EncodingBase64, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", s)
	}
}

func (e Encoding) decode(s string) ([]byte, error) {
	if e == EncodingBase64 {
		return base64.StdEncoding.DecodeString(s)
	}
	return []byte(s), nil
}

func (e Encoding) encode(b []byte) string {
	if e == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(b)
	}
	return string(b)
}

// queryBytes decodes a required query parameter. Present-but-empty is a
// valid identifier.
func queryBytes(r *http.Request, enc Encoding, name string) ([]byte, error) {
	q := r.URL.Query()
	if !q.Has(name) {
		return nil, fmt.Errorf("%s is required", name)
	}
	b, err := enc.decode(q.Get(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	return b, nil
}

// parseLimit parses a limit string and returns a valid limit value.
//
// Returns 0 for empty strings or invalid values.
func parseLimit(limitStr string) int {
	if limitStr == "" {
		return 0
	}
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		return limit
	}
	return 0
}

// parseTimestamp parses a timestamp string and returns Unix milliseconds.
//
// Supports both RFC3339 format and raw millisecond timestamps.
// Returns 0 for empty strings or invalid values.
func parseTimestamp(ts string) int64 {
	if ts == "" {
		return 0
	}
	if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return ms
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UnixMilli()
	}
	return 0
}
