package auditlogv1

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrBadMessage is returned when a wire struct is missing a required field
// or carries a field of the wrong kind.
var ErrBadMessage = errors.New("malformed message")

// Byte fields travel as base64 strings and 64-bit integers as decimal
// strings, since structpb numbers are doubles.

type SaveRequest struct {
	LogID     []byte
	Period    []byte
	Title     []byte
	Content   []byte
	Timestamp []byte
}

func (r SaveRequest) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"log_id":    bytesValue(r.LogID),
		"period":    bytesValue(r.Period),
		"title":     bytesValue(r.Title),
		"content":   bytesValue(r.Content),
		"timestamp": bytesValue(r.Timestamp),
	}}
}

func SaveRequestFromStruct(s *structpb.Struct) (SaveRequest, error) {
	var (
		r   SaveRequest
		err error
	)
	for _, f := range []struct {
		key string
		dst *[]byte
	}{
		{"log_id", &r.LogID},
		{"period", &r.Period},
		{"title", &r.Title},
		{"content", &r.Content},
		{"timestamp", &r.Timestamp},
	} {
		if *f.dst, err = requireBytes(s, f.key); err != nil {
			return SaveRequest{}, err
		}
	}
	return r, nil
}

type SaveResponse struct {
	Outcome string
	EventID string
}

func (r SaveResponse) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"outcome":  structpb.NewStringValue(r.Outcome),
		"event_id": structpb.NewStringValue(r.EventID),
	}}
}

func SaveResponseFromStruct(s *structpb.Struct) SaveResponse {
	return SaveResponse{Outcome: stringField(s, "outcome"), EventID: stringField(s, "event_id")}
}

type RetrieveRequest struct {
	LogID  []byte
	Period []byte
	Filter string
	Limit  int
}

func (r RetrieveRequest) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"log_id": bytesValue(r.LogID),
		"period": bytesValue(r.Period),
		"filter": structpb.NewStringValue(r.Filter),
		"limit":  structpb.NewNumberValue(float64(r.Limit)),
	}}
}

func RetrieveRequestFromStruct(s *structpb.Struct) (RetrieveRequest, error) {
	logID, err := requireBytes(s, "log_id")
	if err != nil {
		return RetrieveRequest{}, err
	}
	period, err := requireBytes(s, "period")
	if err != nil {
		return RetrieveRequest{}, err
	}
	limit := int(s.GetFields()["limit"].GetNumberValue())
	if limit < 0 {
		limit = 0
	}
	return RetrieveRequest{LogID: logID, Period: period, Filter: stringField(s, "filter"), Limit: limit}, nil
}

type Entry struct {
	Index     int
	Title     []byte
	Content   []byte
	Timestamp []byte
	Reporter  string
}

type RetrieveResponse struct {
	Entries []Entry
}

func (r RetrieveResponse) ToStruct() *structpb.Struct {
	list := make([]*structpb.Value, len(r.Entries))
	for i, e := range r.Entries {
		list[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"index":     structpb.NewNumberValue(float64(e.Index)),
			"title":     bytesValue(e.Title),
			"content":   bytesValue(e.Content),
			"timestamp": bytesValue(e.Timestamp),
			"reporter":  structpb.NewStringValue(e.Reporter),
		}})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"entries": structpb.NewListValue(&structpb.ListValue{Values: list}),
	}}
}

func RetrieveResponseFromStruct(s *structpb.Struct) (RetrieveResponse, error) {
	values := s.GetFields()["entries"].GetListValue().GetValues()
	out := RetrieveResponse{Entries: make([]Entry, 0, len(values))}
	for _, v := range values {
		es := v.GetStructValue()
		if es == nil {
			return RetrieveResponse{}, fmt.Errorf("%w: entries must hold objects", ErrBadMessage)
		}
		e := Entry{Index: int(es.GetFields()["index"].GetNumberValue()), Reporter: stringField(es, "reporter")}
		var err error
		if e.Title, err = requireBytes(es, "title"); err != nil {
			return RetrieveResponse{}, err
		}
		if e.Content, err = requireBytes(es, "content"); err != nil {
			return RetrieveResponse{}, err
		}
		if e.Timestamp, err = requireBytes(es, "timestamp"); err != nil {
			return RetrieveResponse{}, err
		}
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}

// LogRequest addresses a whole log. Used by Owner and Periods.
type LogRequest struct {
	LogID []byte
}

func (r LogRequest) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"log_id": bytesValue(r.LogID)}}
}

func LogRequestFromStruct(s *structpb.Struct) (LogRequest, error) {
	logID, err := requireBytes(s, "log_id")
	if err != nil {
		return LogRequest{}, err
	}
	return LogRequest{LogID: logID}, nil
}

type OwnerResponse struct {
	Owner string
	Owned bool
}

func (r OwnerResponse) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"owner": structpb.NewStringValue(r.Owner),
		"owned": structpb.NewBoolValue(r.Owned),
	}}
}

func OwnerResponseFromStruct(s *structpb.Struct) OwnerResponse {
	return OwnerResponse{Owner: stringField(s, "owner"), Owned: s.GetFields()["owned"].GetBoolValue()}
}

type PeriodsResponse struct {
	Periods [][]byte
}

func (r PeriodsResponse) ToStruct() *structpb.Struct {
	list := make([]*structpb.Value, len(r.Periods))
	for i, p := range r.Periods {
		list[i] = bytesValue(p)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"periods": structpb.NewListValue(&structpb.ListValue{Values: list}),
	}}
}

func PeriodsResponseFromStruct(s *structpb.Struct) (PeriodsResponse, error) {
	values := s.GetFields()["periods"].GetListValue().GetValues()
	out := PeriodsResponse{Periods: make([][]byte, 0, len(values))}
	for _, v := range values {
		b, err := decodeBytes("periods", v)
		if err != nil {
			return PeriodsResponse{}, err
		}
		out.Periods = append(out.Periods, b)
	}
	return out, nil
}

type WatchRequest struct {
	After   uint64
	SinceMs int64
	Group   string
}

func (r WatchRequest) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"after":    structpb.NewStringValue(strconv.FormatUint(r.After, 10)),
		"since_ms": structpb.NewStringValue(strconv.FormatInt(r.SinceMs, 10)),
		"group":    structpb.NewStringValue(r.Group),
	}}
}

func WatchRequestFromStruct(s *structpb.Struct) (WatchRequest, error) {
	r := WatchRequest{Group: stringField(s, "group")}
	if v := stringField(s, "after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return WatchRequest{}, fmt.Errorf("%w: after: %v", ErrBadMessage, err)
		}
		r.After = n
	}
	if v := stringField(s, "since_ms"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return WatchRequest{}, fmt.Errorf("%w: since_ms: %v", ErrBadMessage, err)
		}
		r.SinceMs = n
	}
	return r, nil
}

type Event struct {
	ID       string
	Seq      uint64
	LogID    []byte
	Period   []byte
	Reporter string
	Outcome  string
	AtMs     int64
}

func (e Event) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":       structpb.NewStringValue(e.ID),
		"seq":      structpb.NewStringValue(strconv.FormatUint(e.Seq, 10)),
		"log_id":   bytesValue(e.LogID),
		"period":   bytesValue(e.Period),
		"reporter": structpb.NewStringValue(e.Reporter),
		"outcome":  structpb.NewStringValue(e.Outcome),
		"at_ms":    structpb.NewStringValue(strconv.FormatInt(e.AtMs, 10)),
	}}
}

func EventFromStruct(s *structpb.Struct) (Event, error) {
	e := Event{ID: stringField(s, "id"), Reporter: stringField(s, "reporter"), Outcome: stringField(s, "outcome")}
	var err error
	if e.Seq, err = strconv.ParseUint(stringField(s, "seq"), 10, 64); err != nil {
		return Event{}, fmt.Errorf("%w: seq: %v", ErrBadMessage, err)
	}
	if e.AtMs, err = strconv.ParseInt(stringField(s, "at_ms"), 10, 64); err != nil {
		return Event{}, fmt.Errorf("%w: at_ms: %v", ErrBadMessage, err)
	}
	if e.LogID, err = requireBytes(s, "log_id"); err != nil {
		return Event{}, err
	}
	if e.Period, err = requireBytes(s, "period"); err != nil {
		return Event{}, err
	}
	return e, nil
}

func bytesValue(b []byte) *structpb.Value {
	return structpb.NewStringValue(base64.StdEncoding.EncodeToString(b))
}

func requireBytes(s *structpb.Struct, key string) ([]byte, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s is required", ErrBadMessage, key)
	}
	return decodeBytes(key, v)
}

func decodeBytes(key string, v *structpb.Value) ([]byte, error) {
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a base64 string", ErrBadMessage, key)
	}
	b, err := base64.StdEncoding.DecodeString(sv.StringValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadMessage, key, err)
	}
	return b, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
