package controllers

import (
	"github.com/rzbill/auditlog/internal/audit"
	"github.com/rzbill/auditlog/internal/notify"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
)

// saveReq is the body of POST /v1/logs. Byte fields are interpreted
// according to Encoding.
type saveReq struct {
	LogID     string `json:"logId"`
	Period    string `json:"period"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Encoding  string `json:"encoding,omitempty"`
}

func (r saveReq) toRequest() (audit.Request, error) {
	enc, err := parseEncoding(r.Encoding)
	if err != nil {
		return audit.Request{}, err
	}
	var out audit.Request
	fields := []struct {
		src string
		dst *[]byte
	}{
		{r.LogID, &out.LogID},
		{r.Period, &out.Period},
		{r.Title, &out.Title},
		{r.Content, &out.Content},
		{r.Timestamp, &out.Timestamp},
	}
	for _, f := range fields {
		b, err := enc.decode(f.src)
		if err != nil {
			return audit.Request{}, err
		}
		*f.dst = b
	}
	return out, nil
}

type saveResp struct {
	Outcome string `json:"outcome"`
	EventID string `json:"eventId,omitempty"`
}

type entryView struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Reporter  string `json:"reporter"`
}

func newEntryView(enc Encoding, e auditsvc.IndexedEntry) entryView {
	return entryView{
		Index:     e.Index,
		Title:     enc.encode(e.Title),
		Content:   enc.encode(e.Content),
		Timestamp: enc.encode(e.Timestamp),
		Reporter:  string(e.Reporter),
	}
}

type retrieveResp struct {
	LogID   string      `json:"logId"`
	Period  string      `json:"period"`
	Entries []entryView `json:"entries"`
}

type ownerResp struct {
	LogID string `json:"logId"`
	Owner string `json:"owner,omitempty"`
	Owned bool   `json:"owned"`
}

type periodsResp struct {
	LogID   string   `json:"logId"`
	Periods []string `json:"periods"`
}

type eventView struct {
	ID       string `json:"id"`
	Seq      uint64 `json:"seq"`
	LogID    string `json:"logId"`
	Period   string `json:"period"`
	Reporter string `json:"reporter"`
	Outcome  string `json:"outcome"`
	AtMs     int64  `json:"atMs"`
}

func newEventView(enc Encoding, ev notify.Event) eventView {
	return eventView{
		ID:       ev.ID.String(),
		Seq:      ev.Seq,
		LogID:    enc.encode(ev.LogID),
		Period:   enc.encode(ev.Period),
		Reporter: string(ev.Reporter),
		Outcome:  ev.Outcome,
		AtMs:     ev.AtMs,
	}
}
