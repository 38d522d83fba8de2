package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/auditlog/internal/audit"
	"github.com/rzbill/auditlog/internal/auth"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
	"github.com/rzbill/auditlog/pkg/id"
)

// maxBodyBytes bounds POST bodies before decoding. Per-field limits are
// enforced by the service.
const maxBodyBytes = 4 << 20

// LogsController serves the audit log write and read endpoints.
type LogsController struct {
	svc *auditsvc.Service
}

// NewLogsController creates a logs controller backed by svc.
func NewLogsController(svc *auditsvc.Service) *LogsController {
	return &LogsController{svc: svc}
}

// RegisterRoutes registers:
//   - POST /v1/logs           save_audit_log for the authenticated caller
//   - GET  /v1/logs           ordered entries for (logId, period)
//   - GET  /v1/logs/owner     owner of logId
//   - GET  /v1/logs/periods   periods recorded under logId
func (c *LogsController) RegisterRoutes(r chi.Router) {
	r.Post("/v1/logs", c.handleSave)
	r.Get("/v1/logs", c.handleRetrieve)
	r.Get("/v1/logs/owner", c.handleOwner)
	r.Get("/v1/logs/periods", c.handlePeriods)
}

// handleSave appends one entry. Responds 201 when the call claimed the
// logId and 200 when it extended an owned one.
func (c *LogsController) handleSave(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFrom(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", `Bearer realm="auditlog"`)
		writeError(w, http.StatusUnauthorized, audit.ErrNoCaller.Error())
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateBody(saveSchema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req saveReq
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	areq, err := req.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := c.svc.Save(r.Context(), account, areq)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if res.Outcome == audit.OutcomeCreated {
		status = http.StatusCreated
	}
	out := saveResp{Outcome: res.Outcome.String()}
	if res.EventID != id.Nil {
		out.EventID = res.EventID.String()
	}
	writeJSONStatus(w, status, out)
}

// handleRetrieve returns the history of a key. Query: logId, period
// (both required, may be empty), filter, limit, encoding.
func (c *LogsController) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	enc, err := parseEncoding(q.Get("encoding"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logID, err := queryBytes(r, enc, "logId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := queryBytes(r, enc, "period")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := q.Get("filter")
	if len(filter) > 2048 {
		writeError(w, http.StatusBadRequest, "Filter too long")
		return
	}
	entries, err := c.svc.Retrieve(r.Context(), logID, period, auditsvc.RetrieveOptions{
		Filter: filter,
		Limit:  parseLimit(q.Get("limit")),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := retrieveResp{LogID: enc.encode(logID), Period: enc.encode(period), Entries: make([]entryView, len(entries))}
	for i, e := range entries {
		out.Entries[i] = newEntryView(enc, e)
	}
	writeJSON(w, out)
}

func (c *LogsController) handleOwner(w http.ResponseWriter, r *http.Request) {
	enc, err := parseEncoding(r.URL.Query().Get("encoding"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logID, err := queryBytes(r, enc, "logId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	owner, ok, err := c.svc.OwnerOf(r.Context(), logID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, ownerResp{LogID: enc.encode(logID), Owner: string(owner), Owned: ok})
}

func (c *LogsController) handlePeriods(w http.ResponseWriter, r *http.Request) {
	enc, err := parseEncoding(r.URL.Query().Get("encoding"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logID, err := queryBytes(r, enc, "logId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	periods, err := c.svc.Periods(r.Context(), logID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := periodsResp{LogID: enc.encode(logID), Periods: make([]string, len(periods))}
	for i, p := range periods {
		out.Periods[i] = enc.encode(p)
	}
	writeJSON(w, out)
}
