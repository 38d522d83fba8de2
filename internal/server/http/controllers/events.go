package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/auditlog/internal/notify"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

// EventsController streams audit notifications over SSE.
type EventsController struct {
	svc    *auditsvc.Service
	logger logpkg.Logger
}

// NewEventsController creates an events controller.
func NewEventsController(svc *auditsvc.Service, logger logpkg.Logger) *EventsController {
	return &EventsController{svc: svc, logger: logger}
}

// RegisterRoutes registers GET /v1/events.
func (c *EventsController) RegisterRoutes(r chi.Router) {
	r.Get("/v1/events", c.handleWatch)
}

// handleWatch streams notifications until the client goes away.
//
// Query: after (sequence, exclusive), since (ms or RFC3339), group (durable
// cursor), encoding. A Last-Event-ID header takes the place of after.
func (c *EventsController) handleWatch(w http.ResponseWriter, r *http.Request) {
	if !c.svc.CanWatch() {
		writeServiceError(w, auditsvc.ErrNoEvents)
		return
	}
	q := r.URL.Query()
	enc, err := parseEncoding(q.Get("encoding"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := notify.WatchOptions{
		SinceMs: parseTimestamp(q.Get("since")),
		Group:   q.Get("group"),
	}
	after := q.Get("after")
	if after == "" {
		after = r.Header.Get("Last-Event-ID")
	}
	if after != "" {
		seq, err := strconv.ParseUint(after, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after must be a sequence number")
			return
		}
		opts.After = seq
	}

	sse := newSSEWriter(w)
	if err := sse.Comment("watching"); err != nil {
		return
	}
	err = c.svc.Watch(r.Context(), opts, func(ev notify.Event) error {
		return sse.Send(ev.Seq, "audit", newEventView(enc, ev))
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		c.logger.Warn("watch ended", logpkg.Err(err))
	}
}
