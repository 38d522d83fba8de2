package grpcserver

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	auditlogv1 "github.com/rzbill/auditlog/api/auditlog/v1"
	"github.com/rzbill/auditlog/internal/audit"
	"github.com/rzbill/auditlog/internal/auth"
	"github.com/rzbill/auditlog/internal/notify"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
	"github.com/rzbill/auditlog/pkg/id"
)

type auditLogSvc struct {
	auditlogv1.UnimplementedAuditLogServer
	svc *auditsvc.Service
}

func (s *auditLogSvc) Save(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, ok := auth.AccountFrom(ctx)
	if !ok {
		return nil, audit.ErrNoCaller
	}
	req, err := auditlogv1.SaveRequestFromStruct(in)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Save(ctx, caller, audit.Request{
		LogID:     req.LogID,
		Period:    req.Period,
		Title:     req.Title,
		Content:   req.Content,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	out := auditlogv1.SaveResponse{Outcome: res.Outcome.String()}
	if res.EventID != id.Nil {
		out.EventID = res.EventID.String()
	}
	return out.ToStruct(), nil
}

func (s *auditLogSvc) Retrieve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := auditlogv1.RetrieveRequestFromStruct(in)
	if err != nil {
		return nil, err
	}
	entries, err := s.svc.Retrieve(ctx, req.LogID, req.Period, auditsvc.RetrieveOptions{Filter: req.Filter, Limit: req.Limit})
	if err != nil {
		return nil, err
	}
	out := auditlogv1.RetrieveResponse{Entries: make([]auditlogv1.Entry, len(entries))}
	for i, e := range entries {
		out.Entries[i] = auditlogv1.Entry{
			Index:     e.Index,
			Title:     e.Title,
			Content:   e.Content,
			Timestamp: e.Timestamp,
			Reporter:  string(e.Reporter),
		}
	}
	return out.ToStruct(), nil
}

func (s *auditLogSvc) Owner(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := auditlogv1.LogRequestFromStruct(in)
	if err != nil {
		return nil, err
	}
	owner, ok, err := s.svc.OwnerOf(ctx, req.LogID)
	if err != nil {
		return nil, err
	}
	return auditlogv1.OwnerResponse{Owner: string(owner), Owned: ok}.ToStruct(), nil
}

func (s *auditLogSvc) Periods(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := auditlogv1.LogRequestFromStruct(in)
	if err != nil {
		return nil, err
	}
	periods, err := s.svc.Periods(ctx, req.LogID)
	if err != nil {
		return nil, err
	}
	return auditlogv1.PeriodsResponse{Periods: periods}.ToStruct(), nil
}

func (s *auditLogSvc) Watch(in *structpb.Struct, stream auditlogv1.AuditLog_WatchServer) error {
	req, err := auditlogv1.WatchRequestFromStruct(in)
	if err != nil {
		return err
	}
	opts := notify.WatchOptions{After: req.After, SinceMs: req.SinceMs, Group: req.Group}
	return s.svc.Watch(stream.Context(), opts, func(ev notify.Event) error {
		return stream.Send(auditlogv1.Event{
			ID:       ev.ID.String(),
			Seq:      ev.Seq,
			LogID:    ev.LogID,
			Period:   ev.Period,
			Reporter: string(ev.Reporter),
			Outcome:  ev.Outcome,
			AtMs:     ev.AtMs,
		}.ToStruct())
	})
}
