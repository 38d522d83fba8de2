package controllers

import (
	"github.com/go-chi/chi/v5"

	"github.com/rzbill/auditlog/internal/runtime"
	auditsvc "github.com/rzbill/auditlog/internal/services/auditlog"
	logpkg "github.com/rzbill/auditlog/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	logs    *LogsController
	events  *EventsController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime and service.
func NewControllerRegistry(rt *runtime.Runtime, svc *auditsvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		logs:    NewLogsController(svc),
		events:  NewEventsController(svc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given router.
func (r *ControllerRegistry) RegisterAllRoutes(router chi.Router) {
	r.general.RegisterRoutes(router)
	r.logs.RegisterRoutes(router)
	r.events.RegisterRoutes(router)
}
