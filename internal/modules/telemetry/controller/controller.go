package controller

import (
	"net/http"

	"weatherhub-server/internal/modules/telemetry/service"
)

type TelemetryController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type telemetryControllerImpl struct {
	service service.TelemetryService
}

func NewTelemetryController(svc service.TelemetryService) TelemetryController {
	return &telemetryControllerImpl{service: svc}
}

func (c *telemetryControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/senders/{id}/readings", c.handleIngest)
	mux.HandleFunc("POST /api/v1/readings/batch", c.handleIngestBatch)
	mux.HandleFunc("GET /api/v1/senders/{id}/latest", c.handleLatest)
	mux.HandleFunc("GET /api/v1/senders/{id}/samples", c.handleSamples)
	mux.HandleFunc("GET /api/v1/senders/{id}/readings", c.handleRange)
	mux.HandleFunc("GET /api/v1/senders/{id}/averages", c.handleAverages)
	mux.HandleFunc("GET /api/v1/senders/{id}/statistics", c.handleStatistics)
	mux.HandleFunc("GET /api/v1/senders/names", c.handleSenderNames)
	mux.HandleFunc("GET /api/v1/senders", c.handleListSenders)
	mux.HandleFunc("PATCH /api/v1/senders/{id}", c.handleUpdateSender)
	mux.HandleFunc("POST /api/v1/senders/{id}/alerts", c.handleCreateAlert)
	mux.HandleFunc("GET /api/v1/senders/{id}/alerts", c.handleListAlerts)
	mux.HandleFunc("GET /api/v1/readings/all", c.handleRangeAll)
}
