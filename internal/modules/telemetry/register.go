package telemetry

import (
	"database/sql"
	"log/slog"
	"net/http"

	"weatherhub-server/internal/modules/telemetry/controller"
	"weatherhub-server/internal/modules/telemetry/repository"
	"weatherhub-server/internal/modules/telemetry/service"
)

// RegisterFeature wires the telemetry module into the HTTP mux and
// returns the service so the app can attach the MQTT handler and the
// rollup loop.
func RegisterFeature(mux *http.ServeMux, db *sql.DB) service.TelemetryService {
	telemetryRepository := repository.NewRepository(db)
	telemetryService := service.NewService(telemetryRepository)
	telemetryController := controller.NewTelemetryController(telemetryService)
	telemetryController.RegisterRoutes(mux)
	return telemetryService
}

// RegisterMQTT attaches the module's message handler to an established
// subscriber.
func RegisterMQTT(subscriber MQTTSubscriber, svc service.TelemetryService, logger *slog.Logger) {
	registerMQTTHandler(subscriber, svc, logger)
}
