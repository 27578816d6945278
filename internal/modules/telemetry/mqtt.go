package telemetry

import (
	"log/slog"

	"weatherhub-server/internal/modules/telemetry/service"
)

// MQTTSubscriber interface for attaching message handlers
type MQTTSubscriber interface {
	SetMessageHandler(handler func(payload map[string]any) error)
}

// registerMQTTHandler routes broker payloads through the same ingest
// path the HTTP API uses, so alias resolution, auto-registration and
// alert evaluation behave identically for both transports.
func registerMQTTHandler(subscriber MQTTSubscriber, svc service.TelemetryService, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(payload map[string]any) error {
		rawID, ok := service.SenderIDField(payload)
		if !ok {
			logger.Warn("telemetry message without sender identifier")
			return nil
		}

		res, err := svc.Ingest(rawID, payload)
		if err != nil {
			logger.Error("failed to ingest telemetry", "error", err)
			return err
		}

		logger.Debug("stored telemetry", "sender_id", res.Sender, "reading_id", res.RowID)
		return nil
	})
}
