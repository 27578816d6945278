package service

import (
	"log/slog"

	"weatherhub-server/internal/modules/telemetry/types"
)

// LogEvent appends one operational record. Failures are reported to the
// process log only; the event log must never fail a caller's primary
// operation.
func (s *serviceImpl) LogEvent(level, eventType, message string, senderID *string, metadata map[string]any) {
	err := s.repo.AppendEvent(types.Event{
		Level:     level,
		EventType: eventType,
		Message:   message,
		SenderID:  senderID,
		Metadata:  metadata,
	})
	if err != nil {
		slog.Error("event log append failed", "event_type", eventType, "error", err)
	}
}
