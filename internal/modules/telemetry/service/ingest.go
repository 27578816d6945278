package service

import (
	"fmt"

	"weatherhub-server/internal/modules/telemetry/types"
)

// Ingest validates and persists one reading, then evaluates the sender's
// active alert rules against it. Alert evaluation is best-effort: its
// failures are logged but never fail an already-committed write.
func (s *serviceImpl) Ingest(senderID any, payload map[string]any) (*IngestResult, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return nil, err
	}
	if id == sentinelSenderID {
		return nil, &types.ValidationError{Field: "sender_id", Reason: "reserved identifier"}
	}

	rec, err := normalizeReading(payload, s.now())
	if err != nil {
		return nil, err
	}

	rowID, err := s.repo.InsertReading(id, rec)
	if err != nil {
		s.LogEvent(types.LevelError, "ingest_error", err.Error(), &id, nil)
		return nil, err
	}

	fired := s.evaluateAlerts(id, rec)
	if len(fired) > 0 {
		ruleIDs := make([]int64, 0, len(fired))
		for _, r := range fired {
			ruleIDs = append(ruleIDs, r.ID)
		}
		s.LogEvent(types.LevelWarning, "alert_triggered",
			fmt.Sprintf("%d alert rule(s) fired", len(fired)),
			&id, map[string]any{"rule_ids": ruleIDs, "reading_id": rowID})
	}

	return &IngestResult{RowID: rowID, Sender: id, Alerts: fired}, nil
}

// IngestBatch processes entries independently: committed entries stay
// committed regardless of later failures. Entries without a usable
// sender identifier (missing, or the sentinel "-1") are skipped silently
// and count as neither success nor error.
func (s *serviceImpl) IngestBatch(entries []map[string]any) (*BatchResult, error) {
	res := &BatchResult{Total: len(entries)}

	for i, entry := range entries {
		rawID, ok := SenderIDField(entry)
		if !ok {
			continue
		}
		id, err := CanonicalSenderID(rawID)
		if err != nil || id == sentinelSenderID {
			continue
		}

		r, err := s.Ingest(id, entry)
		if err != nil {
			res.Errors = append(res.Errors, BatchError{Index: i, Sender: id, Message: err.Error()})
			continue
		}
		res.Processed++
		if len(r.Alerts) > 0 {
			res.Alerts = append(res.Alerts, EntryAlerts{Index: i, Sender: id, Alerts: r.Alerts})
		}
	}

	return res, nil
}
