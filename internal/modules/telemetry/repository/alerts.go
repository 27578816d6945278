package repository

import (
	"database/sql"
	_ "embed"
	"log/slog"

	"weatherhub-server/internal/modules/telemetry/types"
)

//go:embed sql/insert-alert-rule.sql
var insertAlertRuleSQL string

//go:embed sql/active-alert-rules.sql
var activeAlertRulesSQL string

//go:embed sql/mark-alert-triggered.sql
var markAlertTriggeredSQL string

func (r *repositoryImpl) InsertAlertRule(senderID string, alertType, condition string, threshold float64) (int64, error) {
	res, err := r.db.Exec(insertAlertRuleSQL, senderID, alertType, condition, threshold)
	if err != nil {
		return 0, storeErr("insert alert rule", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert alert rule id", err)
	}
	return id, nil
}

func (r *repositoryImpl) ActiveAlertRules(senderID string) ([]types.AlertRule, error) {
	rows, err := r.db.Query(activeAlertRulesSQL, senderID)
	if err != nil {
		return nil, storeErr("active alert rules", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close alert rule rows", "error", err)
		}
	}()

	var out []types.AlertRule
	for rows.Next() {
		var (
			rule          types.AlertRule
			active        int
			lastTriggered sql.NullInt64
			notified      int
			createdAt     string
		)
		if err := rows.Scan(&rule.ID, &rule.SenderID, &rule.Type, &rule.Condition,
			&rule.Threshold, &active, &lastTriggered, &notified, &createdAt); err != nil {
			return nil, storeErr("scan alert rule", err)
		}
		rule.IsActive = active != 0
		rule.LastTriggered = int64Ptr(lastTriggered)
		rule.NotificationSent = notified != 0
		if rule.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, storeErr("scan alert rule time", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("active alert rules", err)
	}
	return out, nil
}

// MarkAlertTriggered updates last_triggered in place; firings keep no
// history beyond the event log. Last write wins under concurrency.
func (r *repositoryImpl) MarkAlertTriggered(ruleID int64, firedAt int64) error {
	if _, err := r.db.Exec(markAlertTriggeredSQL, ruleID, firedAt); err != nil {
		return storeErr("mark alert triggered", err)
	}
	return nil
}
