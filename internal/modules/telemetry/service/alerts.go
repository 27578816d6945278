package service

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"weatherhub-server/internal/modules/telemetry/types"
)

// equalTolerance bounds float comparison for "equal" conditions.
const equalTolerance = 1e-6

// CanonicalCondition maps the accepted condition encodings (words and
// comparison symbols) to the stored word form.
func CanonicalCondition(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case types.ConditionAbove, ">", "gt", "exceeds":
		return types.ConditionAbove, nil
	case types.ConditionBelow, "<", "lt":
		return types.ConditionBelow, nil
	case types.ConditionEqual, "==", "=", "eq":
		return types.ConditionEqual, nil
	}
	return "", &types.ValidationError{Field: "condition", Reason: fmt.Sprintf("unknown condition %q", s)}
}

// CreateAlert validates and stores a threshold rule. The sender must
// already exist; rules are never auto-registered against unseen senders.
func (s *serviceImpl) CreateAlert(senderID string, alertType, condition string, threshold any) (int64, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return 0, err
	}
	if !types.ValidAlertType(alertType) {
		return 0, &types.ValidationError{Field: "alert_type", Reason: fmt.Sprintf("unknown type %q", alertType)}
	}
	cond, err := CanonicalCondition(condition)
	if err != nil {
		return 0, err
	}
	value, err := coerceNumber(threshold)
	if err != nil {
		return 0, &types.ValidationError{Field: "threshold", Reason: "not a finite number"}
	}

	if _, err := s.repo.GetSender(id); err != nil {
		return 0, err
	}
	return s.repo.InsertAlertRule(id, alertType, cond, value)
}

func (s *serviceImpl) ListAlerts(senderID string) ([]types.AlertRule, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return nil, err
	}
	return s.repo.ActiveAlertRules(id)
}

// evaluateAlerts runs every active rule against one normalized reading
// and returns the rules that fired. A rule whose channel is absent in
// the reading is skipped; there is no cooldown, so a rule re-fires on
// every qualifying reading. last_triggered is persisted per firing
// before the result is returned.
func (s *serviceImpl) evaluateAlerts(senderID string, rec types.NewReading) []types.AlertRule {
	rules, err := s.repo.ActiveAlertRules(senderID)
	if err != nil {
		slog.Error("alert evaluation: load rules failed", "sender_id", senderID, "error", err)
		s.LogEvent(types.LevelError, "alert_eval_error", err.Error(), &senderID, nil)
		return nil
	}

	var fired []types.AlertRule
	for _, rule := range rules {
		value := channelForAlertType(rec, rule.Type)
		if value == nil {
			continue
		}
		if !conditionMatches(rule.Condition, *value, rule.Threshold) {
			continue
		}

		firedAt := s.now().Unix()
		if err := s.repo.MarkAlertTriggered(rule.ID, firedAt); err != nil {
			slog.Error("alert evaluation: mark triggered failed", "rule_id", rule.ID, "error", err)
		}
		rule.LastTriggered = &firedAt
		rule.NotificationSent = false
		fired = append(fired, rule)
	}
	return fired
}

func channelForAlertType(rec types.NewReading, alertType string) *float64 {
	switch alertType {
	case types.AlertTypeTemperature:
		return rec.Temperature
	case types.AlertTypeHumidity:
		return rec.Humidity
	case types.AlertTypePressure:
		return rec.Pressure
	case types.AlertTypeBattery:
		return rec.BatteryLevel
	}
	return nil
}

func conditionMatches(condition string, value, threshold float64) bool {
	switch condition {
	case types.ConditionAbove:
		return value > threshold
	case types.ConditionBelow:
		return value < threshold
	case types.ConditionEqual:
		return math.Abs(value-threshold) <= equalTolerance
	}
	return false
}
