package repository

import (
	"database/sql"
	"fmt"
	"time"

	"weatherhub-server/internal/modules/telemetry/types"
)

// TelemetryRepository is the single durable store for senders, readings,
// alert rules, statistics and the event log.
type TelemetryRepository interface {
	UpsertSender(id, name string) error
	GetSender(id string) (*types.Sender, error)
	ListActiveSenders() ([]types.Sender, error)
	UpdateSender(id string, upd types.SenderUpdate) error

	InsertReading(senderID string, rec types.NewReading) (int64, error)
	LatestReading(senderID string) (*types.Reading, error)
	ReadingsSince(senderID string, since int64) ([]types.Reading, error)
	HourlySamples(senderID string, since int64, maxBuckets int) ([]types.Reading, error)
	HourlyAverages(senderID string, since int64) ([]types.HourlyAverage, error)
	AggregateWindow(senderID string, from, to int64) (*types.WindowAggregate, error)

	InsertAlertRule(senderID string, alertType, condition string, threshold float64) (int64, error)
	ActiveAlertRules(senderID string) ([]types.AlertRule, error)
	MarkAlertTriggered(ruleID int64, firedAt int64) error

	InsertStatistic(senderID string, s types.Statistic) (int64, error)
	StatisticsByType(senderID, statType string, limit int) ([]types.Statistic, error)

	AppendEvent(e types.Event) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) TelemetryRepository {
	return &repositoryImpl{db: db}
}

func storeErr(op string, err error) error {
	return &types.StorageError{Op: op, Err: err}
}

func parseStoredTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, s)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", s, err, err2)
		}
	}
	return t, nil
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
