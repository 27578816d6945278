package service

import (
	"context"
	"time"

	"weatherhub-server/internal/modules/telemetry/repository"
	"weatherhub-server/internal/modules/telemetry/types"
)

// Aggregation window clamps. Multi-sender bulk queries get a tighter
// bound because they fan out across every active sender.
const (
	defaultRangeHours    = 24
	defaultSamplesHours  = 5
	defaultAveragesHours = 24
	maxQueryHours        = 720
	maxBulkQueryHours    = 168

	defaultStatsLimit = 24
	maxStatsLimit     = 1000
)

// IngestResult reports one accepted reading and the alert rules it fired.
type IngestResult struct {
	RowID  int64             `json:"id"`
	Sender string            `json:"sender"`
	Alerts []types.AlertRule `json:"alerts,omitempty"`
}

// BatchError locates one failed entry inside a batch.
type BatchError struct {
	Index   int    `json:"index"`
	Sender  string `json:"sender,omitempty"`
	Message string `json:"message"`
}

// EntryAlerts carries the rules fired by one batch entry.
type EntryAlerts struct {
	Index  int               `json:"index"`
	Sender string            `json:"sender"`
	Alerts []types.AlertRule `json:"alerts"`
}

// BatchResult summarizes a batch: successes are committed even when other
// entries fail, so Processed+len(Errors) may be less than Total (skipped
// entries count toward neither).
type BatchResult struct {
	Processed int           `json:"processed"`
	Total     int           `json:"total"`
	Errors    []BatchError  `json:"errors,omitempty"`
	Alerts    []EntryAlerts `json:"alerts,omitempty"`
}

// SenderSeries is one sender's slice of a bulk multi-sender query.
type SenderSeries struct {
	Name string          `json:"name"`
	Data []types.Reading `json:"data"`
}

type TelemetryService interface {
	Ingest(senderID any, payload map[string]any) (*IngestResult, error)
	IngestBatch(entries []map[string]any) (*BatchResult, error)

	Latest(senderID string) (*types.Reading, error)
	Range(senderID string, hoursBack int) ([]types.Reading, int, error)
	HourlySamples(senderID string, hoursBack int) ([]types.Reading, int, error)
	HourlyAverages(senderID string, hoursBack int) ([]types.HourlyAverage, int, error)
	Statistics(senderID, statType string, limit int) ([]types.Statistic, error)
	RangeAll(hoursBack int) (map[string]SenderSeries, int, error)

	SenderNames() (map[string]string, error)
	ListSenders() ([]types.Sender, error)
	UpdateSender(id string, upd types.SenderUpdate) (*types.Sender, error)

	CreateAlert(senderID string, alertType, condition string, threshold any) (int64, error)
	ListAlerts(senderID string) ([]types.AlertRule, error)

	LogEvent(level, eventType, message string, senderID *string, metadata map[string]any)

	ComputeRollup(senderID, statType string, end time.Time) (*types.Statistic, error)
	RunRollupLoop(ctx context.Context, interval time.Duration)
}

type serviceImpl struct {
	repo repository.TelemetryRepository
	now  func() time.Time
}

func NewService(repo repository.TelemetryRepository) TelemetryService {
	return &serviceImpl{repo: repo, now: time.Now}
}
