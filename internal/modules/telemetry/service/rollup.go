package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"weatherhub-server/internal/modules/telemetry/types"
)

// rollupPeriod returns the closed-open window ending at the boundary
// before end for the given granularity.
func rollupPeriod(statType string, end time.Time) (int64, int64, error) {
	utc := end.UTC()
	switch statType {
	case types.StatHourly:
		boundary := utc.Truncate(time.Hour)
		return boundary.Add(-time.Hour).Unix(), boundary.Unix(), nil
	case types.StatDaily:
		boundary := utc.Truncate(24 * time.Hour)
		return boundary.Add(-24 * time.Hour).Unix(), boundary.Unix(), nil
	case types.StatWeekly:
		boundary := utc.Truncate(24 * time.Hour)
		return boundary.Add(-7 * 24 * time.Hour).Unix(), boundary.Unix(), nil
	case types.StatMonthly:
		boundary := utc.Truncate(24 * time.Hour)
		return boundary.Add(-30 * 24 * time.Hour).Unix(), boundary.Unix(), nil
	}
	return 0, 0, &types.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown stat type %q", statType)}
}

// ComputeRollup aggregates the most recent completed period of the given
// granularity and persists it. Returns nil without persisting when the
// period holds no readings.
func (s *serviceImpl) ComputeRollup(senderID, statType string, end time.Time) (*types.Statistic, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return nil, err
	}
	from, to, err := rollupPeriod(statType, end)
	if err != nil {
		return nil, err
	}

	agg, err := s.repo.AggregateWindow(id, from, to)
	if err != nil {
		return nil, err
	}
	if agg.DataPoints == 0 {
		return nil, nil
	}

	stat := types.Statistic{
		SenderID:       id,
		StatType:       statType,
		PeriodStart:    from,
		PeriodEnd:      to,
		MinTemperature: agg.MinTemperature,
		AvgTemperature: agg.AvgTemperature,
		MaxTemperature: agg.MaxTemperature,
		MinHumidity:    agg.MinHumidity,
		AvgHumidity:    agg.AvgHumidity,
		MaxHumidity:    agg.MaxHumidity,
		AvgPressure:    agg.AvgPressure,
		DataPoints:     agg.DataPoints,
	}
	statID, err := s.repo.InsertStatistic(id, stat)
	if err != nil {
		return nil, err
	}
	stat.ID = statID
	return &stat, nil
}

// RunRollupLoop periodically materializes hourly rollups for every
// active sender, plus daily rollups on the first tick of each UTC day.
// Blocks until ctx is canceled.
func (s *serviceImpl) RunRollupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.rollupTick(now)
		}
	}
}

func (s *serviceImpl) rollupTick(now time.Time) {
	senders, err := s.repo.ListActiveSenders()
	if err != nil {
		slog.Error("rollup: list senders failed", "error", err)
		return
	}

	granularities := []string{types.StatHourly}
	if now.UTC().Hour() == 0 {
		granularities = append(granularities, types.StatDaily)
	}

	var computed int
	for _, sender := range senders {
		for _, g := range granularities {
			stat, err := s.ComputeRollup(sender.ID, g, now)
			if err != nil {
				slog.Error("rollup failed", "sender_id", sender.ID, "type", g, "error", err)
				s.LogEvent(types.LevelError, "rollup_error", err.Error(), &sender.ID, nil)
				continue
			}
			if stat != nil {
				computed++
			}
		}
	}
	slog.Debug("rollup tick complete", "senders", len(senders), "computed", computed)
}
