package service

import (
	"fmt"

	"weatherhub-server/internal/modules/telemetry/types"
)

func clampHours(h, fallback, ceiling int) int {
	if h <= 0 {
		return fallback
	}
	if h > ceiling {
		return ceiling
	}
	return h
}

func (s *serviceImpl) Latest(senderID string) (*types.Reading, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return nil, err
	}
	return s.repo.LatestReading(id)
}

// Range returns the raw readings of the window, oldest first, plus the
// clamped hour count actually applied.
func (s *serviceImpl) Range(senderID string, hoursBack int) ([]types.Reading, int, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return nil, 0, err
	}
	hours := clampHours(hoursBack, defaultRangeHours, maxQueryHours)
	since := s.now().Unix() - int64(hours)*3600
	data, err := s.repo.ReadingsSince(id, since)
	return data, hours, err
}

// HourlySamples is the quick-look view: the earliest observed reading of
// each calendar hour, not a synthetic average.
func (s *serviceImpl) HourlySamples(senderID string, hoursBack int) ([]types.Reading, int, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return nil, 0, err
	}
	hours := clampHours(hoursBack, defaultSamplesHours, maxQueryHours)
	since := s.now().Unix() - int64(hours)*3600
	data, err := s.repo.HourlySamples(id, since, hours)
	return data, hours, err
}

func (s *serviceImpl) HourlyAverages(senderID string, hoursBack int) ([]types.HourlyAverage, int, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return nil, 0, err
	}
	hours := clampHours(hoursBack, defaultAveragesHours, maxQueryHours)
	since := s.now().Unix() - int64(hours)*3600
	data, err := s.repo.HourlyAverages(id, since)
	return data, hours, err
}

func (s *serviceImpl) Statistics(senderID, statType string, limit int) ([]types.Statistic, error) {
	id, err := CanonicalSenderID(senderID)
	if err != nil {
		return nil, err
	}
	if !types.ValidStatType(statType) {
		return nil, &types.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown stat type %q", statType)}
	}
	if limit <= 0 {
		limit = defaultStatsLimit
	}
	if limit > maxStatsLimit {
		limit = maxStatsLimit
	}
	return s.repo.StatisticsByType(id, statType, limit)
}

// RangeAll fans a windowed query out across every active sender for the
// bulk visualization view, under the tighter bulk clamp.
func (s *serviceImpl) RangeAll(hoursBack int) (map[string]SenderSeries, int, error) {
	hours := clampHours(hoursBack, defaultRangeHours, maxBulkQueryHours)
	since := s.now().Unix() - int64(hours)*3600

	senders, err := s.repo.ListActiveSenders()
	if err != nil {
		return nil, 0, err
	}

	out := make(map[string]SenderSeries, len(senders))
	for _, sender := range senders {
		data, err := s.repo.ReadingsSince(sender.ID, since)
		if err != nil {
			return nil, 0, err
		}
		out[sender.ID] = SenderSeries{Name: sender.Name, Data: data}
	}
	return out, hours, nil
}

func (s *serviceImpl) SenderNames() (map[string]string, error) {
	senders, err := s.repo.ListActiveSenders()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(senders))
	for _, sender := range senders {
		names[sender.ID] = sender.Name
	}
	return names, nil
}

func (s *serviceImpl) ListSenders() ([]types.Sender, error) {
	return s.repo.ListActiveSenders()
}

func (s *serviceImpl) UpdateSender(id string, upd types.SenderUpdate) (*types.Sender, error) {
	canonical, err := CanonicalSenderID(id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSender(canonical, upd); err != nil {
		return nil, err
	}
	sender, err := s.repo.GetSender(canonical)
	if err != nil {
		return nil, err
	}
	if !upd.Empty() {
		s.LogEvent(types.LevelInfo, "sender_updated", "sender metadata updated", &canonical, nil)
	}
	return sender, nil
}
