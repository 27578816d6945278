package repository

import (
	"database/sql"
	_ "embed"
	"log/slog"

	"weatherhub-server/internal/modules/telemetry/types"
)

//go:embed sql/insert-statistic.sql
var insertStatisticSQL string

//go:embed sql/statistics-by-type.sql
var statisticsByTypeSQL string

func (r *repositoryImpl) InsertStatistic(senderID string, s types.Statistic) (int64, error) {
	res, err := r.db.Exec(insertStatisticSQL,
		senderID,
		s.StatType,
		s.PeriodStart,
		s.PeriodEnd,
		nullFloat(s.MinTemperature),
		nullFloat(s.AvgTemperature),
		nullFloat(s.MaxTemperature),
		nullFloat(s.MinHumidity),
		nullFloat(s.AvgHumidity),
		nullFloat(s.MaxHumidity),
		nullFloat(s.AvgPressure),
		s.DataPoints,
	)
	if err != nil {
		return 0, storeErr("insert statistic", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert statistic id", err)
	}
	return id, nil
}

func (r *repositoryImpl) StatisticsByType(senderID, statType string, limit int) ([]types.Statistic, error) {
	rows, err := r.db.Query(statisticsByTypeSQL, senderID, statType, limit)
	if err != nil {
		return nil, storeErr("statistics by type", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close statistic rows", "error", err)
		}
	}()

	var out []types.Statistic
	for rows.Next() {
		var (
			st               types.Statistic
			minT, avgT, maxT sql.NullFloat64
			minH, avgH, maxH sql.NullFloat64
			avgP             sql.NullFloat64
			createdAt        string
		)
		if err := rows.Scan(&st.ID, &st.SenderID, &st.StatType, &st.PeriodStart, &st.PeriodEnd,
			&minT, &avgT, &maxT, &minH, &avgH, &maxH, &avgP, &st.DataPoints, &createdAt); err != nil {
			return nil, storeErr("scan statistic", err)
		}
		st.MinTemperature = floatPtr(minT)
		st.AvgTemperature = floatPtr(avgT)
		st.MaxTemperature = floatPtr(maxT)
		st.MinHumidity = floatPtr(minH)
		st.AvgHumidity = floatPtr(avgH)
		st.MaxHumidity = floatPtr(maxH)
		st.AvgPressure = floatPtr(avgP)
		if st.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, storeErr("scan statistic time", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("statistics by type", err)
	}
	return out, nil
}
