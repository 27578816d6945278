package repository

import (
	"database/sql"
	_ "embed"
	"log/slog"
	"time"

	"weatherhub-server/internal/modules/telemetry/types"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/latest-reading.sql
var latestReadingSQL string

//go:embed sql/readings-since.sql
var readingsSinceSQL string

//go:embed sql/hourly-samples.sql
var hourlySamplesSQL string

//go:embed sql/hourly-averages.sql
var hourlyAveragesSQL string

//go:embed sql/aggregate-window.sql
var aggregateWindowSQL string

// InsertReading persists one normalized reading and returns the row id.
// The referenced sender is created first if it has never been seen; the
// display name defaults to the identifier until updated explicitly.
func (r *repositoryImpl) InsertReading(senderID string, rec types.NewReading) (int64, error) {
	if err := r.UpsertSender(senderID, senderID); err != nil {
		return 0, err
	}

	receivedAt := time.Now().UTC().Format(time.RFC3339Nano)
	var raw any
	if len(rec.RawPayload) > 0 {
		raw = string(rec.RawPayload)
	}

	res, err := r.db.Exec(insertReadingSQL,
		senderID,
		rec.Timestamp,
		nullFloat(rec.Temperature),
		nullFloat(rec.Humidity),
		nullFloat(rec.Pressure),
		nullFloat(rec.LightLevel),
		nullFloat(rec.BatteryLevel),
		nullFloat(rec.SignalStrength),
		receivedAt,
		raw,
	)
	if err != nil {
		return 0, storeErr("insert reading", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert reading id", err)
	}
	return id, nil
}

func (r *repositoryImpl) LatestReading(senderID string) (*types.Reading, error) {
	row := r.db.QueryRow(latestReadingSQL, senderID)
	rec, err := scanReading(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &types.NotFoundError{Kind: "reading", ID: senderID}
		}
		return nil, storeErr("latest reading", err)
	}
	return rec, nil
}

func (r *repositoryImpl) ReadingsSince(senderID string, since int64) ([]types.Reading, error) {
	rows, err := r.db.Query(readingsSinceSQL, senderID, since)
	if err != nil {
		return nil, storeErr("readings since", err)
	}
	return collectReadings(rows)
}

// HourlySamples returns at most maxBuckets rows, one per calendar hour,
// each being the earliest reading of its bucket, oldest bucket first.
func (r *repositoryImpl) HourlySamples(senderID string, since int64, maxBuckets int) ([]types.Reading, error) {
	rows, err := r.db.Query(hourlySamplesSQL, senderID, since, maxBuckets)
	if err != nil {
		return nil, storeErr("hourly samples", err)
	}
	return collectReadings(rows)
}

func (r *repositoryImpl) HourlyAverages(senderID string, since int64) ([]types.HourlyAverage, error) {
	rows, err := r.db.Query(hourlyAveragesSQL, senderID, since)
	if err != nil {
		return nil, storeErr("hourly averages", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close average rows", "error", err)
		}
	}()

	var out []types.HourlyAverage
	for rows.Next() {
		var (
			h                     types.HourlyAverage
			avgT, minT, maxT      sql.NullFloat64
			avgHumidity, avgPress sql.NullFloat64
		)
		if err := rows.Scan(&h.BucketStart, &avgT, &minT, &maxT, &avgHumidity, &avgPress, &h.Count); err != nil {
			return nil, storeErr("scan hourly average", err)
		}
		h.AvgTemperature = floatPtr(avgT)
		h.MinTemperature = floatPtr(minT)
		h.MaxTemperature = floatPtr(maxT)
		h.AvgHumidity = floatPtr(avgHumidity)
		h.AvgPressure = floatPtr(avgPress)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("hourly averages", err)
	}
	return out, nil
}

// AggregateWindow computes min/avg/max over [from, to) for the rollup job.
func (r *repositoryImpl) AggregateWindow(senderID string, from, to int64) (*types.WindowAggregate, error) {
	var (
		agg              types.WindowAggregate
		minT, avgT, maxT sql.NullFloat64
		minH, avgH, maxH sql.NullFloat64
		avgP             sql.NullFloat64
	)
	err := r.db.QueryRow(aggregateWindowSQL, senderID, from, to).Scan(
		&minT, &avgT, &maxT, &minH, &avgH, &maxH, &avgP, &agg.DataPoints,
	)
	if err != nil {
		return nil, storeErr("aggregate window", err)
	}
	agg.MinTemperature = floatPtr(minT)
	agg.AvgTemperature = floatPtr(avgT)
	agg.MaxTemperature = floatPtr(maxT)
	agg.MinHumidity = floatPtr(minH)
	agg.AvgHumidity = floatPtr(avgH)
	agg.MaxHumidity = floatPtr(maxH)
	agg.AvgPressure = floatPtr(avgP)
	return &agg, nil
}

func scanReading(row rowScanner) (*types.Reading, error) {
	var (
		rec                    types.Reading
		temp, hum, press       sql.NullFloat64
		light, battery, signal sql.NullFloat64
		receivedAt             string
		raw                    sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.SenderID, &rec.Timestamp, &temp, &hum, &press,
		&light, &battery, &signal, &receivedAt, &raw); err != nil {
		return nil, err
	}
	rec.Temperature = floatPtr(temp)
	rec.Humidity = floatPtr(hum)
	rec.Pressure = floatPtr(press)
	rec.LightLevel = floatPtr(light)
	rec.BatteryLevel = floatPtr(battery)
	rec.SignalStrength = floatPtr(signal)
	if raw.Valid {
		rec.RawPayload = []byte(raw.String)
	}

	t, err := parseStoredTime(receivedAt)
	if err != nil {
		return nil, err
	}
	rec.ReceivedAt = t
	return &rec, nil
}

func collectReadings(rows *sql.Rows) ([]types.Reading, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close reading rows", "error", err)
		}
	}()

	var out []types.Reading
	for rows.Next() {
		rec, err := scanReading(rows)
		if err != nil {
			return nil, storeErr("scan reading", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("read readings", err)
	}
	return out, nil
}
