package repository

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"weatherhub-server/internal/db"
	"weatherhub-server/internal/modules/telemetry/types"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := conn.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
	})
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func fptr(v float64) *float64 { return &v }

func sptr(s string) *string { return &s }

func TestNewRepository(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if repo == nil {
		t.Fatal("NewRepository returned nil")
	}
}

func TestUpsertSender_Idempotent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	if err := repo.UpsertSender("42", "42"); err != nil {
		t.Fatalf("UpsertSender: %v", err)
	}
	// A second upsert must not overwrite an existing row.
	if err := repo.UpsertSender("42", "other-name"); err != nil {
		t.Fatalf("UpsertSender (second): %v", err)
	}

	s, err := repo.GetSender("42")
	if err != nil {
		t.Fatalf("GetSender: %v", err)
	}
	if s.Name != "42" {
		t.Errorf("Name = %q; want %q", s.Name, "42")
	}
	if !s.IsActive {
		t.Error("IsActive = false; want true")
	}
}

func TestGetSender_NotFound(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.GetSender("missing")
	var notFound *types.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("GetSender error = %v; want NotFoundError", err)
	}
}

func TestUpdateSender(t *testing.T) {
	t.Run("partial update leaves other fields untouched", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		if err := repo.UpsertSender("1", "1"); err != nil {
			t.Fatalf("UpsertSender: %v", err)
		}

		err := repo.UpdateSender("1", types.SenderUpdate{Name: sptr("Rooftop")})
		if err != nil {
			t.Fatalf("UpdateSender: %v", err)
		}

		s, err := repo.GetSender("1")
		if err != nil {
			t.Fatalf("GetSender: %v", err)
		}
		if s.Name != "Rooftop" {
			t.Errorf("Name = %q; want Rooftop", s.Name)
		}
		if !s.IsActive {
			t.Error("IsActive = false; want true")
		}
	})

	t.Run("deactivation hides sender from active list", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		if err := repo.UpsertSender("1", "1"); err != nil {
			t.Fatalf("UpsertSender: %v", err)
		}

		off := false
		if err := repo.UpdateSender("1", types.SenderUpdate{IsActive: &off}); err != nil {
			t.Fatalf("UpdateSender: %v", err)
		}

		senders, err := repo.ListActiveSenders()
		if err != nil {
			t.Fatalf("ListActiveSenders: %v", err)
		}
		if len(senders) != 0 {
			t.Errorf("got %d active senders, want 0", len(senders))
		}
	})

	t.Run("unknown sender", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		err := repo.UpdateSender("missing", types.SenderUpdate{Name: sptr("x")})
		var notFound *types.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("UpdateSender error = %v; want NotFoundError", err)
		}
	})

	t.Run("empty update verifies existence", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		err := repo.UpdateSender("missing", types.SenderUpdate{})
		var notFound *types.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("UpdateSender error = %v; want NotFoundError", err)
		}
	})
}

func TestInsertReading_AutoRegistersSender(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	id, err := repo.InsertReading("7", types.NewReading{Timestamp: 1700000000, Temperature: fptr(21.5)})
	if err != nil {
		t.Fatalf("InsertReading: %v", err)
	}
	if id == 0 {
		t.Error("InsertReading returned id 0")
	}

	s, err := repo.GetSender("7")
	if err != nil {
		t.Fatalf("GetSender after insert: %v", err)
	}
	if s.Name != "7" {
		t.Errorf("auto-registered Name = %q; want %q", s.Name, "7")
	}
}

func TestLatestReading(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1700000000)
	for i, temp := range []float64{10, 11, 12} {
		_, err := repo.InsertReading("1", types.NewReading{Timestamp: base + int64(i)*60, Temperature: fptr(temp)})
		if err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	rec, err := repo.LatestReading("1")
	if err != nil {
		t.Fatalf("LatestReading: %v", err)
	}
	if rec.Timestamp != base+120 {
		t.Errorf("Timestamp = %d; want %d", rec.Timestamp, base+120)
	}
	if rec.Temperature == nil || *rec.Temperature != 12 {
		t.Errorf("Temperature = %v; want 12", rec.Temperature)
	}

	_, err = repo.LatestReading("nobody")
	var notFound *types.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("LatestReading error = %v; want NotFoundError", err)
	}
}

func TestLatestReading_TieBreaksOnRowID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	ts := int64(1700000000)
	if _, err := repo.InsertReading("1", types.NewReading{Timestamp: ts, Temperature: fptr(10)}); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}
	if _, err := repo.InsertReading("1", types.NewReading{Timestamp: ts, Temperature: fptr(20)}); err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	rec, err := repo.LatestReading("1")
	if err != nil {
		t.Fatalf("LatestReading: %v", err)
	}
	if rec.Temperature == nil || *rec.Temperature != 20 {
		t.Errorf("Temperature = %v; want 20 (later insert wins on equal ts)", rec.Temperature)
	}
}

func TestReadingsSince(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1700000000)
	for i := 0; i < 5; i++ {
		_, err := repo.InsertReading("1", types.NewReading{Timestamp: base + int64(i)*3600})
		if err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	out, err := repo.ReadingsSince("1", base+2*3600)
	if err != nil {
		t.Fatalf("ReadingsSince: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d readings, want 3", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp < out[i-1].Timestamp {
			t.Errorf("readings not in ascending ts order: %d before %d", out[i-1].Timestamp, out[i].Timestamp)
		}
	}
}

func TestHourlySamples_EarliestPerBucket(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	// Hour-aligned base so bucket membership is unambiguous.
	base := int64(1700000000) / 3600 * 3600
	inserts := []struct {
		offset int64
		temp   float64
	}{
		{0, 10},    // bucket 0, earliest
		{1800, 11}, // bucket 0
		{3700, 12}, // bucket 1, earliest
	}
	for _, in := range inserts {
		_, err := repo.InsertReading("1", types.NewReading{Timestamp: base + in.offset, Temperature: fptr(in.temp)})
		if err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	out, err := repo.HourlySamples("1", base, 100)
	if err != nil {
		t.Fatalf("HourlySamples: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d samples, want 2", len(out))
	}
	if out[0].Timestamp != base || *out[0].Temperature != 10 {
		t.Errorf("first sample ts=%d temp=%v; want ts=%d temp=10", out[0].Timestamp, *out[0].Temperature, base)
	}
	if out[1].Timestamp != base+3700 || *out[1].Temperature != 12 {
		t.Errorf("second sample ts=%d temp=%v; want ts=%d temp=12", out[1].Timestamp, *out[1].Temperature, base+3700)
	}
}

func TestHourlyAverages(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1700000000) / 3600 * 3600
	inserts := []struct {
		offset int64
		temp   float64
		hum    float64
	}{
		{0, 10, 40},
		{600, 20, 60},
		{3601, 30, 50},
	}
	for _, in := range inserts {
		_, err := repo.InsertReading("1", types.NewReading{
			Timestamp:   base + in.offset,
			Temperature: fptr(in.temp),
			Humidity:    fptr(in.hum),
		})
		if err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	out, err := repo.HourlyAverages("1", base)
	if err != nil {
		t.Fatalf("HourlyAverages: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2", len(out))
	}

	first := out[0]
	if first.BucketStart != base {
		t.Errorf("BucketStart = %d; want %d", first.BucketStart, base)
	}
	if first.Count != 2 {
		t.Errorf("Count = %d; want 2", first.Count)
	}
	if first.AvgTemperature == nil || *first.AvgTemperature != 15 {
		t.Errorf("AvgTemperature = %v; want 15", first.AvgTemperature)
	}
	if first.MinTemperature == nil || *first.MinTemperature != 10 {
		t.Errorf("MinTemperature = %v; want 10", first.MinTemperature)
	}
	if first.MaxTemperature == nil || *first.MaxTemperature != 20 {
		t.Errorf("MaxTemperature = %v; want 20", first.MaxTemperature)
	}
	if first.AvgHumidity == nil || *first.AvgHumidity != 50 {
		t.Errorf("AvgHumidity = %v; want 50", first.AvgHumidity)
	}
}

func TestAggregateWindow(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	from := int64(1700000000)
	to := from + 3600
	inserts := []struct {
		ts   int64
		temp float64
	}{
		{from - 1, 99},   // before window
		{from, 10},       // included
		{from + 1800, 20}, // included
		{to, 99},         // window is closed-open
	}
	for _, in := range inserts {
		_, err := repo.InsertReading("1", types.NewReading{Timestamp: in.ts, Temperature: fptr(in.temp)})
		if err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	agg, err := repo.AggregateWindow("1", from, to)
	if err != nil {
		t.Fatalf("AggregateWindow: %v", err)
	}
	if agg.DataPoints != 2 {
		t.Errorf("DataPoints = %d; want 2", agg.DataPoints)
	}
	if agg.MinTemperature == nil || *agg.MinTemperature != 10 {
		t.Errorf("MinTemperature = %v; want 10", agg.MinTemperature)
	}
	if agg.MaxTemperature == nil || *agg.MaxTemperature != 20 {
		t.Errorf("MaxTemperature = %v; want 20", agg.MaxTemperature)
	}
	if agg.AvgTemperature == nil || *agg.AvgTemperature != 15 {
		t.Errorf("AvgTemperature = %v; want 15", agg.AvgTemperature)
	}
}

func TestAlertRules(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if err := repo.UpsertSender("1", "1"); err != nil {
		t.Fatalf("UpsertSender: %v", err)
	}

	id, err := repo.InsertAlertRule("1", types.AlertTypeTemperature, types.ConditionAbove, 30)
	if err != nil {
		t.Fatalf("InsertAlertRule: %v", err)
	}
	if id == 0 {
		t.Error("InsertAlertRule returned id 0")
	}

	rules, err := repo.ActiveAlertRules("1")
	if err != nil {
		t.Fatalf("ActiveAlertRules: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	rule := rules[0]
	if rule.Type != types.AlertTypeTemperature || rule.Condition != types.ConditionAbove || rule.Threshold != 30 {
		t.Errorf("rule = %+v; want temperature/above/30", rule)
	}
	if rule.LastTriggered != nil {
		t.Errorf("LastTriggered = %v; want nil", rule.LastTriggered)
	}

	firedAt := int64(1700000000)
	if err := repo.MarkAlertTriggered(rule.ID, firedAt); err != nil {
		t.Fatalf("MarkAlertTriggered: %v", err)
	}

	rules, err = repo.ActiveAlertRules("1")
	if err != nil {
		t.Fatalf("ActiveAlertRules: %v", err)
	}
	if rules[0].LastTriggered == nil || *rules[0].LastTriggered != firedAt {
		t.Errorf("LastTriggered = %v; want %d", rules[0].LastTriggered, firedAt)
	}
}

func TestStatistics(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if err := repo.UpsertSender("1", "1"); err != nil {
		t.Fatalf("UpsertSender: %v", err)
	}

	for i := 0; i < 3; i++ {
		start := int64(1700000000) + int64(i)*3600
		_, err := repo.InsertStatistic("1", types.Statistic{
			StatType:       types.StatHourly,
			PeriodStart:    start,
			PeriodEnd:      start + 3600,
			AvgTemperature: fptr(15),
			DataPoints:     10,
		})
		if err != nil {
			t.Fatalf("InsertStatistic: %v", err)
		}
	}

	stats, err := repo.StatisticsByType("1", types.StatHourly, 2)
	if err != nil {
		t.Fatalf("StatisticsByType: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d statistics, want 2", len(stats))
	}
	// Newest first.
	if stats[0].PeriodStart <= stats[1].PeriodStart {
		t.Errorf("statistics not newest-first: %d then %d", stats[0].PeriodStart, stats[1].PeriodStart)
	}

	daily, err := repo.StatisticsByType("1", types.StatDaily, 10)
	if err != nil {
		t.Fatalf("StatisticsByType daily: %v", err)
	}
	if len(daily) != 0 {
		t.Errorf("got %d daily statistics, want 0", len(daily))
	}
}

func TestAppendEvent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if err := repo.UpsertSender("1", "1"); err != nil {
		t.Fatalf("UpsertSender: %v", err)
	}

	sender := "1"
	err := repo.AppendEvent(types.Event{
		Level:     types.LevelWarning,
		EventType: "alert_triggered",
		Message:   "1 alert rule(s) fired",
		SenderID:  &sender,
		Metadata:  map[string]any{"rule_ids": []int64{1}},
	})
	if err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	// Events without a sender reference are allowed too.
	err = repo.AppendEvent(types.Event{
		Level:     types.LevelInfo,
		EventType: "startup",
		Message:   "service started",
	})
	if err != nil {
		t.Fatalf("AppendEvent (no sender): %v", err)
	}
}
