package types

import (
	"encoding/json"
	"time"
)

// Sender is a registered weather station. The ID is the canonicalized
// external identifier supplied by the station itself.
type Sender struct {
	ID          string    `json:"sender_id"`
	Name        string    `json:"name"`
	Location    *string   `json:"location,omitempty"`
	Description *string   `json:"description,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SenderUpdate carries a partial update; nil fields are left untouched.
type SenderUpdate struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (u SenderUpdate) Empty() bool {
	return u.Name == nil && u.Location == nil && u.Description == nil && u.IsActive == nil
}

// Reading is one timestamped set of measurements. Every channel is
// independently optional; Timestamp is unix seconds from the station's
// own clock, ReceivedAt is server receipt time.
type Reading struct {
	ID             int64           `json:"id"`
	SenderID       string          `json:"sender_id"`
	Timestamp      int64           `json:"unix_timestamp"`
	Temperature    *float64        `json:"temperature"`
	Humidity       *float64        `json:"humidity"`
	Pressure       *float64        `json:"pressure"`
	LightLevel     *float64        `json:"light_level,omitempty"`
	BatteryLevel   *float64        `json:"battery_level,omitempty"`
	SignalStrength *float64        `json:"signal_strength,omitempty"`
	ReceivedAt     time.Time       `json:"received_at"`
	RawPayload     json.RawMessage `json:"-"`
}

// NewReading is the normalized write-side form of a Reading.
type NewReading struct {
	Timestamp      int64
	Temperature    *float64
	Humidity       *float64
	Pressure       *float64
	LightLevel     *float64
	BatteryLevel   *float64
	SignalStrength *float64
	RawPayload     []byte
}

// HourlyAverage is one calendar-hour bucket of grouped readings.
// BucketStart is the truncated-to-hour unix timestamp of the bucket.
type HourlyAverage struct {
	BucketStart    int64    `json:"hour"`
	AvgTemperature *float64 `json:"avg_temp"`
	MinTemperature *float64 `json:"min_temp"`
	MaxTemperature *float64 `json:"max_temp"`
	AvgHumidity    *float64 `json:"avg_humidity"`
	AvgPressure    *float64 `json:"avg_pressure"`
	Count          int      `json:"measurement_count"`
}

// Alert rule types and conditions. Condition is stored in canonical word
// form; symbol encodings are translated at the API boundary.
const (
	AlertTypeTemperature = "temperature"
	AlertTypeHumidity    = "humidity"
	AlertTypePressure    = "pressure"
	AlertTypeBattery     = "battery"

	ConditionAbove = "above"
	ConditionBelow = "below"
	ConditionEqual = "equal"
)

type AlertRule struct {
	ID               int64     `json:"id"`
	SenderID         string    `json:"sender_id"`
	Type             string    `json:"alert_type"`
	Condition        string    `json:"condition"`
	Threshold        float64   `json:"threshold_value"`
	IsActive         bool      `json:"is_active"`
	LastTriggered    *int64    `json:"last_triggered"`
	NotificationSent bool      `json:"notification_sent"`
	CreatedAt        time.Time `json:"created_at"`
}

// Statistic rollup granularities.
const (
	StatHourly  = "hourly"
	StatDaily   = "daily"
	StatWeekly  = "weekly"
	StatMonthly = "monthly"
)

// Statistic is an append-only precomputed aggregate over a reading window.
type Statistic struct {
	ID             int64     `json:"id"`
	SenderID       string    `json:"sender_id"`
	StatType       string    `json:"stat_type"`
	PeriodStart    int64     `json:"period_start"`
	PeriodEnd      int64     `json:"period_end"`
	MinTemperature *float64  `json:"min_temperature"`
	AvgTemperature *float64  `json:"avg_temperature"`
	MaxTemperature *float64  `json:"max_temperature"`
	MinHumidity    *float64  `json:"min_humidity"`
	AvgHumidity    *float64  `json:"avg_humidity"`
	MaxHumidity    *float64  `json:"max_humidity"`
	AvgPressure    *float64  `json:"avg_pressure"`
	DataPoints     int       `json:"data_points"`
	CreatedAt      time.Time `json:"created_at"`
}

// WindowAggregate is the raw aggregate over an arbitrary window, before
// it is persisted as a Statistic.
type WindowAggregate struct {
	MinTemperature *float64
	AvgTemperature *float64
	MaxTemperature *float64
	MinHumidity    *float64
	AvgHumidity    *float64
	MaxHumidity    *float64
	AvgPressure    *float64
	DataPoints     int
}

// Event log levels.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelError    = "error"
	LevelCritical = "critical"
)

// Event is one append-only operational record.
type Event struct {
	Level     string
	EventType string
	Message   string
	SenderID  *string
	Metadata  map[string]any
}

func ValidAlertType(t string) bool {
	switch t {
	case AlertTypeTemperature, AlertTypeHumidity, AlertTypePressure, AlertTypeBattery:
		return true
	}
	return false
}

func ValidStatType(t string) bool {
	switch t {
	case StatHourly, StatDaily, StatWeekly, StatMonthly:
		return true
	}
	return false
}
