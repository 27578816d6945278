package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"weatherhub-server/internal/modules/telemetry/types"
)

// Field aliases accumulated over firmware generations. First non-null
// key wins, in listed order; "gas" is the legacy gas-sensor channel
// that older pressure boards reported under.
var (
	temperatureKeys = []string{"temperature", "temp"}
	humidityKeys    = []string{"humidity", "hum"}
	pressureKeys    = []string{"pressure", "pressure_hpa", "baro", "gas"}
	lightKeys       = []string{"light_level", "light", "lux"}
	batteryKeys     = []string{"battery_level", "battery", "bat"}
	signalKeys      = []string{"signal_strength", "rssi"}
	timestampKeys   = []string{"unix_timestamp", "timestamp", "time"}

	senderKeys = []string{"sender_id", "sender", "id", "station_id"}
)

// sentinelSenderID is the historical "no sender" marker in batch uploads.
const sentinelSenderID = "-1"

// CanonicalSenderID maps every accepted identifier form (string, JSON
// number) to one stable string key. Applied at every entry point.
func CanonicalSenderID(v any) (string, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			s = strconv.FormatInt(int64(t), 10)
		} else {
			s = strconv.FormatFloat(t, 'f', -1, 64)
		}
	case json.Number:
		s = t.String()
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case nil:
		s = ""
	default:
		return "", &types.ValidationError{Field: "sender_id", Reason: "unsupported identifier type"}
	}
	if s == "" {
		return "", &types.ValidationError{Field: "sender_id", Reason: "missing"}
	}
	return s, nil
}

// normalizeReading maps a loose payload onto the canonical reading form.
// Unknown keys are ignored but survive in the raw payload copy.
func normalizeReading(payload map[string]any, now time.Time) (types.NewReading, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return types.NewReading{}, &types.ValidationError{Reason: "payload not serializable"}
	}
	rec := types.NewReading{RawPayload: raw}

	if rec.Temperature, err = numberField(payload, temperatureKeys); err != nil {
		return types.NewReading{}, err
	}
	if rec.Humidity, err = numberField(payload, humidityKeys); err != nil {
		return types.NewReading{}, err
	}
	if rec.Pressure, err = numberField(payload, pressureKeys); err != nil {
		return types.NewReading{}, err
	}
	if rec.LightLevel, err = numberField(payload, lightKeys); err != nil {
		return types.NewReading{}, err
	}
	if rec.BatteryLevel, err = numberField(payload, batteryKeys); err != nil {
		return types.NewReading{}, err
	}
	if rec.SignalStrength, err = numberField(payload, signalKeys); err != nil {
		return types.NewReading{}, err
	}

	ts, err := numberField(payload, timestampKeys)
	if err != nil {
		return types.NewReading{}, err
	}
	switch {
	case ts == nil:
		rec.Timestamp = now.Unix()
	case *ts >= 1e12:
		// Millisecond-scale clock; some firmware sends epoch millis.
		rec.Timestamp = int64(*ts / 1000)
	default:
		rec.Timestamp = int64(*ts)
	}

	return rec, nil
}

// numberField returns the first present non-null alias, coerced to
// float64. A present value that cannot be coerced is a validation error,
// never silently dropped.
func numberField(payload map[string]any, keys []string) (*float64, error) {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		f, err := coerceNumber(v)
		if err != nil {
			return nil, &types.ValidationError{Field: k, Reason: "not a number"}
		}
		return &f, nil
	}
	return nil, nil
}

func coerceNumber(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		var err error
		if f, err = t.Float64(); err != nil {
			return 0, err
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
			return 0, err
		}
	default:
		return 0, &types.ValidationError{Reason: "not a number"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &types.ValidationError{Reason: "not a finite number"}
	}
	return f, nil
}

// SenderIDField finds the raw sender identifier in a loose payload.
func SenderIDField(entry map[string]any) (any, bool) {
	for _, k := range senderKeys {
		if v, ok := entry[k]; ok {
			return v, true
		}
	}
	return nil, false
}
