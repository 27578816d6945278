package controller

import (
	"net/http"

	"weatherhub-server/internal/modules/telemetry/types"
	"weatherhub-server/internal/utils"
)

func (c *telemetryControllerImpl) handleIngest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing sender id")
		return
	}

	var payload map[string]any
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := c.service.Ingest(id, payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	body := map[string]any{
		"status": "ok",
		"sender": res.Sender,
		"id":     res.RowID,
	}
	if len(res.Alerts) > 0 {
		body["alerts"] = res.Alerts
	}
	utils.WriteJSON(w, http.StatusCreated, body)
}

func (c *telemetryControllerImpl) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	var entries []map[string]any
	if err := utils.DecodeJSON(r, &entries); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "malformed batch (expected JSON array)")
		return
	}

	res, err := c.service.IngestBatch(entries)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	body := map[string]any{
		"status":    "ok",
		"processed": res.Processed,
		"total":     res.Total,
	}
	if len(res.Errors) > 0 {
		body["errors"] = res.Errors
	}
	if len(res.Alerts) > 0 {
		body["alerts"] = res.Alerts
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

func (c *telemetryControllerImpl) handleLatest(w http.ResponseWriter, r *http.Request) {
	reading, err := c.service.Latest(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reading)
}

func (c *telemetryControllerImpl) handleSamples(w http.ResponseWriter, r *http.Request) {
	hours, err := parseIntQuery(r, "hours")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, _, err := c.service.HourlySamples(r.PathValue("id"), hours)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"data": emptyIfNil(data)})
}

func (c *telemetryControllerImpl) handleRange(w http.ResponseWriter, r *http.Request) {
	hours, err := parseIntQuery(r, "hours")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	data, clamped, err := c.service.Range(id, hours)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"sender": id,
		"data":   emptyIfNil(data),
		"hours":  clamped,
		"count":  len(data),
	})
}

func (c *telemetryControllerImpl) handleAverages(w http.ResponseWriter, r *http.Request) {
	hours, err := parseIntQuery(r, "hours")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	data, clamped, err := c.service.HourlyAverages(id, hours)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"sender": id,
		"data":   emptyIfNilAverages(data),
		"hours":  clamped,
	})
}

func (c *telemetryControllerImpl) handleStatistics(w http.ResponseWriter, r *http.Request) {
	statType := r.URL.Query().Get("type")
	if statType == "" {
		statType = types.StatHourly
	}
	limit, err := parseIntQuery(r, "limit")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	stats, err := c.service.Statistics(id, statType, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if stats == nil {
		stats = []types.Statistic{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"sender":     id,
		"statistics": stats,
		"type":       statType,
	})
}

func (c *telemetryControllerImpl) handleSenderNames(w http.ResponseWriter, r *http.Request) {
	names, err := c.service.SenderNames()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, names)
}

func (c *telemetryControllerImpl) handleListSenders(w http.ResponseWriter, r *http.Request) {
	senders, err := c.service.ListSenders()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if senders == nil {
		senders = []types.Sender{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"senders": senders,
		"count":   len(senders),
	})
}

func (c *telemetryControllerImpl) handleUpdateSender(w http.ResponseWriter, r *http.Request) {
	var upd types.SenderUpdate
	if err := utils.DecodeJSON(r, &upd); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sender, err := c.service.UpdateSender(r.PathValue("id"), upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"sender": sender,
	})
}

type createAlertRequest struct {
	Type      string `json:"alert_type"`
	Condition string `json:"condition"`
	Threshold any    `json:"threshold"`
}

func (c *telemetryControllerImpl) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	alertID, err := c.service.CreateAlert(r.PathValue("id"), req.Type, req.Condition, req.Threshold)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"status":   "ok",
		"alert_id": alertID,
	})
}

func (c *telemetryControllerImpl) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	alerts, err := c.service.ListAlerts(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if alerts == nil {
		alerts = []types.AlertRule{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"sender_id": id,
		"alerts":    alerts,
		"count":     len(alerts),
	})
}

func (c *telemetryControllerImpl) handleRangeAll(w http.ResponseWriter, r *http.Request) {
	hours, err := parseIntQuery(r, "hours")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, clamped, err := c.service.RangeAll(hours)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"senders": series,
		"hours":   clamped,
	})
}

func emptyIfNil(data []types.Reading) []types.Reading {
	if data == nil {
		return []types.Reading{}
	}
	return data
}

func emptyIfNilAverages(data []types.HourlyAverage) []types.HourlyAverage {
	if data == nil {
		return []types.HourlyAverage{}
	}
	return data
}
