package repository

import (
	_ "embed"
	"encoding/json"

	"weatherhub-server/internal/modules/telemetry/types"
)

//go:embed sql/append-event.sql
var appendEventSQL string

func (r *repositoryImpl) AppendEvent(e types.Event) error {
	var senderID any
	if e.SenderID != nil {
		senderID = *e.SenderID
	}

	var metadata any
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return storeErr("encode event metadata", err)
		}
		metadata = string(b)
	}

	if _, err := r.db.Exec(appendEventSQL, e.Level, e.EventType, e.Message, senderID, metadata); err != nil {
		return storeErr("append event", err)
	}
	return nil
}
