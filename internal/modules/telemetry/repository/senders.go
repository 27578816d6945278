package repository

import (
	"database/sql"
	_ "embed"
	"errors"
	"log/slog"
	"strings"
	"time"

	"weatherhub-server/internal/modules/telemetry/types"
)

//go:embed sql/upsert-sender.sql
var upsertSenderSQL string

//go:embed sql/get-sender.sql
var getSenderSQL string

//go:embed sql/list-active-senders.sql
var listActiveSendersSQL string

// UpsertSender registers a sender if absent; an existing row is left
// untouched, so auto-registration on ingest is idempotent.
func (r *repositoryImpl) UpsertSender(id, name string) error {
	if _, err := r.db.Exec(upsertSenderSQL, id, name); err != nil {
		return storeErr("upsert sender", err)
	}
	return nil
}

func (r *repositoryImpl) GetSender(id string) (*types.Sender, error) {
	row := r.db.QueryRow(getSenderSQL, id)
	s, err := scanSender(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &types.NotFoundError{Kind: "sender", ID: id}
		}
		return nil, storeErr("get sender", err)
	}
	return s, nil
}

func (r *repositoryImpl) ListActiveSenders() ([]types.Sender, error) {
	rows, err := r.db.Query(listActiveSendersSQL)
	if err != nil {
		return nil, storeErr("list senders", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close sender rows", "error", err)
		}
	}()

	var out []types.Sender
	for rows.Next() {
		s, err := scanSender(rows)
		if err != nil {
			return nil, storeErr("scan sender", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list senders", err)
	}
	return out, nil
}

// UpdateSender applies only the supplied fields. An empty update is a
// no-op (the sender's existence is still verified).
func (r *repositoryImpl) UpdateSender(id string, upd types.SenderUpdate) error {
	if upd.Empty() {
		_, err := r.GetSender(id)
		return err
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339Nano)}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *upd.Location)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, boolToInt(*upd.IsActive))
	}
	args = append(args, id)

	res, err := r.db.Exec("UPDATE senders SET "+strings.Join(sets, ", ")+" WHERE sender_id = ?", args...)
	if err != nil {
		return storeErr("update sender", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update sender", err)
	}
	if n == 0 {
		return &types.NotFoundError{Kind: "sender", ID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSender(row rowScanner) (*types.Sender, error) {
	var (
		s         types.Sender
		location  sql.NullString
		desc      sql.NullString
		lat, lon  sql.NullFloat64
		active    int
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&s.ID, &s.Name, &location, &desc, &lat, &lon, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Location = stringPtr(location)
	s.Description = stringPtr(desc)
	s.Latitude = floatPtr(lat)
	s.Longitude = floatPtr(lon)
	s.IsActive = active != 0

	var err error
	if s.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
