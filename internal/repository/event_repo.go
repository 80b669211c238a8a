package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"laundrybot/internal/models"

	"github.com/google/uuid"
)

// EventSQLite is the append-only event log.
type EventSQLite struct {
	db DBTX
}

func NewEventSQLite(db DBTX) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

const eventColumns = `id, occurred_at, type, load_id, appliance_id, person, message, meta`

// Append stores e, filling in a fresh id and the current time when missing.
func (r *EventSQLite) Append(ctx context.Context, e models.LoadEvent) error {
	id := e.EventID
	if id == "" {
		id = uuid.NewString()
	}
	at := e.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	meta, err := encodeMeta(e.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO load_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, toUnixNano(at), strings.ToUpper(strings.TrimSpace(e.Type)),
		e.LoadID, e.ApplianceID, e.Person, e.Description, meta,
	)
	if err != nil {
		return fmt.Errorf("insert %s event for load %d: %w", e.Type, e.LoadID, err)
	}
	return nil
}

// List returns events matching f, both bounds inclusive, oldest first.
// Events written in one transaction keep their write order.
func (r *EventSQLite) List(ctx context.Context, f EventFilter) ([]models.LoadEvent, error) {
	var w where
	if !f.From.IsZero() {
		w.add("occurred_at >= ?", toUnixNano(f.From))
	}
	if !f.To.IsZero() {
		w.add("occurred_at <= ?", toUnixNano(f.To))
	}
	if typ := strings.ToUpper(strings.TrimSpace(f.Type)); typ != "" {
		w.add("type = ?", typ)
	}
	if f.ApplianceID != 0 {
		w.add("appliance_id = ?", f.ApplianceID)
	}

	q := `SELECT ` + eventColumns + ` FROM load_events` + w.sql() + ` ORDER BY occurred_at ASC, rowid ASC`
	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []models.LoadEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	if out == nil {
		out = []models.LoadEvent{}
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (models.LoadEvent, error) {
	var (
		ev   models.LoadEvent
		at   int64
		meta sql.NullString
	)
	if err := rows.Scan(&ev.EventID, &at, &ev.Type, &ev.LoadID, &ev.ApplianceID, &ev.Person, &ev.Description, &meta); err != nil {
		return models.LoadEvent{}, fmt.Errorf("scan event: %w", err)
	}
	ev.OccurredAt = fromUnixNano(at)
	ev.Metadata = decodeMeta(meta)
	return ev, nil
}

func encodeMeta(md any) (sql.NullString, error) {
	if md == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode event metadata: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeMeta returns the stored JSON as a value; text that does not parse
// comes back as the raw string.
func decodeMeta(s sql.NullString) any {
	if !s.Valid || s.String == "" {
		return nil
	}
	var v any
	if json.Unmarshal([]byte(s.String), &v) != nil {
		return s.String
	}
	return v
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, arg)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
