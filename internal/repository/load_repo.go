package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"laundrybot/internal/models"
)

// LoadSQLite is the SQLite-backed load ledger.
type LoadSQLite struct {
	db DBTX
}

func NewLoadSQLite(db DBTX) *LoadSQLite { return &LoadSQLite{db: db} }

var _ LoadLedger = (*LoadSQLite)(nil)

const (
	selectLoadColsSQL = `
		SELECT l.id, l.appliance_id, l.owner_id, COALESCE(p.name, ''), l.cycle_number,
		       l.start_time, l.end_time, l.last_change_time, l.collected, l.version
		FROM loads l
		LEFT JOIN people p ON p.id = l.owner_id
	`

	// Ties on start_time fall back to insertion order.
	newestFirstSQL = ` ORDER BY l.start_time DESC, l.id DESC`

	countOpenLoadsSQL = `SELECT COUNT(1) FROM loads WHERE appliance_id = ? AND end_time IS NULL`

	insertLoadSQL = `
		INSERT INTO loads (appliance_id, owner_id, cycle_number, start_time, end_time, last_change_time, collected, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`

	// Collected rows never match, so a collected load cannot be mutated again.
	updateLoadSQL = `
		UPDATE loads SET
			owner_id = ?,
			cycle_number = ?,
			end_time = ?,
			last_change_time = ?,
			collected = ?,
			version = version + 1
		WHERE id = ? AND version = ? AND collected = 0
	`
)

// MostRecent returns the newest load for an appliance, or nil if it has none.
func (r *LoadSQLite) MostRecent(ctx context.Context, applianceID int) (*models.Load, error) {
	row := r.db.QueryRowContext(ctx, selectLoadColsSQL+" WHERE l.appliance_id = ?"+newestFirstSQL+" LIMIT 1", applianceID)
	return scanOptionalLoad(row)
}

// MostRecentAny returns the newest load across all appliances, or nil.
func (r *LoadSQLite) MostRecentAny(ctx context.Context) (*models.Load, error) {
	row := r.db.QueryRowContext(ctx, selectLoadColsSQL+newestFirstSQL+" LIMIT 1")
	return scanOptionalLoad(row)
}

// Create inserts a new load and fills in its ID. An open load is refused with
// models.ErrConsistency while the appliance already has one.
func (r *LoadSQLite) Create(ctx context.Context, l *models.Load) error {
	if err := checkLoadInvariants(l); err != nil {
		return err
	}
	if l.IsOpen() {
		var open int
		if err := r.db.QueryRowContext(ctx, countOpenLoadsSQL, l.ApplianceID).Scan(&open); err != nil {
			return fmt.Errorf("count open loads for appliance %d: %w", l.ApplianceID, err)
		}
		if open > 0 {
			return fmt.Errorf("appliance %d already has an open load: %w", l.ApplianceID, models.ErrConsistency)
		}
	}

	res, err := r.db.ExecContext(ctx, insertLoadSQL,
		l.ApplianceID,
		nullableID(l.OwnerID),
		l.CycleNumber,
		toUnixNano(l.StartTime),
		nullableEndTime(l),
		toUnixNano(l.LastChangeTime),
		l.Collected,
	)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("insert load for appliance %d: %w: %v", l.ApplianceID, models.ErrConsistency, err)
		}
		return fmt.Errorf("insert load for appliance %d: %w", l.ApplianceID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id for load: %w", err)
	}
	l.ID = id
	l.Version = 0
	return nil
}

// Update writes the mutable fields of l, guarded by its version.
// A stale version (or an already-collected row) yields models.ErrConflict.
func (r *LoadSQLite) Update(ctx context.Context, l *models.Load) error {
	if err := checkLoadInvariants(l); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateLoadSQL,
		nullableID(l.OwnerID),
		l.CycleNumber,
		nullableEndTime(l),
		toUnixNano(l.LastChangeTime),
		l.Collected,
		l.ID,
		l.Version,
	)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("update load %d: %w: %v", l.ID, models.ErrConsistency, err)
		}
		return fmt.Errorf("update load %d: %w", l.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update load %d: %w", l.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update load %d at version %d: %w", l.ID, l.Version, models.ErrConflict)
	}
	l.Version++
	return nil
}

// List returns loads newest first.
func (r *LoadSQLite) List(ctx context.Context, f LoadFilter) ([]models.Load, error) {
	var (
		conds []string
		args  []any
	)
	if f.ApplianceID != 0 {
		conds = append(conds, "l.appliance_id = ?")
		args = append(args, f.ApplianceID)
	}

	q := selectLoadColsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += newestFirstSQL
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list loads: %w", err)
	}
	defer rows.Close()

	out := make([]models.Load, 0, 16)
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func checkLoadInvariants(l *models.Load) error {
	if l.Collected && l.EndTime == nil {
		return fmt.Errorf("load %d collected without end time: %w", l.ID, models.ErrConsistency)
	}
	if l.CycleNumber < 0 {
		return fmt.Errorf("load %d has negative cycle number: %w", l.ID, models.ErrConsistency)
	}
	return nil
}

func scanOptionalLoad(row rowScanner) (*models.Load, error) {
	l, err := scanLoad(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select load: %w", err)
	}
	return l, nil
}

func scanLoad(row rowScanner) (*models.Load, error) {
	var (
		l          models.Load
		ownerID    sql.NullInt64
		start      int64
		end        sql.NullInt64
		lastChange int64
	)
	if err := row.Scan(
		&l.ID,
		&l.ApplianceID,
		&ownerID,
		&l.OwnerName,
		&l.CycleNumber,
		&start,
		&end,
		&lastChange,
		&l.Collected,
		&l.Version,
	); err != nil {
		return nil, err
	}
	if ownerID.Valid {
		id := ownerID.Int64
		l.OwnerID = &id
	}
	l.StartTime = fromUnixNano(start)
	if end.Valid {
		t := fromUnixNano(end.Int64)
		l.EndTime = &t
	}
	l.LastChangeTime = fromUnixNano(lastChange)
	return &l, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullableEndTime(l *models.Load) sql.NullInt64 {
	if l.EndTime == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnixNano(*l.EndTime), Valid: true}
}
