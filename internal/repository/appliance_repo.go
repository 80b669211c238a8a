package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"laundrybot/internal/models"
)

type ApplianceSQLite struct {
	db DBTX
}

func NewApplianceSQLite(db DBTX) *ApplianceSQLite {
	return &ApplianceSQLite{db: db}
}

var _ ApplianceRepo = (*ApplianceSQLite)(nil)

const (
	// Fixture columns are refreshed from config; observed reading state is kept.
	upsertApplianceSQL = `
		INSERT INTO appliances (id, name, threshold, cycles, role, source_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			threshold=excluded.threshold,
			cycles=excluded.cycles,
			role=excluded.role,
			source_id=excluded.source_id
	`

	selectApplianceColsSQL = `
		SELECT id, name, threshold, cycles, role, source_id, last_reading, updated_at
		FROM appliances
	`

	updateReadingSQL = `UPDATE appliances SET last_reading = ?, updated_at = ? WHERE id = ?`
)

// Upsert inserts an appliance fixture or refreshes its static attributes.
func (r *ApplianceSQLite) Upsert(ctx context.Context, a models.Appliance) error {
	var sourceID sql.NullInt64
	if a.SourceID != 0 {
		sourceID = sql.NullInt64{Int64: int64(a.SourceID), Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, upsertApplianceSQL,
		a.ID, a.Name, a.Threshold, a.Cycles, string(a.Role), sourceID,
	); err != nil {
		return fmt.Errorf("upsert appliance %q: %w", a.Name, err)
	}
	return nil
}

// Get fetches one appliance. Returns models.ErrNotFound if it does not exist.
func (r *ApplianceSQLite) Get(ctx context.Context, id int) (models.Appliance, error) {
	row := r.db.QueryRowContext(ctx, selectApplianceColsSQL+" WHERE id = ?", id)
	a, err := scanAppliance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Appliance{}, fmt.Errorf("appliance %d: %w", id, models.ErrNotFound)
		}
		return models.Appliance{}, fmt.Errorf("select appliance %d: %w", id, err)
	}
	return a, nil
}

// List returns all appliances ordered by ID.
func (r *ApplianceSQLite) List(ctx context.Context) ([]models.Appliance, error) {
	rows, err := r.db.QueryContext(ctx, selectApplianceColsSQL+" ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list appliances: %w", err)
	}
	defer rows.Close()

	var out []models.Appliance
	for rows.Next() {
		a, err := scanAppliance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appliance: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveReading stores the latest observed reading for an appliance.
func (r *ApplianceSQLite) SaveReading(ctx context.Context, id int, rd models.Reading) error {
	res, err := r.db.ExecContext(ctx, updateReadingSQL, rd.Value, toUnixNano(rd.At), id)
	if err != nil {
		return fmt.Errorf("save reading for appliance %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save reading for appliance %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("appliance %d: %w", id, models.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppliance(row rowScanner) (models.Appliance, error) {
	var (
		a         models.Appliance
		role      string
		sourceID  sql.NullInt64
		updatedAt int64
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Threshold, &a.Cycles, &role, &sourceID, &a.LastReading, &updatedAt); err != nil {
		return models.Appliance{}, err
	}
	a.Role = models.Role(role)
	if sourceID.Valid {
		a.SourceID = int(sourceID.Int64)
	}
	a.UpdatedAt = fromUnixNano(updatedAt)
	return a, nil
}
