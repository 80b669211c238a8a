package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"laundrybot/internal/models"
)

type PersonSQLite struct {
	db DBTX
}

func NewPersonSQLite(db DBTX) *PersonSQLite {
	return &PersonSQLite{db: db}
}

// Ensure implementation of PersonRepo interface at compile time.
var _ PersonRepo = (*PersonSQLite)(nil)

const (
	upsertPersonSQL = `
		INSERT INTO people (name, contact) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET contact=excluded.contact
	`
	selectPersonByNameSQL = `SELECT id, name, contact FROM people WHERE name = ?`
	selectPeopleSQL       = `SELECT id, name, contact FROM people ORDER BY name ASC`
)

// Upsert makes sure a person exists and returns the stored row.
func (r *PersonSQLite) Upsert(ctx context.Context, p models.Person) (models.Person, error) {
	if _, err := r.db.ExecContext(ctx, upsertPersonSQL, p.Name, p.Contact); err != nil {
		return models.Person{}, fmt.Errorf("upsert person %q: %w", p.Name, err)
	}
	got, err := r.GetByName(ctx, p.Name)
	if err != nil {
		return models.Person{}, err
	}
	if got == nil {
		return models.Person{}, fmt.Errorf("person %q: %w", p.Name, models.ErrNotFound)
	}
	return *got, nil
}

// GetByName fetches a person by name. Returns (nil, nil) if not found.
func (r *PersonSQLite) GetByName(ctx context.Context, name string) (*models.Person, error) {
	var p models.Person
	err := r.db.QueryRowContext(ctx, selectPersonByNameSQL, name).Scan(&p.ID, &p.Name, &p.Contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select person %q: %w", name, err)
	}
	return &p, nil
}

func (r *PersonSQLite) List(ctx context.Context) ([]models.Person, error) {
	rows, err := r.db.QueryContext(ctx, selectPeopleSQL)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var out []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Contact); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
