package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"laundrybot/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ApplianceRepo interface {
	Upsert(ctx context.Context, a models.Appliance) error
	Get(ctx context.Context, id int) (models.Appliance, error)
	List(ctx context.Context) ([]models.Appliance, error)
	SaveReading(ctx context.Context, id int, r models.Reading) error
}

type PersonRepo interface {
	Upsert(ctx context.Context, p models.Person) (models.Person, error)
	GetByName(ctx context.Context, name string) (*models.Person, error)
	List(ctx context.Context) ([]models.Person, error)
}

// LoadLedger is the persisted load history. Reads and writes made through a
// ledger obtained from WithinTx share one transaction.
type LoadLedger interface {
	MostRecent(ctx context.Context, applianceID int) (*models.Load, error)
	MostRecentAny(ctx context.Context) (*models.Load, error)
	Create(ctx context.Context, l *models.Load) error
	Update(ctx context.Context, l *models.Load) error
	List(ctx context.Context, f LoadFilter) ([]models.Load, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.LoadEvent) error
	List(ctx context.Context, f EventFilter) ([]models.LoadEvent, error)
}

// LoadFilter narrows a history listing. Zero values mean no restriction.
type LoadFilter struct {
	ApplianceID int
	Limit       int
}

// EventFilter narrows an event listing. Zero values mean no restriction.
type EventFilter struct {
	From        time.Time
	To          time.Time
	Type        string
	ApplianceID int
}

// Store bundles the repositories bound to one DBTX.
type Store struct {
	Appliances ApplianceRepo
	People     PersonRepo
	Loads      LoadLedger
	Events     EventRepo
}

func NewStore(q DBTX) *Store {
	return &Store{
		Appliances: NewApplianceSQLite(q),
		People:     NewPersonSQLite(q),
		Loads:      NewLoadSQLite(q),
		Events:     NewEventSQLite(q),
	}
}

// Transactor runs fn against a Store bound to one transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(s *Store) error) error
}

var _ Transactor = (*Repository)(nil)

// Repository exposes non-transactional reads through the embedded Store and
// runs read-modify-write work through WithinTx.
type Repository struct {
	*Store
	db *sql.DB

	// OnRetry, if set, is called before a transaction is retried.
	OnRetry func(err error)
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Store: NewStore(db),
		db:    db,
	}
}

// WithinTx runs fn inside a transaction and commits if it returns nil.
// A transient failure (version conflict, SQLITE_BUSY/LOCKED) is retried once;
// fn must therefore not keep state across calls.
func (r *Repository) WithinTx(ctx context.Context, fn func(s *Store) error) error {
	err := r.runTx(ctx, fn)
	if err != nil && IsTransient(err) {
		if r.OnRetry != nil {
			r.OnRetry(err)
		}
		err = r.runTx(ctx, fn)
	}
	return err
}

func (r *Repository) runTx(ctx context.Context, fn func(s *Store) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(NewStore(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsTransient reports whether err is worth one more attempt.
func IsTransient(err error) bool {
	if errors.Is(err, models.ErrConflict) {
		return true
	}
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED)
}

func isConstraint(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.SQLITE_CONSTRAINT
}

// sqliteCode returns the primary result code of a sqlite error.
func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code() & 0xff, true
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
