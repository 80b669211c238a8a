package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

var applianceCols = []string{"id", "name", "threshold", "cycles", "role", "source_id", "last_reading", "updated_at"}

func TestApplianceSQLite_Upsert_SinkCarriesSourceID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewApplianceSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appliances")).
		WithArgs(2, "dryer", 4.0, 1, "sink", int64(1)).
		WillReturnResult(sqlmock.NewResult(2, 1))

	err = repo.Upsert(context.Background(), models.Appliance{
		ID: 2, Name: "dryer", Threshold: 4, Cycles: 1, Role: models.RoleSink, SourceID: 1,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplianceSQLite_Upsert_SourceHasNullSourceID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewApplianceSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appliances")).
		WithArgs(1, "washer", 7.0, 4, "source", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Upsert(context.Background(), models.Appliance{
		ID: 1, Name: "washer", Threshold: 7, Cycles: 4, Role: models.RoleSource,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplianceSQLite_SaveReading_WritesUnixNanos(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewApplianceSQLite(db)

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("PST", -8*3600))
	isNanos := sqlmockArgumentFunc(func(v driver.Value) bool {
		n, ok := v.(int64)
		return ok && n == at.UnixNano()
	})

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appliances SET last_reading")).
		WithArgs(10.5, isNanos, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveReading(context.Background(), 1, models.Reading{Value: 10.5, At: at}); err != nil {
		t.Fatalf("SaveReading() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplianceSQLite_SaveReading_UnknownAppliance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewApplianceSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appliances SET last_reading")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SaveReading(context.Background(), 9, models.Reading{Value: 1, At: time.Now()})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplianceSQLite_Get_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewApplianceSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM appliances")).
		WithArgs(5).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), 5); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplianceSQLite_List_ZeroUpdatedAtStaysZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := repository.NewApplianceSQLite(db)

	seen := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(applianceCols).
		AddRow(1, "washer", 7.0, 4, "source", nil, 0.0, int64(0)).
		AddRow(2, "dryer", 4.0, 1, "sink", int64(1), 11.2, seen.UnixNano())

	mock.ExpectQuery(regexp.QuoteMeta("FROM appliances")).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 appliances, got %d", len(got))
	}
	if !got[0].UpdatedAt.IsZero() || !got[0].IsSource() || got[0].SourceID != 0 {
		t.Fatalf("unexpected washer: %+v", got[0])
	}
	if !got[1].IsSink() || got[1].SourceID != 1 || !got[1].UpdatedAt.Equal(seen) || got[1].LastReading != 11.2 {
		t.Fatalf("unexpected dryer: %+v", got[1])
	}
}

// Helpers

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
