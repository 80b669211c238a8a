package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"
	"laundrybot/internal/repository/db"

	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *repository.Repository {
	t.Helper()
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := repository.NewRepository(conn)
	ctx := context.Background()
	require.NoError(t, repo.Appliances.Upsert(ctx, models.Appliance{ID: 1, Name: "washer", Threshold: 7, Cycles: 4, Role: models.RoleSource}))
	require.NoError(t, repo.Appliances.Upsert(ctx, models.Appliance{ID: 2, Name: "dryer", Threshold: 4, Cycles: 1, Role: models.RoleSink, SourceID: 1}))
	return repo
}

func openLoad(applianceID int, at time.Time) *models.Load {
	return &models.Load{ApplianceID: applianceID, CycleNumber: 1, StartTime: at, LastChangeTime: at}
}

func TestLedger_OneOpenLoadPerAppliance(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Loads.Create(ctx, openLoad(1, t0)))
	err := repo.Loads.Create(ctx, openLoad(1, t0.Add(time.Minute)))
	require.ErrorIs(t, err, models.ErrConsistency)

	// a different appliance is unaffected
	require.NoError(t, repo.Loads.Create(ctx, openLoad(2, t0.Add(time.Minute))))
}

func TestLedger_RoundTripAndOwnerName(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	sam, err := repo.People.Upsert(ctx, models.Person{Name: "Sam"})
	require.NoError(t, err)

	l := openLoad(1, t0)
	l.AssignOwner(sam)
	require.NoError(t, repo.Loads.Create(ctx, l))

	got, err := repo.Loads.MostRecent(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, l.ID, got.ID)
	require.Equal(t, "Sam", got.OwnerName)
	require.True(t, got.StartTime.Equal(t0))
	require.Nil(t, got.EndTime)
	require.False(t, got.Collected)
}

func TestLedger_CollectedLoadIsImmutable(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	l := openLoad(1, t0)
	require.NoError(t, repo.Loads.Create(ctx, l))

	l.Collect(t0.Add(time.Hour))
	require.NoError(t, repo.Loads.Update(ctx, l))

	l.CycleNumber = 3
	require.ErrorIs(t, repo.Loads.Update(ctx, l), models.ErrConflict)

	got, err := repo.Loads.MostRecent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, got.CycleNumber)
	require.True(t, got.Collected)
	require.NotNil(t, got.EndTime)
}

func TestLedger_MostRecentAnyBreaksTiesByInsertion(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Loads.Create(ctx, openLoad(1, t0)))
	dryer := openLoad(2, t0)
	require.NoError(t, repo.Loads.Create(ctx, dryer))

	got, err := repo.Loads.MostRecentAny(ctx)
	require.NoError(t, err)
	require.Equal(t, dryer.ID, got.ID)

	all, err := repo.Loads.List(ctx, repository.LoadFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, dryer.ID, all[0].ID)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithinTx(ctx, func(s *repository.Store) error {
		if err := s.Loads.Create(ctx, openLoad(1, time.Now())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Loads.MostRecent(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got, "rolled back load must not be visible")
}

func TestWithinTx_RetriesConflictOnce(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	var retries, calls int
	repo.OnRetry = func(error) { retries++ }

	err := repo.WithinTx(ctx, func(s *repository.Store) error {
		calls++
		if calls == 1 {
			return models.ErrConflict
		}
		return s.Loads.Create(ctx, openLoad(1, time.Now()))
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, 1, retries)

	// a second conflict in a row is surfaced
	calls = 0
	err = repo.WithinTx(ctx, func(*repository.Store) error {
		calls++
		return models.ErrConflict
	})
	require.ErrorIs(t, err, models.ErrConflict)
	require.Equal(t, 2, calls)
}
