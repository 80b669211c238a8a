package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"
)

var (
	testWasher = models.Appliance{ID: 1, Name: "washer", Threshold: 7, Cycles: 4, Role: models.RoleSource}
	testDryer  = models.Appliance{ID: 2, Name: "dryer", Threshold: 4, Cycles: 1, Role: models.RoleSink, SourceID: 1}
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]models.Appliance{testWasher, testDryer})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

// memStore is an in-memory ledger honouring the same invariants as the
// sqlite one: one open load per appliance, version guard, collected rows frozen.
type memStore struct {
	appliances map[int]models.Appliance
	people     []models.Person
	loads      []models.Load
	events     []models.LoadEvent
	nextID     int64
}

func newMemStore(apps ...models.Appliance) *memStore {
	m := &memStore{appliances: map[int]models.Appliance{}}
	for _, a := range apps {
		m.appliances[a.ID] = a
	}
	return m
}

func (m *memStore) store() *repository.Store {
	return &repository.Store{
		Appliances: memAppliances{m},
		People:     memPeople{m},
		Loads:      memLoads{m},
		Events:     memEvents{m},
	}
}

func (m *memStore) addPerson(name string) models.Person {
	p := models.Person{ID: int64(len(m.people) + 1), Name: name}
	m.people = append(m.people, p)
	return p
}

func (m *memStore) seed(l models.Load) *models.Load {
	m.nextID++
	l.ID = m.nextID
	m.loads = append(m.loads, l)
	return &m.loads[len(m.loads)-1]
}

func (m *memStore) loadsFor(applianceID int) []models.Load {
	var out []models.Load
	for _, l := range m.loads {
		if l.ApplianceID == applianceID {
			out = append(out, l)
		}
	}
	return out
}

func (m *memStore) eventTypes() []string {
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

type memAppliances struct{ m *memStore }

func (r memAppliances) Upsert(_ context.Context, a models.Appliance) error {
	if old, ok := r.m.appliances[a.ID]; ok {
		a.LastReading, a.UpdatedAt = old.LastReading, old.UpdatedAt
	}
	r.m.appliances[a.ID] = a
	return nil
}

func (r memAppliances) Get(_ context.Context, id int) (models.Appliance, error) {
	a, ok := r.m.appliances[id]
	if !ok {
		return models.Appliance{}, fmt.Errorf("appliance %d: %w", id, models.ErrNotFound)
	}
	return a, nil
}

func (r memAppliances) List(_ context.Context) ([]models.Appliance, error) {
	out := make([]models.Appliance, 0, len(r.m.appliances))
	for _, a := range r.m.appliances {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAppliances) SaveReading(_ context.Context, id int, rd models.Reading) error {
	a, ok := r.m.appliances[id]
	if !ok {
		return models.ErrNotFound
	}
	a.LastReading, a.UpdatedAt = rd.Value, rd.At
	r.m.appliances[id] = a
	return nil
}

type memPeople struct{ m *memStore }

func (r memPeople) Upsert(_ context.Context, p models.Person) (models.Person, error) {
	for _, q := range r.m.people {
		if q.Name == p.Name {
			return q, nil
		}
	}
	return r.m.addPerson(p.Name), nil
}

func (r memPeople) GetByName(_ context.Context, name string) (*models.Person, error) {
	for _, p := range r.m.people {
		if p.Name == name {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPeople) List(_ context.Context) ([]models.Person, error) { return r.m.people, nil }

type memLoads struct{ m *memStore }

func (r memLoads) newest(match func(models.Load) bool) *models.Load {
	var best *models.Load
	for i := range r.m.loads {
		l := r.m.loads[i]
		if !match(l) {
			continue
		}
		if best == nil || l.StartTime.After(best.StartTime) || (l.StartTime.Equal(best.StartTime) && l.ID > best.ID) {
			cp := l
			best = &cp
		}
	}
	return best
}

func (r memLoads) MostRecent(_ context.Context, applianceID int) (*models.Load, error) {
	return r.newest(func(l models.Load) bool { return l.ApplianceID == applianceID }), nil
}

func (r memLoads) MostRecentAny(_ context.Context) (*models.Load, error) {
	return r.newest(func(models.Load) bool { return true }), nil
}

func (r memLoads) Create(_ context.Context, l *models.Load) error {
	if l.IsOpen() {
		for _, o := range r.m.loads {
			if o.ApplianceID == l.ApplianceID && o.IsOpen() {
				return fmt.Errorf("appliance %d already has an open load: %w", l.ApplianceID, models.ErrConsistency)
			}
		}
	}
	r.m.nextID++
	l.ID = r.m.nextID
	l.Version = 0
	r.m.loads = append(r.m.loads, *l)
	return nil
}

func (r memLoads) Update(_ context.Context, l *models.Load) error {
	if l.Collected && l.EndTime == nil {
		return models.ErrConsistency
	}
	for i := range r.m.loads {
		cur := &r.m.loads[i]
		if cur.ID != l.ID {
			continue
		}
		if cur.Version != l.Version || cur.Collected {
			return models.ErrConflict
		}
		l.Version++
		*cur = *l
		return nil
	}
	return models.ErrConflict
}

func (r memLoads) List(_ context.Context, f repository.LoadFilter) ([]models.Load, error) {
	out := make([]models.Load, 0, len(r.m.loads))
	for _, l := range r.m.loads {
		if f.ApplianceID == 0 || l.ApplianceID == f.ApplianceID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartTime.After(out[j].StartTime)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type memEvents struct{ m *memStore }

func (r memEvents) Append(_ context.Context, e models.LoadEvent) error {
	r.m.events = append(r.m.events, e)
	return nil
}

func (r memEvents) List(_ context.Context, _ repository.EventFilter) ([]models.LoadEvent, error) {
	return r.m.events, nil
}

// fakeTx runs fn directly against the memory store. Failed attempts are not
// rolled back; tests that care about atomicity use sqlite.
type fakeTx struct {
	m     *memStore
	err   error
	calls int
}

func (f *fakeTx) WithinTx(_ context.Context, fn func(s *repository.Store) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(f.m.store())
}

func ts(n int) time.Time {
	return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute)
}
