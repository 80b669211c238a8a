package service

import (
	"context"
	"errors"
	"testing"

	"laundrybot/internal/models"
)

func TestHistoryService_ListLoads(t *testing.T) {
	m := newMemStore(testWasher, testDryer)
	for i := 0; i < 3; i++ {
		end := ts(i*10 + 5)
		m.seed(models.Load{ApplianceID: 1, CycleNumber: 4, StartTime: ts(i * 10), EndTime: &end, LastChangeTime: end, Collected: true})
	}
	m.seed(models.Load{ApplianceID: 2, CycleNumber: 1, StartTime: ts(40), LastChangeTime: ts(40)})
	svc := NewHistoryService(m.store().Loads, testCatalog(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  HistoryFilter
		wantIDs []int64
		wantErr string
	}{
		{name: "all newest first", filter: HistoryFilter{}, wantIDs: []int64{4, 3, 2, 1}},
		{name: "by appliance", filter: HistoryFilter{Appliance: " washer "}, wantIDs: []int64{3, 2, 1}},
		{name: "limit", filter: HistoryFilter{Limit: 2}, wantIDs: []int64{4, 3}},
		{name: "negative limit", filter: HistoryFilter{Limit: -1}, wantErr: "limit"},
		{name: "unknown appliance", filter: HistoryFilter{Appliance: "oven"}, wantErr: "appliance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListLoads(ctx, tt.filter)
			if tt.wantErr != "" {
				var verrs models.ValidationErrors
				if !errors.As(err, &verrs) || verrs[tt.wantErr] == "" {
					t.Fatalf("expected validation error on %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d loads, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Fatalf("load[%d] = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestHistoryService_CapsLimit(t *testing.T) {
	m := newMemStore(testWasher, testDryer)
	for i := 0; i < maxHistoryLimit+5; i++ {
		end := ts(i)
		m.seed(models.Load{ApplianceID: 1, CycleNumber: 1, StartTime: ts(i), EndTime: &end, LastChangeTime: end, Collected: true})
	}
	svc := NewHistoryService(m.store().Loads, testCatalog(t))

	got, err := svc.ListLoads(context.Background(), HistoryFilter{Limit: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != maxHistoryLimit {
		t.Fatalf("got %d loads, want %d", len(got), maxHistoryLimit)
	}
}

func TestBootstrap_UpsertsFixturesAndKeepsReadings(t *testing.T) {
	m := newMemStore()
	tx := &fakeTx{m: m}
	cat := testCatalog(t)
	people := []models.Person{{Name: "Sam"}, {Name: "Alex"}}
	ctx := context.Background()

	if err := Bootstrap(ctx, tx, cat, people, nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if len(m.appliances) != 2 || len(m.people) != 2 {
		t.Fatalf("fixtures not stored: %d appliances, %d people", len(m.appliances), len(m.people))
	}

	if err := m.store().Appliances.SaveReading(ctx, 1, models.Reading{Value: 9, At: ts(1)}); err != nil {
		t.Fatalf("save reading: %v", err)
	}
	if err := Bootstrap(ctx, tx, cat, people, nil); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if len(m.people) != 2 {
		t.Fatalf("people duplicated: %+v", m.people)
	}
	if m.appliances[1].LastReading != 9 {
		t.Fatalf("restart lost the stored reading")
	}
}

func TestBootstrap_PropagatesStorageError(t *testing.T) {
	boom := errors.New("disk full")
	tx := &fakeTx{m: newMemStore(), err: boom}

	if err := Bootstrap(context.Background(), tx, testCatalog(t), nil, nil); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
