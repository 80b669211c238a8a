package service

import (
	"testing"
	"time"

	"laundrybot/internal/models"
)

func TestClassify(t *testing.T) {
	washer := models.Appliance{ID: 1, Name: "washer", Threshold: 7, Cycles: 4, Role: models.RoleSource}
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	timeout := 10 * time.Minute

	open := &models.Load{ApplianceID: 1, LastChangeTime: t0}
	ended := t0
	finished := &models.Load{ApplianceID: 1, LastChangeTime: t0, EndTime: &ended}

	tests := []struct {
		name      string
		prev, cur float64
		at        time.Time
		load      *models.Load
		want      Transition
	}{
		{"below to at threshold", 2, 7, t0.Add(time.Minute), nil, TransitionCrossedUp},
		{"below to above", 0, 10, t0.Add(time.Minute), open, TransitionCrossedUp},
		{"above to below", 10, 2, t0.Add(time.Minute), open, TransitionCrossedDown},
		{"at threshold to below", 7, 6.9, t0.Add(time.Minute), nil, TransitionCrossedDown},
		{"stays below", 2, 3, t0.Add(time.Minute), open, TransitionNone},
		{"stays above", 10, 12, t0.Add(time.Hour), open, TransitionNone},
		{"idle past timeout", 2, 2, t0.Add(timeout + time.Second), open, TransitionIdleTimeout},
		{"idle exactly at timeout", 2, 2, t0.Add(timeout), open, TransitionNone},
		{"idle beats crossed down", 10, 2, t0.Add(timeout + time.Second), open, TransitionIdleTimeout},
		{"idle needs an open load", 2, 2, t0.Add(time.Hour), finished, TransitionNone},
		{"idle needs any load", 10, 2, t0.Add(time.Hour), nil, TransitionCrossedDown},
		{"above never idles", 10, 10, t0.Add(time.Hour), open, TransitionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(washer,
				models.Reading{Value: tt.prev, At: t0},
				models.Reading{Value: tt.cur, At: tt.at},
				tt.load, timeout)
			if got != tt.want {
				t.Fatalf("Classify(%v -> %v) = %s, want %s", tt.prev, tt.cur, got, tt.want)
			}
		})
	}
}
