package service

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"
)

// MonitoringService serves the read-only snapshot of every appliance.
type MonitoringService struct {
	tx repository.Transactor
}

func NewMonitoringService(tx repository.Transactor) *MonitoringService {
	return &MonitoringService{tx: tx}
}

// Snapshot reads every appliance and its newest load in one transaction, so
// the view is never torn between appliances.
func (s *MonitoringService) Snapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	err := s.tx.WithinTx(ctx, func(st *repository.Store) error {
		apps, err := st.Appliances.List(ctx)
		if err != nil {
			return err
		}
		latest := make(map[int]*models.Load, len(apps))
		for _, a := range apps {
			l, err := st.Loads.MostRecent(ctx, a.ID)
			if err != nil {
				return err
			}
			latest[a.ID] = l
		}
		snap = BuildSnapshot(apps, latest)
		return nil
	})
	if err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// BuildSnapshot projects appliances and their newest loads. An appliance with
// no load reads as idle and collected. The owner is shown only until the
// load is collected.
func BuildSnapshot(apps []models.Appliance, latest map[int]*models.Load) models.Snapshot {
	out := models.Snapshot{Appliances: make([]models.ApplianceStatus, 0, len(apps))}
	for _, a := range apps {
		st := models.ApplianceStatus{
			Name:      a.Name,
			Reading:   a.LastReading,
			Collected: true,
		}
		if l := latest[a.ID]; l != nil {
			st.Running = l.IsOpen()
			st.Cycle = l.CycleNumber
			st.Collected = l.Collected
			if l.HasOwner() && !l.Collected {
				name := l.OwnerName
				st.User = &name
			}
		}
		out.Appliances = append(out.Appliances, st)
	}
	return out
}

// FormatText renders the snapshot as key=json lines, the format the button
// box and the power meter parse:
//
//	washer=10.0
//	washer_running=true
//	washer_cycle=2
//	washer_user="Sam"
//	washer_collected=false
func FormatText(snap models.Snapshot) string {
	lines := make([]string, 0, 5*len(snap.Appliances))
	for _, a := range snap.Appliances {
		user := "null"
		if a.User != nil {
			b, _ := json.Marshal(*a.User)
			user = string(b)
		}
		lines = append(lines,
			a.Name+"="+formatReading(a.Reading),
			a.Name+"_running="+strconv.FormatBool(a.Running),
			a.Name+"_cycle="+strconv.Itoa(a.Cycle),
			a.Name+"_user="+user,
			a.Name+"_collected="+strconv.FormatBool(a.Collected),
		)
	}
	return strings.Join(lines, "\n")
}

// formatReading always keeps a decimal point, so 10 renders as 10.0.
func formatReading(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "null"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
