package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"
)

// LogFilter narrows an event listing. Zero values mean no restriction.
type LogFilter struct {
	From      time.Time
	To        time.Time
	Type      string
	Appliance string
}

// EventLogService answers audit queries over the event log.
type EventLogService struct {
	events  repository.EventRepo
	catalog *Catalog
}

func NewEventLogService(events repository.EventRepo, catalog *Catalog) *EventLogService {
	return &EventLogService{events: events, catalog: catalog}
}

var eventTypes = map[string]bool{
	models.EventLoadStarted:   true,
	models.EventCycleAdvanced: true,
	models.EventLoadFinished:  true,
	models.EventLoadCollected: true,
	models.EventOwnerAssigned: true,
}

// List returns matching events, oldest first. Every bad field is reported
// at once and the log is not read.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.LoadEvent, error) {
	rf, err := s.resolve(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, rf)
}

// resolve converts bounds to UTC, canonicalizes the type and maps the
// appliance name to its id.
func (s *EventLogService) resolve(f LogFilter) (repository.EventFilter, error) {
	out := repository.EventFilter{From: utc(f.From), To: utc(f.To)}
	bad := models.ValidationErrors{}

	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		bad["from"] = "must not be after to"
	}
	if typ := strings.ToUpper(strings.TrimSpace(f.Type)); typ != "" {
		if eventTypes[typ] {
			out.Type = typ
		} else {
			bad["type"] = fmt.Sprintf("unknown event type %q", f.Type)
		}
	}
	if name := strings.TrimSpace(f.Appliance); name != "" {
		if a, ok := s.catalog.ByName(name); ok {
			out.ApplianceID = a.ID
		} else {
			bad["appliance"] = fmt.Sprintf("unknown appliance %q", name)
		}
	}

	if len(bad) > 0 {
		return repository.EventFilter{}, bad
	}
	return out, nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
