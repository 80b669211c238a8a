package service

import (
	"context"
	"fmt"
	"strings"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// HistoryFilter narrows a load listing. An empty appliance means all.
type HistoryFilter struct {
	Appliance string
	Limit     int
}

type HistoryService struct {
	loads   repository.LoadLedger
	catalog *Catalog
}

func NewHistoryService(loads repository.LoadLedger, catalog *Catalog) *HistoryService {
	return &HistoryService{loads: loads, catalog: catalog}
}

// ListLoads returns loads newest first. Limit defaults to 50 and is capped at 500.
func (s *HistoryService) ListLoads(ctx context.Context, f HistoryFilter) ([]models.Load, error) {
	rf := repository.LoadFilter{Limit: f.Limit}
	switch {
	case rf.Limit < 0:
		return nil, models.ValidationErrors{"limit": "must not be negative"}
	case rf.Limit == 0:
		rf.Limit = defaultHistoryLimit
	case rf.Limit > maxHistoryLimit:
		rf.Limit = maxHistoryLimit
	}

	if name := strings.TrimSpace(f.Appliance); name != "" {
		a, ok := s.catalog.ByName(name)
		if !ok {
			return nil, models.ValidationErrors{"appliance": fmt.Sprintf("unknown appliance %q", name)}
		}
		rf.ApplianceID = a.ID
	}
	return s.loads.List(ctx, rf)
}
