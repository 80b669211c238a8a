package service

import (
	"context"
	"fmt"
	"time"

	"laundrybot/internal/models"
	"laundrybot/internal/repository"
)

// ButtonOutcome is what a button press did.
type ButtonOutcome string

const (
	OutcomeClaimed   ButtonOutcome = "claimed"
	OutcomeCollected ButtonOutcome = "collected"
	OutcomeCreated   ButtonOutcome = "created"
)

// OwnershipTracker applies button presses to the ledger.
type OwnershipTracker struct {
	catalog *Catalog
	target  string
}

// NewOwnershipTracker returns a tracker using one of the models.ButtonTarget* policies.
// An unknown policy falls back to models.ButtonTargetSource.
func NewOwnershipTracker(catalog *Catalog, target string) *OwnershipTracker {
	if target != models.ButtonTargetLatest {
		target = models.ButtonTargetSource
	}
	return &OwnershipTracker{catalog: catalog, target: target}
}

// PressResult describes what a single Press did.
type PressResult struct {
	Outcome ButtonOutcome
	Load    models.Load
	Events  []models.LoadEvent
}

// Press binds p to the targeted load, collects it on a second press by the
// same person, or claims a fresh load on the source appliance when nothing
// is in flight. s must be bound to the caller's transaction.
func (o *OwnershipTracker) Press(ctx context.Context, s *repository.Store, p models.Person, at time.Time) (PressResult, error) {
	target, err := o.targetLoad(ctx, s)
	if err != nil {
		return PressResult{}, err
	}
	j := newJournal(s, o.catalog)

	if target != nil && !target.Collected {
		if !target.OwnedBy(p) {
			previous := target.OwnerName
			target.AssignOwner(p)
			if err := j.save(ctx, target, at, map[string]any{"previous_owner": previous}, models.EventOwnerAssigned); err != nil {
				return PressResult{}, err
			}
			return PressResult{Outcome: OutcomeClaimed, Load: *target, Events: j.events}, nil
		}

		types := make([]string, 0, 2)
		if target.Collect(at) {
			types = append(types, models.EventLoadFinished)
		}
		types = append(types, models.EventLoadCollected)
		if err := j.save(ctx, target, at, map[string]any{"reason": "button"}, types...); err != nil {
			return PressResult{}, err
		}
		return PressResult{Outcome: OutcomeCollected, Load: *target, Events: j.events}, nil
	}

	claimed := &models.Load{
		ApplianceID:    o.catalog.Source().ID,
		CycleNumber:    0,
		StartTime:      at,
		LastChangeTime: at,
	}
	claimed.AssignOwner(p)
	if err := j.create(ctx, claimed, at, map[string]any{"reason": "button"}); err != nil {
		return PressResult{}, fmt.Errorf("claim new load for %s: %w", p.Name, err)
	}
	return PressResult{Outcome: OutcomeCreated, Load: *claimed, Events: j.events}, nil
}

func (o *OwnershipTracker) targetLoad(ctx context.Context, s *repository.Store) (*models.Load, error) {
	if o.target == models.ButtonTargetLatest {
		return s.Loads.MostRecentAny(ctx)
	}
	return s.Loads.MostRecent(ctx, o.catalog.Source().ID)
}
