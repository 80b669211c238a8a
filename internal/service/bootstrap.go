package service

import (
	"context"
	"fmt"

	"laundrybot/internal/logger"
	"laundrybot/internal/models"
	"laundrybot/internal/repository"
)

// Bootstrap upserts the appliance and household fixtures. It runs once at
// startup, before any request is served. Stored readings and loads survive.
func Bootstrap(ctx context.Context, tx repository.Transactor, catalog *Catalog, people []models.Person, log *logger.Logger) error {
	err := tx.WithinTx(ctx, func(s *repository.Store) error {
		// sources first: sinks reference them
		for _, a := range catalog.IngestOrder() {
			if err := s.Appliances.Upsert(ctx, a); err != nil {
				return fmt.Errorf("upsert appliance %s: %w", a.Name, err)
			}
		}
		for _, p := range people {
			if _, err := s.People.Upsert(ctx, p); err != nil {
				return fmt.Errorf("upsert person %s: %w", p.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if log != nil {
		log.Infow("fixtures_ready", "appliances", len(catalog.All()), "people", len(people))
	}
	return nil
}
