package service

import (
	"fmt"
	"sort"

	"laundrybot/internal/models"
)

// Catalog is the fixed set of appliances known to the process.
type Catalog struct {
	ordered []models.Appliance
	byID    map[int]models.Appliance
	byName  map[string]models.Appliance
	source  models.Appliance
}

// NewCatalog checks the topology: exactly one source, and every sink fed by it.
func NewCatalog(apps []models.Appliance) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[int]models.Appliance, len(apps)),
		byName: make(map[string]models.Appliance, len(apps)),
	}
	sources := 0
	for _, a := range apps {
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("appliance id %d registered twice", a.ID)
		}
		if _, dup := c.byName[a.Name]; dup {
			return nil, fmt.Errorf("appliance name %q registered twice", a.Name)
		}
		c.byID[a.ID] = a
		c.byName[a.Name] = a
		if a.IsSource() {
			sources++
			c.source = a
		}
	}
	if sources != 1 {
		return nil, fmt.Errorf("need exactly one source appliance, got %d", sources)
	}
	for _, a := range apps {
		if a.IsSink() && a.SourceID != c.source.ID {
			return nil, fmt.Errorf("sink %q is fed by %d, not by source %d", a.Name, a.SourceID, c.source.ID)
		}
	}

	c.ordered = append([]models.Appliance(nil), apps...)
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].ID < c.ordered[j].ID })
	return c, nil
}

// All returns the appliances ordered by ID.
func (c *Catalog) All() []models.Appliance { return c.ordered }

// IngestOrder returns sources before sinks, so a same-tick transfer sees the
// source's state for this tick.
func (c *Catalog) IngestOrder() []models.Appliance {
	out := make([]models.Appliance, 0, len(c.ordered))
	out = append(out, c.source)
	for _, a := range c.ordered {
		if !a.IsSource() {
			out = append(out, a)
		}
	}
	return out
}

func (c *Catalog) IDs() []int {
	ids := make([]int, 0, len(c.ordered))
	for _, a := range c.ordered {
		ids = append(ids, a.ID)
	}
	return ids
}

func (c *Catalog) Source() models.Appliance { return c.source }

func (c *Catalog) Get(id int) (models.Appliance, bool) {
	a, ok := c.byID[id]
	return a, ok
}

func (c *Catalog) ByName(name string) (models.Appliance, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// Name returns the display name of an appliance, or its id if unknown.
func (c *Catalog) Name(id int) string {
	if a, ok := c.byID[id]; ok {
		return a.Name
	}
	return fmt.Sprintf("appliance-%d", id)
}
