package models

import "time"

// Load is one physical wash or dry run.
type Load struct {
	ID             int64      `json:"id"`
	ApplianceID    int        `json:"appliance_id"`
	OwnerID        *int64     `json:"owner_id,omitempty"`
	OwnerName      string     `json:"owner,omitempty"` // resolved from people on read
	CycleNumber    int        `json:"cycle_number"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"` // nil while running
	LastChangeTime time.Time  `json:"last_change_time"`
	Collected      bool       `json:"collected"`
	Version        int        `json:"-"`
}

// IsOpen reports whether the load has not been observed as finished.
func (l *Load) IsOpen() bool { return l != nil && l.EndTime == nil }

// HasOwner reports whether a person is bound to the load.
func (l *Load) HasOwner() bool { return l != nil && l.OwnerID != nil }

// OwnedBy reports whether p owns the load.
func (l *Load) OwnedBy(p Person) bool { return l.HasOwner() && *l.OwnerID == p.ID }

// Finish sets the end time unless it is already set. Returns true if it changed.
func (l *Load) Finish(at time.Time) bool {
	if l.EndTime != nil {
		return false
	}
	end := at
	l.EndTime = &end
	return true
}

// Collect marks the load collected, finishing it first if needed.
func (l *Load) Collect(at time.Time) (finished bool) {
	finished = l.Finish(at)
	l.Collected = true
	return finished
}

// AssignOwner binds p to the load.
func (l *Load) AssignOwner(p Person) {
	id := p.ID
	l.OwnerID = &id
	l.OwnerName = p.Name
}
