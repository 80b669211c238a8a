package models

import "time"

// Load event types written to the event log.
const (
	EventLoadStarted   = "LOAD_STARTED"
	EventCycleAdvanced = "CYCLE_ADVANCED"
	EventLoadFinished  = "LOAD_FINISHED"
	EventLoadCollected = "LOAD_COLLECTED"
	EventOwnerAssigned = "OWNER_ASSIGNED"
)

// LoadEvent is a single entry of the load history log.
type LoadEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	LoadID      int64     `json:"load_id"`
	ApplianceID int       `json:"appliance_id"`
	Person      string    `json:"person,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
