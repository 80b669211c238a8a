package models

import "time"

// Role describes where an appliance sits in the laundry flow.
type Role string

const (
	RoleSource Role = "source" // washer: its finished contents move on
	RoleSink   Role = "sink"   // dryer: receives contents from its source
)

// Appliance is one of the fixed, monitored machines.
type Appliance struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"` // amps at or above which the machine is running
	Cycles    int     `json:"cycles"`    // sub-cycles before a run counts as complete
	Role      Role    `json:"role"`
	SourceID  int     `json:"source_id,omitempty"` // only set for sinks

	LastReading float64   `json:"last_reading"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a Appliance) IsSource() bool { return a.Role == RoleSource }
func (a Appliance) IsSink() bool   { return a.Role == RoleSink }

// Reading is a single power sample for an appliance.
type Reading struct {
	Value float64
	At    time.Time
}

// Previous returns the last persisted sample as a Reading.
func (a Appliance) Previous() Reading {
	return Reading{Value: a.LastReading, At: a.UpdatedAt}
}
