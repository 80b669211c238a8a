package models

// ApplianceStatus is the externally visible state of one appliance.
type ApplianceStatus struct {
	Name      string  `json:"name"`
	Reading   float64 `json:"reading"`
	Running   bool    `json:"running"`
	Cycle     int     `json:"cycle"`
	User      *string `json:"user"`
	Collected bool    `json:"collected"`
}

// Snapshot is the read-only projection returned to clients, ordered by appliance ID.
type Snapshot struct {
	Appliances []ApplianceStatus `json:"appliances"`
}
