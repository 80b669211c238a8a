package models

// Which load a button press acts on.
const (
	ButtonTargetSource = "source" // the source appliance's newest load
	ButtonTargetLatest = "latest" // the newest load on any appliance
)
