package service

import (
	"time"

	"laundrybot/internal/models"
)

// Transition is the classification of one reading against the previous one.
type Transition string

const (
	TransitionNone        Transition = "none"
	TransitionCrossedUp   Transition = "crossed_up"
	TransitionCrossedDown Transition = "crossed_down"
	TransitionIdleTimeout Transition = "idle_timeout"
)

// Classify compares cur against prev for appliance a. open is the appliance's
// open load, or nil. Idle timeout is checked first so a long-quiet low reading
// resolves a stuck load even without a fresh crossing.
func Classify(a models.Appliance, prev, cur models.Reading, open *models.Load, idleTimeout time.Duration) Transition {
	below := cur.Value < a.Threshold
	if below && open.IsOpen() && cur.At.Sub(open.LastChangeTime) > idleTimeout {
		return TransitionIdleTimeout
	}

	wasBelow := prev.Value < a.Threshold
	switch {
	case wasBelow && !below:
		return TransitionCrossedUp
	case !wasBelow && below:
		return TransitionCrossedDown
	default:
		return TransitionNone
	}
}
