package metrics

// Recorder collects counters for the laundry engines. Implementations must be
// safe to call with a nil receiver so metrics stay optional.
type Recorder interface {
	IncReading(appliance string)
	IncTransition(appliance, kind string)
	IncLoadEvent(eventType string)
	IncButton(outcome string)
	IncStorageRetry()
	IncConsistencyViolation()
	IncNotification(success bool)
}

// NoopRecorder is used when metrics are not wired.
type NoopRecorder struct{}

func (NoopRecorder) IncReading(string)            {}
func (NoopRecorder) IncTransition(string, string) {}
func (NoopRecorder) IncLoadEvent(string)          {}
func (NoopRecorder) IncButton(string)             {}
func (NoopRecorder) IncStorageRetry()             {}
func (NoopRecorder) IncConsistencyViolation()     {}
func (NoopRecorder) IncNotification(bool)         {}
