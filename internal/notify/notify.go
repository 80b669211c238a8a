// Package notify tells people that their load has finished.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Notification announces that an owned load has finished.
type Notification struct {
	Person     string
	Appliance  string
	LoadID     int64
	FinishedAt time.Time
}

// Notifier delivers notifications. Delivery is best-effort: callers log the
// error and carry on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Close() error
}

// Payload is the JSON body published to the broker.
type Payload struct {
	Event      string `json:"event"`
	Person     string `json:"person"`
	Appliance  string `json:"appliance"`
	LoadID     int64  `json:"load_id"`
	FinishedAt string `json:"finished_at"`
}

// FormatPayload renders n as JSON.
func FormatPayload(n Notification) ([]byte, error) {
	return json.Marshal(Payload{
		Event:      "LOAD_FINISHED",
		Person:     n.Person,
		Appliance:  n.Appliance,
		LoadID:     n.LoadID,
		FinishedAt: n.FinishedAt.UTC().Format(time.RFC3339),
	})
}

// personToken lowercases name and replaces anything that is not a letter or
// digit, so it is safe as an MQTT topic level or a NATS subject token.
func personToken(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}

// Noop drops every notification.
type Noop struct{}

func (Noop) Notify(context.Context, Notification) error { return nil }
func (Noop) Close() error                               { return nil }

// Backends accepted by New.
const (
	BackendNone = "none"
	BackendMQTT = "mqtt"
	BackendNATS = "nats"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	MQTTBroker  string
	MQTTTopic   string
	NATSURL     string
	NATSSubject string
}

// New connects the configured backend. An empty backend means none.
func New(o Options) (Notifier, error) {
	switch strings.ToLower(o.Backend) {
	case "", BackendNone:
		return Noop{}, nil
	case BackendMQTT:
		return NewMQTTNotifier(o.MQTTBroker, o.MQTTTopic)
	case BackendNATS:
		return NewNATSNotifier(o.NATSURL, o.NATSSubject)
	default:
		return nil, fmt.Errorf("unknown notify backend %q", o.Backend)
	}
}
