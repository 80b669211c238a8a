package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const natsFlushTimeout = 5 * time.Second

// natsPublisher is the part of *nats.Conn we use.
type natsPublisher interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATSNotifier publishes to <subject>.<person> on a NATS server.
type NATSNotifier struct {
	conn    natsPublisher
	subject string
}

// NewNATSNotifier connects to url and returns a notifier publishing under subject.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("laundrybot"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return newNATSNotifier(conn, subject), nil
}

func newNATSNotifier(conn natsPublisher, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject}
}

// Subject returns the subject a notification for person is published to.
func (c *NATSNotifier) Subject(person string) string {
	return c.subject + "." + personToken(person)
}

// Notify publishes n and waits for the server to acknowledge the flush.
func (c *NATSNotifier) Notify(ctx context.Context, n Notification) error {
	data, err := FormatPayload(n)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	if err := c.conn.Publish(c.Subject(n.Person), data); err != nil {
		return fmt.Errorf("publish to %s: %w", c.Subject(n.Person), err)
	}

	wait := natsFlushTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < wait {
			wait = d
		}
	}
	if err := c.conn.FlushTimeout(wait); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}

// Close drops the connection.
func (c *NATSNotifier) Close() error {
	c.conn.Close()
	return nil
}
