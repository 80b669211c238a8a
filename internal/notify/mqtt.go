package notify

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttClientID       = "laundrybot"
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// mqttPublisher is the part of paho.Client we use.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// MQTTNotifier publishes to <topic>/<person> on an MQTT broker.
type MQTTNotifier struct {
	client mqttPublisher
	topic  string
}

// NewMQTTNotifier connects to broker and returns a notifier publishing under topic.
func NewMQTTNotifier(broker, topic string) (*MQTTNotifier, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(mqttClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	if err := connectMQTT(client, mqttConnectTimeout); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", broker, err)
	}
	return newMQTTNotifier(client, topic), nil
}

// mqttConnector is the part of paho.Client used while connecting.
type mqttConnector interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
}

// connectMQTT waits for the first connection. On failure the client is
// disconnected so its connect-retry loop stops.
func connectMQTT(client mqttConnector, wait time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(wait) {
		client.Disconnect(0)
		return fmt.Errorf("timeout after %s", wait)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return err
	}
	return nil
}

func newMQTTNotifier(client mqttPublisher, topic string) *MQTTNotifier {
	return &MQTTNotifier{client: client, topic: topic}
}

// Topic returns the topic a notification for person is published to.
func (m *MQTTNotifier) Topic(person string) string {
	return m.topic + "/" + personToken(person)
}

// Notify publishes n with QoS 1, not retained.
func (m *MQTTNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := FormatPayload(n)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	wait := mqttPublishTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < wait {
			wait = d
		}
	}

	token := m.client.Publish(m.Topic(n.Person), 1, false, payload)
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("publish to %s: timeout", m.Topic(n.Person))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.Topic(n.Person), err)
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTTNotifier) Close() error {
	m.client.Disconnect(1000)
	return nil
}
