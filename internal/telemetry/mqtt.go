package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/smart-clock/internal/logic"
)

// MQTTOptions configures an MQTTReporter.
type MQTTOptions struct {
	Broker   string // tcp://host:1883 or ssl://host:8883
	Device   string
	Username string
	Password string
	// InsecureSkipVerify disables broker certificate checks (self-signed
	// brokers on the LAN).
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// MQTTReporter publishes telemetry to an MQTT broker.
type MQTTReporter struct {
	client      paho.Client
	topic       string
	topicSystem string
}

// NewMQTTReporter connects to the broker. A broker that is still unreachable
// after ConnectTimeout is not an error: the client keeps retrying in the
// background and IsConnected reports false until it succeeds.
func NewMQTTReporter(o MQTTOptions) (*MQTTReporter, error) {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	topicSystem := TopicSystem(o.Device)

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID("smart-clock-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(topicSystem, string(will), 1, true)
	if o.Username != "" {
		opts.SetUsername(o.Username).SetPassword(o.Password)
	}
	opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: o.InsecureSkipVerify})

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(o.ConnectTimeout) && token.Error() != nil {
		err := token.Error()
		client.Disconnect(0)
		return nil, fmt.Errorf("%w: connect to broker: %v", ErrReport, err)
	}

	return &MQTTReporter{
		client:      client,
		topic:       Topic(o.Device),
		topicSystem: topicSystem,
	}, nil
}

// Report publishes a record at QoS 0.
func (p *MQTTReporter) Report(ctx context.Context, rec logic.TelemetryRecord) error {
	payload, err := FormatPayload(rec)
	if err != nil {
		return fmt.Errorf("%w: format payload: %v", ErrReport, err)
	}
	return p.publish(ctx, p.topic, 0, false, payload)
}

// PublishSystem sends a lifecycle event at QoS 1.
func (p *MQTTReporter) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("%w: format system payload: %v", ErrReport, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.publish(ctx, p.topicSystem, 1, event.Retained, payload)
}

func (p *MQTTReporter) publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		return fmt.Errorf("%w: not connected", ErrReport)
	}
	token := p.client.Publish(topic, qos, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: publish to %s: %v", ErrReport, topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", ErrReport, topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *MQTTReporter) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *MQTTReporter) Close() error {
	p.client.Disconnect(1000)
	return nil
}
