package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Event types published by the ledgers.
const (
	TypeMovementCheckedOut   = "movement_checked_out"
	TypeMovementCheckedIn    = "movement_checked_in"
	TypeMovementCancelled    = "movement_cancelled"
	TypeFuelRecorded         = "fuel_recorded"
	TypeMaintenanceCompleted = "maintenance_completed"
	TypeLowFuel              = "low_fuel"
)

// Event is a ledger notification published for downstream consumers
// (dashboards, alerting). The ledger never depends on delivery.
type Event struct {
	Type      string                 `json:"type"`
	VehicleID string                 `json:"vehicle_id"`
	Siglas    string                 `json:"siglas,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Publisher publishes ledger events. Publish is fire-and-forget.
type Publisher interface {
	Publish(event Event)
	Close()
}

// NoopPublisher discards all events. Used when no broker is configured and
// in tests.
type NoopPublisher struct{}

func (NoopPublisher) Publish(Event) {}
func (NoopPublisher) Close()        {}

// MQTTPublisher publishes events to an MQTT broker under fleet/events/<type>.
type MQTTPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(brokerURL, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout for broker %s", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}
	return &MQTTPublisher{client: client}, nil
}

// Publish marshals the event and publishes it at QoS 0. Failures are logged,
// never returned; event delivery is best effort.
func (p *MQTTPublisher) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("type", event.Type).Error("Failed to marshal event")
		return
	}
	topic := "fleet/events/" + event.Type
	token := p.client.Publish(topic, 0, false, data)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"topic":      topic,
				"vehicle_id": event.VehicleID,
			}).Error("Failed to publish event")
		}
	}()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
