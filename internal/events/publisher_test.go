package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	p.Publish(Event{Type: TypeLowFuel, VehicleID: "v1"})
	p.Close()
}

func TestEvent_Marshal(t *testing.T) {
	event := Event{
		Type:      TypeMovementCheckedIn,
		VehicleID: "v1",
		Siglas:    "TRK-01",
		Payload: map[string]interface{}{
			"movement_id": "m1",
			"distance":    200.0,
		},
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "movement_checked_in", decoded["type"])
	assert.Equal(t, "v1", decoded["vehicle_id"])
	assert.Equal(t, "TRK-01", decoded["siglas"])
}

func TestNewMQTTPublisher_UnreachableBroker(t *testing.T) {
	_, err := NewMQTTPublisher("tcp://127.0.0.1:1", "fleet-ledger-test")
	assert.Error(t, err)
}
