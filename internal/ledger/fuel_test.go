package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-ledger/internal/db"
)

func newFuelFixture(t *testing.T) (*FuelLedger, *Registry, string) {
	t.Helper()
	registry, _ := newTestRegistry()
	entries := db.NewMemoryFuelCollection()
	ledger := NewFuelLedger(entries, registry, DefaultBlendWeight, nil)

	vehicle, err := registry.Create(context.Background(), CreateVehicleInput{
		Siglas:            "TRK-01",
		Name:              "Box Truck",
		InitialOdometer:   1000,
		InitialFuelLevel:  20,
		TankCapacity:      50,
		ConsumptionFactor: 10,
	})
	require.NoError(t, err)
	return ledger, registry, vehicle.ID.Hex()
}

func TestFuelLedger_RecordFill(t *testing.T) {
	ctx := context.Background()
	ledger, registry, vehicleID := newFuelFixture(t)

	// First fill references the registration odometer (1000): 18L over 200
	// units gives a computed factor of 11.11, blended into 10 at weight 0.3.
	entry, warnings, err := ledger.RecordFill(ctx, RecordFillInput{
		VehicleID:      vehicleID,
		OdometerAtFill: 1200,
		Liters:         18,
		Price:          25.50,
		CreatedBy:      "operator-1",
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 200.0, entry.DistanceSinceLastFill)
	assert.InDelta(t, 11.1111, entry.ComputedConsumptionFactor, 0.0001)
	assert.False(t, entry.FilledAt.IsZero())

	vehicle, err := registry.Get(ctx, vehicleID)
	require.NoError(t, err)
	assert.Equal(t, 38.0, vehicle.FuelLevel)
	assert.InDelta(t, 10.3333, vehicle.ConsumptionFactor, 0.0001) // 10*0.7 + 11.11*0.3
}

func TestFuelLedger_ReferenceSwitchesToLastEntry(t *testing.T) {
	ctx := context.Background()
	ledger, registry, vehicleID := newFuelFixture(t)

	_, _, err := ledger.RecordFill(ctx, RecordFillInput{
		VehicleID: vehicleID, OdometerAtFill: 1200, Liters: 18,
	})
	require.NoError(t, err)

	// Second fill measures distance from the previous fill, not registration
	entry, warnings, err := ledger.RecordFill(ctx, RecordFillInput{
		VehicleID: vehicleID, OdometerAtFill: 1500, Liters: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 300.0, entry.DistanceSinceLastFill)
	assert.InDelta(t, 30.0, entry.ComputedConsumptionFactor, 0.0001)

	// Odometer at fill does not advance the vehicle's odometer
	vehicle, err := registry.Get(ctx, vehicleID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, vehicle.CurrentOdometer)
}

func TestFuelLedger_Validation(t *testing.T) {
	ctx := context.Background()
	ledger, _, vehicleID := newFuelFixture(t)

	tests := []struct {
		name  string
		input RecordFillInput
	}{
		{"missing vehicle_id", RecordFillInput{OdometerAtFill: 1200, Liters: 18}},
		{"zero liters", RecordFillInput{VehicleID: vehicleID, OdometerAtFill: 1200, Liters: 0}},
		{"negative liters", RecordFillInput{VehicleID: vehicleID, OdometerAtFill: 1200, Liters: -5}},
		{"negative price", RecordFillInput{VehicleID: vehicleID, OdometerAtFill: 1200, Liters: 18, Price: -1}},
		{"odometer below current", RecordFillInput{VehicleID: vehicleID, OdometerAtFill: 900, Liters: 18}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ledger.RecordFill(ctx, tt.input)
			assert.True(t, errors.Is(err, ErrValidation), "expected ErrValidation, got %v", err)
		})
	}
}

func TestFuelLedger_OverflowClampsWithWarning(t *testing.T) {
	ctx := context.Background()
	ledger, registry, vehicleID := newFuelFixture(t)

	entry, warnings, err := ledger.RecordFill(ctx, RecordFillInput{
		VehicleID: vehicleID, OdometerAtFill: 1100, Liters: 45,
	})
	require.NoError(t, err)
	assert.Contains(t, warnings, WarnFuelOverflow)
	// Entry records the full 45L even though the level clamps at 50
	assert.Equal(t, 45.0, entry.Liters)

	vehicle, err := registry.Get(ctx, vehicleID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, vehicle.FuelLevel)
}

func TestFuelLedger_ZeroDistanceSkipsRecalibration(t *testing.T) {
	ctx := context.Background()
	ledger, registry, vehicleID := newFuelFixture(t)

	// Fill at the registration odometer: no usable distance
	entry, warnings, err := ledger.RecordFill(ctx, RecordFillInput{
		VehicleID: vehicleID, OdometerAtFill: 1000, Liters: 10,
	})
	require.NoError(t, err)
	assert.Contains(t, warnings, WarnInsufficientData)
	assert.Equal(t, 0.0, entry.DistanceSinceLastFill)
	assert.Equal(t, 0.0, entry.ComputedConsumptionFactor)

	// Factor untouched, fuel still applied
	vehicle, err := registry.Get(ctx, vehicleID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, vehicle.ConsumptionFactor)
	assert.Equal(t, 30.0, vehicle.FuelLevel)
}

func TestFuelLedger_DeactivatedVehicle(t *testing.T) {
	ctx := context.Background()
	ledger, registry, vehicleID := newFuelFixture(t)

	_, err := registry.Deactivate(ctx, vehicleID)
	require.NoError(t, err)

	_, _, err = ledger.RecordFill(ctx, RecordFillInput{
		VehicleID: vehicleID, OdometerAtFill: 1200, Liters: 18,
	})
	assert.True(t, errors.Is(err, ErrValidation), "expected ErrValidation, got %v", err)
}

func TestFuelLedger_NotFound(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newFuelFixture(t)

	_, _, err := ledger.RecordFill(ctx, RecordFillInput{
		VehicleID: "missing", OdometerAtFill: 1200, Liters: 18,
	})
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

	_, err = ledger.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestFuelLedger_List(t *testing.T) {
	ctx := context.Background()
	ledger, _, vehicleID := newFuelFixture(t)

	_, _, err := ledger.RecordFill(ctx, RecordFillInput{VehicleID: vehicleID, OdometerAtFill: 1200, Liters: 10})
	require.NoError(t, err)
	_, _, err = ledger.RecordFill(ctx, RecordFillInput{VehicleID: vehicleID, OdometerAtFill: 1400, Liters: 5})
	require.NoError(t, err)

	entries, err := ledger.List(ctx, db.FuelFilter{VehicleID: vehicleID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first
	assert.Equal(t, 1400.0, entries[0].OdometerAtFill)
}
