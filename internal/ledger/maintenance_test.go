package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/models"
)

func newMaintenanceFixture(t *testing.T) (*MaintenanceLedger, *Registry, string) {
	t.Helper()
	registry, _ := newTestRegistry()
	entries := db.NewMemoryMaintenanceCollection()
	ledger := NewMaintenanceLedger(entries, registry, nil)

	vehicle, err := registry.Create(context.Background(), CreateVehicleInput{
		Siglas:          "TRK-01",
		Name:            "Box Truck",
		InitialOdometer: 1000,
		TankCapacity:    50,
	})
	require.NoError(t, err)
	return ledger, registry, vehicle.ID.Hex()
}

func TestMaintenanceLedger_ScheduleComplete(t *testing.T) {
	ctx := context.Background()
	ledger, registry, vehicleID := newMaintenanceFixture(t)

	scheduled := time.Now().Add(48 * time.Hour)
	entry, err := ledger.Schedule(ctx, ScheduleInput{
		VehicleID:     vehicleID,
		Type:          "oil_change",
		ScheduledDate: scheduled,
		CreatedBy:     "operator-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceProgrammed, entry.Status)
	assert.Equal(t, "TRK-01", entry.VehicleSiglas)

	completed, err := ledger.Complete(ctx, CompleteInput{
		EntryID:  entry.ID.Hex(),
		Odometer: 1050,
		Cost:     120,
		Provider: "Shop A",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCompleted, completed.Status)
	require.NotNil(t, completed.CompletedDate)
	assert.Equal(t, 1050.0, completed.Odometer)
	assert.Equal(t, 120.0, completed.Cost)

	// Completing a service advances the vehicle's odometer
	vehicle, err := registry.Get(ctx, vehicleID)
	require.NoError(t, err)
	assert.Equal(t, 1050.0, vehicle.CurrentOdometer)
}

func TestMaintenanceLedger_StartThenComplete(t *testing.T) {
	ctx := context.Background()
	ledger, _, vehicleID := newMaintenanceFixture(t)

	entry, err := ledger.Schedule(ctx, ScheduleInput{
		VehicleID: vehicleID, Type: "brake_service", ScheduledDate: time.Now(),
	})
	require.NoError(t, err)

	started, err := ledger.Start(ctx, entry.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceInProgress, started.Status)

	// Starting twice is rejected
	_, err = ledger.Start(ctx, entry.ID.Hex())
	assert.True(t, errors.Is(err, ErrInvariant))

	completed, err := ledger.Complete(ctx, CompleteInput{EntryID: entry.ID.Hex(), Odometer: 1000})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCompleted, completed.Status)
}

func TestMaintenanceLedger_Validation(t *testing.T) {
	ctx := context.Background()
	ledger, _, vehicleID := newMaintenanceFixture(t)

	tests := []struct {
		name  string
		input ScheduleInput
	}{
		{"missing vehicle_id", ScheduleInput{Type: "oil_change", ScheduledDate: time.Now()}},
		{"missing type", ScheduleInput{VehicleID: vehicleID, ScheduledDate: time.Now()}},
		{"missing date", ScheduleInput{VehicleID: vehicleID, Type: "oil_change"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Schedule(ctx, tt.input)
			assert.True(t, errors.Is(err, ErrValidation), "expected ErrValidation, got %v", err)
		})
	}
}

func TestMaintenanceLedger_CompleteBelowOdometer(t *testing.T) {
	ctx := context.Background()
	ledger, registry, vehicleID := newMaintenanceFixture(t)

	entry, err := ledger.Schedule(ctx, ScheduleInput{
		VehicleID: vehicleID, Type: "oil_change", ScheduledDate: time.Now(),
	})
	require.NoError(t, err)

	_, err = ledger.Complete(ctx, CompleteInput{EntryID: entry.ID.Hex(), Odometer: 900})
	assert.True(t, errors.Is(err, ErrInvariant), "expected ErrInvariant, got %v", err)

	// Entry and vehicle untouched by the rejection
	current, err := ledger.Get(ctx, entry.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceProgrammed, current.Status)

	vehicle, err := registry.Get(ctx, vehicleID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, vehicle.CurrentOdometer)
}

func TestMaintenanceLedger_TerminalStates(t *testing.T) {
	ctx := context.Background()
	ledger, _, vehicleID := newMaintenanceFixture(t)

	entry, err := ledger.Schedule(ctx, ScheduleInput{
		VehicleID: vehicleID, Type: "oil_change", ScheduledDate: time.Now(),
	})
	require.NoError(t, err)

	cancelled, err := ledger.Cancel(ctx, entry.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCancelled, cancelled.Status)

	// Cancelled entries accept no further transitions
	_, err = ledger.Start(ctx, entry.ID.Hex())
	assert.True(t, errors.Is(err, ErrInvariant))
	_, err = ledger.Complete(ctx, CompleteInput{EntryID: entry.ID.Hex(), Odometer: 1100})
	assert.True(t, errors.Is(err, ErrInvariant))
	_, err = ledger.Cancel(ctx, entry.ID.Hex())
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestMaintenanceLedger_DeactivatedVehicle(t *testing.T) {
	ctx := context.Background()
	ledger, registry, vehicleID := newMaintenanceFixture(t)

	_, err := registry.Deactivate(ctx, vehicleID)
	require.NoError(t, err)

	_, err = ledger.Schedule(ctx, ScheduleInput{
		VehicleID: vehicleID, Type: "oil_change", ScheduledDate: time.Now(),
	})
	assert.True(t, errors.Is(err, ErrValidation), "expected ErrValidation, got %v", err)
}

func TestMaintenanceLedger_NotFound(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newMaintenanceFixture(t)

	_, err := ledger.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

	_, err = ledger.Complete(ctx, CompleteInput{EntryID: "missing", Odometer: 1100})
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestMaintenanceLedger_List(t *testing.T) {
	ctx := context.Background()
	ledger, _, vehicleID := newMaintenanceFixture(t)

	a, err := ledger.Schedule(ctx, ScheduleInput{
		VehicleID: vehicleID, Type: "oil_change", ScheduledDate: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = ledger.Schedule(ctx, ScheduleInput{
		VehicleID: vehicleID, Type: "tires", ScheduledDate: time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)

	_, err = ledger.Cancel(ctx, a.ID.Hex())
	require.NoError(t, err)

	programmed, err := ledger.List(ctx, db.MaintenanceFilter{
		VehicleID: vehicleID, Status: models.MaintenanceProgrammed,
	})
	require.NoError(t, err)
	require.Len(t, programmed, 1)
	assert.Equal(t, "tires", programmed[0].Type)
}
