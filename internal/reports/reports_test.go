package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/models"
)

func TestService_MovementSummary(t *testing.T) {
	ctx := context.Background()
	movements := db.NewMemoryMovementCollection()
	service := NewService(movements, db.NewMemoryFuelCollection())

	now := time.Now()
	in1 := 1200.0
	in2 := 1500.0
	seed := []models.Movement{
		{VehicleID: "v1", Status: models.MovementCompleted, TimeOut: now.Add(-48 * time.Hour),
			OdometerOut: 1000, OdometerIn: &in1, DistanceTraveled: 200, FuelConsumed: 20},
		{VehicleID: "v1", Status: models.MovementCompleted, TimeOut: now.Add(-24 * time.Hour),
			OdometerOut: 1200, OdometerIn: &in2, DistanceTraveled: 300, FuelConsumed: 30},
		// Open movements are excluded
		{VehicleID: "v1", Status: models.MovementInProgress, TimeOut: now.Add(-1 * time.Hour), OdometerOut: 1500},
		// Outside the default 30-day window
		{VehicleID: "v1", Status: models.MovementCompleted, TimeOut: now.Add(-60 * 24 * time.Hour),
			OdometerOut: 100, DistanceTraveled: 900, FuelConsumed: 90},
		// Other vehicle
		{VehicleID: "v2", Status: models.MovementCompleted, TimeOut: now.Add(-24 * time.Hour),
			OdometerOut: 0, DistanceTraveled: 50, FuelConsumed: 5},
	}
	for _, m := range seed {
		_, err := movements.InsertMovement(ctx, m)
		require.NoError(t, err)
	}

	report, err := service.MovementSummary(ctx, "v1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Movements)
	assert.Equal(t, 500.0, report.TotalDistance)
	assert.Equal(t, 50.0, report.TotalFuelConsumed)
	assert.Equal(t, 250.0, report.AverageDistance)
}

func TestService_MovementSummary_Empty(t *testing.T) {
	ctx := context.Background()
	service := NewService(db.NewMemoryMovementCollection(), db.NewMemoryFuelCollection())

	report, err := service.MovementSummary(ctx, "v1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Movements)
	assert.Equal(t, 0.0, report.AverageDistance)
}

func TestService_FuelSummary(t *testing.T) {
	ctx := context.Background()
	fuel := db.NewMemoryFuelCollection()
	service := NewService(db.NewMemoryMovementCollection(), fuel)

	now := time.Now()
	seed := []models.FuelEntry{
		{VehicleID: "v1", Liters: 18, Price: 25, ComputedConsumptionFactor: 11, FilledAt: now.Add(-48 * time.Hour)},
		{VehicleID: "v1", Liters: 10, Price: 14, ComputedConsumptionFactor: 13, FilledAt: now.Add(-24 * time.Hour)},
		// Zero-distance fill contributes liters but not to the factor average
		{VehicleID: "v1", Liters: 5, Price: 7, FilledAt: now.Add(-12 * time.Hour)},
	}
	for _, e := range seed {
		_, err := fuel.InsertFuelEntry(ctx, e)
		require.NoError(t, err)
	}

	report, err := service.FuelSummary(ctx, "v1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Fills)
	assert.Equal(t, 33.0, report.TotalLiters)
	assert.Equal(t, 46.0, report.TotalCost)
	assert.Equal(t, 12.0, report.AverageFactor)
}

func TestService_ExplicitRange(t *testing.T) {
	ctx := context.Background()
	movements := db.NewMemoryMovementCollection()
	service := NewService(movements, db.NewMemoryFuelCollection())

	now := time.Now()
	_, err := movements.InsertMovement(ctx, models.Movement{
		VehicleID: "v1", Status: models.MovementCompleted,
		TimeOut: now.Add(-10 * 24 * time.Hour), DistanceTraveled: 100,
	})
	require.NoError(t, err)

	// Range that misses the movement
	report, err := service.MovementSummary(ctx, "v1", now.Add(-5*24*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Movements)

	// Range that covers it
	report, err = service.MovementSummary(ctx, "v1", now.Add(-15*24*time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Movements)
}
