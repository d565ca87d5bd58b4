package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/events"
	"github.com/ukydev/fleet-ledger/internal/models"
)

// MovementConfig tunes checkin fuel accounting.
type MovementConfig struct {
	// AutomaticConsumption derives the checkin fuel delta from the vehicle's
	// consumption factor; an observed fuel reading is recorded but not
	// applied. When false, an observed reading takes precedence and the
	// computed delta is only a fallback.
	AutomaticConsumption bool
	// LowFuelPercent triggers a low_fuel event when the post-operation level
	// falls below this percentage of tank capacity. Zero disables the event.
	LowFuelPercent float64
}

// MovementLedger records checkout/checkin events and applies their effects
// to the vehicle registry. At most one in_progress movement exists per
// vehicle at any time.
type MovementLedger struct {
	movements db.MovementCollection
	registry  *Registry
	cfg       MovementConfig
	publisher events.Publisher
}

// NewMovementLedger creates a movement ledger sharing the registry's
// per-vehicle locks.
func NewMovementLedger(movements db.MovementCollection, registry *Registry, cfg MovementConfig, publisher events.Publisher) *MovementLedger {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &MovementLedger{
		movements: movements,
		registry:  registry,
		cfg:       cfg,
		publisher: publisher,
	}
}

// CheckoutInput carries the fields for opening a movement.
type CheckoutInput struct {
	VehicleID   string
	DriverID    string
	DriverName  string
	OdometerOut float64
	Purpose     string
	Notes       string
}

// Checkout opens a movement for the vehicle. The check for an existing open
// movement and the insert run under the vehicle's lock, so two concurrent
// checkouts on the same vehicle cannot both succeed.
func (l *MovementLedger) Checkout(ctx context.Context, in CheckoutInput) (*models.Movement, error) {
	in.VehicleID = strings.TrimSpace(in.VehicleID)
	if in.VehicleID == "" {
		return nil, fmt.Errorf("vehicle_id required: %w", ErrValidation)
	}
	if strings.TrimSpace(in.DriverID) == "" {
		return nil, fmt.Errorf("driver_id required: %w", ErrValidation)
	}

	unlock := l.registry.locks.lock(in.VehicleID)
	defer unlock()

	vehicle, err := l.registry.Get(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.Active {
		return nil, fmt.Errorf("vehicle %s is deactivated: %w", vehicle.Siglas, ErrValidation)
	}
	if in.OdometerOut < vehicle.CurrentOdometer {
		return nil, fmt.Errorf("odometer_out %.2f below vehicle odometer %.2f: %w",
			in.OdometerOut, vehicle.CurrentOdometer, ErrInvariant)
	}

	open, err := l.movements.FindOpenMovementByVehicle(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, fmt.Errorf("vehicle %s already has movement %s in progress: %w",
			vehicle.Siglas, open.ID.Hex(), ErrConflict)
	}

	movement := models.Movement{
		VehicleID:     in.VehicleID,
		VehicleSiglas: vehicle.Siglas,
		VehicleName:   vehicle.Name,
		DriverID:      strings.TrimSpace(in.DriverID),
		DriverName:    strings.TrimSpace(in.DriverName),
		Purpose:       in.Purpose,
		Notes:         in.Notes,
		Status:        models.MovementInProgress,
		OdometerOut:   in.OdometerOut,
		TimeOut:       time.Now(),
	}
	id, err := l.movements.InsertMovement(ctx, movement)
	if err != nil {
		return nil, err
	}
	movement.ID = id

	log.WithFields(log.Fields{
		"movement_id":  id.Hex(),
		"vehicle_id":   in.VehicleID,
		"siglas":       vehicle.Siglas,
		"driver_id":    movement.DriverID,
		"odometer_out": in.OdometerOut,
	}).Info("Vehicle checked out")

	l.publisher.Publish(events.Event{
		Type:      events.TypeMovementCheckedOut,
		VehicleID: in.VehicleID,
		Siglas:    vehicle.Siglas,
		Payload: map[string]interface{}{
			"movement_id":  id.Hex(),
			"driver_id":    movement.DriverID,
			"odometer_out": in.OdometerOut,
		},
		Timestamp: movement.TimeOut,
	})
	return &movement, nil
}

// CheckinInput carries the fields for closing a movement.
type CheckinInput struct {
	MovementID string
	OdometerIn float64
	// FuelLevelObserved is the operator's reading of the tank at checkin,
	// in liters. Nil when not observed.
	FuelLevelObserved *float64
}

// Checkin closes an in_progress movement: derives distance and fuel
// consumption, completes the movement, and advances the vehicle's odometer
// and fuel level. A second checkin of the same movement is rejected without
// touching the vehicle.
func (l *MovementLedger) Checkin(ctx context.Context, in CheckinInput) (*models.Movement, []Warning, error) {
	in.MovementID = strings.TrimSpace(in.MovementID)
	if in.MovementID == "" {
		return nil, nil, fmt.Errorf("movement_id required: %w", ErrValidation)
	}

	movement, err := l.getMovement(ctx, in.MovementID)
	if err != nil {
		return nil, nil, err
	}

	unlock := l.registry.locks.lock(movement.VehicleID)
	defer unlock()

	// Re-read under the lock: the movement may have been closed by a racing
	// caller between the first fetch and lock acquisition.
	movement, err = l.getMovement(ctx, in.MovementID)
	if err != nil {
		return nil, nil, err
	}
	if movement.Status != models.MovementInProgress {
		return nil, nil, fmt.Errorf("movement %s is %s, not in_progress: %w",
			in.MovementID, movement.Status, ErrInvariant)
	}
	if in.OdometerIn < movement.OdometerOut {
		return nil, nil, fmt.Errorf("odometer_in %.2f below odometer_out %.2f: %w",
			in.OdometerIn, movement.OdometerOut, ErrInvariant)
	}
	if in.FuelLevelObserved != nil && *in.FuelLevelObserved < 0 {
		return nil, nil, fmt.Errorf("observed fuel level cannot be negative: %w", ErrValidation)
	}

	vehicle, err := l.registry.Get(ctx, movement.VehicleID)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	distance := in.OdometerIn - movement.OdometerOut
	fuelConsumed := 0.0
	if vehicle.ConsumptionFactor > 0 {
		fuelConsumed = distance / vehicle.ConsumptionFactor
	} else if distance > 0 {
		warnings = append(warnings, WarnNoConsumptionFactor)
	}

	// All validation done; mutate the in-memory vehicle, then persist.
	if err := advanceOdometer(vehicle, in.OdometerIn); err != nil {
		return nil, nil, err
	}
	if !l.cfg.AutomaticConsumption && in.FuelLevelObserved != nil {
		level := *in.FuelLevelObserved
		if level > vehicle.TankCapacity {
			level = vehicle.TankCapacity
			warnings = append(warnings, WarnFuelOverflow)
		}
		vehicle.FuelLevel = level
	} else {
		warnings = append(warnings, applyFuelDelta(vehicle, -fuelConsumed)...)
	}

	now := time.Now()
	movement.OdometerIn = &in.OdometerIn
	movement.TimeIn = &now
	movement.DistanceTraveled = distance
	movement.FuelConsumed = fuelConsumed
	movement.FuelLevelObserved = in.FuelLevelObserved
	movement.FuelLevelAtCheckin = vehicle.FuelLevel
	movement.Status = models.MovementCompleted

	if err := l.movements.UpdateMovement(ctx, in.MovementID, *movement); err != nil {
		return nil, nil, err
	}
	if err := l.registry.vehicles.UpdateVehicle(ctx, movement.VehicleID, *vehicle); err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"movement_id":   in.MovementID,
		"vehicle_id":    movement.VehicleID,
		"siglas":        movement.VehicleSiglas,
		"distance":      distance,
		"fuel_consumed": fuelConsumed,
		"fuel_level":    vehicle.FuelLevel,
	}).Info("Vehicle checked in")

	l.publisher.Publish(events.Event{
		Type:      events.TypeMovementCheckedIn,
		VehicleID: movement.VehicleID,
		Siglas:    movement.VehicleSiglas,
		Payload: map[string]interface{}{
			"movement_id":   in.MovementID,
			"distance":      distance,
			"fuel_consumed": fuelConsumed,
		},
		Timestamp: now,
	})
	l.publishLowFuel(vehicle)

	return movement, warnings, nil
}

// Cancel terminates an in_progress movement without touching the vehicle.
func (l *MovementLedger) Cancel(ctx context.Context, movementID string) (*models.Movement, error) {
	movementID = strings.TrimSpace(movementID)
	if movementID == "" {
		return nil, fmt.Errorf("movement_id required: %w", ErrValidation)
	}

	movement, err := l.getMovement(ctx, movementID)
	if err != nil {
		return nil, err
	}

	unlock := l.registry.locks.lock(movement.VehicleID)
	defer unlock()

	movement, err = l.getMovement(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionMovement(movement.Status, models.MovementCancelled) {
		return nil, fmt.Errorf("movement %s is %s, cannot cancel: %w",
			movementID, movement.Status, ErrInvariant)
	}

	movement.Status = models.MovementCancelled
	if err := l.movements.UpdateMovement(ctx, movementID, *movement); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"movement_id": movementID,
		"vehicle_id":  movement.VehicleID,
	}).Info("Movement cancelled")

	l.publisher.Publish(events.Event{
		Type:      events.TypeMovementCancelled,
		VehicleID: movement.VehicleID,
		Siglas:    movement.VehicleSiglas,
		Payload:   map[string]interface{}{"movement_id": movementID},
		Timestamp: time.Now(),
	})
	return movement, nil
}

// Get returns a movement by ID.
func (l *MovementLedger) Get(ctx context.Context, id string) (*models.Movement, error) {
	return l.getMovement(ctx, strings.TrimSpace(id))
}

// GetOpenByVehicle returns the vehicle's open movement, or nil.
func (l *MovementLedger) GetOpenByVehicle(ctx context.Context, vehicleID string) (*models.Movement, error) {
	return l.movements.FindOpenMovementByVehicle(ctx, strings.TrimSpace(vehicleID))
}

// List returns movements matching the filter.
func (l *MovementLedger) List(ctx context.Context, filter db.MovementFilter) ([]models.Movement, error) {
	return l.movements.FindMovements(ctx, filter)
}

func (l *MovementLedger) getMovement(ctx context.Context, id string) (*models.Movement, error) {
	movement, err := l.movements.FindMovementByID(ctx, id)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, fmt.Errorf("movement %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return movement, nil
}

func (l *MovementLedger) publishLowFuel(vehicle *models.Vehicle) {
	if l.cfg.LowFuelPercent <= 0 {
		return
	}
	pct := vehicle.FuelPercent()
	if pct >= l.cfg.LowFuelPercent {
		return
	}
	log.WithFields(log.Fields{
		"vehicle_id":   vehicle.ID.Hex(),
		"siglas":       vehicle.Siglas,
		"fuel_percent": pct,
	}).Warn("Vehicle fuel below threshold")
	l.publisher.Publish(events.Event{
		Type:      events.TypeLowFuel,
		VehicleID: vehicle.ID.Hex(),
		Siglas:    vehicle.Siglas,
		Payload: map[string]interface{}{
			"fuel_level":   vehicle.FuelLevel,
			"fuel_percent": pct,
		},
		Timestamp: time.Now(),
	})
}
