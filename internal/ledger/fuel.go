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

// FuelLedger records refuel events, raises the vehicle's fuel level, and
// recalibrates its consumption factor from observed fill-to-fill distance.
type FuelLedger struct {
	entries     db.FuelCollection
	registry    *Registry
	blendWeight float64
	publisher   events.Publisher
}

// NewFuelLedger creates a fuel ledger. blendWeight outside (0, 1] falls back
// to DefaultBlendWeight.
func NewFuelLedger(entries db.FuelCollection, registry *Registry, blendWeight float64, publisher events.Publisher) *FuelLedger {
	if blendWeight <= 0 || blendWeight > 1 {
		blendWeight = DefaultBlendWeight
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &FuelLedger{
		entries:     entries,
		registry:    registry,
		blendWeight: blendWeight,
		publisher:   publisher,
	}
}

// RecordFillInput carries the fields for recording a refuel.
type RecordFillInput struct {
	VehicleID      string
	OdometerAtFill float64
	Liters         float64
	Price          float64
	// FilledAt defaults to now when zero.
	FilledAt  time.Time
	CreatedBy string
}

// RecordFill creates a fuel entry and applies it to the vehicle: the fuel
// level rises by the filled liters (clamped at tank capacity) and, when the
// fill carries usable distance, the consumption factor is recalibrated.
// The reference odometer for distance is the previous fuel entry, or the
// vehicle's registration odometer for the first fill.
func (l *FuelLedger) RecordFill(ctx context.Context, in RecordFillInput) (*models.FuelEntry, []Warning, error) {
	in.VehicleID = strings.TrimSpace(in.VehicleID)
	if in.VehicleID == "" {
		return nil, nil, fmt.Errorf("vehicle_id required: %w", ErrValidation)
	}
	if in.Liters <= 0 {
		return nil, nil, fmt.Errorf("liters must be positive, got %.2f: %w", in.Liters, ErrValidation)
	}
	if in.Price < 0 {
		return nil, nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}

	unlock := l.registry.locks.lock(in.VehicleID)
	defer unlock()

	vehicle, err := l.registry.Get(ctx, in.VehicleID)
	if err != nil {
		return nil, nil, err
	}
	if !vehicle.Active {
		return nil, nil, fmt.Errorf("vehicle %s is deactivated: %w", vehicle.Siglas, ErrValidation)
	}
	if in.OdometerAtFill < vehicle.CurrentOdometer {
		return nil, nil, fmt.Errorf("odometer_at_fill %.2f below vehicle odometer %.2f: %w",
			in.OdometerAtFill, vehicle.CurrentOdometer, ErrValidation)
	}

	last, err := l.entries.FindLastFuelEntryByVehicle(ctx, in.VehicleID)
	if err != nil {
		return nil, nil, err
	}
	reference := vehicle.RegistrationOdometer
	if last != nil {
		reference = last.OdometerAtFill
	}

	var warnings []Warning
	distance := in.OdometerAtFill - reference
	computedFactor := 0.0
	if distance > 0 {
		computedFactor = distance / in.Liters
	} else {
		distance = 0
		warnings = append(warnings, WarnInsufficientData)
	}

	filledAt := in.FilledAt
	if filledAt.IsZero() {
		filledAt = time.Now()
	}
	entry := models.FuelEntry{
		VehicleID:                 in.VehicleID,
		VehicleSiglas:             vehicle.Siglas,
		VehicleName:               vehicle.Name,
		OdometerAtFill:            in.OdometerAtFill,
		Liters:                    in.Liters,
		Price:                     in.Price,
		DistanceSinceLastFill:     distance,
		ComputedConsumptionFactor: computedFactor,
		FilledAt:                  filledAt,
		CreatedBy:                 in.CreatedBy,
	}
	id, err := l.entries.InsertFuelEntry(ctx, entry)
	if err != nil {
		return nil, nil, err
	}
	entry.ID = id

	warnings = append(warnings, applyFuelDelta(vehicle, in.Liters)...)
	if computedFactor > 0 {
		vehicle.ConsumptionFactor = blendConsumptionFactor(vehicle.ConsumptionFactor, computedFactor, l.blendWeight)
	}
	if err := l.registry.vehicles.UpdateVehicle(ctx, in.VehicleID, *vehicle); err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"fuel_entry_id":   id.Hex(),
		"vehicle_id":      in.VehicleID,
		"siglas":          vehicle.Siglas,
		"liters":          in.Liters,
		"distance":        distance,
		"computed_factor": computedFactor,
		"fuel_level":      vehicle.FuelLevel,
	}).Info("Fuel fill recorded")

	l.publisher.Publish(events.Event{
		Type:      events.TypeFuelRecorded,
		VehicleID: in.VehicleID,
		Siglas:    vehicle.Siglas,
		Payload: map[string]interface{}{
			"fuel_entry_id": id.Hex(),
			"liters":        in.Liters,
			"price":         in.Price,
		},
		Timestamp: filledAt,
	})
	return &entry, warnings, nil
}

// Get returns a fuel entry by ID.
func (l *FuelLedger) Get(ctx context.Context, id string) (*models.FuelEntry, error) {
	entry, err := l.entries.FindFuelEntryByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, fmt.Errorf("fuel entry %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return entry, nil
}

// List returns fuel entries matching the filter.
func (l *FuelLedger) List(ctx context.Context, filter db.FuelFilter) ([]models.FuelEntry, error) {
	return l.entries.FindFuelEntries(ctx, filter)
}
