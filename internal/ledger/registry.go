package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/models"
)

// DefaultBlendWeight is the exponential-moving-average weight applied when a
// fill-up recalibrates a vehicle's consumption factor. A partial weight keeps
// a single noisy fill-up from corrupting the factor.
const DefaultBlendWeight = 0.3

// Registry owns vehicle records and the per-vehicle mutation rules:
// odometer monotonicity, fuel level bounds, and consumption factor
// recalibration. The other ledgers mutate vehicles only through it.
type Registry struct {
	vehicles db.VehicleCollection
	locks    *keyedMutex
}

// NewRegistry creates a vehicle registry backed by the given collection.
func NewRegistry(vehicles db.VehicleCollection) *Registry {
	return &Registry{
		vehicles: vehicles,
		locks:    newKeyedMutex(),
	}
}

// CreateVehicleInput carries the fields for registering a vehicle.
type CreateVehicleInput struct {
	Siglas            string
	Name              string
	Year              int
	Category          string
	FuelType          string
	OdometerUnit      string
	InitialOdometer   float64
	InitialFuelLevel  float64
	TankCapacity      float64
	ConsumptionFactor float64
	CurrentLocation   string
}

// Create registers a new vehicle. The initial odometer becomes both the
// current and the registration odometer; the registration odometer is the
// reference for the vehicle's first fuel fill.
func (r *Registry) Create(ctx context.Context, in CreateVehicleInput) (*models.Vehicle, error) {
	in.Siglas = strings.TrimSpace(in.Siglas)
	if in.Siglas == "" {
		return nil, fmt.Errorf("siglas required: %w", ErrValidation)
	}
	if in.TankCapacity <= 0 {
		return nil, fmt.Errorf("tank capacity must be positive, got %.2f: %w", in.TankCapacity, ErrValidation)
	}
	if in.InitialOdometer < 0 {
		return nil, fmt.Errorf("initial odometer cannot be negative: %w", ErrValidation)
	}
	if in.InitialFuelLevel < 0 || in.InitialFuelLevel > in.TankCapacity {
		return nil, fmt.Errorf("initial fuel level %.2f outside [0, %.2f]: %w", in.InitialFuelLevel, in.TankCapacity, ErrValidation)
	}
	if in.ConsumptionFactor < 0 {
		return nil, fmt.Errorf("consumption factor cannot be negative: %w", ErrValidation)
	}
	unit := in.OdometerUnit
	if unit == "" {
		unit = models.OdometerUnitKm
	}
	if unit != models.OdometerUnitKm && unit != models.OdometerUnitMi {
		return nil, fmt.Errorf("odometer unit must be km or mi, got %q: %w", unit, ErrValidation)
	}

	if _, err := r.vehicles.FindVehicleBySiglas(ctx, in.Siglas); err == nil {
		return nil, fmt.Errorf("siglas %q already registered: %w", in.Siglas, ErrValidation)
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	vehicle := models.Vehicle{
		Siglas:               in.Siglas,
		Name:                 strings.TrimSpace(in.Name),
		Year:                 in.Year,
		Category:             in.Category,
		FuelType:             in.FuelType,
		OdometerUnit:         unit,
		RegistrationOdometer: in.InitialOdometer,
		CurrentOdometer:      in.InitialOdometer,
		FuelLevel:            in.InitialFuelLevel,
		TankCapacity:         in.TankCapacity,
		ConsumptionFactor:    in.ConsumptionFactor,
		CurrentLocation:      in.CurrentLocation,
		Active:               true,
	}
	id, err := r.vehicles.InsertVehicle(ctx, vehicle)
	if err != nil {
		return nil, err
	}
	vehicle.ID = id

	log.WithFields(log.Fields{
		"vehicle_id": id.Hex(),
		"siglas":     vehicle.Siglas,
		"tank":       vehicle.TankCapacity,
	}).Info("Vehicle registered")
	return &vehicle, nil
}

// Get returns a vehicle by ID.
func (r *Registry) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	vehicle, err := r.vehicles.FindVehicleByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return vehicle, nil
}

// GetBySiglas returns a vehicle by its short code.
func (r *Registry) GetBySiglas(ctx context.Context, siglas string) (*models.Vehicle, error) {
	vehicle, err := r.vehicles.FindVehicleBySiglas(ctx, strings.TrimSpace(siglas))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("vehicle %q: %w", siglas, ErrNotFound)
		}
		return nil, err
	}
	return vehicle, nil
}

// List returns vehicles matching the filter.
func (r *Registry) List(ctx context.Context, filter db.VehicleFilter) ([]models.Vehicle, error) {
	return r.vehicles.FindVehicles(ctx, filter)
}

// Deactivate soft-disables a vehicle. Deactivated vehicles refuse new
// checkouts, fills, and maintenance; history stays intact.
func (r *Registry) Deactivate(ctx context.Context, id string) (*models.Vehicle, error) {
	unlock := r.locks.lock(id)
	defer unlock()

	vehicle, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vehicle.Active = false
	if err := r.vehicles.UpdateVehicle(ctx, id, *vehicle); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"vehicle_id": id, "siglas": vehicle.Siglas}).Info("Vehicle deactivated")
	return vehicle, nil
}

// ApplyOdometerAdvance moves the vehicle's odometer forward. A reading below
// the current odometer is rejected.
func (r *Registry) ApplyOdometerAdvance(ctx context.Context, id string, newOdometer float64) (*models.Vehicle, error) {
	unlock := r.locks.lock(id)
	defer unlock()

	vehicle, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := advanceOdometer(vehicle, newOdometer); err != nil {
		return nil, err
	}
	if err := r.vehicles.UpdateVehicle(ctx, id, *vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// ApplyFuelDelta adds deltaLiters (negative for consumption) to the vehicle's
// fuel level, clamping to [0, tank capacity]. A clamp at capacity is reported
// as a FuelOverflow warning.
func (r *Registry) ApplyFuelDelta(ctx context.Context, id string, deltaLiters float64) (*models.Vehicle, []Warning, error) {
	unlock := r.locks.lock(id)
	defer unlock()

	vehicle, err := r.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	warnings := applyFuelDelta(vehicle, deltaLiters)
	if err := r.vehicles.UpdateVehicle(ctx, id, *vehicle); err != nil {
		return nil, nil, err
	}
	return vehicle, warnings, nil
}

// RecalibrateConsumptionFactor blends a newly observed factor into the
// vehicle's consumption factor using an exponential moving average.
func (r *Registry) RecalibrateConsumptionFactor(ctx context.Context, id string, newFactor, blendWeight float64) (*models.Vehicle, error) {
	if newFactor <= 0 {
		return nil, fmt.Errorf("consumption factor must be positive, got %.4f: %w", newFactor, ErrValidation)
	}
	if blendWeight <= 0 || blendWeight > 1 {
		return nil, fmt.Errorf("blend weight %.2f outside (0, 1]: %w", blendWeight, ErrValidation)
	}

	unlock := r.locks.lock(id)
	defer unlock()

	vehicle, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	old := vehicle.ConsumptionFactor
	vehicle.ConsumptionFactor = blendConsumptionFactor(old, newFactor, blendWeight)
	if err := r.vehicles.UpdateVehicle(ctx, id, *vehicle); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"vehicle_id": id,
		"old_factor": old,
		"new_factor": vehicle.ConsumptionFactor,
		"observed":   newFactor,
	}).Info("Consumption factor recalibrated")
	return vehicle, nil
}

// advanceOdometer enforces odometer monotonicity on the in-memory record.
func advanceOdometer(vehicle *models.Vehicle, newOdometer float64) error {
	if newOdometer < vehicle.CurrentOdometer {
		return fmt.Errorf("odometer %.2f below current %.2f for %s: %w",
			newOdometer, vehicle.CurrentOdometer, vehicle.Siglas, ErrInvariant)
	}
	vehicle.CurrentOdometer = newOdometer
	return nil
}

// applyFuelDelta adjusts the in-memory fuel level, clamping to
// [0, tank capacity]. Returns a FuelOverflow warning when clamped at the top.
func applyFuelDelta(vehicle *models.Vehicle, deltaLiters float64) []Warning {
	var warnings []Warning
	level := vehicle.FuelLevel + deltaLiters
	if level > vehicle.TankCapacity {
		level = vehicle.TankCapacity
		warnings = append(warnings, WarnFuelOverflow)
	}
	if level < 0 {
		level = 0
	}
	vehicle.FuelLevel = level
	return warnings
}

// blendConsumptionFactor applies the EMA. A vehicle with no prior factor
// adopts the observed factor outright.
func blendConsumptionFactor(current, observed, weight float64) float64 {
	if current <= 0 {
		return observed
	}
	return current*(1-weight) + observed*weight
}
