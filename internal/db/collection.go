package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-ledger/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleFilter narrows vehicle listings.
type VehicleFilter struct {
	Active   *bool
	Category string
}

// MovementFilter narrows movement listings. From/To apply to the checkout
// time; zero values mean unbounded.
type MovementFilter struct {
	VehicleID string
	Status    models.MovementStatus
	DriverID  string
	From      time.Time
	To        time.Time
}

// FuelFilter narrows fuel entry listings. From/To apply to the fill time.
type FuelFilter struct {
	VehicleID string
	From      time.Time
	To        time.Time
}

// MaintenanceFilter narrows maintenance listings.
type MaintenanceFilter struct {
	VehicleID string
	Status    models.MaintenanceStatus
}

// VehicleCollection defines the interface for vehicle registry storage.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (primitive.ObjectID, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicleBySiglas(ctx context.Context, siglas string) (*models.Vehicle, error)
	FindVehicles(ctx context.Context, filter VehicleFilter) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
}

// MovementCollection defines the interface for movement ledger storage.
type MovementCollection interface {
	InsertMovement(ctx context.Context, movement models.Movement) (primitive.ObjectID, error)
	FindMovementByID(ctx context.Context, id string) (*models.Movement, error)
	// FindOpenMovementByVehicle returns the vehicle's in_progress movement,
	// or (nil, nil) when the vehicle has no open movement.
	FindOpenMovementByVehicle(ctx context.Context, vehicleID string) (*models.Movement, error)
	FindMovements(ctx context.Context, filter MovementFilter) ([]models.Movement, error)
	UpdateMovement(ctx context.Context, id string, movement models.Movement) error
}

// FuelCollection defines the interface for fuel ledger storage.
type FuelCollection interface {
	InsertFuelEntry(ctx context.Context, entry models.FuelEntry) (primitive.ObjectID, error)
	FindFuelEntryByID(ctx context.Context, id string) (*models.FuelEntry, error)
	// FindLastFuelEntryByVehicle returns the most recent entry by fill time,
	// or (nil, nil) when the vehicle has never been refueled.
	FindLastFuelEntryByVehicle(ctx context.Context, vehicleID string) (*models.FuelEntry, error)
	FindFuelEntries(ctx context.Context, filter FuelFilter) ([]models.FuelEntry, error)
}

// MaintenanceCollection defines the interface for maintenance ledger storage.
type MaintenanceCollection interface {
	InsertMaintenance(ctx context.Context, entry models.Maintenance) (primitive.ObjectID, error)
	FindMaintenanceByID(ctx context.Context, id string) (*models.Maintenance, error)
	FindMaintenance(ctx context.Context, filter MaintenanceFilter) ([]models.Maintenance, error)
	UpdateMaintenance(ctx context.Context, id string, entry models.Maintenance) error
}
