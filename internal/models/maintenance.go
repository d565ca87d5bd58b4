package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceStatus is the lifecycle state of a maintenance entry.
type MaintenanceStatus string

const (
	MaintenanceProgrammed MaintenanceStatus = "programmed"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

var maintenanceTransitions = map[MaintenanceStatus][]MaintenanceStatus{
	MaintenanceProgrammed: {MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled},
	MaintenanceInProgress: {MaintenanceCompleted, MaintenanceCancelled},
	MaintenanceCompleted:  {},
	MaintenanceCancelled:  {},
}

// CanTransitionMaintenance reports whether from -> to is a legal status change.
func CanTransitionMaintenance(from, to MaintenanceStatus) bool {
	allowed, ok := maintenanceTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Maintenance represents a scheduled or recorded service event for a vehicle.
type Maintenance struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID     string             `bson:"vehicle_id" json:"vehicle_id"`
	VehicleSiglas string             `bson:"vehicle_siglas" json:"vehicle_siglas"`

	Type          string            `bson:"type" json:"type"` // "oil_change", "tire_rotation", "inspection", ...
	Description   string            `bson:"description" json:"description"`
	ScheduledDate time.Time         `bson:"scheduled_date" json:"scheduled_date"`
	CompletedDate *time.Time        `bson:"completed_date,omitempty" json:"completed_date,omitempty"`
	Odometer      float64           `bson:"odometer" json:"odometer"`
	Cost          float64           `bson:"cost" json:"cost"`
	Provider      string            `bson:"provider" json:"provider"`
	Status        MaintenanceStatus `bson:"status" json:"status"`
	ReceiptID     string            `bson:"receipt_id" json:"receipt_id"` // reference to an uploaded document
	Notes         string            `bson:"notes" json:"notes"`
	CreatedBy     string            `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `bson:"updated_at" json:"updated_at"`
}
