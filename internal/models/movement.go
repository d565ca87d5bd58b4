package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovementStatus is the lifecycle state of a movement (persisted as string).
type MovementStatus string

const (
	MovementInProgress MovementStatus = "in_progress"
	MovementCompleted  MovementStatus = "completed"
	MovementCancelled  MovementStatus = "cancelled"
)

// movementTransitions defines the allowed status flow. Completed and
// cancelled are terminal.
var movementTransitions = map[MovementStatus][]MovementStatus{
	MovementInProgress: {MovementCompleted, MovementCancelled},
	MovementCompleted:  {},
	MovementCancelled:  {},
}

// CanTransitionMovement reports whether from -> to is a legal status change.
func CanTransitionMovement(from, to MovementStatus) bool {
	allowed, ok := movementTransitions[from]
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

// Movement records one vehicle usage trip, from checkout to checkin.
// OdometerIn stays nil while the movement is in progress; the derived
// fields are computed once, at checkin.
type Movement struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID     string             `bson:"vehicle_id" json:"vehicle_id"`
	VehicleSiglas string             `bson:"vehicle_siglas" json:"vehicle_siglas"`
	VehicleName   string             `bson:"vehicle_name" json:"vehicle_name"`
	DriverID      string             `bson:"driver_id" json:"driver_id"`
	DriverName    string             `bson:"driver_name" json:"driver_name"`
	Purpose       string             `bson:"purpose" json:"purpose"`
	Status        MovementStatus     `bson:"status" json:"status"`

	OdometerOut float64    `bson:"odometer_out" json:"odometer_out"`
	TimeOut     time.Time  `bson:"time_out" json:"time_out"`
	OdometerIn  *float64   `bson:"odometer_in,omitempty" json:"odometer_in,omitempty"`
	TimeIn      *time.Time `bson:"time_in,omitempty" json:"time_in,omitempty"`

	DistanceTraveled   float64  `bson:"distance_traveled" json:"distance_traveled"`
	FuelConsumed       float64  `bson:"fuel_consumed" json:"fuel_consumed"`
	FuelLevelAtCheckin float64  `bson:"fuel_level_at_checkin" json:"fuel_level_at_checkin"`
	FuelLevelObserved  *float64 `bson:"fuel_level_observed,omitempty" json:"fuel_level_observed,omitempty"`

	Notes     string    `bson:"notes" json:"notes"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
