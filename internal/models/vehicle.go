package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OdometerUnit values accepted for a vehicle.
const (
	OdometerUnitKm = "km"
	OdometerUnitMi = "mi"
)

// Vehicle represents a fleet vehicle and its current readings.
// CurrentOdometer is non-decreasing over the vehicle's lifetime;
// FuelLevel is kept within [0, TankCapacity] by the ledger.
type Vehicle struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Siglas               string             `bson:"siglas" json:"siglas"` // short code, unique per fleet
	Name                 string             `bson:"name" json:"name"`
	Year                 int                `bson:"year" json:"year"`
	Category             string             `bson:"category" json:"category"`
	FuelType             string             `bson:"fuel_type" json:"fuel_type"`
	OdometerUnit         string             `bson:"odometer_unit" json:"odometer_unit"` // "km" or "mi"
	RegistrationOdometer float64            `bson:"registration_odometer" json:"registration_odometer"`
	CurrentOdometer      float64            `bson:"current_odometer" json:"current_odometer"`
	FuelLevel            float64            `bson:"fuel_level" json:"fuel_level"` // liters
	TankCapacity         float64            `bson:"tank_capacity" json:"tank_capacity"`
	ConsumptionFactor    float64            `bson:"consumption_factor" json:"consumption_factor"` // distance per liter
	CurrentLocation      string             `bson:"current_location" json:"current_location"`
	Active               bool               `bson:"active" json:"active"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`
}

// FuelPercent returns the fuel level as a percentage of tank capacity.
func (v *Vehicle) FuelPercent() float64 {
	if v.TankCapacity <= 0 {
		return 0
	}
	return v.FuelLevel / v.TankCapacity * 100.0
}
