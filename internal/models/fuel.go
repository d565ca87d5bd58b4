package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FuelEntry records a single refuel. Entries are immutable once created;
// corrections are administrative.
type FuelEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID     string             `bson:"vehicle_id" json:"vehicle_id"`
	VehicleSiglas string             `bson:"vehicle_siglas" json:"vehicle_siglas"`
	VehicleName   string             `bson:"vehicle_name" json:"vehicle_name"`

	OdometerAtFill float64 `bson:"odometer_at_fill" json:"odometer_at_fill"`
	Liters         float64 `bson:"liters" json:"liters"`
	Price          float64 `bson:"price" json:"price"`

	// Derived at creation: distance from the previous fuel entry (or the
	// vehicle's registration odometer when this is the first fill) and the
	// consumption factor observed over that distance. Zero when the fill
	// carried no usable distance.
	DistanceSinceLastFill     float64 `bson:"distance_since_last_fill" json:"distance_since_last_fill"`
	ComputedConsumptionFactor float64 `bson:"computed_consumption_factor" json:"computed_consumption_factor"`

	FilledAt  time.Time `bson:"filled_at" json:"filled_at"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
