package ledger

import (
	"errors"

	"github.com/ukydev/fleet-ledger/internal/db"
)

// Fatal error kinds. Operations wrap these with context; callers match with
// errors.Is. A rejected operation leaves the registry and the ledger
// unchanged.
var (
	ErrValidation = errors.New("validation error")
	ErrInvariant  = errors.New("invariant violation")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

// Warning is a non-fatal signal attached to an otherwise-successful result.
type Warning string

const (
	// WarnFuelOverflow means a fuel level was clamped to tank capacity.
	WarnFuelOverflow Warning = "fuel_overflow"
	// WarnInsufficientData means the consumption factor was not recalibrated
	// this cycle; the entry still persists.
	WarnInsufficientData Warning = "insufficient_data"
	// WarnNoConsumptionFactor means fuel consumption could not be derived
	// because the vehicle has no calibrated factor yet.
	WarnNoConsumptionFactor Warning = "no_consumption_factor"
)

func errorsIsNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}
