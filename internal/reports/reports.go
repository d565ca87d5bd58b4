package reports

import (
	"context"
	"time"

	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/models"
)

// DefaultRange is applied when a report request carries no date range.
const DefaultRange = 30 * 24 * time.Hour

// Service aggregates ledger history into summaries. It reads completed
// movements and fuel entries only; open movements are excluded.
type Service struct {
	movements db.MovementCollection
	fuel      db.FuelCollection
}

// NewService creates a reports service.
func NewService(movements db.MovementCollection, fuel db.FuelCollection) *Service {
	return &Service{movements: movements, fuel: fuel}
}

// MovementReport summarizes completed movements over a period.
type MovementReport struct {
	VehicleID         string    `json:"vehicle_id,omitempty"`
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	Movements         int       `json:"movements"`
	TotalDistance     float64   `json:"total_distance"`
	TotalFuelConsumed float64   `json:"total_fuel_consumed"`
	AverageDistance   float64   `json:"average_distance"`
}

// FuelReport summarizes fuel entries over a period.
type FuelReport struct {
	VehicleID     string    `json:"vehicle_id,omitempty"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Fills         int       `json:"fills"`
	TotalLiters   float64   `json:"total_liters"`
	TotalCost     float64   `json:"total_cost"`
	AverageFactor float64   `json:"average_factor"`
}

// MovementSummary aggregates completed movements for the period. A zero
// from/to defaults to the last 30 days.
func (s *Service) MovementSummary(ctx context.Context, vehicleID string, from, to time.Time) (*MovementReport, error) {
	from, to = normalizeRange(from, to)

	movements, err := s.movements.FindMovements(ctx, db.MovementFilter{
		VehicleID: vehicleID,
		Status:    models.MovementCompleted,
		From:      from,
		To:        to,
	})
	if err != nil {
		return nil, err
	}

	report := &MovementReport{VehicleID: vehicleID, From: from, To: to}
	for _, m := range movements {
		report.Movements++
		report.TotalDistance += m.DistanceTraveled
		report.TotalFuelConsumed += m.FuelConsumed
	}
	if report.Movements > 0 {
		report.AverageDistance = report.TotalDistance / float64(report.Movements)
	}
	return report, nil
}

// FuelSummary aggregates fuel entries for the period. The average factor
// only counts entries that carried usable distance.
func (s *Service) FuelSummary(ctx context.Context, vehicleID string, from, to time.Time) (*FuelReport, error) {
	from, to = normalizeRange(from, to)

	entries, err := s.fuel.FindFuelEntries(ctx, db.FuelFilter{
		VehicleID: vehicleID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return nil, err
	}

	report := &FuelReport{VehicleID: vehicleID, From: from, To: to}
	factorSum := 0.0
	factorCount := 0
	for _, e := range entries {
		report.Fills++
		report.TotalLiters += e.Liters
		report.TotalCost += e.Price
		if e.ComputedConsumptionFactor > 0 {
			factorSum += e.ComputedConsumptionFactor
			factorCount++
		}
	}
	if factorCount > 0 {
		report.AverageFactor = factorSum / float64(factorCount)
	}
	return report, nil
}

func normalizeRange(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.Add(-DefaultRange)
	}
	return from, to
}
