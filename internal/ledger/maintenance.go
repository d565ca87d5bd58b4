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

// MaintenanceLedger schedules and records service events. Completing a
// service advances the vehicle's odometer; fuel accounting is untouched.
type MaintenanceLedger struct {
	entries   db.MaintenanceCollection
	registry  *Registry
	publisher events.Publisher
}

// NewMaintenanceLedger creates a maintenance ledger.
func NewMaintenanceLedger(entries db.MaintenanceCollection, registry *Registry, publisher events.Publisher) *MaintenanceLedger {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &MaintenanceLedger{
		entries:   entries,
		registry:  registry,
		publisher: publisher,
	}
}

// ScheduleInput carries the fields for programming a service.
type ScheduleInput struct {
	VehicleID     string
	Type          string
	ScheduledDate time.Time
	Description   string
	Notes         string
	CreatedBy     string
}

// Schedule creates a maintenance entry in programmed state.
func (l *MaintenanceLedger) Schedule(ctx context.Context, in ScheduleInput) (*models.Maintenance, error) {
	in.VehicleID = strings.TrimSpace(in.VehicleID)
	if in.VehicleID == "" {
		return nil, fmt.Errorf("vehicle_id required: %w", ErrValidation)
	}
	if strings.TrimSpace(in.Type) == "" {
		return nil, fmt.Errorf("maintenance type required: %w", ErrValidation)
	}
	if in.ScheduledDate.IsZero() {
		return nil, fmt.Errorf("scheduled_date required: %w", ErrValidation)
	}

	vehicle, err := l.registry.Get(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.Active {
		return nil, fmt.Errorf("vehicle %s is deactivated: %w", vehicle.Siglas, ErrValidation)
	}

	entry := models.Maintenance{
		VehicleID:     in.VehicleID,
		VehicleSiglas: vehicle.Siglas,
		Type:          strings.TrimSpace(in.Type),
		Description:   in.Description,
		ScheduledDate: in.ScheduledDate,
		Status:        models.MaintenanceProgrammed,
		Notes:         in.Notes,
		CreatedBy:     in.CreatedBy,
	}
	id, err := l.entries.InsertMaintenance(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id

	log.WithFields(log.Fields{
		"maintenance_id": id.Hex(),
		"vehicle_id":     in.VehicleID,
		"siglas":         vehicle.Siglas,
		"type":           entry.Type,
		"scheduled":      in.ScheduledDate,
	}).Info("Maintenance scheduled")
	return &entry, nil
}

// Start moves a programmed entry to in_progress.
func (l *MaintenanceLedger) Start(ctx context.Context, entryID string) (*models.Maintenance, error) {
	return l.transition(ctx, entryID, models.MaintenanceInProgress)
}

// Cancel terminates an entry from programmed or in_progress.
func (l *MaintenanceLedger) Cancel(ctx context.Context, entryID string) (*models.Maintenance, error) {
	return l.transition(ctx, entryID, models.MaintenanceCancelled)
}

// CompleteInput carries the fields for closing a service.
type CompleteInput struct {
	EntryID string
	// CompletedDate defaults to now when zero.
	CompletedDate time.Time
	Odometer      float64
	Cost          float64
	Provider      string
	ReceiptID     string
	Notes         string
}

// Complete closes a programmed or in_progress entry and advances the
// vehicle's odometer to the reading taken at the shop. A reading below the
// vehicle's current odometer is rejected without mutation.
func (l *MaintenanceLedger) Complete(ctx context.Context, in CompleteInput) (*models.Maintenance, error) {
	in.EntryID = strings.TrimSpace(in.EntryID)
	if in.EntryID == "" {
		return nil, fmt.Errorf("entry_id required: %w", ErrValidation)
	}

	entry, err := l.getEntry(ctx, in.EntryID)
	if err != nil {
		return nil, err
	}

	unlock := l.registry.locks.lock(entry.VehicleID)
	defer unlock()

	entry, err = l.getEntry(ctx, in.EntryID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionMaintenance(entry.Status, models.MaintenanceCompleted) {
		return nil, fmt.Errorf("maintenance %s is %s, cannot complete: %w",
			in.EntryID, entry.Status, ErrInvariant)
	}

	vehicle, err := l.registry.Get(ctx, entry.VehicleID)
	if err != nil {
		return nil, err
	}
	if in.Odometer < vehicle.CurrentOdometer {
		return nil, fmt.Errorf("service odometer %.2f below vehicle odometer %.2f: %w",
			in.Odometer, vehicle.CurrentOdometer, ErrInvariant)
	}
	if in.Cost < 0 {
		return nil, fmt.Errorf("cost cannot be negative: %w", ErrValidation)
	}

	completedDate := in.CompletedDate
	if completedDate.IsZero() {
		completedDate = time.Now()
	}
	if err := advanceOdometer(vehicle, in.Odometer); err != nil {
		return nil, err
	}

	entry.Status = models.MaintenanceCompleted
	entry.CompletedDate = &completedDate
	entry.Odometer = in.Odometer
	entry.Cost = in.Cost
	entry.Provider = in.Provider
	entry.ReceiptID = in.ReceiptID
	if in.Notes != "" {
		entry.Notes = in.Notes
	}

	if err := l.entries.UpdateMaintenance(ctx, in.EntryID, *entry); err != nil {
		return nil, err
	}
	if err := l.registry.vehicles.UpdateVehicle(ctx, entry.VehicleID, *vehicle); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"maintenance_id": in.EntryID,
		"vehicle_id":     entry.VehicleID,
		"siglas":         entry.VehicleSiglas,
		"odometer":       in.Odometer,
		"cost":           in.Cost,
	}).Info("Maintenance completed")

	l.publisher.Publish(events.Event{
		Type:      events.TypeMaintenanceCompleted,
		VehicleID: entry.VehicleID,
		Siglas:    entry.VehicleSiglas,
		Payload: map[string]interface{}{
			"maintenance_id": in.EntryID,
			"type":           entry.Type,
			"cost":           in.Cost,
		},
		Timestamp: completedDate,
	})
	return entry, nil
}

// Get returns a maintenance entry by ID.
func (l *MaintenanceLedger) Get(ctx context.Context, id string) (*models.Maintenance, error) {
	return l.getEntry(ctx, strings.TrimSpace(id))
}

// List returns maintenance entries matching the filter.
func (l *MaintenanceLedger) List(ctx context.Context, filter db.MaintenanceFilter) ([]models.Maintenance, error) {
	return l.entries.FindMaintenance(ctx, filter)
}

func (l *MaintenanceLedger) transition(ctx context.Context, entryID string, to models.MaintenanceStatus) (*models.Maintenance, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, fmt.Errorf("entry_id required: %w", ErrValidation)
	}

	entry, err := l.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	unlock := l.registry.locks.lock(entry.VehicleID)
	defer unlock()

	entry, err = l.getEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransitionMaintenance(entry.Status, to) {
		return nil, fmt.Errorf("maintenance %s is %s, cannot move to %s: %w",
			entryID, entry.Status, to, ErrInvariant)
	}

	entry.Status = to
	if err := l.entries.UpdateMaintenance(ctx, entryID, *entry); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"maintenance_id": entryID,
		"vehicle_id":     entry.VehicleID,
		"status":         to,
	}).Info("Maintenance status updated")
	return entry, nil
}

func (l *MaintenanceLedger) getEntry(ctx context.Context, id string) (*models.Maintenance, error) {
	entry, err := l.entries.FindMaintenanceByID(ctx, id)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, fmt.Errorf("maintenance %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return entry, nil
}
