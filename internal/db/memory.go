package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ukydev/fleet-ledger/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory collection implementations. Used by tests and local runs that
// have no MongoDB server; they satisfy the same interfaces as the Mongo
// collections.

// MemoryVehicleCollection implements VehicleCollection in memory.
type MemoryVehicleCollection struct {
	mu       sync.RWMutex
	vehicles map[string]models.Vehicle
}

// NewMemoryVehicleCollection creates an empty in-memory vehicle collection.
func NewMemoryVehicleCollection() *MemoryVehicleCollection {
	return &MemoryVehicleCollection{vehicles: make(map[string]models.Vehicle)}
}

func (c *MemoryVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (primitive.ObjectID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = time.Now()
	c.vehicles[vehicle.ID.Hex()] = vehicle
	return vehicle.ID, nil
}

func (c *MemoryVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vehicle, ok := c.vehicles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &vehicle, nil
}

func (c *MemoryVehicleCollection) FindVehicleBySiglas(ctx context.Context, siglas string) (*models.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, vehicle := range c.vehicles {
		if vehicle.Siglas == siglas {
			v := vehicle
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (c *MemoryVehicleCollection) FindVehicles(ctx context.Context, filter VehicleFilter) ([]models.Vehicle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Vehicle
	for _, vehicle := range c.vehicles {
		if filter.Active != nil && vehicle.Active != *filter.Active {
			continue
		}
		if filter.Category != "" && vehicle.Category != filter.Category {
			continue
		}
		out = append(out, vehicle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Siglas < out[j].Siglas })
	return out, nil
}

func (c *MemoryVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.vehicles[id]
	if !ok {
		return ErrNotFound
	}
	vehicle.ID = existing.ID
	vehicle.CreatedAt = existing.CreatedAt
	vehicle.UpdatedAt = time.Now()
	c.vehicles[id] = vehicle
	return nil
}

// MemoryMovementCollection implements MovementCollection in memory.
type MemoryMovementCollection struct {
	mu        sync.RWMutex
	movements map[string]models.Movement
}

// NewMemoryMovementCollection creates an empty in-memory movement collection.
func NewMemoryMovementCollection() *MemoryMovementCollection {
	return &MemoryMovementCollection{movements: make(map[string]models.Movement)}
}

func (c *MemoryMovementCollection) InsertMovement(ctx context.Context, movement models.Movement) (primitive.ObjectID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if movement.ID.IsZero() {
		movement.ID = primitive.NewObjectID()
	}
	movement.CreatedAt = time.Now()
	movement.UpdatedAt = time.Now()
	c.movements[movement.ID.Hex()] = movement
	return movement.ID, nil
}

func (c *MemoryMovementCollection) FindMovementByID(ctx context.Context, id string) (*models.Movement, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	movement, ok := c.movements[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &movement, nil
}

func (c *MemoryMovementCollection) FindOpenMovementByVehicle(ctx context.Context, vehicleID string) (*models.Movement, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, movement := range c.movements {
		if movement.VehicleID == vehicleID && movement.Status == models.MovementInProgress {
			m := movement
			return &m, nil
		}
	}
	return nil, nil
}

func (c *MemoryMovementCollection) FindMovements(ctx context.Context, filter MovementFilter) ([]models.Movement, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Movement
	for _, movement := range c.movements {
		if filter.VehicleID != "" && movement.VehicleID != filter.VehicleID {
			continue
		}
		if filter.Status != "" && movement.Status != filter.Status {
			continue
		}
		if filter.DriverID != "" && movement.DriverID != filter.DriverID {
			continue
		}
		if !filter.From.IsZero() && movement.TimeOut.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && movement.TimeOut.After(filter.To) {
			continue
		}
		out = append(out, movement)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeOut.After(out[j].TimeOut) })
	return out, nil
}

func (c *MemoryMovementCollection) UpdateMovement(ctx context.Context, id string, movement models.Movement) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.movements[id]
	if !ok {
		return ErrNotFound
	}
	movement.ID = existing.ID
	movement.CreatedAt = existing.CreatedAt
	movement.UpdatedAt = time.Now()
	c.movements[id] = movement
	return nil
}

// MemoryFuelCollection implements FuelCollection in memory.
type MemoryFuelCollection struct {
	mu      sync.RWMutex
	entries map[string]models.FuelEntry
}

// NewMemoryFuelCollection creates an empty in-memory fuel collection.
func NewMemoryFuelCollection() *MemoryFuelCollection {
	return &MemoryFuelCollection{entries: make(map[string]models.FuelEntry)}
}

func (c *MemoryFuelCollection) InsertFuelEntry(ctx context.Context, entry models.FuelEntry) (primitive.ObjectID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.CreatedAt = time.Now()
	c.entries[entry.ID.Hex()] = entry
	return entry.ID, nil
}

func (c *MemoryFuelCollection) FindFuelEntryByID(ctx context.Context, id string) (*models.FuelEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (c *MemoryFuelCollection) FindLastFuelEntryByVehicle(ctx context.Context, vehicleID string) (*models.FuelEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var last *models.FuelEntry
	for _, entry := range c.entries {
		if entry.VehicleID != vehicleID {
			continue
		}
		e := entry
		if last == nil || e.FilledAt.After(last.FilledAt) {
			last = &e
		}
	}
	return last, nil
}

func (c *MemoryFuelCollection) FindFuelEntries(ctx context.Context, filter FuelFilter) ([]models.FuelEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.FuelEntry
	for _, entry := range c.entries {
		if filter.VehicleID != "" && entry.VehicleID != filter.VehicleID {
			continue
		}
		if !filter.From.IsZero() && entry.FilledAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && entry.FilledAt.After(filter.To) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilledAt.After(out[j].FilledAt) })
	return out, nil
}

// MemoryMaintenanceCollection implements MaintenanceCollection in memory.
type MemoryMaintenanceCollection struct {
	mu      sync.RWMutex
	entries map[string]models.Maintenance
}

// NewMemoryMaintenanceCollection creates an empty in-memory maintenance collection.
func NewMemoryMaintenanceCollection() *MemoryMaintenanceCollection {
	return &MemoryMaintenanceCollection{entries: make(map[string]models.Maintenance)}
}

func (c *MemoryMaintenanceCollection) InsertMaintenance(ctx context.Context, entry models.Maintenance) (primitive.ObjectID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()
	c.entries[entry.ID.Hex()] = entry
	return entry.ID, nil
}

func (c *MemoryMaintenanceCollection) FindMaintenanceByID(ctx context.Context, id string) (*models.Maintenance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (c *MemoryMaintenanceCollection) FindMaintenance(ctx context.Context, filter MaintenanceFilter) ([]models.Maintenance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Maintenance
	for _, entry := range c.entries {
		if filter.VehicleID != "" && entry.VehicleID != filter.VehicleID {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.After(out[j].ScheduledDate) })
	return out, nil
}

func (c *MemoryMaintenanceCollection) UpdateMaintenance(ctx context.Context, id string, entry models.Maintenance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.entries[id]
	if !ok {
		return ErrNotFound
	}
	entry.ID = existing.ID
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = time.Now()
	c.entries[id] = entry
	return nil
}

// MemoryUserCollection implements UserCollection in memory.
type MemoryUserCollection struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemoryUserCollection creates an empty in-memory user collection.
func NewMemoryUserCollection() *MemoryUserCollection {
	return &MemoryUserCollection{users: make(map[string]models.User)}
}

func (c *MemoryUserCollection) InsertUser(ctx context.Context, user models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.IsActive = true
	c.users[user.ID.Hex()] = user
	return nil
}

func (c *MemoryUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	user, ok := c.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (c *MemoryUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, user := range c.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (c *MemoryUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, user := range c.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (c *MemoryUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.users[id]
	if !ok {
		return ErrNotFound
	}
	user.ID = existing.ID
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	c.users[id] = user
	return nil
}

func (c *MemoryUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	user.LastLogin = &now
	user.UpdatedAt = now
	c.users[id] = user
	return nil
}
