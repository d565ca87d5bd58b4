package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/fleet-ledger/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMovementCollection implements MovementCollection for MongoDB.
type MongoMovementCollection struct {
	Collection *mongo.Collection
}

// InsertMovement inserts a movement record into the collection.
func (c *MongoMovementCollection) InsertMovement(ctx context.Context, movement models.Movement) (primitive.ObjectID, error) {
	if c.Collection == nil {
		return primitive.NilObjectID, fmt.Errorf("mongo collection is nil")
	}
	if movement.ID.IsZero() {
		movement.ID = primitive.NewObjectID()
	}
	movement.CreatedAt = time.Now()
	movement.UpdatedAt = time.Now()
	if _, err := c.Collection.InsertOne(ctx, movement); err != nil {
		return primitive.NilObjectID, err
	}
	return movement.ID, nil
}

// FindMovementByID finds a movement by its ID.
func (c *MongoMovementCollection) FindMovementByID(ctx context.Context, id string) (*models.Movement, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid movement ID: %w", err)
	}
	var movement models.Movement
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&movement)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// FindOpenMovementByVehicle returns the vehicle's in_progress movement, or
// (nil, nil) when there is none.
func (c *MongoMovementCollection) FindOpenMovementByVehicle(ctx context.Context, vehicleID string) (*models.Movement, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var movement models.Movement
	err := c.Collection.FindOne(ctx, bson.M{
		"vehicle_id": vehicleID,
		"status":     models.MovementInProgress,
	}).Decode(&movement)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}

// FindMovements queries movement records from the collection.
func (c *MongoMovementCollection) FindMovements(ctx context.Context, filter MovementFilter) ([]models.Movement, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	query := bson.M{}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.DriverID != "" {
		query["driver_id"] = filter.DriverID
	}
	timeRange := bson.M{}
	if !filter.From.IsZero() {
		timeRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		timeRange["$lte"] = filter.To
	}
	if len(timeRange) > 0 {
		query["time_out"] = timeRange
	}
	opts := options.Find().SetSort(bson.D{{Key: "time_out", Value: -1}})
	cursor, err := c.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var movements []models.Movement
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, err
	}
	return movements, nil
}

// UpdateMovement replaces a movement record by its ID.
func (c *MongoMovementCollection) UpdateMovement(ctx context.Context, id string, movement models.Movement) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid movement ID: %w", err)
	}
	movement.ID = objectID
	movement.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, movement)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
