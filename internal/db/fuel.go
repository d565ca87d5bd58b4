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

// MongoFuelCollection implements FuelCollection for MongoDB.
type MongoFuelCollection struct {
	Collection *mongo.Collection
}

// InsertFuelEntry inserts a fuel entry into the collection.
func (c *MongoFuelCollection) InsertFuelEntry(ctx context.Context, entry models.FuelEntry) (primitive.ObjectID, error) {
	if c.Collection == nil {
		return primitive.NilObjectID, fmt.Errorf("mongo collection is nil")
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.CreatedAt = time.Now()
	if _, err := c.Collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, err
	}
	return entry.ID, nil
}

// FindFuelEntryByID finds a fuel entry by its ID.
func (c *MongoFuelCollection) FindFuelEntryByID(ctx context.Context, id string) (*models.FuelEntry, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid fuel entry ID: %w", err)
	}
	var entry models.FuelEntry
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindLastFuelEntryByVehicle returns the most recent entry by fill time, or
// (nil, nil) when the vehicle has never been refueled.
func (c *MongoFuelCollection) FindLastFuelEntryByVehicle(ctx context.Context, vehicleID string) (*models.FuelEntry, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "filled_at", Value: -1}})
	var entry models.FuelEntry
	err := c.Collection.FindOne(ctx, bson.M{"vehicle_id": vehicleID}, opts).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// FindFuelEntries queries fuel entries from the collection.
func (c *MongoFuelCollection) FindFuelEntries(ctx context.Context, filter FuelFilter) ([]models.FuelEntry, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	query := bson.M{}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}
	timeRange := bson.M{}
	if !filter.From.IsZero() {
		timeRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		timeRange["$lte"] = filter.To
	}
	if len(timeRange) > 0 {
		query["filled_at"] = timeRange
	}
	opts := options.Find().SetSort(bson.D{{Key: "filled_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var entries []models.FuelEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
