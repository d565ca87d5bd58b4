package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/ledger"
	"github.com/ukydev/fleet-ledger/internal/models"
)

func newMaintenanceHandler(t *testing.T) (*MaintenanceHandler, string) {
	t.Helper()
	registry := ledger.NewRegistry(db.NewMemoryVehicleCollection())
	maintenanceLedger := ledger.NewMaintenanceLedger(db.NewMemoryMaintenanceCollection(), registry, nil)

	vehicle, err := registry.Create(context.Background(), ledger.CreateVehicleInput{
		Siglas:          "TRK-01",
		InitialOdometer: 1000,
		TankCapacity:    50,
	})
	require.NoError(t, err)
	return NewMaintenanceHandler(maintenanceLedger), vehicle.ID.Hex()
}

func TestMaintenanceHandler_ScheduleStartComplete(t *testing.T) {
	handler, vehicleID := newMaintenanceHandler(t)

	w := postJSON(t, handler.Collection, "/api/maintenance", "operator-1", map[string]interface{}{
		"vehicle_id":     vehicleID,
		"type":           "oil_change",
		"scheduled_date": time.Now().Add(24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var entry models.Maintenance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, models.MaintenanceProgrammed, entry.Status)

	w = postJSON(t, handler.Item, "/api/maintenance/"+entry.ID.Hex()+"/start", "operator-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, handler.Item, "/api/maintenance/"+entry.ID.Hex()+"/complete", "operator-1", map[string]interface{}{
		"odometer": 1050,
		"cost":     120,
		"provider": "Shop A",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var completed models.Maintenance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &completed))
	assert.Equal(t, models.MaintenanceCompleted, completed.Status)
	assert.Equal(t, 1050.0, completed.Odometer)
}

func TestMaintenanceHandler_CompleteBelowOdometer(t *testing.T) {
	handler, vehicleID := newMaintenanceHandler(t)

	w := postJSON(t, handler.Collection, "/api/maintenance", "operator-1", map[string]interface{}{
		"vehicle_id":     vehicleID,
		"type":           "oil_change",
		"scheduled_date": time.Now(),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var entry models.Maintenance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))

	w = postJSON(t, handler.Item, "/api/maintenance/"+entry.ID.Hex()+"/complete", "operator-1", map[string]interface{}{
		"odometer": 900,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMaintenanceHandler_ListByStatus(t *testing.T) {
	handler, vehicleID := newMaintenanceHandler(t)

	w := postJSON(t, handler.Collection, "/api/maintenance", "operator-1", map[string]interface{}{
		"vehicle_id":     vehicleID,
		"type":           "brake_service",
		"scheduled_date": time.Now(),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var entry models.Maintenance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))

	w = postJSON(t, handler.Item, "/api/maintenance/"+entry.ID.Hex()+"/cancel", "operator-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest("GET", "/api/maintenance?status=cancelled", nil)
	rec := httptest.NewRecorder()
	handler.Collection(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.Maintenance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, models.MaintenanceCancelled, entries[0].Status)
}
