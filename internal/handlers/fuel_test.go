package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-ledger/internal/models"
)

func TestFuelHandler_RecordFill(t *testing.T) {
	f := newAPIFixture(t)

	w := postJSON(t, f.fuel.Collection, "/api/fuel", f.operatorID, map[string]interface{}{
		"vehicle_id":       f.vehicleID,
		"odometer_at_fill": 1200,
		"liters":           18,
		"price":            25.50,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Data     models.FuelEntry `json:"data"`
		Warnings []string         `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 200.0, response.Data.DistanceSinceLastFill)
	assert.InDelta(t, 11.1111, response.Data.ComputedConsumptionFactor, 0.0001)
	assert.Equal(t, f.operatorID, response.Data.CreatedBy)
	assert.Empty(t, response.Warnings)
}

func TestFuelHandler_OverflowWarning(t *testing.T) {
	f := newAPIFixture(t)

	// 40L on board plus 45L overflows the 50L tank
	w := postJSON(t, f.fuel.Collection, "/api/fuel", f.operatorID, map[string]interface{}{
		"vehicle_id":       f.vehicleID,
		"odometer_at_fill": 1100,
		"liters":           45,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Data     models.FuelEntry `json:"data"`
		Warnings []string         `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Warnings, "fuel_overflow")
}

func TestFuelHandler_Validation(t *testing.T) {
	f := newAPIFixture(t)

	w := postJSON(t, f.fuel.Collection, "/api/fuel", f.operatorID, map[string]interface{}{
		"vehicle_id":       f.vehicleID,
		"odometer_at_fill": 1200,
		"liters":           0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, f.fuel.Collection, "/api/fuel", "", map[string]interface{}{
		"vehicle_id":       f.vehicleID,
		"odometer_at_fill": 1200,
		"liters":           18,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFuelHandler_ListAndItem(t *testing.T) {
	f := newAPIFixture(t)

	w := postJSON(t, f.fuel.Collection, "/api/fuel", f.operatorID, map[string]interface{}{
		"vehicle_id":       f.vehicleID,
		"odometer_at_fill": 1200,
		"liters":           18,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data models.FuelEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req := httptest.NewRequest("GET", "/api/fuel?vehicle_id="+f.vehicleID, nil)
	rec := httptest.NewRecorder()
	f.fuel.Collection(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.FuelEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	req = httptest.NewRequest("GET", "/api/fuel/"+created.Data.ID.Hex(), nil)
	rec = httptest.NewRecorder()
	f.fuel.Item(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
