package handlers

import (
	"net/http"
	"strings"

	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/ledger"
)

// VehicleHandler handles vehicle registry requests
type VehicleHandler struct {
	registry *ledger.Registry
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(registry *ledger.Registry) *VehicleHandler {
	return &VehicleHandler{registry: registry}
}

type createVehicleRequest struct {
	Siglas            string  `json:"siglas"`
	Name              string  `json:"name"`
	Year              int     `json:"year"`
	Category          string  `json:"category"`
	FuelType          string  `json:"fuel_type"`
	OdometerUnit      string  `json:"odometer_unit"`
	InitialOdometer   float64 `json:"initial_odometer"`
	InitialFuelLevel  float64 `json:"initial_fuel_level"`
	TankCapacity      float64 `json:"tank_capacity"`
	ConsumptionFactor float64 `json:"consumption_factor"`
	CurrentLocation   string  `json:"current_location"`
}

// Collection handles /api/vehicles: POST registers, GET lists.
func (h *VehicleHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles /api/vehicles/{id}: GET fetches, DELETE deactivates.
func (h *VehicleHandler) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/vehicles/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Vehicle ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		vehicle, err := h.registry.Get(r.Context(), id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vehicle)
	case http.MethodDelete:
		vehicle, err := h.registry.Deactivate(r.Context(), id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vehicle)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *VehicleHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	vehicle, err := h.registry.Create(r.Context(), ledger.CreateVehicleInput{
		Siglas:            req.Siglas,
		Name:              req.Name,
		Year:              req.Year,
		Category:          req.Category,
		FuelType:          req.FuelType,
		OdometerUnit:      req.OdometerUnit,
		InitialOdometer:   req.InitialOdometer,
		InitialFuelLevel:  req.InitialFuelLevel,
		TankCapacity:      req.TankCapacity,
		ConsumptionFactor: req.ConsumptionFactor,
		CurrentLocation:   req.CurrentLocation,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

func (h *VehicleHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := db.VehicleFilter{
		Category: r.URL.Query().Get("category"),
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "true"
		filter.Active = &active
	}

	vehicles, err := h.registry.List(r.Context(), filter)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}
