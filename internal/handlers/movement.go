package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/ledger"
	"github.com/ukydev/fleet-ledger/internal/middleware"
	"github.com/ukydev/fleet-ledger/internal/models"
)

// MovementHandler handles movement ledger requests
type MovementHandler struct {
	ledger *ledger.MovementLedger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(l *ledger.MovementLedger) *MovementHandler {
	return &MovementHandler{ledger: l}
}

type checkoutRequest struct {
	VehicleID   string  `json:"vehicle_id"`
	OdometerOut float64 `json:"odometer_out"`
	Purpose     string  `json:"purpose"`
	Notes       string  `json:"notes"`
}

type checkinRequest struct {
	MovementID        string   `json:"movement_id"`
	OdometerIn        float64  `json:"odometer_in"`
	FuelLevelObserved *float64 `json:"fuel_level_observed,omitempty"`
}

type cancelRequest struct {
	MovementID string `json:"movement_id"`
}

// Checkout handles POST /api/movements/checkout. The driver identity comes
// from the authenticated user.
func (h *MovementHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	movement, err := h.ledger.Checkout(r.Context(), ledger.CheckoutInput{
		VehicleID:   req.VehicleID,
		DriverID:    claims.UserID,
		DriverName:  claims.Username,
		OdometerOut: req.OdometerOut,
		Purpose:     req.Purpose,
		Notes:       req.Notes,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}

// Checkin handles POST /api/movements/checkin.
func (h *MovementHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req checkinRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	movement, warnings, err := h.ledger.Checkin(r.Context(), ledger.CheckinInput{
		MovementID:        req.MovementID,
		OdometerIn:        req.OdometerIn,
		FuelLevelObserved: req.FuelLevelObserved,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{Data: movement, Warnings: warnings})
}

// Cancel handles POST /api/movements/cancel.
func (h *MovementHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	movement, err := h.ledger.Cancel(r.Context(), req.MovementID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movement)
}

// Collection handles GET /api/movements with optional vehicle_id, status,
// driver_id, from, to query parameters.
func (h *MovementHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := db.MovementFilter{
		VehicleID: q.Get("vehicle_id"),
		Status:    models.MovementStatus(q.Get("status")),
		DriverID:  q.Get("driver_id"),
		From:      parseTimeParam(q.Get("from")),
		To:        parseTimeParam(q.Get("to")),
	}

	movements, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}

// Item handles GET /api/movements/{id}.
func (h *MovementHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/movements/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Movement ID required", http.StatusBadRequest)
		return
	}

	movement, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movement)
}

// parseTimeParam parses an RFC 3339 query value; empty or malformed values
// become the zero time, meaning unbounded.
func parseTimeParam(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
