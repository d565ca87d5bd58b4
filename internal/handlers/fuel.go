package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/ledger"
	"github.com/ukydev/fleet-ledger/internal/middleware"
)

// FuelHandler handles fuel ledger requests
type FuelHandler struct {
	ledger *ledger.FuelLedger
}

// NewFuelHandler creates a new fuel handler
func NewFuelHandler(l *ledger.FuelLedger) *FuelHandler {
	return &FuelHandler{ledger: l}
}

type recordFillRequest struct {
	VehicleID      string    `json:"vehicle_id"`
	OdometerAtFill float64   `json:"odometer_at_fill"`
	Liters         float64   `json:"liters"`
	Price          float64   `json:"price"`
	FilledAt       time.Time `json:"filled_at,omitempty"`
}

// Collection handles /api/fuel: POST records a fill, GET lists entries.
func (h *FuelHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.record(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles GET /api/fuel/{id}.
func (h *FuelHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/fuel/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Fuel entry ID required", http.StatusBadRequest)
		return
	}

	entry, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *FuelHandler) record(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req recordFillRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	entry, warnings, err := h.ledger.RecordFill(r.Context(), ledger.RecordFillInput{
		VehicleID:      req.VehicleID,
		OdometerAtFill: req.OdometerAtFill,
		Liters:         req.Liters,
		Price:          req.Price,
		FilledAt:       req.FilledAt,
		CreatedBy:      claims.UserID,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resultResponse{Data: entry, Warnings: warnings})
}

func (h *FuelHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.FuelFilter{
		VehicleID: q.Get("vehicle_id"),
		From:      parseTimeParam(q.Get("from")),
		To:        parseTimeParam(q.Get("to")),
	}

	entries, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
