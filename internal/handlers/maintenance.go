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

// MaintenanceHandler handles maintenance ledger requests
type MaintenanceHandler struct {
	ledger *ledger.MaintenanceLedger
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(l *ledger.MaintenanceLedger) *MaintenanceHandler {
	return &MaintenanceHandler{ledger: l}
}

type scheduleRequest struct {
	VehicleID     string    `json:"vehicle_id"`
	Type          string    `json:"type"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Description   string    `json:"description"`
	Notes         string    `json:"notes"`
}

type completeRequest struct {
	CompletedDate time.Time `json:"completed_date,omitempty"`
	Odometer      float64   `json:"odometer"`
	Cost          float64   `json:"cost"`
	Provider      string    `json:"provider"`
	ReceiptID     string    `json:"receipt_id"`
	Notes         string    `json:"notes"`
}

// Collection handles /api/maintenance: POST schedules, GET lists.
func (h *MaintenanceHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.schedule(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles /api/maintenance/{id} and its action routes:
// GET fetches the entry, POST {id}/start, {id}/complete, {id}/cancel
// drive the state machine.
func (h *MaintenanceHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/maintenance/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.Error(w, "Maintenance ID required", http.StatusBadRequest)
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		entry, err := h.ledger.Get(r.Context(), id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case action == "start" && r.Method == http.MethodPost:
		entry, err := h.ledger.Start(r.Context(), id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case action == "cancel" && r.Method == http.MethodPost:
		entry, err := h.ledger.Cancel(r.Context(), id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	case action == "complete" && r.Method == http.MethodPost:
		h.complete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MaintenanceHandler) schedule(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	entry, err := h.ledger.Schedule(r.Context(), ledger.ScheduleInput{
		VehicleID:     req.VehicleID,
		Type:          req.Type,
		ScheduledDate: req.ScheduledDate,
		Description:   req.Description,
		Notes:         req.Notes,
		CreatedBy:     claims.UserID,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *MaintenanceHandler) complete(w http.ResponseWriter, r *http.Request, id string) {
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	entry, err := h.ledger.Complete(r.Context(), ledger.CompleteInput{
		EntryID:       id,
		CompletedDate: req.CompletedDate,
		Odometer:      req.Odometer,
		Cost:          req.Cost,
		Provider:      req.Provider,
		ReceiptID:     req.ReceiptID,
		Notes:         req.Notes,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *MaintenanceHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.MaintenanceFilter{
		VehicleID: q.Get("vehicle_id"),
		Status:    models.MaintenanceStatus(q.Get("status")),
	}

	entries, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
