package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-ledger/internal/reports"
)

// ReportsHandler serves aggregated ledger summaries
type ReportsHandler struct {
	service *reports.Service
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(service *reports.Service) *ReportsHandler {
	return &ReportsHandler{service: service}
}

// Movements handles GET /api/reports/movements. Without from/to the report
// covers the last 30 days.
func (h *ReportsHandler) Movements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	report, err := h.service.MovementSummary(r.Context(), q.Get("vehicle_id"),
		parseTimeParam(q.Get("from")), parseTimeParam(q.Get("to")))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Fuel handles GET /api/reports/fuel.
func (h *ReportsHandler) Fuel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	report, err := h.service.FuelSummary(r.Context(), q.Get("vehicle_id"),
		parseTimeParam(q.Get("from")), parseTimeParam(q.Get("to")))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
