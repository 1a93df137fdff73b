// internal/controller/reconcile_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/westgate-cre/outreach-backend/internal/service"
)

type ReconcileController struct {
	ReconcileService *service.ReconcileService
}

// Preview computes status changes without writing anything.
func (c *ReconcileController) Preview(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	result, err := c.ReconcileService.Preview(force, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (c *ReconcileController) Apply(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Force   bool     `json:"force"`
		LeadIDs []string `json:"lead_ids"`
	}
	// An empty body means reconcile everything without force.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	result, err := c.ReconcileService.Apply(body.Force, body.LeadIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
