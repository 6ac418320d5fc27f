package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/antochhka/voltqueue/internal/engine"
	"github.com/antochhka/voltqueue/internal/service"
)

// AllocationHandler holds the claim, waitlist and release endpoints.
type AllocationHandler struct {
	dashboard *service.Dashboard
	logger    *zap.Logger
}

// NewAllocationHandler builds the handler set.
func NewAllocationHandler(dashboard *service.Dashboard, logger *zap.Logger) *AllocationHandler {
	return &AllocationHandler{dashboard: dashboard, logger: logger}
}

type claimRequest struct {
	UserAlias  string `json:"user_alias"`
	Vehicle    string `json:"vehicle"`
	BatteryPct int    `json:"battery_pct"`
	Station    int    `json:"station"`
	PIN        string `json:"pin"`
}

type joinRequest struct {
	UserAlias  string `json:"user_alias"`
	Vehicle    string `json:"vehicle"`
	BatteryPct int    `json:"battery_pct"`
}

type releaseRequest struct {
	Station int    `json:"station"`
	PIN     string `json:"pin"`
}

// HandleClaim handles POST /claim.
func (h *AllocationHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.UserAlias) == "" || strings.TrimSpace(req.PIN) == "" {
		writeError(w, http.StatusBadRequest, "user_alias and pin are required")
		return
	}

	session, err := h.dashboard.Claim(r.Context(), engine.ClaimInput{
		UserAlias:  req.UserAlias,
		Vehicle:    req.Vehicle,
		BatteryPct: req.BatteryPct,
		Station:    req.Station,
		PIN:        req.PIN,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "charging",
		"session": session,
	})
}

// HandleJoin handles POST /waitlist.
func (h *AllocationHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.UserAlias) == "" {
		writeError(w, http.StatusBadRequest, "user_alias is required")
		return
	}

	joined, err := h.dashboard.Join(r.Context(), engine.JoinInput{
		UserAlias:  req.UserAlias,
		Vehicle:    req.Vehicle,
		BatteryPct: req.BatteryPct,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !joined {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already queued"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "queued"})
}

// HandleRelease handles POST /release.
func (h *AllocationHandler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	reservation, err := h.dashboard.Release(r.Context(), req.Station, req.PIN)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	payload := map[string]interface{}{"status": "released"}
	if reservation != nil {
		payload["reserved_for"] = reservation.UserAlias
	}
	writeJSON(w, http.StatusOK, payload)
}
