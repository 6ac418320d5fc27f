package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/antochhka/voltqueue/internal/admin"
	"github.com/antochhka/voltqueue/internal/service"
)

// AdminHandler exposes the privileged login and forced rollover endpoints.
type AdminHandler struct {
	gate      *admin.Gate
	tokens    *admin.TokenService
	dashboard *service.Dashboard
	logger    *zap.Logger
}

// NewAdminHandler builds the handler set.
func NewAdminHandler(gate *admin.Gate, tokens *admin.TokenService, dashboard *service.Dashboard, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		gate:      gate,
		tokens:    tokens,
		dashboard: dashboard,
		logger:    logger,
	}
}

type adminLoginRequest struct {
	Alias string `json:"alias"`
}

// HandleLogin handles POST /admin/login: the shared-alias gate followed by a
// short-lived token.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.gate.Authorize(req.Alias); err != nil {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	token, err := h.tokens.GenerateToken(req.Alias)
	if err != nil {
		h.logger.Error("failed to issue admin token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleRollover handles POST /admin/rollover. The router wraps it in the
// admin token middleware.
func (h *AdminHandler) HandleRollover(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.ForceRollover(r.Context()); err != nil {
		h.logger.Error("forced rollover failed", zap.Error(err))
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rolled over"})
}
