package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/antochhka/voltqueue/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps engine sentinels onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrStationOccupied):
		writeError(w, http.StatusConflict, "station occupied")
	case errors.Is(err, engine.ErrAuthorization):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, engine.ErrInvalidStation):
		writeError(w, http.StatusBadRequest, "unknown station")
	case errors.Is(err, engine.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, try again")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
