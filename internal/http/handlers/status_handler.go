package handlers

import (
	"net/http"

	"github.com/antochhka/voltqueue/internal/registry"
	"github.com/antochhka/voltqueue/internal/service"
)

// NewStatusHandler returns GET /status handler.
func NewStatusHandler(dashboard *service.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := dashboard.Status(r.Context())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

// NewStationsHandler returns GET /stations handler exposing the static
// registry layout.
func NewStationsHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"groups":   reg.Groups(),
			"stations": reg.Stations(),
		})
	}
}

// NewHealthHandler returns GET /health handler.
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
