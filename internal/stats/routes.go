package stats

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the stats endpoint under /api/stats.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		ov, err := svc.Collect(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ov)
	})
}
