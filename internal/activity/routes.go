package activity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the activity feed under /api/activity.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/activity", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := 0
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		entries, err := store.List(r.Context(), limit, Action(q.Get("action")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	})
}
