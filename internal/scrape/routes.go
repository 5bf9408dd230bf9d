package scrape

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts scrape endpoints under /api/scrape on the given router.
func RegisterRoutes(r chi.Router, store *Store, svc *Service) {
	r.Route("/api/scrape", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleSubmit(svc))
		r.Post("/extract", handleExtract(svc))
		r.Get("/extract/{id}", handleExtractStatus(svc))
		r.Get("/{id}", handleGet(store))
	})
}

func handleSubmit(svc *Service) http.HandlerFunc {
	type submitRequest struct {
		URL string `json:"url"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		job, err := svc.Submit(r.Context(), req.URL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// The scrape plus annotation can take a while; the caller polls
		// the job by ID.
		go svc.Process(context.Background(), job)

		writeJSON(w, http.StatusAccepted, job)
	}
}

func handleExtract(svc *Service) http.HandlerFunc {
	type extractSubmitRequest struct {
		URLs   []string `json:"urls"`
		Prompt string   `json:"prompt"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req extractSubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		job, err := svc.SubmitExtract(r.Context(), req.URLs, req.Prompt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
	}
}

func handleExtractStatus(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, status, err := svc.ExtractResult(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"job":    job,
			"status": status.Status,
			"data":   status.Data,
		})
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := JobStatus(r.URL.Query().Get("status"))

		jobs, err := store.ListJobs(r.Context(), status)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if jobs == nil {
			jobs = []Job{}
		}
		writeJSON(w, http.StatusOK, jobs)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := store.GetJob(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
