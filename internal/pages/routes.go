package pages

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts page endpoints under /api/pages on the given router.
func RegisterRoutes(r chi.Router, store *Store, gen *Generator, rec Recorder) {
	r.Route("/api/pages", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleGenerate(gen))
		r.Get("/{id}", handleGet(store))
		r.Get("/{id}/view", handleView(store))
		r.Post("/{id}/publish", handleSetStatus(store, rec, StatusPublished))
		r.Post("/{id}/archive", handleSetStatus(store, rec, StatusArchived))
		r.Delete("/{id}", handleDelete(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status(r.URL.Query().Get("status"))
		if status != "" && !ValidStatus(status) {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}

		list, err := store.ListPages(r.Context(), status)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []Page{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGenerate(gen *Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gen == nil {
			http.Error(w, "no model provider configured", http.StatusServiceUnavailable)
			return
		}

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		page, err := gen.Generate(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, page)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := store.GetPage(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// handleView serves the raw HTML document and counts the view.
func handleView(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		page, err := store.GetPage(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := store.RecordView(r.Context(), id); err != nil {
			log.Printf("pages: record view for %s: %v", id, err)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(page.HTMLContent))
	}
}

func handleSetStatus(store *Store, rec Recorder, status Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := store.SetStatus(r.Context(), id, status)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		page, err := store.GetPage(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if status == StatusPublished && rec != nil {
			if err := rec.Record(r.Context(), "page_published", id, page.Name, ""); err != nil {
				log.Printf("pages: record activity for %s: %v", id, err)
			}
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeletePage(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
