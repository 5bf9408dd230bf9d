package chat

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts chat endpoints under /api/chat on the given router.
func RegisterRoutes(r chi.Router, store *Store, svc *Service) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Get("/sessions", handleListSessions(store))
		r.Post("/sessions/{id}/messages", handleAsk(svc))
		r.Post("/messages", handleAsk(svc))
		r.Get("/sessions/{id}", handleGetSession(store))
		r.Delete("/sessions/{id}", handleDeleteSession(store))
	})
}

func handleListSessions(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := store.ListSessions(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []Session{}
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func handleGetSession(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		session, err := store.GetSession(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		messages, err := store.ListMessages(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if messages == nil {
			messages = []Message{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"session":  session,
			"messages": messages,
		})
	}
}

// handleAsk serves both POST /messages (new session) and
// POST /sessions/{id}/messages (existing session).
func handleAsk(svc *Service) http.HandlerFunc {
	type askRequest struct {
		Question string `json:"question"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		sessionID := chi.URLParam(r, "id")

		reply, err := svc.Ask(r.Context(), sessionID, req.Question)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, reply)
	}
}

func handleDeleteSession(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteSession(r.Context(), chi.URLParam(r, "id"))
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
