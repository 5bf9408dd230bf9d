package media

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxUploadBytes caps multipart uploads (32 MB).
const maxUploadBytes = 32 << 20

// RunSummary reports the outcome of an annotation run for API responses.
type RunSummary struct {
	ContextID       string `json:"context_id"`
	Chunked         bool   `json:"chunked"`
	ChunksSucceeded int    `json:"chunks_succeeded"`
	ChunksFailed    int    `json:"chunks_failed"`
}

// Runner runs the annotation pipeline for an uploaded text body. The
// implementation persists the context row itself (mc.ID must be pre-set so
// the caller can hand the identifier back before the run completes).
type Runner interface {
	Annotate(ctx context.Context, mc *Context, fullText string) (*RunSummary, error)
}

// Recorder logs uploads and deletions to the activity feed.
type Recorder interface {
	Record(ctx context.Context, action, subjectID, subjectName, detail string) error
}

// Deindexer removes a deleted context's documents from semantic search.
type Deindexer interface {
	Remove(ctx context.Context, contextID string) error
}

// RouteHooks carries optional side effects for upload and delete. Either
// field may be nil.
type RouteHooks struct {
	Recorder  Recorder
	Deindexer Deindexer
}

// RegisterRoutes mounts media endpoints under /api/media on the given router.
func RegisterRoutes(r chi.Router, store *Store, runner Runner, hooks RouteHooks) {
	r.Route("/api/media", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleUpload(store, runner, hooks))
		r.Get("/{id}", handleGet(store))
		r.Patch("/{id}", handleUpdate(store))
		r.Delete("/{id}", handleDelete(store, hooks))
		r.Get("/{id}/chunks", handleListChunks(store))
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := ContextFilter{
			Kind:   Kind(q.Get("kind")),
			Search: q.Get("q"),
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		contexts, err := store.ListContexts(r.Context(), filter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if contexts == nil {
			contexts = []Context{}
		}
		writeJSON(w, http.StatusOK, contexts)
	}
}

func handleUpload(store *Store, runner Runner, hooks RouteHooks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "reading upload: "+err.Error(), http.StatusInternalServerError)
			return
		}

		mc := &Context{
			ID:       uuid.New().String(),
			Name:     header.Filename,
			Kind:     DetectKind(header.Header.Get("Content-Type"), header.Filename),
			Size:     int64(len(content)),
			UserTags: r.FormValue("tags"),
		}

		if mc.Kind != KindText || runner == nil {
			// Non-text media is stored without chunked annotation.
			if err := store.CreateContext(r.Context(), mc); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			recordUpload(r.Context(), hooks, mc)
			writeJSON(w, http.StatusCreated, mc)
			return
		}

		// Text content goes through the annotation pipeline in the
		// background; the run can take seconds per chunk. The caller gets
		// the pre-assigned identifier immediately and reads chunks back
		// once the run finishes.
		recordUpload(r.Context(), hooks, mc)

		text := string(content)
		go func() {
			if _, err := runner.Annotate(context.Background(), mc, text); err != nil {
				log.Printf("media: annotation run for %s failed: %v", mc.ID, err)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"id":     mc.ID,
			"status": "annotating",
		})
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		mc, err := store.GetContext(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		chunks, err := store.ListChunks(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"context": mc,
			"chunks":  chunks,
		})
	}
}

func handleUpdate(store *Store) http.HandlerFunc {
	type updateRequest struct {
		Name     string `json:"name"`
		UserTags string `json:"user_tags"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		err := store.UpdateContext(r.Context(), id, req.Name, req.UserTags)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		mc, err := store.GetContext(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, mc)
	}
}

func handleDelete(store *Store, hooks RouteHooks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		mc, err := store.GetContext(r.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if err := store.DeleteContext(r.Context(), id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if hooks.Deindexer != nil {
			if err := hooks.Deindexer.Remove(r.Context(), id); err != nil {
				log.Printf("media: deindexing %s: %v", id, err)
			}
		}
		if hooks.Recorder != nil {
			if err := hooks.Recorder.Record(r.Context(), "deleted", id, mc.Name, ""); err != nil {
				log.Printf("media: recording delete of %s: %v", id, err)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListChunks(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		chunks, err := store.ListChunks(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if chunks == nil {
			chunks = []Chunk{}
		}
		writeJSON(w, http.StatusOK, chunks)
	}
}

func recordUpload(ctx context.Context, hooks RouteHooks, mc *Context) {
	if hooks.Recorder == nil {
		return
	}
	if err := hooks.Recorder.Record(ctx, "uploaded", mc.ID, mc.Name, string(mc.Kind)); err != nil {
		log.Printf("media: recording upload of %s: %v", mc.ID, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
