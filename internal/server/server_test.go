package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contextdeck/contextdeck/internal/db"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return New(cfg, Deps{DB: database})
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0, AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestFeatureRoutesRegistered(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0})

	// Every feature surface should answer something other than 404.
	paths := []string{
		"/api/media",
		"/api/pages",
		"/api/chat/sessions",
		"/api/activity",
		"/api/stats",
	}
	for _, p := range paths {
		req := httptest.NewRequest("GET", p, nil)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		if w.Code == http.StatusNotFound {
			t.Errorf("expected %s to be routed, got 404", p)
		}
	}
}

func TestUploadWithoutProviderStoresContext(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0})

	req := httptest.NewRequest("GET", "/api/media", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing an empty library, got %d", w.Code)
	}
	var contexts []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &contexts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(contexts) != 0 {
		t.Errorf("expected empty library, got %d contexts", len(contexts))
	}
}
