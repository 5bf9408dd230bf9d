// Package server assembles the HTTP API from the feature packages.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/contextdeck/contextdeck/internal/activity"
	"github.com/contextdeck/contextdeck/internal/annotate"
	"github.com/contextdeck/contextdeck/internal/chat"
	"github.com/contextdeck/contextdeck/internal/db"
	"github.com/contextdeck/contextdeck/internal/events"
	"github.com/contextdeck/contextdeck/internal/llm"
	"github.com/contextdeck/contextdeck/internal/media"
	"github.com/contextdeck/contextdeck/internal/pages"
	"github.com/contextdeck/contextdeck/internal/scrape"
	"github.com/contextdeck/contextdeck/internal/stats"
	"github.com/contextdeck/contextdeck/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port     int
	DataDir  string // directory for the SQLite DB and vector snapshot
	AllowAll bool   // allow all CORS origins (dev mode)
}

// Deps carries the shared dependencies the feature packages are built on.
// Vector and Provider may be nil; the affected features degrade rather
// than fail.
type Deps struct {
	DB            *db.DB
	Vector        vectordb.VectorStore
	Provider      llm.Provider
	Model         string
	ScrapeBaseURL string
	Annotation    annotate.Options
}

// Server is the contextdeck API server.
type Server struct {
	cfg        Config
	deps       Deps
	hub        *events.Hub
	pipeline   *annotate.Pipeline
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all feature routes wired.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		hub:  events.NewHub(),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates the chi router, constructs the feature services, and
// registers every route.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	mediaStore := media.NewStore(s.deps.DB)
	activityStore := activity.NewStore(s.deps.DB)

	var indexer *vectordb.Indexer
	if s.deps.Vector != nil {
		indexer = vectordb.NewIndexer(s.deps.Vector)
	}

	var runner media.Runner
	if s.deps.Provider != nil {
		s.pipeline = annotate.NewPipeline(s.deps.Provider, mediaStore, s.deps.Annotation)
		s.pipeline.SetRecorder(activityStore)
		s.pipeline.SetProgressFunc(s.hub.AnnotationProgress())
		if indexer != nil {
			s.pipeline.SetIndexer(indexer)
		}
		runner = s.pipeline
	}

	hooks := media.RouteHooks{Recorder: activityStore}
	if indexer != nil {
		hooks.Deindexer = indexer
	}
	media.RegisterRoutes(r, mediaStore, runner, hooks)

	pageStore := pages.NewStore(s.deps.DB)
	var gen *pages.Generator
	if s.deps.Provider != nil {
		gen = pages.NewGenerator(s.deps.Provider, mediaStore, pageStore, s.deps.Model)
		gen.SetRecorder(activityStore)
	}
	pages.RegisterRoutes(r, pageStore, gen, activityStore)

	scrapeStore := scrape.NewStore(s.deps.DB)
	if client, err := scrape.NewClient(s.deps.ScrapeBaseURL); err != nil {
		log.Printf("server: scraping disabled: %v", err)
	} else {
		svc := scrape.NewService(client, scrapeStore, mediaStore, runner)
		svc.SetRecorder(activityStore)
		scrape.RegisterRoutes(r, scrapeStore, svc)
	}

	chatStore := chat.NewStore(s.deps.DB)
	chatSvc := chat.NewService(s.deps.Provider, s.deps.Model, chatStore, mediaStore, s.deps.Vector)
	chat.RegisterRoutes(r, chatStore, chatSvc)

	activity.RegisterRoutes(r, activityStore)
	stats.RegisterRoutes(r, stats.NewService(s.deps.DB))
	events.RegisterRoutes(r, s.hub)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the event hub used for progress broadcasts.
func (s *Server) Hub() *events.Hub { return s.hub }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("contextdeck server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
