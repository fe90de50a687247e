// Package server provides the HTTP REST API for the recipe importer.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/camille/recipe-importer/internal/extraction"
	"github.com/camille/recipe-importer/internal/gemini"
	"github.com/camille/recipe-importer/internal/media"
	"github.com/camille/recipe-importer/internal/pipeline"
	"github.com/camille/recipe-importer/internal/scraper"
	"github.com/camille/recipe-importer/internal/store"
)

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string
	Model       string

	TempDir            string
	MaxMediaBytes      int64
	DownloadTimeout    time.Duration
	SweepInterval      time.Duration
	UseBrowser         bool
	FileWaitTimeout    time.Duration
	FilePollInterval   time.Duration
	MaxExtractAttempts int
}

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	db           *store.DB
	gemini       *gemini.Client
	orchestrator *pipeline.Orchestrator
	sweeper      *media.Sweeper
	validate     *validator.Validate
}

// New creates a new server instance. It connects to the database and the AI
// file service up front so a misconfigured deployment fails at startup, not
// on the first import.
func New(cfg Config) (*Server, error) {
	database, err := store.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := gemini.New(context.Background(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if cfg.Model != "" {
		client = client.WithModel(cfg.Model)
	}

	downloader, err := media.NewDownloader(cfg.TempDir)
	if err != nil {
		database.Close()
		_ = client.Close()
		return nil, fmt.Errorf("failed to prepare media directory: %w", err)
	}

	s := &Server{
		db:       database,
		gemini:   client,
		validate: validator.New(),
	}

	s.orchestrator = pipeline.New(
		database,
		database,
		scraper.NewHTTPScraper(scraper.Options{UseBrowser: cfg.UseBrowser}),
		downloader,
		client,
		extraction.NewService(client),
		pipeline.Config{
			DownloadTimeout:    cfg.DownloadTimeout,
			MaxMediaBytes:      cfg.MaxMediaBytes,
			FileWaitTimeout:    cfg.FileWaitTimeout,
			FilePollInterval:   cfg.FilePollInterval,
			MaxExtractAttempts: cfg.MaxExtractAttempts,
		},
	)

	// Downloads are removed as each import finishes; the sweeper catches
	// files orphaned by a crash.
	s.sweeper = media.NewSweeper(downloader.TempDir(), media.DefaultSweepMaxAge)
	s.sweeper.Sweep()
	if cfg.SweepInterval > 0 {
		if err := s.sweeper.Start(cfg.SweepInterval); err != nil {
			log.Printf("Failed to start media sweeper: %v", err)
		}
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("POST /imports", s.handleCreateImport)
	mux.HandleFunc("GET /imports", s.handleListImports)
	mux.HandleFunc("GET /imports/{id}", s.handleGetImport)
	mux.HandleFunc("DELETE /imports/{id}", s.handleCancelImport)
	mux.HandleFunc("GET /recipes/{id}", s.handleGetRecipe)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.sweeper.Stop()
	if err := s.gemini.Close(); err != nil {
		log.Printf("Failed to close Gemini client: %v", err)
	}
	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response with the given status code
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes a JSON error response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
