package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/geovisor/internal/api"
	"github.com/joeblew999/geovisor/internal/api/readout"
	"github.com/joeblew999/geovisor/internal/crs"
	"github.com/joeblew999/geovisor/internal/db"
	"github.com/joeblew999/geovisor/internal/metrics"
	"github.com/joeblew999/geovisor/internal/service"
	"github.com/joeblew999/geovisor/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host         string
	Port         string
	DataDir      string
	CatalogPath  string // Optional YAML catalog merged ahead of the built-in systems
	FragmentsDir string // Optional override for the built-in HTML fragments
	Logger       *slog.Logger
}

// Server is the geovisor HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	db       *sql.DB
	bus      *service.EventBus
	services *api.Services
	renderer *templates.Renderer
	logger   *slog.Logger
}

// New creates a new geovisor server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("geovisor API", "1.0.0")
	humaConfig.Info.Description = "Coordinate reference resolver: picks the projected system for a WGS 84 position, projects, unprojects and formats DMS."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	bus := service.NewEventBus()
	conversion := service.NewConversionService(crs.NewResolver(nil), cfg.CatalogPath, bus, logger)
	if cfg.CatalogPath != "" {
		if _, err := conversion.ReloadCatalog(); err != nil {
			logger.Warn("using built-in catalog", "path", cfg.CatalogPath, "error", err)
		}
	}
	sources := service.NewSourceService(cfg.DataDir)

	renderer := templates.Default()
	if cfg.FragmentsDir != "" {
		if r, err := templates.New(cfg.FragmentsDir); err == nil {
			renderer = r
			logger.Info("loaded fragment templates", "dir", cfg.FragmentsDir)
		} else {
			logger.Warn("using built-in fragments", "dir", cfg.FragmentsDir, "error", err)
		}
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		bus:      bus,
		renderer: renderer,
		logger:   logger,
	}

	// Initialize DuckDB connection
	conn, err := db.Get(db.Config{
		DataDir: cfg.DataDir,
		DBName:  "geovisor",
	})
	if err == nil {
		s.db = conn
	} else {
		logger.Warn("duckdb unavailable, exports disabled", "error", err)
	}

	s.services = &api.Services{
		Conversion:   conversion,
		Source:       sources,
		Fragments:    s.renderer,
		FragmentsDir: cfg.FragmentsDir,
	}
	if s.db != nil {
		s.services.Export = service.NewExportService(s.db, cfg.DataDir, sources, conversion, bus, logger)
	}

	s.routes()
	s.handler = metrics.Middleware(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the services shared by the API and the CLI.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close closes server resources.
func (s *Server) Close() error {
	return db.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewInfoHandler(s.config.DataDir, s.services).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.services.Export).RegisterRoutes(s.humaAPI)

	// Cursor readout over Datastar SSE
	readout.NewHandler(s.services.Conversion, s.renderer, s.bus, s.logger).RegisterRoutes(s.humaAPI)

	s.mux.Handle("GET /metrics", metrics.Handler())

	// Page routes
	s.mux.HandleFunc("GET /viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "geovisor",
		"status":  "running",
	})
}

// viewerStart is where the viewer page opens.
var viewerStart = service.Coordinate{Lat: -0.1807, Lng: -78.4678}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	conv := s.services.Conversion
	ro, err := conv.Readout(viewerStart, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	signals, _ := json.Marshal(map[string]any{
		"lat":    viewerStart.Lat,
		"lng":    viewerStart.Lng,
		"target": "",
		"error":  "",
	})
	html, err := s.renderer.Render("page", map[string]any{
		"Title":   "geovisor",
		"Signals": string(signals),
		"Readout": ro,
		"Systems": conv.Systems(""),
	})
	if err != nil {
		s.logger.Error("render viewer", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}
