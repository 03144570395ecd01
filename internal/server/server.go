// Package server wires the plat-gold services, REST API, dashboard and
// static tile hosting into one http.Handler.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/joeblew999/plat-gold/internal/api"
	"github.com/joeblew999/plat-gold/internal/api/dashboard"
	"github.com/joeblew999/plat-gold/internal/db"
	"github.com/joeblew999/plat-gold/internal/humastar"
	"github.com/joeblew999/plat-gold/internal/logging"
	"github.com/joeblew999/plat-gold/internal/mining"
	"github.com/joeblew999/plat-gold/internal/observability"
	"github.com/joeblew999/plat-gold/internal/region"
	"github.com/joeblew999/plat-gold/internal/service"
	"github.com/joeblew999/plat-gold/internal/templates"
	"github.com/joeblew999/plat-gold/internal/tiler/gotiler"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string

	Source    service.Origin
	Seed      uint64
	Generator mining.Config

	// NoDB skips DuckDB entirely; the table source then fails.
	NoDB        bool
	NATSURL     string
	CORSOrigins []string

	// TemplatesDir, when set, re-reads the dashboard templates from disk on
	// every page load.
	TemplatesDir string

	Log      logging.Logger
	Registry *prometheus.Registry
}

// Server is the gold-mining dashboard HTTP server.
type Server struct {
	config   Config
	log      logging.Logger
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	links    *humastar.LinkSet
	db       *sql.DB
	bus      *service.EventBus
	nc       *nats.Conn
	metrics  *observability.Collector
	services *api.Services
	renderer *templates.Renderer
}

// New builds the services and routes. The context bounds the initial
// dataset load.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Log == nil {
		cfg.Log = logging.Noop()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Generator == (mining.Config{}) {
		cfg.Generator = mining.DefaultConfig()
	}
	log := cfg.Log

	metrics, err := observability.NewCollector(cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	renderer, err := templates.New()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		log:      log,
		mux:      http.NewServeMux(),
		links:    humastar.NewLinkSet(),
		bus:      service.NewEventBus(),
		metrics:  metrics,
		renderer: renderer,
	}

	if !cfg.NoDB {
		conn, err := db.Get(db.Config{DataDir: cfg.DataDir, DBName: "gold", NoExternalAccess: true})
		if err != nil {
			log.Warn(ctx, "duckdb unavailable", logging.Err(err))
		} else {
			s.db = conn
		}
	}

	dataset, err := service.NewDatasetService(ctx, service.DatasetOptions{
		Regions: region.Regions(),
		Config:  cfg.Generator,
		Seed:    cfg.Seed,
		Origin:  cfg.Source,
		DB:      s.db,
		Bus:     s.bus,
		Metrics: metrics,
		Log:     log,
	})
	if err != nil {
		if s.db != nil {
			db.Close()
		}
		return nil, err
	}

	s.services = &api.Services{
		Dataset:    dataset,
		Visibility: service.NewVisibilityStore(cfg.DataDir, s.bus, metrics),
		Tiles:      service.NewTileService(cfg.DataDir, gotiler.New(), s.bus, metrics),
		Metrics:    metrics,
		Log:        log,
	}

	if cfg.NATSURL != "" {
		nc, err := service.ConnectNATS(cfg.NATSURL, log)
		if err != nil {
			log.Warn(ctx, "nats unavailable, events stay local", logging.Err(err))
		} else {
			s.nc = nc
		}
	}

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-gold API", "1.0.0")
	humaConfig.Info.Description = "Ghana gold-mining dashboard: mock mining data, map layers, tooltips and PMTiles export."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, s.links.Transformer())
	s.humaAPI = humago.New(s.mux, humaConfig)

	s.routes()
	s.links.Build(s.humaAPI)

	s.handler = logging.Middleware(log, metrics.Instrument(s.cors(s.mux)))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the services for commands that run without HTTP.
func (s *Server) Services() *api.Services {
	return s.services
}

// Run forwards bus events to NATS until ctx is done. Without a NATS
// connection it returns immediately.
func (s *Server) Run(ctx context.Context) {
	if s.nc == nil {
		return
	}
	service.NewNATSBridge(s.nc, "", s.bus, s.log).Run(ctx)
}

// Close closes server resources.
func (s *Server) Close() error {
	s.bus.Close()
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			s.log.Warn(context.Background(), "nats drain", logging.Err(err))
		}
	}
	return db.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)
	api.NewInfoHandler(api.InfoBody{
		DataDir:  s.config.DataDir,
		DB:       s.db != nil,
		Origin:   string(s.services.Dataset.Origin()),
		Features: s.features(),
	}).RegisterRoutes(s.humaAPI)

	// Dashboard SSE routes using Huma + Datastar SDK
	dash := dashboard.NewHandler(s.services.Dataset, s.services.Visibility, s.services.Tiles, s.bus, s.renderer, s.log)
	dash.RegisterRoutes(s.humaAPI)

	tilesDir := s.services.Tiles.TilesDir()
	s.mux.Handle("/tiles/", http.StripPrefix("/tiles/", http.FileServer(http.Dir(tilesDir))))
	s.mux.Handle("/metrics", s.metrics.Handler())

	// Page routes
	s.mux.Handle("/dashboard", s.reloadTemplates(dash.Page()))
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) reloadTemplates(next http.Handler) http.Handler {
	dir := s.config.TemplatesDir
	if dir == "" {
		return next
	}
	fsys := os.DirFS(dir)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.renderer.Reload(fsys, "*.html"); err != nil {
			s.log.Warn(r.Context(), "template reload failed", logging.String("dir", dir), logging.Err(err))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) features() []string {
	f := []string{"mock-data", "layers", "tooltips", "pmtiles", "dashboard", "metrics"}
	if s.db != nil {
		f = append(f, "duckdb")
	}
	if s.nc != nil {
		f = append(f, "nats")
	}
	return f
}

// cors allows browsers and map clients on other origins to read the API and
// range-request PMTiles archives.
func (s *Server) cors(next http.Handler) http.Handler {
	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Range", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Length", "Content-Range", "Accept-Ranges", "Link", "X-Request-ID"},
		MaxAge:         300,
	}).Handler(next)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range s.links.Root() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service":   "plat-gold",
		"status":    "running",
		"dashboard": "/dashboard",
	})
}
