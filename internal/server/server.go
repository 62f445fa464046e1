package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/recoverytrack/apiserver/config"
	"github.com/recoverytrack/apiserver/internal/auth"
	"github.com/recoverytrack/apiserver/internal/db"
	"github.com/recoverytrack/apiserver/internal/handlers"
	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/metrics"
	"github.com/recoverytrack/apiserver/internal/mq"
	"github.com/recoverytrack/apiserver/internal/ratelimit"
	"github.com/recoverytrack/apiserver/internal/services"
	"github.com/recoverytrack/apiserver/internal/storage"
	"github.com/recoverytrack/apiserver/internal/store"
)

const (
	requestTimeout  = 60 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Dependencies is everything the router needs. Publisher, Objects, Limiter
// and Metrics are optional.
type Dependencies struct {
	Store          store.Storage
	Tokens         *auth.TokenIssuer
	Log            *logger.Logger
	Publisher      services.EventPublisher
	Objects        services.ObjectStore
	Limiter        handlers.RateLimiter
	Metrics        *metrics.HTTPMetrics
	HealthChecks   map[string]handlers.HealthCheck
	AllowedOrigins []string
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	log        *logger.Logger
}

// New constructs a Server from cfg, connecting whichever backends are
// configured.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	srv := &Server{log: log}
	deps := Dependencies{
		Tokens:         auth.NewTokenIssuer(jwtSecret, cfg.Auth.TokenTTL),
		Log:            log,
		HealthChecks:   map[string]handlers.HealthCheck{},
		AllowedOrigins: cfg.CORSOrigins,
	}

	if cfg.UsesPostgres() {
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		srv.db = dbConn
		deps.Store = store.NewPostgresStore(dbConn, cfg.Auth.PasswordCost)
		deps.HealthChecks["postgres"] = dbConn.PingContext
	} else {
		memStore, err := store.NewMemoryStore(store.WithPasswordCost(cfg.Auth.PasswordCost))
		if err != nil {
			return nil, err
		}
		deps.Store = memStore
	}

	queue, err := mq.NewFromConfig(ctx, cfg)
	if err != nil {
		srv.closeBackends()
		return nil, err
	}
	if queue != nil {
		srv.queue = queue
		deps.Publisher = queue
	}

	objects, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		srv.closeBackends()
		return nil, err
	}
	if objects != nil {
		deps.Objects = objects
	}

	if cfg.Redis.URL != "" {
		limiter, err := ratelimit.New(ctx, cfg.Redis.URL, cfg.Redis.RateLimitWindow, cfg.Redis.RateLimitMax)
		if err != nil {
			srv.closeBackends()
			return nil, err
		}
		deps.Limiter = limiter
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.NewHTTPMetrics(registry)

	srv.router = NewRouter(deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  idleTimeout,
	}
	return srv, nil
}

// NewRouter mounts every API route on a fresh chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	var observer services.EventObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	events := services.NewEvents(deps.Publisher, log, observer)

	userService := services.NewUserService(deps.Store)
	moodService := services.NewMoodService(deps.Store, events)
	medicationService := services.NewMedicationService(deps.Store, events)
	resourceService := services.NewResourceService(deps.Store)
	communityService := services.NewCommunityService(deps.Store, events)
	professionalService := services.NewProfessionalService(deps.Store)
	exportService := services.NewExportService(deps.Store, deps.Objects)

	authMiddleware := handlers.RequireAuth(deps.Tokens, log)

	router := chi.NewRouter()
	router.Use(
		handlers.RequestID(log),
		middleware.RealIP,
		handlers.Logging(log),
		handlers.Recoverer(log),
		middleware.Timeout(requestTimeout),
	)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
	}
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Method(http.MethodGet, "/healthz", handlers.NewHealthHandler(deps.HealthChecks, log))
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, userService, deps.Tokens, deps.Limiter, log)
		})
		r.Route("/user", func(r chi.Router) {
			r.Use(authMiddleware)
			handlers.UserRouter(r, userService, log)
			handlers.ExportRouter(r, exportService, log)
		})
		r.Route("/mood-logs", func(r chi.Router) {
			r.Use(authMiddleware)
			handlers.MoodRouter(r, moodService, log)
		})
		r.Route("/medications", func(r chi.Router) {
			r.Use(authMiddleware)
			handlers.MedicationRouter(r, medicationService, log)
		})
		r.Route("/medication-logs", func(r chi.Router) {
			r.Use(authMiddleware)
			handlers.MedicationLogRouter(r, medicationService, log)
		})
		r.Route("/resources", func(r chi.Router) {
			handlers.ResourceRouter(r, resourceService, authMiddleware, log)
		})
		r.Route("/community", func(r chi.Router) {
			handlers.CommunityRouter(r, communityService, authMiddleware, log)
		})
		r.Route("/professionals", func(r chi.Router) {
			handlers.ProfessionalRouter(r, professionalService, authMiddleware, log)
		})
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	if s.log != nil {
		s.log.Info(s.log.WithField(context.Background(), "addr", s.httpServer.Addr), "server.start")
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes backend connections.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.closeBackends()
	return err
}

func (s *Server) closeBackends() {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
