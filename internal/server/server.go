package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/teslo-shop/apiserver/config"
	"github.com/teslo-shop/apiserver/internal/auth"
	"github.com/teslo-shop/apiserver/internal/db"
	"github.com/teslo-shop/apiserver/internal/handlers"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/mq"
	"github.com/teslo-shop/apiserver/internal/services"
	"github.com/teslo-shop/apiserver/internal/storage"
	"github.com/teslo-shop/apiserver/internal/store"
)

const defaultPort = 3000

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
	objects    *storage.Storage
	log        *slog.Logger
}

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Files    *services.FileService
	Log      *slog.Logger
	Registry *prometheus.Registry
	Throttle *handlers.RateLimiter
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.New(cfg.Log)

	jwtSecret := strings.TrimSpace(cfg.JWT.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = objects.Close()
		return nil, fmt.Errorf("open mq: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		if queue != nil {
			_ = queue.Close()
		}
		_ = objects.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A nil *mq.MQ must not leak into the interface.
	var events services.EventPublisher
	if queue != nil {
		events = queue
	}

	userRepo := store.NewUserRepository(dbConn)
	productRepo := store.NewProductRepository(dbConn)
	tokens := auth.NewTokenManager(jwtSecret, cfg.JWT.TTL)

	router := NewRouter(Deps{
		Auth:     services.NewAuthService(userRepo, auth.NewBcryptHasher(0), tokens, log),
		Products: services.NewProductService(productRepo, events, log),
		Files:    services.NewFileService(objects, cfg.HostAPI, log),
		Log:      log,
		Registry: prometheus.NewRegistry(),
		Throttle: handlers.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log),
	})

	port := cfg.ServerPort
	if port == 0 {
		port = defaultPort
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         queue,
		objects:    objects,
		log:        log,
	}, nil
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(deps Deps) *chi.Mux {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := handlers.NewMetrics(reg)
	guard := handlers.NewGuard(deps.Auth, log)

	var throttle func(http.Handler) http.Handler
	if deps.Throttle != nil {
		throttle = deps.Throttle.Middleware
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(log),
		middleware.Recoverer,
		metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, deps.Auth, guard, throttle, log)
		})
		r.Route("/products", func(r chi.Router) {
			handlers.ProductRouter(r, deps.Products, guard, log)
		})
		r.Route("/files", func(r chi.Router) {
			handlers.FileRouter(r, deps.Files, log)
		})
	})
	return router
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the backing clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if mqErr := s.mq.Close(); mqErr != nil {
			s.log.Warn("close mq", logging.Err(mqErr))
		}
	}
	if s.objects != nil {
		if stErr := s.objects.Close(); stErr != nil {
			s.log.Warn("close storage", logging.Err(stErr))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
