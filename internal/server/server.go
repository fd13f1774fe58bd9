package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nans-shop/apiserver/config"
	"github.com/nans-shop/apiserver/internal/auth"
	"github.com/nans-shop/apiserver/internal/db"
	"github.com/nans-shop/apiserver/internal/handlers"
	"github.com/nans-shop/apiserver/internal/logger"
	"github.com/nans-shop/apiserver/internal/middleware/metrics"
	"github.com/nans-shop/apiserver/internal/mq"
	"github.com/nans-shop/apiserver/internal/services"
	"github.com/nans-shop/apiserver/internal/storage"
	"github.com/nans-shop/apiserver/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps the HTTP server and its collaborators.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
}

// New constructs a Server with all routes and middleware wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger.Initialize(cfg.Log.Level, cfg.Log.JSON)

	// The signing secret is a hard precondition, not a runtime fallback.
	tokenService, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	imageStorage, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if imageStorage != nil {
		if err := imageStorage.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	events, err := mq.FromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	accountRepo := store.NewAccountRepository(dbConn)
	productRepo := store.NewProductRepository(dbConn)

	accountService := services.NewAccountService(accountRepo, tokenService)
	productService := services.NewProductService(productRepo, imageStorage, events)

	guard := handlers.NewGuard(tokenService)

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		chimiddleware.Logger,
		chimiddleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}),
		metrics.Middleware,
	)

	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, accountService)
	})
	router.Route("/api/products", func(r chi.Router) {
		handlers.ProductRouter(r, productService, guard)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
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
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	logger.Log.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the server and its collaborators.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
