package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	authhttp "github.com/dejobratic/bookstore/internal/auth/adapters/http"
	authmongo "github.com/dejobratic/bookstore/internal/auth/adapters/mongo"
	authapp "github.com/dejobratic/bookstore/internal/auth/app"
	cataloghttp "github.com/dejobratic/bookstore/internal/catalog/adapters/http"
	catalogmongo "github.com/dejobratic/bookstore/internal/catalog/adapters/mongo"
	catalogapp "github.com/dejobratic/bookstore/internal/catalog/app"
	"github.com/dejobratic/bookstore/internal/config"
	"github.com/dejobratic/bookstore/internal/database"
	idemmongo "github.com/dejobratic/bookstore/internal/idempotency/mongo"
	"github.com/dejobratic/bookstore/internal/inventory"
	"github.com/dejobratic/bookstore/internal/kafka"
	"github.com/dejobratic/bookstore/internal/orders/adapters"
	ordershttp "github.com/dejobratic/bookstore/internal/orders/adapters/http"
	ordersmongo "github.com/dejobratic/bookstore/internal/orders/adapters/mongo"
	ordersapp "github.com/dejobratic/bookstore/internal/orders/app"
	ordersmetrics "github.com/dejobratic/bookstore/internal/orders/metrics"
	"github.com/dejobratic/bookstore/internal/telemetry"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(parseLogLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	client, err := database.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect failed", "error", err)
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	meter := otel.Meter(cfg.Service.Name)

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create kafka metrics", "error", err)
		os.Exit(1)
	}
	invMetrics, err := inventory.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create inventory metrics", "error", err)
		os.Exit(1)
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create order metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := ordershttp.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	bookRepo := catalogmongo.NewRepository(client, cfg.Mongo.Database)
	orderRepo := adapters.NewObservableRepository(
		ordersmongo.NewRepository(client, cfg.Mongo.Database), dbMetrics)
	customerRepo := authmongo.NewRepository(client, cfg.Mongo.Database)
	idemStore := idemmongo.NewStore(client, cfg.Mongo.Database)
	eventBus := adapters.NewObservableEventBus(kafka.NewNoopEventBus(), kafkaMetrics)

	engine := inventory.NewEngine(bookRepo, logger, invMetrics)

	catalogService := catalogapp.NewService(bookRepo, logger)
	orderService := ordersapp.NewService(orderRepo, engine, bookRepo, eventBus, idemStore, logger, orderMetrics)
	authService := authapp.NewService(customerRepo, logger, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)

	authHandler := authhttp.NewHandler(authService, logger)
	catalogHandler := cataloghttp.NewHandler(catalogService, logger)
	orderHandler := ordershttp.NewHandler(orderService, logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(withLogging(logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key"},
	}).Handler)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), client); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	authHandler.Register(router)
	router.Group(catalogHandler.RegisterPublic)
	router.Group(func(r chi.Router) {
		r.Use(authhttp.RequireAuth(authService))
		catalogHandler.RegisterProtected(r)
		orderHandler.Register(r)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           ordershttp.WithMetrics(router, httpMetrics),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
