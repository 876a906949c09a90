package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/fabricator/internal/api/handlers"
	mw "github.com/Harshitk-cp/fabricator/internal/api/middleware"
	"github.com/Harshitk-cp/fabricator/internal/config"
	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/Harshitk-cp/fabricator/internal/service"
	"github.com/Harshitk-cp/fabricator/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and the façade service for lifecycle management.
type App struct {
	Router     *chi.Mux
	Fabricator *service.Fabricator
	startTime  time.Time

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires the adapter, the façade, the handlers, and the middleware
// chain.
func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	adapter := store.NewPostgres(db)
	fabricator := service.NewFabricator(adapter, logger, config.TensionHopLimit())
	beliefHandler := handlers.NewBeliefHandler(fabricator)

	r := chi.NewRouter()

	app := &App{
		Router:     r,
		Fabricator: fabricator,
		startTime:  time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/belief-systems", func(r chi.Router) {
			r.Post("/", beliefHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", beliefHandler.GetByID)
				r.Post("/rules", beliefHandler.AddRule)
				r.Get("/rules", beliefHandler.Rules)
				r.Post("/simulate", beliefHandler.Simulate)
				r.Post("/fork", beliefHandler.Fork)
				r.Get("/statements", beliefHandler.Statements)
				r.Get("/state", beliefHandler.State)
				r.Get("/forks", beliefHandler.Forks)
				r.Get("/tensions", beliefHandler.Tensions)
				r.Get("/history", beliefHandler.History)
			})
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure the Postgres adapter satisfies the contract at compile time.
var _ domain.DatabaseAdapter = (*store.Postgres)(nil)
