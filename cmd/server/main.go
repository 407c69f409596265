package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/yourorg/daysync/internal/app"
	"github.com/yourorg/daysync/internal/config"
	appdb "github.com/yourorg/daysync/internal/db"
	"github.com/yourorg/daysync/internal/debug"
	"github.com/yourorg/daysync/internal/handlers"
	"github.com/yourorg/daysync/internal/logging"
	"github.com/yourorg/daysync/internal/middleware"
	"github.com/yourorg/daysync/internal/routes"
)

func main() {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	components, err := app.New(cfg)
	if err != nil {
		log.Fatalf("❌ wiring: %v", err)
	}
	if cfg.Tago.ServiceKey == "" {
		log.Println("⚠️  TAGO_SERVICE_KEY is empty, upstream calls will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := debug.NewHub(cfg.Debug.Dashboard)
	hub.Announce()
	go hub.Run(ctx)
	go middleware.PeriodicMetricsCollector(ctx, hub, 30*time.Second)

	// ============================================================================
	// DB CONNECTION (opcional: solo historial de búsquedas)
	// ============================================================================
	var (
		store handlers.SearchStore
		repo  *appdb.SearchRepository
	)
	if cfg.Database.Enabled {
		db, err := connectDB(ctx, cfg.Database)
		if err != nil {
			log.Printf("⚠️  database unavailable, search history disabled: %v", err)
		} else {
			defer db.Close()
			repo = appdb.NewSearchRepository(db)
			store = repo
			log.Printf("✅ Database ready")
			hub.LogInfo("search history enabled", map[string]interface{}{"host": cfg.Database.Host})
		}
	}

	// ============================================================================
	// HANDLERS
	// ============================================================================
	results := handlers.NewResultCache(cfg.Cache.ResultSize, cfg.Cache.ResultTTL)

	checks := []handlers.HealthCheck{
		{Name: "tago", Check: components.Tago.HealthCheck},
	}
	if components.GraphHopper != nil {
		checks = append(checks, handlers.HealthCheck{Name: "graphhopper", Check: components.GraphHopper.HealthCheck, Optional: true})
	}
	if repo != nil {
		checks = append(checks, handlers.HealthCheck{Name: "database", Check: repo.Ping, Optional: true})
	}

	server := fiber.New(fiber.Config{
		AppName:      "daysync",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.SearchTimeout + 5*time.Second,
	})
	server.Use(recover.New())
	server.Use(logger.New())
	server.Use(middleware.DashboardLogger(hub))

	routes.Register(server, routes.Handlers{
		Itineraries:     handlers.NewItineraryHandler(components.Search, results, store, hub, cfg.Server.SearchTimeout),
		History:         handlers.NewHistoryHandler(store),
		Transit:         handlers.NewTransitHandler(components.Locator, components.Collector, components.Fetcher),
		Health:          handlers.NewHealthHandler(hub, checks...),
		Cache:           handlers.NewCacheHandler(results, components.Walking),
		Hub:             hub,
		SearchRateLimit: cfg.Server.RateLimit,
	})

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	go func() {
		<-ctx.Done()
		log.Println("🛑 Shutting down...")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️  Error closing server: %v", err)
		}
	}()

	log.Printf("🚀 Listening on :%s (walking: %s)", cfg.Server.Port, components.Walking.Provider())
	log.Println("📍 Endpoints:")
	log.Println("   POST /api/itineraries                    - Itinerary search")
	log.Println("   GET  /api/searches/:id                   - Stored search")
	log.Println("   GET  /api/stops/nearby                   - Nearby stops")
	log.Println("   GET  /api/stops/:city/:stopId/arrivals   - Arrivals at a stop")
	log.Println("   GET  /api/lines/:city/:lineId/stations   - Line stations and turnarounds")
	log.Println("   GET  /api/health, /api/cache/stats, /ws/debug")

	if err := server.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
	log.Println("✅ Server closed")
}

// connectDB retries for about 30 seconds while MySQL is still starting.
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	var lastErr error
	for attempt := 0; attempt < 6; attempt++ {
		db, err := appdb.Connect(cfg)
		if err == nil {
			err = db.PingContext(ctx)
		}
		if err == nil {
			err = appdb.EnsureSchema(db, cfg.SkipSchema)
		}
		if err == nil {
			return db, nil
		}
		if db != nil {
			db.Close()
		}
		lastErr = err
		log.Printf("db connect error: %v (retrying in 5s)", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
	return nil, lastErr
}
