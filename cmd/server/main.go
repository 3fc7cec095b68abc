package main // Entry point package

import (
	"context"
	"log"      // Logging library
	"net/http"
	"time"

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/mehmettevfikcetin/flixary/internal/catalog"
	"github.com/mehmettevfikcetin/flixary/internal/config"
	"github.com/mehmettevfikcetin/flixary/internal/database"
	"github.com/mehmettevfikcetin/flixary/internal/handler"
	"github.com/mehmettevfikcetin/flixary/internal/middleware"
	"github.com/mehmettevfikcetin/flixary/internal/queue"
	"github.com/mehmettevfikcetin/flixary/internal/repository"
	"github.com/mehmettevfikcetin/flixary/internal/router"
	"github.com/mehmettevfikcetin/flixary/internal/service"
)

func main() {
	// Load .env when present; in real deployments the variables come
	// from the environment and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	// Redis backs the catalog response cache and the rate limiter.  A nil
	// client just disables both; the API keeps working without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	entries := repository.NewEntryRepo(db)
	lists := repository.NewListRepo(db)

	// Clear out long-expired refresh tokens left behind by idle sessions.
	if n, err := tokens.DeleteExpired(context.Background()); err == nil && n > 0 {
		log.Printf("pruned %d expired refresh tokens", n)
	}

	cat := catalog.NewClient(cfg.TMDBAPIKey, cfg.CatalogLocale, &http.Client{Timeout: 15 * time.Second})
	coord := service.NewCoordinator(entries, lists, cat)

	e := echo.New() // Create Echo instance

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterProfile(e, handler.NewProfileHandler(users), cfg.JWTSecret)
	router.RegisterEntries(e, handler.NewEntryHandler(coord, entries), cfg.JWTSecret)
	router.RegisterLists(e, handler.NewListHandler(coord, lists), cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewCatalogHandler(cat),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)

	// The activity consumer turns broker events into logs/activity.log.
	// It reconnects on its own, so a broker outage only pauses it.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
