package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JustJay7/court-case-engine/internal/acquisition"
	"github.com/JustJay7/court-case-engine/internal/cache"
	"github.com/JustJay7/court-case-engine/internal/config"
	"github.com/JustJay7/court-case-engine/internal/database"
	"github.com/JustJay7/court-case-engine/internal/scraper"
	"github.com/JustJay7/court-case-engine/internal/server"
	"github.com/JustJay7/court-case-engine/internal/synthetic"
	"github.com/JustJay7/court-case-engine/pkg/logger"
)

func main() {
	var migrate, purge bool
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations")
	flag.BoolVar(&purge, "purge-history", false, "Delete all query history and stored records")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}

	if migrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
		log.Info("Database migrations completed successfully")
		return
	}

	var closers []io.Closer
	var recordCache cache.Cache
	switch cfg.CacheBackend {
	case "redis":
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisDB, cfg.CacheTTL, log)
		if err != nil {
			log.Fatal("Failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		recordCache = rc
		closers = append(closers, rc)
	default:
		recordCache = cache.NewCache(cfg.CacheSize, cfg.CacheTTL)
	}

	store := cache.NewCachedStore(database.NewStore(db, log), recordCache, log)

	if purge {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		result, err := store.Purge(ctx)
		if err != nil {
			log.Fatal("Failed to purge history", "error", err)
		}
		log.Info("History purged", "query_logs", result.QueryLogs, "cases", result.Cases)
		return
	}

	source, err := scraper.NewScraper(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize scraper", "error", err)
	}
	closers = append([]io.Closer{source}, closers...)

	engine := acquisition.NewOrchestrator(source, store, synthetic.NewGenerator(nil), cfg, log)
	documents := scraper.NewDocumentFetcher(cfg, log)

	dbCloser, err := database.Closer(db)
	if err != nil {
		log.Fatal("Failed to access database pool", "error", err)
	}
	closers = append(closers, dbCloser)

	srv := server.New(cfg, engine, store, documents, log, closers...)

	log.Info("Starting Court Case Engine",
		"host", cfg.Host,
		"port", cfg.Port,
		"court", cfg.CourtName,
		"cache", cfg.CacheBackend,
		"browser_discovery", cfg.BrowserDiscovery,
	)

	if err := srv.Run(); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
