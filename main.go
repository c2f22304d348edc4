package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coastweb/mailscheduler/config"
	"coastweb/mailscheduler/internal/api"
	"coastweb/mailscheduler/internal/dispatcher"
	"coastweb/mailscheduler/internal/mailer"
	"coastweb/mailscheduler/internal/robots"
	"coastweb/mailscheduler/internal/scraper"
	"coastweb/mailscheduler/internal/store"
	"coastweb/mailscheduler/logger"
	"coastweb/mailscheduler/services/cache"
	"coastweb/mailscheduler/services/publisher"
	"coastweb/mailscheduler/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Dur("scheduler_interval", cfg.SchedulerInterval).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	robotsCache := robots.NewCache(cfg.UserAgent, cfg.RobotsTimeout)
	sc := scraper.New(robotsCache, services.Cache, services.Store, scraper.Options{
		UserAgent:      cfg.UserAgent,
		BaseDelay:      cfg.BaseDelay,
		FetchTimeout:   cfg.FetchTimeout,
		ResultCacheTTL: cfg.ResultCacheTTL,
	})
	sender := dispatcher.New(services.Store, sc, mailer.SMTPTransport{}, services.Publisher)

	// Create and start the scheduler worker
	w := worker.NewWorker(ctx, services.Store, sender, services.Cache, cfg.SchedulerInterval)
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting campaign scheduler")
		workerDone <- w.Start()
	}()

	// Start the HTTP API
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(services.Store, sc, sender).Router(),
	}
	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Starting HTTP API")
		serverDone <- httpServer.ListenAndServe()
	}()

	// Wait for shutdown signal, worker error, or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Scheduler exited with error")
		} else {
			log.Info().Msg("Scheduler exited normally")
		}
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// Services holds all the initialized services
type Services struct {
	Store     *store.Store
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	services.Store = st

	logger.Info("Opened database at %s", cfg.DatabasePath)

	// Memcache when configured, otherwise an in-process cache
	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	} else {
		services.Cache = cache.NewMemoryService()
	}

	// Redis stream publisher when configured, otherwise drop events
	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	} else {
		services.Publisher = publisher.Noop{}
	}

	return services, nil
}
