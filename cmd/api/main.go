package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"secondhand-market/internal/cleanup"
	"secondhand-market/internal/config"
	"secondhand-market/internal/contact"
	"secondhand-market/internal/contactcrypt"
	"secondhand-market/internal/database"
	"secondhand-market/internal/handlers"
	"secondhand-market/internal/identity"
	"secondhand-market/internal/listing"
	"secondhand-market/internal/logging"
	"secondhand-market/internal/metrics"
	"secondhand-market/internal/moderation"
	"secondhand-market/internal/query"
	"secondhand-market/internal/ratelimit"
	"secondhand-market/internal/scheduler"
	"secondhand-market/internal/search"
	"secondhand-market/internal/seed"
	"secondhand-market/internal/snapshot"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "config/marketplace.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config from %s: %v", configPath, err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	log := logging.New(cfg.Logging)
	log.WithField("path", configPath).Info("configuration loaded")

	store, err := openDatabase(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer store.Close()

	if err := store.InitSchema(); err != nil {
		log.WithError(err).Fatal("failed to initialize schema")
	}

	cipher, err := contactcrypt.New(cfg.Security.ContactEncryptionKey)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize contact encryption")
	}

	limiter := ratelimit.NewKeyedLimiter(cfg.RateLimit.DisclosureInterval(), cfg.RateLimit.Burst, cfg.RateLimit.Enabled)
	log.WithFields(logrus.Fields{
		"per_minute": cfg.RateLimit.DisclosuresPerMinute,
		"burst":      cfg.RateLimit.Burst,
		"enabled":    cfg.RateLimit.Enabled,
	}).Info("disclosure rate limiter initialized")

	// Search is optional; without a host listings are served from the database only.
	var (
		searchClient *search.SearchClient
		indexer      search.Indexer
		reindexer    scheduler.Reindexer
	)
	if ms := cfg.Search.Meilisearch; ms.Host != "" {
		searchClient = search.NewSearchClient(ms.Host, ms.APIKey, ms.Index)
		if err := searchClient.InitIndex(); err != nil {
			log.WithError(err).Warn("failed to initialize search index")
		}
		indexer = searchClient
		reindexer = searchClient
		log.WithFields(logrus.Fields{"host": ms.Host, "index": ms.Index}).Info("search enabled")
	} else {
		log.Info("search disabled: no meilisearch host configured")
	}

	listings := listing.NewService(store, cipher, indexer, log)
	mediator := contact.NewMediator(store, cipher, limiter, log)
	gate := moderation.NewGate(store, indexer, log)
	engine := query.NewEngine(store, cfg.Listing.DefaultPageSize, cfg.Listing.MaxPageSize)
	cleaner := cleanup.NewService(store, cfg.Cleanup, log)

	appScheduler := scheduler.NewScheduler(store, reindexer, cfg.Scheduler, log)
	if err := appScheduler.Start(); err != nil {
		log.WithError(err).Warn("failed to start scheduler")
	}
	defer appScheduler.Stop()

	if cfg.Seed.Enabled {
		n, err := seed.Run(context.Background(), store, cipher, cfg.Seed.SellerID, log)
		if err != nil {
			log.WithError(err).Warn("seeding failed")
		} else if n > 0 && searchClient != nil {
			appScheduler.RunNow(context.Background())
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logging.LogRequests {
		r.Use(logging.RequestLogger(log))
	}
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	verifier := identity.NewVerifier(cfg.Security.JWTSecret)
	routes := handlers.Routes{
		Listings: handlers.NewListingHandler(listings, engine, log),
		Contacts: handlers.NewContactHandler(mediator, log),
		Search:   handlers.NewSearchHandler(searchClient, log),
		Admin: handlers.NewAdminHandler(
			gate,
			listings,
			engine,
			snapshot.NewService(store),
			cleaner,
			appScheduler,
			log,
		),
	}
	routes.Register(r, verifier)

	// Rate limiter stats endpoint
	r.GET("/api/admin/ratelimit/stats", verifier.Required(), identity.AdminOnly(), func(c *gin.Context) {
		c.JSON(http.StatusOK, limiter.GetStats())
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func openDatabase(cfg config.DatabaseConfig) (*database.GormDB, error) {
	if cfg.Type == "postgres" {
		pg := cfg.Postgres
		return database.NewPostgresDB(
			getEnvOrConfig(pg.Host, "DB_HOST", "db"),
			portOrDefault(pg.Port, "5432"),
			pg.User,
			pg.Password,
			pg.Database,
			pg.SSLMode,
			cfg.LogSQL,
		)
	}

	my := cfg.MySQL
	return database.NewGormDB(
		getEnvOrConfig(my.Host, "DB_HOST", "mysql"),
		portOrDefault(my.Port, "3306"),
		my.User,
		my.Password,
		my.Database,
		cfg.LogSQL,
	)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

func portOrDefault(port int, defaultValue string) string {
	if port > 0 {
		return strconv.Itoa(port)
	}
	return defaultValue
}
