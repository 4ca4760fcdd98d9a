package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindfulchat-backend/internal/api"
	"mindfulchat-backend/internal/config"
	"mindfulchat-backend/internal/crypto"
	"mindfulchat-backend/internal/handlers"
	"mindfulchat-backend/internal/llm"
	"mindfulchat-backend/internal/mailer"
	"mindfulchat-backend/internal/moderation"
	"mindfulchat-backend/internal/observability"
	"mindfulchat-backend/internal/services"
	"mindfulchat-backend/internal/store"
	"mindfulchat-backend/internal/store/memory"
	"mindfulchat-backend/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.Println("Starting Mindful Chat Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Store
	dataStore, err := newStore(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer dataStore.Close()

	// 3. Initialize Dependencies (Moderation, Backends, Services, Handlers)
	classifier, err := moderation.LoadClassifier(cfg.ModerationPatternsFile)
	if err != nil {
		log.Fatalf("FATAL: Failed to load moderation patterns: %v", err)
	}
	log.Printf("Moderation classifier initialized with %d patterns.", len(classifier.Patterns()))

	httpClient := &http.Client{}
	if cfg.OpenAIAPIKey == "" {
		log.Println("WARN: OPENAI_API_KEY is empty, hosted backend calls will be rejected upstream.")
	}
	localBackend, err := llm.NewLocalBackend(cfg.OllamaURL, cfg.OllamaModel, httpClient)
	if err != nil {
		log.Fatalf("FATAL: Failed to configure local backend: %v", err)
	}
	backends := llm.NewRegistry(
		llm.NewHostedBackend(llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, httpClient), cfg.OpenAIModel),
		localBackend,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(cfg.MetricsNamespace, registry)
	log.Println("Metrics initialized.")

	var otpMailer services.Mailer = mailer.LogMailer{}
	if cfg.SMTPHost != "" {
		smtpMailer, err := mailer.NewSMTPMailer(cfg)
		if err != nil {
			log.Fatalf("FATAL: Failed to configure SMTP mailer: %v", err)
		}
		otpMailer = smtpMailer
		log.Printf("SMTP mailer initialized for %s:%d.", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		log.Println("WARN: SMTP_HOST is empty, OTPs will be written to the log.")
	}

	// --- Initialize Services ---
	processor := services.NewTurnProcessor(classifier, backends, dataStore, services.PolicyFromConfig(cfg), metrics)
	authService := services.NewAuthService(dataStore, otpMailer, cfg)
	guestService := services.NewGuestService(dataStore, dataStore)
	feedbackService := services.NewFeedbackService(dataStore)
	log.Println("Services initialized.")

	// --- Guest Rate Limiter ---
	guestLimiter := api.NewIPRateLimiter(cfg.GuestRatePerMinute, cfg.GuestRateBurst)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				guestLimiter.Sweep()
			}
		}
	}()

	// 4. Setup Router & Inject Dependencies
	routerDeps := api.RouterDependencies{
		AuthHandler:      handlers.NewAuthHandler(authService),
		ChatHandler:      handlers.NewChatHandlers(processor),
		GuestHandler:     handlers.NewGuestHandlers(guestService, processor),
		FeedbackHandler:  handlers.NewFeedbackHandlers(feedbackService),
		MetricsHandler:   metrics.Handler(),
		GuestRateLimiter: guestLimiter,
		Config:           cfg,
	}
	router := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// Write timeout must outlive the router request timeout
		ReadTimeout:  5 * time.Second,
		WriteTimeout: api.RequestTimeout(cfg) + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	// Wait for interrupt signal
	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
		log.Fatal("Forcing shutdown due to error.")
	}

	log.Println("Server shutdown complete.")
}

// newStore connects to Postgres when DATABASE_URL is set, otherwise falls back to memory.
func newStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Println("WARN: DATABASE_URL is empty, using in-memory store. Data is lost on restart.")
		return memory.New(), nil
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second) // Timeout for initial connection
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create database connection pool: %w", err)
	}
	if err := dbpool.Ping(dbCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	log.Println("Database connection pool established and pinged successfully.")

	if err := postgres.InitSchema(dbCtx, dbpool); err != nil {
		dbpool.Close()
		return nil, err
	}
	log.Println("Database schema ready.")

	sealer, err := crypto.NewSealer(cfg.EncryptionKey)
	if err != nil {
		dbpool.Close()
		return nil, err
	}
	if sealer.Enabled() {
		log.Println("AES-GCM content sealing enabled.")
	}
	return postgres.NewPostgresStore(dbpool, sealer), nil
}
