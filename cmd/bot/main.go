package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rakhasetya/duitbot/internal/api/handlers"
	"github.com/rakhasetya/duitbot/internal/api/middleware"
	"github.com/rakhasetya/duitbot/internal/budget"
	"github.com/rakhasetya/duitbot/internal/config"
	"github.com/rakhasetya/duitbot/internal/idempotency"
	"github.com/rakhasetya/duitbot/internal/llm"
	"github.com/rakhasetya/duitbot/internal/logger"
	"github.com/rakhasetya/duitbot/internal/orchestrator"
	"github.com/rakhasetya/duitbot/internal/wa"
)

func main() {
	var configPath = flag.String("config", "", "directory containing config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.LogLevel)

	if cfg.WA.BaseURL == "" {
		log.Fatal().Msg("No messaging gateway configured - set wa.base_url or DUITBOT_WA_BASE_URL")
	}
	if cfg.Budget.BaseURL == "" || cfg.Budget.BudgetSync == "" {
		log.Fatal().Msg("No budget backend configured - set budget.base_url and budget.budget_sync_id")
	}

	ctx := context.Background()

	// Idempotency store with background purge of expired records.
	store, err := idempotency.NewGormStore(cfg.Store.SQLitePath, cfg.Store.EventTTL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open idempotency store")
	}

	purgeCtx, cancelPurge := context.WithCancel(ctx)
	defer cancelPurge()
	go store.PurgeLoop(purgeCtx, cfg.Store.PurgePeriod)

	// Collaborator clients.
	messenger := wa.NewClient(cfg.WA.BaseURL, cfg.WA.Session, cfg.WA.APIKey)

	model, err := llm.NewGemini(ctx, cfg.LLM.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create language model client")
	}

	budgetClient := budget.NewClient(cfg.Budget.BaseURL, cfg.Budget.APIKey, cfg.Budget.BudgetSync)
	money := orchestrator.NewFormatter(cfg.Money.Locale, cfg.Money.Symbol)

	orch := orchestrator.New(store, messenger, model, budgetClient, money, log)
	webhookHandler := handlers.NewWebhookHandler(orch, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			webhookHandler.Receive(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.WebhookKey(cfg.Server.WebhookKey)(mux),
			),
		),
	)

	// Create HTTP server
	// WriteTimeout stays unset: a webhook request blocks on the model
	// and budget backend, which have no deadlines of their own.
	server := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting webhook server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelPurge()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
