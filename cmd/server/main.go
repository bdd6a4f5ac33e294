package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/auditlens/internal/api"
	"github.com/Rrens/auditlens/internal/api/handler"
	"github.com/Rrens/auditlens/internal/config"
	"github.com/Rrens/auditlens/internal/llm/gemini"
	"github.com/Rrens/auditlens/internal/logger"
	"github.com/Rrens/auditlens/internal/repository"
	"github.com/Rrens/auditlens/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	_, logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("model", cfg.Gemini.Model).
		Msg("Starting audit report summarizer")

	ctx := context.Background()

	// Initialize model service
	provider, err := gemini.NewProvider(ctx, cfg.Gemini)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	defer provider.Close()
	if !provider.IsConfigured() {
		log.Warn().Msg("GEMINI_API_KEY is empty, chat requests will fail")
	}

	// Initialize history backend
	backend, err := repository.Open(ctx, cfg.History)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.History.Backend).Msg("Failed to open history backend")
	}
	defer backend.Close()

	spooler, err := handler.NewSpooler(cfg.Server.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare upload directory")
	}

	// Initialize services
	chat := service.NewChatService(
		service.NewIngestService(provider),
		service.NewPoller(provider, cfg.Activation),
		service.NewHistoryStore(backend.Repo),
		service.NewConversationService(provider),
		service.NewSessionRegistry(),
		cfg.Chat,
	)

	// Initialize router
	router := api.NewRouter(cfg.Server, api.Dependencies{
		Chat:     chat,
		Provider: provider,
		Spooler:  spooler,
		Ready:    backend.Ready,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
