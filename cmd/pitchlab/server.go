package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitchlab/pitchlab/internal/core/auth"
	"github.com/pitchlab/pitchlab/internal/core/crypto"
	"github.com/pitchlab/pitchlab/internal/shell/api"
	"github.com/pitchlab/pitchlab/internal/shell/llm"
	"github.com/pitchlab/pitchlab/internal/shell/retrieval"
	"github.com/pitchlab/pitchlab/internal/shell/scoring"
	"github.com/pitchlab/pitchlab/internal/shell/store"
	"github.com/pitchlab/pitchlab/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitHTTPServerError = 3
)

// =============================================================================
// Server
// =============================================================================

// Server represents the PitchLab application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	summarizer *workers.Summarizer
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.ResolveSecrets(); err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	// Connect to database
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	// Model clients. Scoring and summaries run on separate models with
	// different temperatures.
	scoringModel := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.ScoringModel,
		Temperature: cfg.LLM.ScoringTemperature,
	})
	summaryModel := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.SummaryModel,
		Temperature: cfg.LLM.SummaryTemperature,
	})
	embedder := llm.NewEmbedder(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.EmbeddingModel)

	// Knowledge base index for grounded feedback
	index := retrieval.NewIndex(s, embedder, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)

	// Scoring engine
	engine := scoring.NewEngine(scoringModel, index, scoring.EngineConfig{
		MaxConcurrent: cfg.Scoring.MaxConcurrent,
		CallTimeout:   cfg.Scoring.CallTimeout,
		RetrievalK:    cfg.Retrieval.SearchK,
	}, logger)

	// Background summary refresher
	summarizer := workers.NewSummarizer(workers.SummarizerConfig{
		Store:     s,
		Model:     summaryModel,
		Interval:  cfg.Summarizer.Interval,
		BatchSize: cfg.Summarizer.BatchSize,
		Logger:    logger,
	})

	// HTTP handler
	handler := api.NewHandler(api.HandlerConfig{
		Store:         s,
		Engine:        engine,
		Ingester:      index,
		Summaries:     summarizer,
		Issuer:        auth.NewTokenIssuer([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL),
		EncryptionKey: crypto.DeriveKey(cfg.Crypto.Passphrase),
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		summarizer: summarizer,
		logger:     logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the summary refresher in background
	if s.config.Summarizer.Enabled {
		go s.summarizer.Start(ctx)
	} else {
		s.logger.Info("summary refresher disabled")
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop the summary refresher
	if s.config.Summarizer.Enabled {
		s.summarizer.Stop()
	}

	// Close database
	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
