package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tsmith4014/ccp-quizbot/internal/api"
	"github.com/tsmith4014/ccp-quizbot/internal/domain/questionbank"
	"github.com/tsmith4014/ccp-quizbot/internal/infrastructure/config"
	"github.com/tsmith4014/ccp-quizbot/internal/service"
	"github.com/tsmith4014/ccp-quizbot/internal/slack"
	"github.com/tsmith4014/ccp-quizbot/internal/store"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ── Dependencies ────────────────────────────────────────────────
	bank, err := questionbank.LoadFile(cfg.QuestionsPath, cfg.QuestionsSection)
	if err != nil {
		logger.Error("failed to load question bank", "path", cfg.QuestionsPath, "error", err)
		os.Exit(1)
	}
	logger.Info("question bank loaded", "questions", bank.Size())

	sessions, err := newSessionStore(cfg)
	if err != nil {
		logger.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	poster := slack.NewPoster(slack.NewClient(cfg.PostTimeout), logger, cfg.PostWorkers, cfg.PostBuffer)
	defer poster.Close()

	quizSvc := service.NewQuizService(bank, sessions, logger)
	handler := api.NewHandler(quizSvc, poster, logger)
	verifier := slack.NewVerifier(cfg.SlackSigningSecret, cfg.MaxRequestAge)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handler, api.VerifySignature(verifier, logger))

	// ── Middleware chain: Logging → Recover → mux ───────────────────
	logged := api.Logging(logger)(api.Recover(logger)(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}

func newSessionStore(cfg *config.Config) (store.Store, error) {
	switch cfg.SessionStore {
	case "file":
		return store.NewFile(cfg.SessionsPath)
	case "sqlite":
		return store.NewSQLite(cfg.SQLitePath)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}
