package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seamless-agent/console/internal/api"
	"github.com/seamless-agent/console/internal/broker"
	"github.com/seamless-agent/console/internal/config"
	"github.com/seamless-agent/console/internal/models"
	"github.com/seamless-agent/console/internal/review"
	"github.com/seamless-agent/console/internal/store"
	"github.com/seamless-agent/console/internal/tasklist"
	"github.com/seamless-agent/console/internal/tools"
	"github.com/seamless-agent/console/internal/ui"
)

const shutdownReason = "Agent Console is shutting down"

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("SEAMLESS_LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load("")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	interactions := store.NewInteractionStore(db, cfg.MaxHistory)
	taskStore := store.NewTaskListStore(db)

	// Broker and services
	surface := ui.NewLogSurface(logger)
	attachments := broker.NewAttachments(cfg.AttachmentsDir, time.Duration(cfg.CleanupDelaySeconds)*time.Second)
	b := broker.New(surface, interactions, attachments, logger)
	reviews := review.New(interactions, logPanels{logger}, b, logger)
	tasks := tasklist.New(taskStore, b, logger)
	svc := tools.New(b, reviews, tasks, declinePrompter{}, logger)

	// Session token
	token, err := api.LoadOrCreateToken(cfg.TokenPath)
	if err != nil {
		logger.Error("failed to load session token", "error", err)
		os.Exit(1)
	}

	// Loopback listener on an ephemeral port
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		logger.Error("failed to bind loopback listener", "error", err)
		os.Exit(1)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	router := api.NewRouter(svc, port, token, logger)

	// No write timeout: ask_user and plan_review hold the response open
	// until a human acts.
	srv := &http.Server{
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Register the stdio bridge with the host
	if err := api.RegisterMCPServer(cfg.MCPConfigPath, cfg.MCPCommand, port, token); err != nil {
		logger.Warn("mcp registration failed", "path", cfg.MCPConfigPath, "error", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("agent console starting", "port", port)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	// Unblock every waiting agent before the listener closes.
	b.CancelAll(shutdownReason)
	reviews.CancelAll()
	attachments.CleanupAll()
	surface.Post(ui.Clear{})

	if err := api.UnregisterMCPServer(cfg.MCPConfigPath); err != nil {
		logger.Warn("mcp unregistration failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("console stopped")
}

// logPanels stands in for a host review panel: reviews stay pending until
// resolved over the API or cancelled by the agent.
type logPanels struct {
	logger *slog.Logger
}

func (p logPanels) Open(r *models.StoredInteraction) error {
	p.logger.Info("review panel requested", "review_id", r.ID, "mode", r.Mode, "title", r.Title)
	return nil
}

func (p logPanels) CloseIfOpen(reviewID string) {
	p.logger.Debug("review panel dismissed", "review_id", reviewID)
}

// declinePrompter is the headless fallback: with no host input box, an
// unreachable surface resolves as cancelled rather than hanging.
type declinePrompter struct{}

func (declinePrompter) Prompt(ctx context.Context, question string) (string, bool, error) {
	return "", false, nil
}
