package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/shelf-inspector/internal/adapters/mcp"
	"github.com/kirillkom/shelf-inspector/internal/bootstrap"
	"github.com/kirillkom/shelf-inspector/internal/config"
	"github.com/kirillkom/shelf-inspector/internal/observability/logging"
)

const serviceName = "mcp"

func main() {
	cfg := config.LoadWithDotEnv()
	// stdout carries the protocol, so logs go to stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: serviceName})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := server.ServeStdio(mcpadapter.NewServer(app.AnalyzeUC)); err != nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
