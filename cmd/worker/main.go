package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/bootstrap"
	"github.com/kirillkom/shelf-inspector/internal/config"
	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/observability/logging"
	"github.com/kirillkom/shelf-inspector/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.LoadWithDotEnv()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:    serviceName,
		Registerer: workerMetrics.Registerer(),
		WithQueue:  true,
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubmitSubject)
	err = app.Queue.SubscribeImageSubmitted(ctx, func(handlerCtx context.Context, submission domain.Submission) error {
		if !submission.CreatedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(submission.CreatedAt))
		}
		workerMetrics.StartSubmission()
		start := time.Now()
		err := app.ProcessUC.Process(handlerCtx, submission)
		workerMetrics.FinishSubmission(serviceName, time.Since(start), err)
		return err
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
	}
}
