package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/shelf-inspector/internal/config"
	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/core/ports"
	"github.com/kirillkom/shelf-inspector/internal/core/usecase"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/catalog"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/llm"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/ocr/tesseract"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/queue/nats"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/resilience"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/shelf-inspector/internal/infrastructure/vision/onnx"
	"github.com/kirillkom/shelf-inspector/internal/observability/metrics"
)

type Options struct {
	// Service labels pipeline metrics.
	Service string
	// Registerer receives pipeline metrics; nil disables them.
	Registerer prometheus.Registerer
	// WithQueue connects NATS and builds the asynchronous submission use cases.
	WithQueue bool
}

type App struct {
	Config  config.Config
	Catalog domain.Catalog

	Queue     *nats.Queue
	AnalyzeUC ports.ImageAnalyzer
	IngestUC  ports.ImageIngestor
	ProcessUC ports.SubmissionProcessor

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	logger := slog.Default()

	app.Catalog, err = loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	if err := onnx.InitEnvironment(cfg.ONNXRuntimeLib); err != nil {
		return nil, err
	}
	app.closers = append(app.closers, onnx.DestroyEnvironment)

	fineTuned, err := app.loadModel("fine-tuned", cfg.FineTunedModelPath, cfg.FineTunedMetadataPath)
	if err != nil {
		return nil, err
	}
	base, err := app.loadModel("base", cfg.BaseModelPath, cfg.BaseMetadataPath)
	if err != nil {
		return nil, err
	}
	freshnessModel, err := app.loadModel("freshness", cfg.FreshnessModelPath, cfg.FreshnessMetadataPath)
	if err != nil {
		return nil, err
	}
	freshness, err := onnx.NewFreshnessClassifier(freshnessModel, app.Catalog.FreshnessLabels)
	if err != nil {
		return nil, fmt.Errorf("init freshness classifier: %w", err)
	}

	llmExecutor := resilience.NewExecutor(resilienceConfig(cfg, cfg.LLMTimeout))

	structurer, closeStructurer, err := llm.NewStructurer(ctx, llm.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		APIKey:   cfg.LLMAPIKey,
		BaseURL:  cfg.LLMBaseURL,
	}, llmExecutor)
	if err != nil {
		return nil, fmt.Errorf("init product structurer: %w", err)
	}
	app.closers = append(app.closers, closeStructurer)

	var observer ports.PipelineObserver
	if opts.Registerer != nil {
		observer = metrics.NewPipelineMetrics(opts.Service, opts.Registerer)
	}

	fineTunedClassifier, err := onnx.NewCatalogClassifier(fineTuned, app.Catalog.FineTunedClasses)
	if err != nil {
		return nil, fmt.Errorf("init fine-tuned classifier: %w", err)
	}

	identifier := usecase.NewObjectIdentifier(
		fineTunedClassifier,
		onnx.NewClassifier(base),
		app.Catalog,
		cfg.InferenceTimeout,
		logger,
	)
	scorer := usecase.NewFreshnessScorer(freshness, app.Catalog.FreshnessLabels, cfg.InferenceTimeout, logger)
	bridge := usecase.NewTextExtractionBridge(
		tesseract.NewEngine(cfg.OCRLanguages...),
		structurer,
		usecase.TextExtractionOptions{
			Preprocess:  cfg.OCRPreprocess,
			JPEGQuality: cfg.JPEGQuality,
			OCRTimeout:  cfg.OCRTimeout,
			LLMTimeout:  cfg.LLMTimeout,
		},
		logger,
	)
	analyzer := usecase.NewAnalyzeImageUseCase(identifier, scorer, bridge, app.Catalog.FreshnessGate, observer, logger)
	app.AnalyzeUC = analyzer

	if !opts.WithQueue {
		return app, nil
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubmitSubject, cfg.NATSResultSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilienceConfig(cfg, cfg.NATSPublishTimeout)),
		HandlerTimeout:     cfg.WorkerHandlerTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	app.Queue = queue
	app.closers = append(app.closers, func() error {
		queue.Close()
		return nil
	})

	app.IngestUC = usecase.NewIngestImageUseCase(storage, queue)
	app.ProcessUC = usecase.NewProcessSubmissionUseCase(storage, analyzer, queue)
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	if a == nil {
		return
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		slog.Error("bootstrap_close_failed", "error", err)
	}
}

func (a *App) loadModel(name, modelPath, metadataPath string) (*onnx.Model, error) {
	meta, err := onnx.LoadMetadata(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("load %s model metadata: %w", name, err)
	}
	model, err := onnx.NewModel(name, modelPath, meta)
	if err != nil {
		return nil, fmt.Errorf("load %s model: %w", name, err)
	}
	a.closers = append(a.closers, func() error {
		model.Close()
		return nil
	})
	return model, nil
}

func loadCatalog(path string) (domain.Catalog, error) {
	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("load default catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return cat, nil
}

// resilienceConfig bounds each attempt by callTimeout; LLM calls and queue
// publishes get separate executors so one timeout never caps the other.
func resilienceConfig(cfg config.Config, callTimeout time.Duration) resilience.Config {
	out := resilience.DefaultConfig()
	out.CallTimeout = callTimeout
	out.RetryMaxAttempts = cfg.RetryMaxAttempts
	out.BreakerEnabled = cfg.BreakerEnabled
	out.BreakerFailureRatio = cfg.BreakerFailureRatio
	out.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	if cfg.BreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.BreakerMinRequests)
	}
	if cfg.BreakerHalfOpenMaxCalls > 0 {
		out.BreakerHalfOpenMaxCalls = uint32(cfg.BreakerHalfOpenMaxCalls)
	}
	return out
}
