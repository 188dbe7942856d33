package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"LinkedLens/internal/config"
	"LinkedLens/internal/domain"
	"LinkedLens/internal/infrastructure/annotator"
	"LinkedLens/internal/infrastructure/dom"
	"LinkedLens/internal/infrastructure/httpapi"
	"LinkedLens/internal/infrastructure/llm"
	"LinkedLens/internal/infrastructure/metrics"
	"LinkedLens/internal/infrastructure/parser"
	"LinkedLens/internal/infrastructure/scheduler"
	"LinkedLens/internal/infrastructure/storage"
	"LinkedLens/internal/logging"
	"LinkedLens/internal/ports"
	"LinkedLens/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	page       *dom.Page
	closeStore func() error
	settings   *usecase.Settings
	pipeline   *usecase.Pipeline
	router     *usecase.Router
	scheduler  *usecase.Scheduler
	server     *httpapi.Server
}

// New builds the application: loads the page, opens the settings store,
// seeds it from configuration and hydrates the pipeline state.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	page := dom.NewPage()
	if cfg.Page.Path != "" {
		if err := dom.LoadFile(page, cfg.Page.Path); err != nil {
			return nil, err
		}
	}

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	settings := usecase.NewSettings(store)
	if err := settings.SeedDefaults(ctx, seedValues(cfg.Providers)); err != nil {
		_ = closeStore()
		return nil, err
	}

	recorder := metrics.NewRecorder()
	params := llm.GenerationParams{Temperature: cfg.Classifier.Temperature, MaxTokens: cfg.Classifier.MaxTokens}

	registry := llm.NewRegistry(cfg.Providers.Default)
	registry.Register(domain.ProviderGemini, func(s domain.ProviderSettings) llm.Provider {
		return llm.NewGeminiProvider(cfg.Providers.Gemini.Endpoint, s.GeminiAPIKey, params)
	})
	registry.Register(domain.ProviderOpenRouter, func(s domain.ProviderSettings) llm.Provider {
		return llm.NewOpenRouterProvider(cfg.Providers.OpenRouter.Endpoint, s.OpenRouterAPIKey, s.OpenRouterModel, params)
	})

	llmLogger := logging.Component(baseLogger, "llm")
	classifier := llm.NewClient(settings, registry,
		llm.WithRetrier(llm.NewRetrier(llm.RetryConfig{
			MaxRetries: cfg.Classifier.MaxRetries,
			Delay:      cfg.Classifier.RetryDelay,
		}, llmLogger)),
		llm.WithMetrics(recorder),
		llm.WithLogger(llmLogger),
	)

	extractor := parser.NewFeedExtractor(page, parser.Locators{
		Posts:   cfg.Extractor.PostLocators,
		Text:    cfg.Extractor.TextLocators,
		Authors: cfg.Extractor.AuthorLocators,
	}, logging.Component(baseLogger, "extractor"), parser.WithLimits(cfg.Extractor.MaxPosts, cfg.Extractor.MaxTextLength))

	ann := annotator.New(page, logging.Component(baseLogger, "annotator"))

	state := usecase.NewState()
	toggles, err := settings.Toggles(ctx)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	state.Hydrate(toggles)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Extractor:  extractor,
		Classifier: classifier,
		Annotator:  ann,
		Metrics:    recorder,
		State:      state,
		Logger:     logging.Component(baseLogger, "pipeline"),
	})
	router := usecase.NewRouter(pipeline, ann, logging.Component(baseLogger, "router"))

	server := httpapi.NewServer(cfg.Server.Addr, httpapi.Deps{
		Router:   router,
		Settings: settings,
		Page:     page,
		Metrics:  recorder.Handler(),
		Logger:   logging.Component(baseLogger, "http"),
	})

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		page:       page,
		closeStore: closeStore,
		settings:   settings,
		pipeline:   pipeline,
		router:     router,
		scheduler:  usecase.NewScheduler(scheduler.NewDelayScheduler(cfg.Analysis.StartupDelay, cfg.Analysis.Interval), pipeline),
		server:     server,
	}, nil
}

// Serve runs the scheduled analysis, the page watcher and the control surface until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if a.cfg.Page.Watch && a.cfg.Page.Path != "" {
		watcher, err := dom.NewWatcher(a.cfg.Page.Path, a.page, a.cfg.Page.Debounce, func(ctx context.Context) {
			a.pipeline.Analyze(ctx)
		}, logging.Component(a.logger, "watcher"))
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.server.ListenAndServe() }()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down")
	return errors.Join(
		serveErr,
		a.server.Shutdown(shutdownCtx),
		a.scheduler.Stop(shutdownCtx),
	)
}

// AnalyzeOnce runs a single analysis and returns the resulting state.
func (a *Application) AnalyzeOnce(ctx context.Context) (usecase.Outcome, usecase.Snapshot) {
	outcome := a.pipeline.Analyze(ctx)
	return outcome, a.pipeline.State().Snapshot()
}

// Page returns the annotated page.
func (a *Application) Page() *dom.Page {
	return a.page
}

// Router returns the control message router.
func (a *Application) Router() *usecase.Router {
	return a.router
}

// Close releases the settings store.
func (a *Application) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

func openStore(ctx context.Context, cfg config.StorageConfig) (ports.SettingsStore, func() error, error) {
	if cfg.Driver == "memory" {
		return storage.NewMemoryStore(), func() error { return nil }, nil
	}
	repo, err := storage.OpenSQL(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open settings store: %w", err)
	}
	return repo, repo.Close, nil
}

func seedValues(p config.ProvidersConfig) map[string]string {
	return map[string]string{
		domain.SettingProvider:         p.Default,
		domain.SettingGeminiAPIKey:     p.Gemini.APIKey,
		domain.SettingOpenRouterAPIKey: p.OpenRouter.APIKey,
		domain.SettingOpenRouterModel:  p.OpenRouter.Model,
	}
}
