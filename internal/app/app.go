package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/common"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/pipeline"
	"github.com/ternarybob/marketlens/internal/services/events"
	"github.com/ternarybob/marketlens/internal/services/export"
	"github.com/ternarybob/marketlens/internal/services/llm"
	"github.com/ternarybob/marketlens/internal/services/producers"
	"github.com/ternarybob/marketlens/internal/services/runs"
	"github.com/ternarybob/marketlens/internal/services/search"
	"github.com/ternarybob/marketlens/internal/storage/badger"
)

const (
	defaultProducerTimeout = 3 * time.Minute
	defaultCoreTimeout     = 5 * time.Minute
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB         *badger.BadgerDB
	RunStorage interfaces.RunStorage

	// Event-driven services
	EventService interfaces.EventService

	// Providers
	LLMFactory    *llm.ProviderFactory
	SearchService interfaces.SearchService

	// Pipeline
	Orchestrator *pipeline.Orchestrator

	// Application services
	RunService    *runs.Service
	ExportService *export.Service
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.EventService = events.NewService(app.Logger)
	if err := events.SubscribeLoggerToAllEvents(app.EventService, app.Logger); err != nil {
		return nil, fmt.Errorf("failed to subscribe event logger: %w", err)
	}

	app.initServices()

	logger.Debug().
		Str("search_mode", cfg.Search.Mode).
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Int("max_concurrency", cfg.Pipeline.MaxConcurrency).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db
	a.RunStorage = badger.NewRunStorage(db, a.Logger)
	return nil
}

// initServices wires providers, pipeline phases and application services
func (a *App) initServices() {
	cfg := a.Config

	a.LLMFactory = llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, a.Logger)
	a.SearchService = search.NewSearchService(a.LLMFactory, &cfg.Search, a.Logger)

	producerTimeout := common.ParseDuration(cfg.Pipeline.ProducerTimeout, defaultProducerTimeout)
	coreTimeout := common.ParseDuration(cfg.Pipeline.CoreTimeout, defaultCoreTimeout)
	executor := pipeline.NewPhaseExecutor(a.Logger, producerTimeout, cfg.Pipeline.MaxConcurrency)

	catalog := producers.NewCatalog(a.LLMFactory, &cfg.Producers, a.Logger)

	a.Orchestrator = pipeline.NewOrchestrator(
		pipeline.NewResearcher(a.SearchService, executor, a.Logger, cfg.Pipeline.ResearchYear),
		pipeline.NewDispatcher(catalog.Core(), coreTimeout, a.Logger),
		pipeline.NewEnricher(catalog.Enrichments(), executor, a.Logger),
		a.Logger,
	)

	a.RunService = runs.NewService(a.Orchestrator, a.RunStorage, a.EventService, a.Logger)
	a.ExportService = export.NewService(a.Logger)
}

// Close closes all application resources
func (a *App) Close() error {
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.LLMFactory != nil {
		if err := a.LLMFactory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM providers")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Debug().Msg("Storage closed")
	}

	return nil
}
