package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"NewsIngest/internal/config"
	"NewsIngest/internal/countries"
	"NewsIngest/internal/infrastructure/elastic"
	"NewsIngest/internal/infrastructure/kafkasink"
	"NewsIngest/internal/infrastructure/newsdata"
	"NewsIngest/internal/infrastructure/postgres"
	"NewsIngest/internal/infrastructure/progress"
	"NewsIngest/internal/infrastructure/scraper"
	"NewsIngest/internal/logging"
	"NewsIngest/internal/ports"
	"NewsIngest/internal/transform"
	"NewsIngest/internal/usecase"
)

// Application wires config to the ingestion pipeline and its adapters.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
	closers  []func()
}

// New builds a runnable application. Sink connections are established here,
// once, before any fetching: a failure is fatal to starting the run.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	budget, fetchAll, err := cfg.Run.PageBudget()
	if err != nil {
		return nil, err
	}

	app := &Application{cfg: cfg, logger: baseLogger}

	sink, err := app.buildSink(ctx, baseLogger)
	if err != nil {
		return nil, err
	}

	client := newsdata.NewClient(cfg.Upstream)
	source := newsdata.NewPageIterator(client, cfg.Query, newsdata.IteratorOptions{
		Budget:   budget,
		FetchAll: fetchAll,
		Policy:   cfg.Run.PageFailurePolicy,
	}, baseLogger.With("component", "fetcher"))

	resolver := countries.NewResolver(baseLogger.With("component", "countries"))

	totalPages := budget
	if fetchAll {
		totalPages = -1
	}

	var content ports.ContentFetcher
	if cfg.Run.ScrapeMissingContent {
		content = scraper.NewContentFetcher(nil)
	}

	app.pipeline = usecase.NewPipeline(
		usecase.PipelineConfig{
			Collection:           cfg.Sink.Collection,
			TotalPages:           totalPages,
			ScrapeMissingContent: cfg.Run.ScrapeMissingContent,
		},
		usecase.PipelineDeps{
			Source:      source,
			Transformer: transform.NewTransformer(resolver),
			Sink:        sink,
			Content:     content,
			Progress:    progress.NewBarReporter(totalPages),
			Logger:      baseLogger.With("component", "pipeline"),
		},
	)

	return app, nil
}

// Run executes one ingestion run to completion.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}
	a.pipeline.Run(ctx)
	return nil
}

// Close releases sink connections.
func (a *Application) Close() {
	for _, closeFn := range a.closers {
		closeFn()
	}
}

func (a *Application) buildSink(ctx context.Context, logger *slog.Logger) (ports.DocumentSink, error) {
	switch a.cfg.Sink.Kind {
	case config.SinkElastic:
		sink, err := elastic.NewSink(a.cfg.Sink.Elastic, logger.With("component", "sink.elastic"))
		if err != nil {
			return nil, fmt.Errorf("elastic sink: %w", err)
		}
		return sink, nil

	case config.SinkPostgres:
		db, err := sql.Open("postgres", a.cfg.Sink.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		return postgres.NewSink(db, logger.With("component", "sink.postgres")), nil

	case config.SinkKafka:
		sink, err := kafkasink.NewSink(a.cfg.Sink.Kafka.Broker, logger.With("component", "sink.kafka"))
		if err != nil {
			return nil, fmt.Errorf("kafka sink: %w", err)
		}
		a.closers = append(a.closers, sink.Close)
		return sink, nil

	default:
		return nil, fmt.Errorf("unknown sink kind %q", a.cfg.Sink.Kind)
	}
}
