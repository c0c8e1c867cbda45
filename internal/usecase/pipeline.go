package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsIngest/internal/domain"
	"NewsIngest/internal/ports"
	"NewsIngest/internal/transform"
)

// PipelineConfig holds the run-scoped settings the orchestration needs.
type PipelineConfig struct {
	Collection string
	// TotalPages is the page budget, or a negative value when unbounded.
	TotalPages           int
	ScrapeMissingContent bool
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.PageSource
	Transformer ports.ArticleTransformer
	Sink        ports.DocumentSink
	Content     ports.ContentFetcher
	Progress    ports.ProgressReporter
	Logger      *slog.Logger
}

// Pipeline implements the fetch-transform-store workflow for one run.
// Recoverable conditions (failed page, empty page, single store failure,
// single unparseable date) are logged and skipped; only the page source's
// own termination ends the run.
type Pipeline struct {
	cfg         PipelineConfig
	source      ports.PageSource
	transformer ports.ArticleTransformer
	sink        ports.DocumentSink
	content     ports.ContentFetcher
	progress    ports.ProgressReporter
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(cfg PipelineConfig, deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{
		cfg:         cfg,
		source:      deps.Source,
		transformer: deps.Transformer,
		sink:        deps.Sink,
		content:     deps.Content,
		progress:    deps.Progress,
		logger:      deps.Logger,
	}
}

// Run pulls, transforms, and stores pages strictly sequentially and returns
// the accumulated run statistics. It never propagates an error for a
// recoverable condition.
func (p *Pipeline) Run(ctx context.Context) domain.RunStats {
	var stats domain.RunStats
	if p.source == nil || p.transformer == nil || p.sink == nil {
		return stats
	}

	p.info("starting news ingestion run", "collection", p.cfg.Collection)

	for {
		page, ok := p.source.Next(ctx)
		if !ok {
			break
		}
		stats.PagesFetched++

		if !page.OK() {
			p.logger.Error("page reported failure, skipping",
				"status", page.Status, "message", page.Message)
			stats.PagesSkipped++
			p.pageDone(stats.PagesFetched)
			continue
		}

		if len(page.Articles) == 0 {
			p.info("received a successful page with 0 articles")
			p.pageDone(stats.PagesFetched)
			continue
		}

		for _, raw := range page.Articles {
			doc := p.transformer.Transform(raw)
			p.fillMissingContent(ctx, doc)

			if err := p.sink.Store(ctx, p.cfg.Collection, doc); err != nil {
				p.logger.Error("document lost",
					"collection", p.cfg.Collection, "error", err)
			}

			stats.ArticlesProcessed++
			p.trackEarliest(&stats, doc)
		}

		p.pageDone(stats.PagesFetched)
	}

	if p.progress != nil {
		p.progress.Finish()
	}

	p.info("news ingestion run finished",
		"articles_processed", stats.ArticlesProcessed,
		"pages_fetched", stats.PagesFetched,
		"earliest_pub_date", earliestLabel(stats))

	return stats
}

// trackEarliest updates earliest-date tracking from the document's pubDate.
// A parse failure only excludes this article from the minimum; the article
// stays counted as processed.
func (p *Pipeline) trackEarliest(stats *domain.RunStats, doc domain.EnrichedArticle) {
	pubDate, _ := doc["pubDate"].(string)
	if pubDate == "" {
		return
	}

	parsed, err := time.Parse(transform.TimestampLayout, pubDate)
	if err != nil {
		p.logger.Warn("unparseable pubDate, excluded from earliest tracking",
			"pubDate", pubDate)
		return
	}

	stats.ObservePubDate(parsed)
}

func (p *Pipeline) fillMissingContent(ctx context.Context, doc domain.EnrichedArticle) {
	if !p.cfg.ScrapeMissingContent || p.content == nil {
		return
	}
	if existing, _ := doc["content"].(string); existing != "" {
		return
	}
	link, _ := doc["link"].(string)
	if link == "" {
		return
	}

	body, err := p.content.FetchBody(ctx, link)
	if err != nil {
		p.logger.Warn("could not scrape article content", "link", link, "error", err)
		return
	}
	if body != "" {
		doc["content"] = body
	}
}

func (p *Pipeline) pageDone(completed int) {
	if p.progress != nil {
		p.progress.PageDone(completed, p.cfg.TotalPages)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	p.logger.Info(msg, args...)
}

func earliestLabel(stats domain.RunStats) string {
	if stats.EarliestPubDate.IsZero() {
		return "none found"
	}
	return stats.EarliestPubDate.Format(transform.TimestampLayout)
}
