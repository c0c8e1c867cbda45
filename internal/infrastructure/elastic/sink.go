package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"NewsIngest/internal/config"
	"NewsIngest/internal/domain"
	"NewsIngest/internal/ports"
)

// Sink indexes documents into Elasticsearch one at a time.
type Sink struct {
	client *elasticsearch.Client
	logger *slog.Logger
}

var _ ports.DocumentSink = (*Sink)(nil)

// NewSink connects to Elastic Cloud and verifies the connection with an Info
// call. A connect or auth failure here is fatal to starting the run.
func NewSink(cfg config.ElasticConfig, logger *slog.Logger) (*Sink, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		CloudID:       cfg.CloudID,
		Username:      "elastic",
		Password:      cfg.Password,
		RetryOnStatus: []int{429, 502, 503, 504},
		MaxRetries:    3,
	})
	if err != nil {
		return nil, fmt.Errorf("new elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}

	logger.Info("connected to elasticsearch")
	return &Sink{client: client, logger: logger}, nil
}

// Store indexes a single document. Failures are logged with the index name
// and returned; the caller treats them as non-fatal.
func (s *Sink) Store(ctx context.Context, collection string, doc domain.EnrichedArticle) error {
	body, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("marshal document", "index", collection, "error", err)
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := s.client.Index(collection, bytes.NewReader(body),
		s.client.Index.WithDocumentID(uuid.NewString()),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		s.logger.Error("failed to index document", "index", collection, "error", err)
		return fmt.Errorf("index document into %q: %w", collection, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Error("failed to index document", "index", collection, "status", res.Status())
		return fmt.Errorf("index document into %q: %s", collection, res.Status())
	}

	return nil
}
