package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"NewsIngest/internal/domain"
	"NewsIngest/internal/ports"
)

// Sink appends documents as JSONB rows; the collection name is the target
// table. Schema management of the table itself is out of scope.
type Sink struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ ports.DocumentSink = (*Sink)(nil)

// NewSink wires an already-connected sql.DB.
func NewSink(db *sql.DB, logger *slog.Logger) *Sink {
	return &Sink{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:  logger,
	}
}

// Store inserts one document. Failures are logged with the table name and
// returned; the caller treats them as non-fatal.
func (s *Sink) Store(ctx context.Context, collection string, doc domain.EnrichedArticle) error {
	if s.db == nil {
		return fmt.Errorf("postgres sink is not connected")
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("marshal document", "table", collection, "error", err)
		return fmt.Errorf("marshal document: %w", err)
	}

	query, args, err := s.insertStatement(collection, payload)
	if err != nil {
		s.logger.Error("build insert", "table", collection, "error", err)
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error("failed to store document", "table", collection, "error", err)
		return fmt.Errorf("insert document into %q: %w", collection, err)
	}

	return nil
}

func (s *Sink) insertStatement(collection string, payload []byte) (string, []interface{}, error) {
	// Bound as string: pq encodes []byte as bytea, which Postgres will not
	// coerce to the jsonb column.
	return s.builder.
		Insert(pq.QuoteIdentifier(collection)).
		Columns("id", "document", "ingested_at").
		Values(uuid.NewString(), string(payload), sq.Expr("NOW()")).
		ToSql()
}
