package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsIngest/internal/domain"
)

func TestInsertStatement(t *testing.T) {
	t.Parallel()

	sink := NewSink(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	query, args, err := sink.insertStatement("bytesview_news", []byte(`{"title":"x"}`))
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO "bytesview_news" (id,document,ingested_at) VALUES ($1,$2,NOW())`,
		query)
	require.Len(t, args, 2)

	// The document must be bound as a string so the driver sends text, not
	// bytea, into the jsonb column.
	assert.Equal(t, `{"title":"x"}`, args[1])
	assert.IsType(t, "", args[1])
}

func TestStoreWithoutConnectionFails(t *testing.T) {
	t.Parallel()

	sink := NewSink(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := sink.Store(context.Background(), "news", domain.EnrichedArticle{"title": "x"})
	assert.Error(t, err)
}
