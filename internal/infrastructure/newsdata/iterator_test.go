package newsdata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsIngest/internal/config"
	"NewsIngest/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pagedServer answers each request in order from the canned responses and
// records the cursor each request carried.
type pagedServer struct {
	responses []string
	cursors   []string
	requests  int
}

func (s *pagedServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.cursors = append(s.cursors, r.URL.Query().Get("page"))
		idx := s.requests
		s.requests++
		if idx >= len(s.responses) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(s.responses[idx]))
	}
}

func newIterator(t *testing.T, serverURL string, opts IteratorOptions) *PageIterator {
	t.Helper()
	client := NewClient(config.UpstreamConfig{BaseURL: serverURL, APIKey: "k", TimeoutSeconds: 5})
	return NewPageIterator(client, config.QueryConfig{}, opts, discardLogger())
}

func drain(ctx context.Context, it *PageIterator) []domain.Page {
	var pages []domain.Page
	for {
		page, ok := it.Next(ctx)
		if !ok {
			return pages
		}
		pages = append(pages, page)
	}
}

func TestIteratorRespectsPageBudget(t *testing.T) {
	t.Parallel()

	backend := &pagedServer{responses: []string{
		`{"status":"success","results":[{"title":"a"}],"nextPage":"p2"}`,
		`{"status":"success","results":[{"title":"b"}],"nextPage":"p3"}`,
		`{"status":"success","results":[{"title":"c"}],"nextPage":"p4"}`,
	}}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	it := newIterator(t, server.URL, IteratorOptions{Budget: 2})
	pages := drain(context.Background(), it)

	assert.Len(t, pages, 2)
	assert.Equal(t, 2, backend.requests, "budget=2 must issue exactly 2 requests")

	// The sequence stays ended.
	_, ok := it.Next(context.Background())
	assert.False(t, ok)
}

func TestIteratorUnboundedStopsOnMissingCursor(t *testing.T) {
	t.Parallel()

	backend := &pagedServer{responses: []string{
		`{"status":"success","results":[{"title":"a"}],"nextPage":"p2"}`,
		`{"status":"success","results":[{"title":"b"}]}`,
	}}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	it := newIterator(t, server.URL, IteratorOptions{FetchAll: true})
	pages := drain(context.Background(), it)

	// The last page is delivered before the sequence ends.
	require.Len(t, pages, 2)
	assert.Equal(t, "b", pages[1].Articles[0]["title"])
	assert.Equal(t, 2, backend.requests)
	assert.Equal(t, []string{"", "p2"}, backend.cursors)
}

func TestIteratorStopsOnTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	it := newIterator(t, server.URL, IteratorOptions{Budget: 5})
	pages := drain(context.Background(), it)

	assert.Empty(t, pages)
}

func TestIteratorStopsOnUpstreamHTTPError(t *testing.T) {
	t.Parallel()

	backend := &pagedServer{responses: []string{
		`{"status":"success","results":[{"title":"a"}],"nextPage":"p2"}`,
	}}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	// Second request hits the canned 500; the first page is preserved.
	it := newIterator(t, server.URL, IteratorOptions{Budget: 5})
	pages := drain(context.Background(), it)

	require.Len(t, pages, 1)
	assert.Equal(t, "a", pages[0].Articles[0]["title"])
}

func TestIteratorRetainPolicyReusesCursorAfterFailedPage(t *testing.T) {
	t.Parallel()

	backend := &pagedServer{responses: []string{
		`{"status":"success","results":[{"title":"a"},{"title":"b"}],"nextPage":"a"}`,
		`{"status":"error","results":{"message":"temporary"}}`,
		`{"status":"success","results":[{"title":"c"}]}`,
	}}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	it := newIterator(t, server.URL, IteratorOptions{FetchAll: true, Policy: config.FailureRetain})
	pages := drain(context.Background(), it)

	require.Len(t, pages, 3)
	assert.False(t, pages[1].OK())
	assert.True(t, pages[2].OK())
	// The failed page did not advance the cursor.
	assert.Equal(t, []string{"", "a", "a"}, backend.cursors)
}

func TestIteratorHaltPolicyEndsAfterFailedPage(t *testing.T) {
	t.Parallel()

	backend := &pagedServer{responses: []string{
		`{"status":"error","results":{"message":"nope"}}`,
		`{"status":"success","results":[{"title":"never"}]}`,
	}}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	it := newIterator(t, server.URL, IteratorOptions{FetchAll: true, Policy: config.FailureHalt})
	pages := drain(context.Background(), it)

	// The failed page is still yielded, then the sequence ends.
	require.Len(t, pages, 1)
	assert.False(t, pages[0].OK())
	assert.Equal(t, 1, backend.requests)
}

func TestIteratorRetainPolicyCapsConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var responses []string
	for i := 0; i < 10; i++ {
		responses = append(responses, `{"status":"error","results":{"message":"still broken"}}`)
	}
	backend := &pagedServer{responses: responses}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	it := newIterator(t, server.URL, IteratorOptions{FetchAll: true, Policy: config.FailureRetain})
	pages := drain(context.Background(), it)

	assert.Len(t, pages, maxConsecutiveFailures)
	assert.Equal(t, maxConsecutiveFailures, backend.requests)
}

func TestIteratorToleratesNilLogger(t *testing.T) {
	t.Parallel()

	backend := &pagedServer{responses: []string{
		`{"status":"success","results":[{"title":"a"}]}`,
	}}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	client := NewClient(config.UpstreamConfig{BaseURL: server.URL, APIKey: "k", TimeoutSeconds: 5})
	it := NewPageIterator(client, config.QueryConfig{}, IteratorOptions{FetchAll: true}, nil)

	pages := drain(context.Background(), it)
	require.Len(t, pages, 1)
}

func TestIteratorHonorsCancellationAtPageBoundary(t *testing.T) {
	t.Parallel()

	backend := &pagedServer{responses: []string{
		fmt.Sprintf(`{"status":"success","results":[{"title":"a"}],"nextPage":%q}`, "p2"),
		`{"status":"success","results":[{"title":"b"}],"nextPage":"p3"}`,
	}}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	it := newIterator(t, server.URL, IteratorOptions{FetchAll: true})

	_, ok := it.Next(ctx)
	require.True(t, ok)

	cancel()
	_, ok = it.Next(ctx)
	assert.False(t, ok)
	assert.Equal(t, 1, backend.requests, "no request may be issued after cancellation")
}
