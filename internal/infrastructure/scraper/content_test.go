package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBodyJoinsParagraphs(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<html><body>
		  <article>
		    <p>First paragraph.</p>
		    <p>  </p>
		    <p>Second paragraph.</p>
		  </article>
		</body></html>`))
	}))
	defer server.Close()

	fetcher := NewContentFetcher(server.Client())

	body, err := fetcher.FetchBody(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", body)
}

func TestFetchBodyNonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewContentFetcher(server.Client())

	_, err := fetcher.FetchBody(context.Background(), server.URL)
	assert.Error(t, err)
}
