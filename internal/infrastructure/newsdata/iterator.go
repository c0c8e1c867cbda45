package newsdata

import (
	"context"
	"log/slog"

	"NewsIngest/internal/config"
	"NewsIngest/internal/domain"
	"NewsIngest/internal/ports"
)

// maxConsecutiveFailures caps the retain policy so an unbounded run cannot
// spin on a cursor the upstream rejects forever.
const maxConsecutiveFailures = 3

// IteratorOptions carries the run-control knobs for one cursor walk.
type IteratorOptions struct {
	Budget   int
	FetchAll bool
	// Policy decides what happens after a page whose status reports
	// failure: config.FailureRetain reuses the last cursor and keeps
	// fetching, config.FailureHalt ends the sequence.
	Policy string
}

// PageIterator walks the upstream result set with an opaque cursor. It is
// single-use: once Next reports false the sequence has ended for good.
// Errors never escape the sequence boundary; they are logged and turn into
// termination so pages already yielded stay ingested.
type PageIterator struct {
	client  *Client
	query   config.QueryConfig
	opts    IteratorOptions
	logger  *slog.Logger
	cursor  string
	fetched int
	failed  int
	done    bool
}

var _ ports.PageSource = (*PageIterator)(nil)

// NewPageIterator starts a fresh cursor walk from the first page.
func NewPageIterator(client *Client, query config.QueryConfig, opts IteratorOptions, logger *slog.Logger) *PageIterator {
	if opts.Policy == "" {
		opts.Policy = config.FailureRetain
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PageIterator{client: client, query: query, opts: opts, logger: logger}
}

// Next fetches and returns the next page. Stop conditions are checked before
// issuing a request; the last page is always delivered before the sequence
// ends.
func (it *PageIterator) Next(ctx context.Context) (domain.Page, bool) {
	if it.done {
		return domain.Page{}, false
	}

	if err := ctx.Err(); err != nil {
		it.logger.Info("run cancelled, stopping before next page", "error", err)
		it.done = true
		return domain.Page{}, false
	}

	if !it.opts.FetchAll && it.fetched >= it.opts.Budget {
		it.logger.Info("reached specified page limit", "pages", it.opts.Budget)
		it.done = true
		return domain.Page{}, false
	}

	page, err := it.client.Search(ctx, it.query, it.cursor)
	if err != nil {
		it.logger.Error("page fetch failed, ending run", "error", err)
		it.done = true
		return domain.Page{}, false
	}
	it.fetched++

	if !page.OK() {
		it.failed++
		if it.opts.Policy == config.FailureHalt {
			it.logger.Error("page reported failure, halting per policy", "message", page.Message)
			it.done = true
		} else if it.failed >= maxConsecutiveFailures {
			it.logger.Error("too many consecutive failed pages, ending run", "failures", it.failed)
			it.done = true
		}
		// Cursor stays where it was: an application-level failure is
		// not a cursor advance.
		return page, true
	}

	it.failed = 0
	it.cursor = page.NextCursor
	if page.NextCursor == "" {
		it.logger.Info("no more pages to fetch from the API")
		it.done = true
	}

	return page, true
}
