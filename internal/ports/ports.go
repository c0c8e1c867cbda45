package ports

import (
	"context"

	"NewsIngest/internal/domain"
)

// PageSource walks the upstream result set one page at a time. A source is
// single-use: cursor state is consumed as pages are pulled, and the sequence
// ends permanently once Next reports false.
type PageSource interface {
	Next(ctx context.Context) (domain.Page, bool)
}

// CountryResolver maps a free-text country name to an ISO 3166-1 alpha-2
// code. A miss is reported through ok, never through an error.
type CountryResolver interface {
	Resolve(name string) (code string, ok bool)
}

// ArticleTransformer turns one raw upstream record into a sink-ready
// document. Implementations must be total: any well-formed-enough input
// produces a document, never a panic.
type ArticleTransformer interface {
	Transform(raw domain.RawArticle) domain.EnrichedArticle
}

// DocumentSink durably stores one transformed document into the named
// collection (index, table, or topic depending on the backend).
type DocumentSink interface {
	Store(ctx context.Context, collection string, doc domain.EnrichedArticle) error
}

// ContentFetcher retrieves the full body text behind an article link.
type ContentFetcher interface {
	FetchBody(ctx context.Context, link string) (string, error)
}

// ProgressReporter observes page completion. A negative totalPages means the
// run is unbounded and the total is unknown.
type ProgressReporter interface {
	PageDone(completed, totalPages int)
	Finish()
}
