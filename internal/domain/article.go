package domain

import "time"

// RawArticle is a single upstream record. The upstream API controls its
// shape, so every field access must tolerate absence or a wrong type.
type RawArticle map[string]any

// EnrichedArticle is a transformed record ready to be handed to a sink.
type EnrichedArticle map[string]any

// Page is one upstream response unit: zero or more articles plus an optional
// continuation cursor. An empty NextCursor signals exhaustion.
type Page struct {
	Status     string
	Articles   []RawArticle
	NextCursor string
	Message    string
}

// OK reports whether the upstream accepted the request at the application
// level. A false result still allows the run to continue on later pages.
func (p Page) OK() bool {
	return p.Status == "success"
}

// RunStats accumulates counters for one ingestion run. The pipeline owns it
// exclusively; no other component mutates it.
type RunStats struct {
	ArticlesProcessed int
	PagesFetched      int
	PagesSkipped      int
	EarliestPubDate   time.Time
}

// ObservePubDate updates earliest-publish tracking with one article's date.
func (s *RunStats) ObservePubDate(t time.Time) {
	if s.EarliestPubDate.IsZero() || t.Before(s.EarliestPubDate) {
		s.EarliestPubDate = t
	}
}
