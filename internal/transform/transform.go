package transform

import (
	"math"
	"time"

	"NewsIngest/internal/domain"
	"NewsIngest/internal/ports"
)

// TimestampLayout is the fixed layout for both the ingestion timestamp and
// the upstream pubDate field.
const TimestampLayout = "2006-01-02 15:04:05"

var sentimentCategories = []string{"positive", "negative", "neutral"}

// Transformer enriches raw upstream records into sink-ready documents.
type Transformer struct {
	resolver ports.CountryResolver
	now      func() time.Time
}

var _ ports.ArticleTransformer = (*Transformer)(nil)

// NewTransformer wires the country resolver; the clock defaults to time.Now.
func NewTransformer(resolver ports.CountryResolver) *Transformer {
	return &Transformer{resolver: resolver, now: time.Now}
}

// Transform is a total pure function over the raw record: absent fields stay
// absent, nothing raises. It stamps the ingestion time, resolves the first
// country entry to an ISO code, flattens sentiment sub-scores when the label
// is recognized, and always drops the nested sentiment_stats object. Every
// other upstream field passes through untouched.
func (t *Transformer) Transform(raw domain.RawArticle) domain.EnrichedArticle {
	enriched := make(domain.EnrichedArticle, len(raw)+4)
	for k, v := range raw {
		enriched[k] = v
	}

	enriched["dateandtime"] = t.now().UTC().Truncate(time.Second).Format(TimestampLayout)

	countryName := firstCountry(raw["country"])
	if countryName != "" {
		enriched["country"] = countryName
		if t.resolver != nil {
			if code, ok := t.resolver.Resolve(countryName); ok {
				enriched["country_code"] = code
			}
		}
	} else {
		delete(enriched, "country")
	}

	label, _ := raw["sentiment"].(string)
	stats, _ := raw["sentiment_stats"].(map[string]any)
	if stats != nil && recognizedSentiment(label) {
		for _, key := range sentimentCategories {
			enriched["sentiment_score_"+key] = round4(numeric(stats[key]))
		}
	}
	delete(enriched, "sentiment_stats")

	return enriched
}

func recognizedSentiment(label string) bool {
	for _, known := range sentimentCategories {
		if label == known {
			return true
		}
	}
	return false
}

// firstCountry extracts the first country entry, tolerating the list shape
// upstream usually sends as well as a bare string.
func firstCountry(v any) string {
	switch value := v.(type) {
	case []any:
		if len(value) == 0 {
			return ""
		}
		name, _ := value[0].(string)
		return name
	case []string:
		if len(value) == 0 {
			return ""
		}
		return value[0]
	case string:
		return value
	default:
		return ""
	}
}

func numeric(v any) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int64:
		return float64(value)
	default:
		return 0.0
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
