package countries

import (
	"log/slog"
	"strings"

	"github.com/pariz/gountries"

	"NewsIngest/internal/ports"
)

// fallbacks covers names the general lookup handles inconsistently or not at
// all (historical or colloquial forms). Checked before gountries.
var fallbacks = map[string]string{
	"brunei":      "BN",
	"cape verde":  "CV",
	"dr congo":    "CD",
	"ivory coast": "CI",
	"kosovo":      "XK",
	"macau":       "MO",
	"macedonia":   "MK",
	"micronesia":  "FM",
	"russia":      "RU",
	"turkey":      "TR",
	"vatican":     "VA",
}

// Resolver maps free-text country names to ISO 3166-1 alpha-2 codes.
type Resolver struct {
	query  *gountries.Query
	logger *slog.Logger
}

var _ ports.CountryResolver = (*Resolver)(nil)

// NewResolver loads the embedded country dataset once.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{query: gountries.New(), logger: logger}
}

// Resolve returns the alpha-2 code for a country name, or ok=false when no
// match exists. A miss must never abort ingestion of the article.
func (r *Resolver) Resolve(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}

	if code, ok := fallbacks[name]; ok {
		return code, true
	}

	country, err := r.query.FindCountryByName(name)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("could not resolve country code", "country", name)
		}
		return "", false
	}

	return country.Alpha2, true
}
