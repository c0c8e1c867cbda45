package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEWS_INGEST_CONFIG"
	newsAPIKeyEnv     = "NEWS_API_KEY"
	elasticCloudIDEnv = "ELASTIC_CLOUD_ID"
	elasticPassEnv    = "ELASTIC_PASSWORD"
	databaseDSNEnv    = "DATABASE_DSN"
	kafkaBrokerEnv    = "KAFKA_BROKER"

	// FetchAllPages is the page-budget sentinel meaning "fetch until the
	// upstream stops returning a cursor".
	FetchAllPages = "all"
)

// Sink kinds selectable via sink.kind.
const (
	SinkElastic  = "elastic"
	SinkPostgres = "postgres"
	SinkKafka    = "kafka"
)

// Page-failure policies. "retain" keeps the last cursor after a page whose
// status reports failure and keeps fetching; "halt" ends the run on the
// first such page.
const (
	FailureRetain = "retain"
	FailureHalt   = "halt"
)

// Config holds everything one ingestion run needs.
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Sink     SinkConfig     `yaml:"sink"`
	Query    QueryConfig    `yaml:"query"`
	Run      RunConfig      `yaml:"run"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// UpstreamConfig describes the news API endpoint and credentials.
type UpstreamConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// SinkConfig selects and configures the destination datastore.
type SinkConfig struct {
	Kind       string         `yaml:"kind"`
	Collection string         `yaml:"collection"`
	Elastic    ElasticConfig  `yaml:"elastic"`
	Postgres   PostgresConfig `yaml:"postgres"`
	Kafka      KafkaConfig    `yaml:"kafka"`
}

// ElasticConfig carries Elastic Cloud credentials.
type ElasticConfig struct {
	CloudID  string `yaml:"cloudId"`
	Password string `yaml:"password"`
}

// PostgresConfig carries the database connection string.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// KafkaConfig carries the broker address.
type KafkaConfig struct {
	Broker string `yaml:"broker"`
}

// QueryConfig mirrors the upstream filter surface. Empty values are omitted
// from requests so the upstream only sees filters the operator specified.
type QueryConfig struct {
	Query          string   `yaml:"query"`
	QueryInTitle   string   `yaml:"queryInTitle"`
	Countries      []string `yaml:"countries"`
	Categories     []string `yaml:"categories"`
	Languages      []string `yaml:"languages"`
	Domains        []string `yaml:"domains"`
	DomainURLs     []string `yaml:"domainUrls"`
	ExcludeDomains []string `yaml:"excludeDomains"`
	Timeframe      string   `yaml:"timeframe"`
	Timezone       string   `yaml:"timezone"`
	PriorityDomain string   `yaml:"priorityDomain"`
	PageSize       int      `yaml:"pageSize"`
	FullContent    bool     `yaml:"fullContent"`
	Image          bool     `yaml:"image"`
	Video          bool     `yaml:"video"`
}

// RunConfig holds run-control knobs.
type RunConfig struct {
	// Pages is a positive integer or the "all" sentinel.
	Pages                string `yaml:"pages"`
	PageFailurePolicy    string `yaml:"pageFailurePolicy"`
	ScrapeMissingContent bool   `yaml:"scrapeMissingContent"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PageBudget resolves the pages knob into a count plus the unbounded flag.
func (r RunConfig) PageBudget() (budget int, fetchAll bool, err error) {
	raw := strings.TrimSpace(strings.ToLower(r.Pages))
	if raw == FetchAllPages {
		return 0, true, nil
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil || n <= 0 {
		return 0, false, &ValidationError{Field: "run.pages", Message: `must be a positive integer or "all"`}
	}
	return n, false, nil
}

// ValidationError reports a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// Validate enforces the startup-fatal invariants: credentials for the
// selected sink, a sane page budget, and a page size the upstream accepts.
func (c Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return &ValidationError{Field: "upstream.apiKey", Message: "cannot be empty"}
	}

	if _, _, err := c.Run.PageBudget(); err != nil {
		return err
	}

	switch c.Run.PageFailurePolicy {
	case "", FailureRetain, FailureHalt:
	default:
		return &ValidationError{Field: "run.pageFailurePolicy", Message: `must be "retain" or "halt"`}
	}

	if c.Query.PageSize < 1 || c.Query.PageSize > 50 {
		return &ValidationError{Field: "query.pageSize", Message: "must be between 1 and 50"}
	}

	switch c.Sink.Kind {
	case SinkElastic:
		if c.Sink.Elastic.CloudID == "" || c.Sink.Elastic.Password == "" {
			return &ValidationError{Field: "sink.elastic", Message: "cloudId and password are required"}
		}
	case SinkPostgres:
		if c.Sink.Postgres.DSN == "" {
			return &ValidationError{Field: "sink.postgres.dsn", Message: "cannot be empty"}
		}
	case SinkKafka:
		if c.Sink.Kafka.Broker == "" {
			return &ValidationError{Field: "sink.kafka.broker", Message: "cannot be empty"}
		}
	default:
		return &ValidationError{Field: "sink.kind", Message: `must be "elastic", "postgres" or "kafka"`}
	}

	if c.Sink.Collection == "" {
		return &ValidationError{Field: "sink.collection", Message: "cannot be empty"}
	}

	return nil
}

// Load reads YAML configuration (if present) and applies environment
// overrides. Invalid files fall back to defaults; Validate decides whether
// the result is runnable.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Upstream.APIKey = v
	}

	if v := os.Getenv(elasticCloudIDEnv); v != "" {
		c.Sink.Elastic.CloudID = v
	}

	if v := os.Getenv(elasticPassEnv); v != "" {
		c.Sink.Elastic.Password = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Sink.Postgres.DSN = v
	}

	if v := os.Getenv(kafkaBrokerEnv); v != "" {
		c.Sink.Kafka.Broker = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Upstream.BaseURL != "" {
		base.Upstream.BaseURL = override.Upstream.BaseURL
	}
	if override.Upstream.APIKey != "" {
		base.Upstream.APIKey = override.Upstream.APIKey
	}
	if override.Upstream.TimeoutSeconds > 0 {
		base.Upstream.TimeoutSeconds = override.Upstream.TimeoutSeconds
	}

	if override.Sink.Kind != "" {
		base.Sink.Kind = override.Sink.Kind
	}
	if override.Sink.Collection != "" {
		base.Sink.Collection = override.Sink.Collection
	}
	if override.Sink.Elastic.CloudID != "" {
		base.Sink.Elastic.CloudID = override.Sink.Elastic.CloudID
	}
	if override.Sink.Elastic.Password != "" {
		base.Sink.Elastic.Password = override.Sink.Elastic.Password
	}
	if override.Sink.Postgres.DSN != "" {
		base.Sink.Postgres.DSN = override.Sink.Postgres.DSN
	}
	if override.Sink.Kafka.Broker != "" {
		base.Sink.Kafka.Broker = override.Sink.Kafka.Broker
	}

	base.Query = mergeQuery(base.Query, override.Query)

	if override.Run.Pages != "" {
		base.Run.Pages = override.Run.Pages
	}
	if override.Run.PageFailurePolicy != "" {
		base.Run.PageFailurePolicy = override.Run.PageFailurePolicy
	}
	if override.Run.ScrapeMissingContent {
		base.Run.ScrapeMissingContent = true
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func mergeQuery(base, override QueryConfig) QueryConfig {
	if override.Query != "" {
		base.Query = override.Query
	}
	if override.QueryInTitle != "" {
		base.QueryInTitle = override.QueryInTitle
	}
	if len(override.Countries) > 0 {
		base.Countries = override.Countries
	}
	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}
	if len(override.Languages) > 0 {
		base.Languages = override.Languages
	}
	if len(override.Domains) > 0 {
		base.Domains = override.Domains
	}
	if len(override.DomainURLs) > 0 {
		base.DomainURLs = override.DomainURLs
	}
	if len(override.ExcludeDomains) > 0 {
		base.ExcludeDomains = override.ExcludeDomains
	}
	if override.Timeframe != "" {
		base.Timeframe = override.Timeframe
	}
	if override.Timezone != "" {
		base.Timezone = override.Timezone
	}
	if override.PriorityDomain != "" {
		base.PriorityDomain = override.PriorityDomain
	}
	if override.PageSize > 0 {
		base.PageSize = override.PageSize
	}
	if override.FullContent {
		base.FullContent = true
	}
	if override.Image {
		base.Image = true
	}
	if override.Video {
		base.Video = true
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Upstream: UpstreamConfig{
			BaseURL:        "https://newsdata.io/api/1/news",
			TimeoutSeconds: 20,
		},
		Sink: SinkConfig{
			Kind:       SinkElastic,
			Collection: "bytesview_news",
		},
		Query: QueryConfig{
			PageSize: 50,
		},
		Run: RunConfig{
			Pages:             "20",
			PageFailurePolicy: FailureRetain,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
