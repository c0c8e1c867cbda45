package newsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsIngest/internal/config"
	"NewsIngest/internal/domain"
)

// HTTPDoer is the slice of *http.Client the client needs; injectable for
// tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is an upstream-reported request failure (HTTP-level or a
// malformed body). The page iterator classifies it as fatal to the run.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("newsdata error %d: %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("newsdata error %d", e.StatusCode)
}

// Client wraps the news API over plain HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
}

// NewClient builds a client with a timeout-bounded http.Client.
func NewClient(cfg config.UpstreamConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// NewClientWithDoer injects a custom HTTP implementation (used in tests).
func NewClientWithDoer(cfg config.UpstreamConfig, doer HTTPDoer) *Client {
	return &Client{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, http: doer}
}

// apiResponse mirrors the upstream envelope. Results is raw because the
// upstream reuses the field: an article list on success, an error object on
// failure.
type apiResponse struct {
	Status   string          `json:"status"`
	Results  json.RawMessage `json:"results"`
	NextPage string          `json:"nextPage"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Search issues one request with the configured filters plus the cursor and
// returns the resulting page. Transport failures, non-200 statuses and
// malformed bodies come back as errors; an application-level failure status
// comes back as a Page whose OK() is false.
func (c *Client) Search(ctx context.Context, query config.QueryConfig, cursor string) (domain.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(query, cursor), nil)
	if err != nil {
		return domain.Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsIngest/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Page{}, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Page{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.Page{}, c.errorFromBody(resp.StatusCode, body)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.Page{}, fmt.Errorf("unmarshal response: %w", err)
	}

	page := domain.Page{Status: envelope.Status, NextCursor: envelope.NextPage}
	if page.OK() {
		if len(envelope.Results) > 0 {
			if err := json.Unmarshal(envelope.Results, &page.Articles); err != nil {
				return domain.Page{}, fmt.Errorf("unmarshal results: %w", err)
			}
		}
		return page, nil
	}

	var failure apiErrorBody
	if len(envelope.Results) > 0 && json.Unmarshal(envelope.Results, &failure) == nil {
		page.Message = failure.Message
		if failure.Code != "" {
			page.Message = failure.Code + ": " + failure.Message
		}
	}
	return page, nil
}

// buildURL adds only the filters the operator actually specified.
func (c *Client) buildURL(query config.QueryConfig, cursor string) string {
	params := url.Values{}
	params.Set("apikey", c.apiKey)

	setIfPresent(params, "q", query.Query)
	setIfPresent(params, "qInTitle", query.QueryInTitle)
	setListIfPresent(params, "country", query.Countries)
	setListIfPresent(params, "category", query.Categories)
	setListIfPresent(params, "language", query.Languages)
	setListIfPresent(params, "domain", query.Domains)
	setListIfPresent(params, "domainurl", query.DomainURLs)
	setListIfPresent(params, "excludedomain", query.ExcludeDomains)
	setIfPresent(params, "timeframe", query.Timeframe)
	setIfPresent(params, "timezone", query.Timezone)
	setIfPresent(params, "prioritydomain", query.PriorityDomain)

	if query.PageSize > 0 {
		params.Set("size", strconv.Itoa(query.PageSize))
	}
	if query.FullContent {
		params.Set("full_content", "1")
	}
	if query.Image {
		params.Set("image", "1")
	}
	if query.Video {
		params.Set("video", "1")
	}
	if cursor != "" {
		params.Set("page", cursor)
	}

	return c.baseURL + "?" + params.Encode()
}

func (c *Client) errorFromBody(statusCode int, body []byte) error {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Results) > 0 {
		var failure apiErrorBody
		if err := json.Unmarshal(envelope.Results, &failure); err == nil {
			return &APIError{StatusCode: statusCode, Code: failure.Code, Message: failure.Message}
		}
	}
	return &APIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
}

func setIfPresent(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func setListIfPresent(params url.Values, key string, values []string) {
	if len(values) > 0 {
		params.Set(key, strings.Join(values, ","))
	}
}
