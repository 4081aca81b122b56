// Package rekor is a small client for the Rekor transparency log REST API.
// It covers the four read operations a search needs and retries transient
// failures with jittered backoff.
package rekor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudflare/backoff"

	"github.com/sigstore/rekor-search-ui/entry"
	"github.com/sigstore/rekor-search-ui/log"
)

// Client defaults.
const (
	DefaultBaseURL       = "https://rekor.sigstore.dev"
	DefaultUserAgent     = "rekor-search-ui"
	DefaultMaxRetries    = 2
	DefaultRetryInterval = 250 * time.Millisecond
	DefaultMaxRetryWait  = 5 * time.Second
)

// Endpoint names used as metric labels.
const (
	EndpointSearchIndex    = "search_index"
	EndpointEntryByIndex   = "entry_by_index"
	EndpointEntryByUUID    = "entry_by_uuid"
	EndpointSearchLogQuery = "search_log_query"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// SearchIndex is the body of an index search. Exactly one of the fields
// is expected to be set.
type SearchIndex struct {
	Email string `json:"email,omitempty"`
	Hash  string `json:"hash,omitempty"`
}

// SearchLogQuery retrieves several entries at once.
type SearchLogQuery struct {
	EntryUUIDs []string `json:"entryUUIDs,omitempty"`
	LogIndexes []int64  `json:"logIndexes,omitempty"`
}

// Client talks to one Rekor instance.
type Client struct {
	BaseURL       string
	HTTPClient    *http.Client
	UserAgent     string
	MaxRetries    int
	RetryInterval time.Duration
	MaxRetryWait  time.Duration
}

// NewClient returns a Client for baseURL with default retry settings. An
// empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		UserAgent:     DefaultUserAgent,
		MaxRetries:    DefaultMaxRetries,
		RetryInterval: DefaultRetryInterval,
		MaxRetryWait:  DefaultMaxRetryWait,
	}
}

// SearchIndex returns the UUIDs of entries matching q.
func (c *Client) SearchIndex(ctx context.Context, q SearchIndex) ([]string, error) {
	var uuids []string
	err := c.do(ctx, EndpointSearchIndex, http.MethodPost, "/api/v1/index/retrieve", nil, q, &uuids)
	return uuids, err
}

// GetEntryByIndex fetches the entry at logIndex.
func (c *Client) GetEntryByIndex(ctx context.Context, logIndex int64) (entry.LogEntry, error) {
	var le entry.LogEntry
	query := url.Values{"logIndex": {strconv.FormatInt(logIndex, 10)}}
	err := c.do(ctx, EndpointEntryByIndex, http.MethodGet, "/api/v1/log/entries", query, nil, &le)
	return le, err
}

// GetEntryByUUID fetches the entry identified by uuid.
func (c *Client) GetEntryByUUID(ctx context.Context, uuid string) (entry.LogEntry, error) {
	var le entry.LogEntry
	err := c.do(ctx, EndpointEntryByUUID, http.MethodGet, "/api/v1/log/entries/"+url.PathEscape(uuid), nil, nil, &le)
	return le, err
}

// SearchLogQuery fetches several entries by UUID or log index.
func (c *Client) SearchLogQuery(ctx context.Context, q SearchLogQuery) ([]entry.LogEntry, error) {
	var les []entry.LogEntry
	err := c.do(ctx, EndpointSearchLogQuery, http.MethodPost, "/api/v1/log/entries/retrieve", nil, q, &les)
	return les, err
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, in, out interface{}) error {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u := strings.TrimRight(base, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("rekor: encoding %s request: %w", endpoint, err)
		}
	}

	interval, maxWait := c.RetryInterval, c.MaxRetryWait
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxRetryWait
	}
	b := backoff.New(maxWait, interval)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		retry, err := c.attempt(ctx, endpoint, method, u, payload, out)
		if err == nil {
			return nil
		}
		if !retry || attempt >= c.MaxRetries || ctx.Err() != nil {
			return err
		}
		wait := b.Duration()
		log.Debugf("rekor: %s attempt %d failed, retrying in %s: %v", endpoint, attempt+1, wait, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// attempt performs one request. retry reports whether the failure is
// transient: a transport error, 429 or a 5xx status.
func (c *Client) attempt(ctx context.Context, endpoint, method, u string, payload []byte, out interface{}) (retry bool, err error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return false, fmt.Errorf("rekor: building %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		return true, fmt.Errorf("rekor: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rerr := parseError(resp.StatusCode, raw)
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, rerr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("rekor: decoding %s response: %w", endpoint, err)
	}
	return false, nil
}
