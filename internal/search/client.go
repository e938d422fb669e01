// Package search queries the external restaurant search index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/hkeats/eats/internal/apierr"
	"github.com/hkeats/eats/internal/metrics"
	"github.com/hkeats/eats/pkg/logger"
)

const (
	headerAppID  = "X-Algolia-Application-Id"
	headerAPIKey = "X-Algolia-API-Key"

	maxResponseBytes = 4 << 20

	// RequestTimeout applies to every index query, matching the backend client.
	RequestTimeout = 30 * time.Second
)

// IndexConfig configures an IndexClient.
type IndexConfig struct {
	AppID  string
	APIKey string
	Index  string
	// Host defaults to https://{AppID}-dsn.algolia.net.
	Host string
	// QPS caps outgoing queries per second. Zero disables the cap.
	QPS float64
	// HTTPClient supplies the transport. Its Timeout is overridden with RequestTimeout.
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// Params is the body of an index query.
type Params struct {
	Query                string   `json:"query"`
	Filters              string   `json:"filters,omitempty"`
	AroundLatLng         string   `json:"aroundLatLng,omitempty"`
	AroundRadius         int      `json:"aroundRadius,omitempty"`
	HitsPerPage          int      `json:"hitsPerPage,omitempty"`
	Page                 int      `json:"page,omitempty"`
	AttributesToRetrieve []string `json:"attributesToRetrieve,omitempty"`
}

// IndexClient talks to an Algolia-compatible search REST API.
type IndexClient struct {
	appID      string
	apiKey     string
	queryURL   string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

// NewIndexClient creates a client.
func NewIndexClient(cfg IndexConfig) (*IndexClient, error) {
	if cfg.AppID == "" || cfg.APIKey == "" || cfg.Index == "" {
		return nil, fmt.Errorf("search app id, API key and index are required")
	}
	host := strings.TrimSuffix(strings.TrimSpace(cfg.Host), "/")
	if host == "" {
		host = "https://" + strings.ToLower(cfg.AppID) + "-dsn.algolia.net"
	}
	if _, err := url.Parse(host); err != nil {
		return nil, apierr.New(apierr.KindInvalidURL, err)
	}

	c := &IndexClient{
		appID:      cfg.AppID,
		apiKey:     cfg.APIKey,
		queryURL:   host + "/1/indexes/" + url.PathEscape(cfg.Index) + "/query",
		httpClient: &http.Client{},
		log:        cfg.Logger,
	}
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		c.httpClient = &clone
	}
	c.httpClient.Timeout = RequestTimeout
	if c.log == nil {
		c.log = logger.NewDefault("search")
	}
	if cfg.QPS > 0 {
		burst := int(cfg.QPS)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.QPS), burst)
	}
	return c, nil
}

// Query runs one index query and returns the raw hits. kind labels metrics.
func (c *IndexClient) Query(ctx context.Context, kind string, p Params) ([]gjson.Result, error) {
	hits, err := c.query(ctx, p)
	metrics.RecordSearch(kind, metrics.Outcome(outcomeLabel(err)))
	return hits, err
}

func (c *IndexClient) query(ctx context.Context, p Params) ([]gjson.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("search rate limit: %w", err)
		}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode search params: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, bytes.NewReader(body))
	if err != nil {
		return nil, apierr.New(apierr.KindInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAppID, c.appID)
	req.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.FromTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apierr.FromTransport(err)
	}
	if statusErr := apierr.FromStatus(resp.StatusCode); statusErr != nil {
		c.log.WithField("status", resp.StatusCode).
			WithField("message", gjson.GetBytes(data, "message").String()).
			Debug("search query rejected")
		return nil, statusErr
	}

	hits := gjson.GetBytes(data, "hits")
	if !hits.IsArray() {
		return nil, apierr.New(apierr.KindDecoding, fmt.Errorf("search response has no hits array"))
	}
	return hits.Array(), nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return ""
	}
	if k := apierr.KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}
