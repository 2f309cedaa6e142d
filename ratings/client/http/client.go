package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/glbter/stock-ratings/entities"
)

const (
	defaultPageSize            = 20
	maxPageSize                = 100
	defaultRecommendationLimit = 5
)

// StatusError is returned when the API answers with a non-2xx code.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("responded with %v http code", e.Code)
}

type StockRatingsClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewClient(c *http.Client, url string, logger *zap.Logger) StockRatingsClient {
	return StockRatingsClient{
		url:    url,
		client: c,
		logger: logger.With(zap.String("caller", "StockRatingsClient")),
	}
}

// FetchStocks lists every rating record, one page at a time. On failure it
// returns an empty page together with the error.
func (c StockRatingsClient) FetchStocks(ctx context.Context, page, pageSize int) (entities.StocksPage, error) {
	logger := c.logger.With(zap.String("method", "FetchStocks"))

	page, pageSize = clampPage(page, pageSize)

	u, err := c.buildURL([]string{"stocks"}, pageParams(page, pageSize))
	if err != nil {
		return entities.EmptyStocksPage(page, pageSize), err
	}

	return c.getStocksPage(ctx, logger, u, page, pageSize)
}

// SearchStocks runs q against the endpoint for its kind. Like FetchStocks it
// returns an empty page together with any error.
func (c StockRatingsClient) SearchStocks(ctx context.Context, q Query, page, pageSize int) (entities.StocksPage, error) {
	logger := c.logger.With(zap.String("method", "SearchStocks"))

	page, pageSize = clampPage(page, pageSize)

	if err := validate(q); err != nil {
		return entities.EmptyStocksPage(page, pageSize), err
	}

	logger = logger.With(zap.String("kind", string(q.Kind())), zap.String("query", q.Text()))

	if sort, ok := q.(SortBy); ok {
		u, err := c.sortedURL(sort, page, pageSize)
		if err != nil {
			return entities.EmptyStocksPage(page, pageSize), err
		}
		return c.getStocksPage(ctx, logger, u, page, pageSize)
	}

	u, err := c.buildURL(append([]string{"stocks"}, q.segments()...), pageParams(page, pageSize))
	if err != nil {
		return entities.EmptyStocksPage(page, pageSize), err
	}

	return c.getStocksPage(ctx, logger, u, page, pageSize)
}

// FetchRecommendations returns the server-ranked recommendations. Unlike the
// stock listings it returns no result on failure.
func (c StockRatingsClient) FetchRecommendations(ctx context.Context, limit int) ([]entities.Recommendation, error) {
	logger := c.logger.With(zap.String("method", "FetchRecommendations"))

	if limit < 1 {
		limit = defaultRecommendationLimit
	}

	u, err := c.buildURL([]string{"recommendations"}, url.Values{"limit": {strconv.Itoa(limit)}})
	if err != nil {
		return nil, err
	}

	var r []entities.Recommendation
	if err := c.getJSON(ctx, logger, u, &r); err != nil {
		return nil, fmt.Errorf("fetch recommendations: %w", err)
	}

	if r == nil {
		r = []entities.Recommendation{}
	}

	return r, nil
}

func (c StockRatingsClient) sortedURL(q SortBy, page, pageSize int) (string, error) {
	params := pageParams(page, pageSize)
	if q.Within != "" {
		params.Set("query", q.Within)
	}

	return c.buildURL(append([]string{"stocks"}, q.segments()...), params)
}

func (c StockRatingsClient) buildURL(segments []string, params url.Values) (string, error) {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, escapeSegment(s))
	}

	u, err := url.JoinPath(c.url, escaped...)
	if err != nil {
		return "", fmt.Errorf("build request url: %w", err)
	}

	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	return u, nil
}

// escapeSegment also encodes the dot segments "." and "..", which PathEscape
// leaves alone and JoinPath would otherwise resolve away.
func escapeSegment(s string) string {
	if s == "." || s == ".." {
		return strings.Repeat("%2E", len(s))
	}

	return url.PathEscape(s)
}

func (c StockRatingsClient) getStocksPage(ctx context.Context, logger *zap.Logger, u string, page, pageSize int) (entities.StocksPage, error) {
	var r entities.StocksPage
	if err := c.getJSON(ctx, logger, u, &r); err != nil {
		logger.Warn("stocks request degraded to an empty page", zap.Error(err))
		return entities.EmptyStocksPage(page, pageSize), err
	}

	if r.Items == nil {
		r.Items = []entities.Stock{}
	}

	return r, nil
}

func (c StockRatingsClient) getJSON(ctx context.Context, logger *zap.Logger, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	logger.Debug("finish request", zap.String("url", u), zap.Duration("duration", time.Since(start)))
	if err != nil {
		return fmt.Errorf("send GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Code: resp.StatusCode, URL: u}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func pageParams(page, pageSize int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}

	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	return page, pageSize
}
