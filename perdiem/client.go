/*
Package perdiem is a client for the per-diem rate service.

PURPOSE:
  Looks up the daily per-diem rate for a medevac location and fetches
  the post list (city, country, region) that feeds the post table.

ENDPOINTS USED:
  GET /rates?location={city}  {"location": "Pretoria", "rate": "180.00", "currency": "USD"}
  GET /posts                  {"posts": [{"city": "Nairobi", "country": "Kenya", "region": "AF"}]}

RETRIES:
  Transport errors and 5xx responses are retried 3 times with backoff
  between 1s and 5s. A 404 on /rates is ErrUnknownLocation.

SEE ALSO:
  - api/scheduler.go: Periodic post refresh
  - medevac/posts.go: PostTable
*/
package perdiem

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/warp/medevac-engine/medevac"
	"go.uber.org/zap"
)

var (
	ErrUnknownLocation = errors.New("unknown per-diem location")
	ErrServiceFailure  = errors.New("per-diem service failure")
)

// Rate is the daily rate for one location.
type Rate struct {
	Location string          `json:"location"`
	Rate     decimal.Decimal `json:"rate"`
	Currency string          `json:"currency,omitempty"`
}

type postsResponse struct {
	Posts []medevac.Post `json:"posts"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client calls the per-diem service.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{httpClient: client, logger: logger}
}

// SetRetry overrides the retry policy.
func (c *Client) SetRetry(count int, wait time.Duration) *Client {
	c.httpClient.SetRetryCount(count).SetRetryWaitTime(wait).SetRetryMaxWaitTime(wait)
	return c
}

// Rate returns the per-diem rate for a location.
func (c *Client) Rate(ctx context.Context, location string) (Rate, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Rate{}, fmt.Errorf("%w: empty location", ErrUnknownLocation)
	}

	var (
		result Rate
		apiErr errorResponse
	)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("location", location).
		SetResult(&result).
		SetError(&apiErr).
		Get("/rates")
	if err != nil {
		c.logger.Error("per-diem rate request failed", zap.String("location", location), zap.Error(err))
		return Rate{}, fmt.Errorf("%w: %v", ErrServiceFailure, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return Rate{}, fmt.Errorf("%w: %s", ErrUnknownLocation, location)
	case resp.IsError():
		c.logger.Error("per-diem service returned error",
			zap.String("location", location),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", apiErr.Error),
		)
		return Rate{}, fmt.Errorf("%w: status %d: %s", ErrServiceFailure, resp.StatusCode(), apiErr.Error)
	}

	if result.Location == "" {
		result.Location = location
	}
	if result.Rate.IsNegative() {
		result.Rate = decimal.Zero
	}
	return result, nil
}

// Posts fetches the full post list.
func (c *Client) Posts(ctx context.Context) ([]medevac.Post, error) {
	var result postsResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/posts")
	if err != nil {
		c.logger.Error("per-diem posts request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrServiceFailure, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrServiceFailure, resp.StatusCode())
	}

	c.logger.Debug("fetched posts", zap.Int("post_count", len(result.Posts)))
	return result.Posts, nil
}
