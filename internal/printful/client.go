// Package printful is a client for the print provider's shipping rate API.
package printful

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/time/rate"

	commonhttp "storefront-workers/internal/common/http"
)

var (
	ErrNotConfigured   = errors.New("printful: no API token configured")
	ErrRateLimited     = errors.New("printful: local request budget exhausted")
	ErrInvalidResponse = errors.New("printful: response has no result")
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("printful: status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL            string
	Token              string
	StoreID            string
	UserAgent          string
	Timeout            time.Duration
	RateLimitPerMinute int
}

type Client struct {
	baseURL string
	token   string
	http    *commonhttp.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.RateLimitPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RateLimitPerMinute))
		burst = cfg.RateLimitPerMinute
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http: commonhttp.NewClient(cfg.Timeout,
			commonhttp.WithHeader("Authorization", bearer(cfg.Token)),
			commonhttp.WithHeader("X-PF-Store-Id", cfg.StoreID),
			commonhttp.WithHeader("User-Agent", cfg.UserAgent),
		),
		limiter: rate.NewLimiter(limit, burst),
	}
}

func bearer(token string) string {
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

// Configured reports whether the client holds a token.
func (c *Client) Configured() bool {
	return c.token != ""
}

// ShippingRates calls POST /shipping/rates once. It never retries and never
// waits for rate budget.
func (c *Client) ShippingRates(ctx context.Context, req RatesRequest) ([]Rate, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/shipping/rates", req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 256)}
	}

	var env ratesEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil, ErrInvalidResponse
	}

	var rates []Rate
	if err := json.Unmarshal(env.Result, &rates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate list", ErrInvalidResponse)
	}
	return rates, nil
}

// IsTimeout reports whether err came from a deadline rather than the server.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
