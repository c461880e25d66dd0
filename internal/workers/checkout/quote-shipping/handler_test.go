package quoteshipping

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-workers/internal/cache"
	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/printful"
	"storefront-workers/internal/shipping"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestGateway(t *testing.T, baseURL, token string) *shipping.Gateway {
	return shipping.NewGateway(
		printful.NewClient(printful.Config{BaseURL: baseURL, Token: token, Timeout: 2 * time.Second}),
		cache.NewMemoryStore[shipping.QuoteResponse](),
		shipping.DefaultFallbackTable(),
		shipping.NewVariantTranslator(map[string]int64{"4938821282": 8923}),
		shipping.GatewayConfig{TTL: 3 * time.Minute, FallbackTTL: time.Minute, UpstreamTimeout: 2 * time.Second},
		logger.NewTestLogger(t),
	)
}

func createTestHandler(t *testing.T, q Quoter) *Handler {
	h := NewHandler(createTestConfig(), q, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return h
}

func createValidInput() *Input {
	return &Input{
		OrderID:   "order-2001",
		Recipient: shipping.Recipient{CountryCode: "GB", Zip: "M1 1AE", City: "Manchester"},
		Items:     []shipping.Item{{VariantID: "4938821282", Quantity: 1}},
	}
}

type quoterFunc func(ctx context.Context, req shipping.QuoteRequest) (shipping.QuoteResponse, error)

func (f quoterFunc) Quote(ctx context.Context, req shipping.QuoteRequest) (shipping.QuoteResponse, error) {
	return f(ctx, req)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_LiveRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"result":[{"id":"STANDARD","name":"Flat Rate (Estimated delivery: Oct 22-24)","rate":"3.99","currency":"GBP","minDeliveryDays":2,"maxDeliveryDays":4}]}`))
	}))
	defer srv.Close()

	out, err := createTestHandler(t, createTestGateway(t, srv.URL, "token")).Execute(context.Background(), createValidInput())
	require.NoError(t, err)

	assert.Equal(t, "upstream", out.QuoteSource)
	assert.Equal(t, 180, out.TTLSeconds)
	assert.Equal(t, "2026-10-18T12:00:00Z", out.QuotedAt)
	require.Len(t, out.ShippingOptions, 1)
	assert.Equal(t, "Flat Rate", out.ShippingOptions[0].Name)
	assert.Equal(t, "3.99", out.ShippingOptions[0].Rate)
}

func TestHandler_Execute_FallbackWhenUnconfigured(t *testing.T) {
	out, err := createTestHandler(t, createTestGateway(t, "http://127.0.0.1:1", "")).Execute(context.Background(), createValidInput())
	require.NoError(t, err)

	assert.Equal(t, "fallback", out.QuoteSource)
	assert.Equal(t, 60, out.TTLSeconds)
	assert.Len(t, out.ShippingOptions, 3)
}

func TestHandler_Execute_ClientErrors(t *testing.T) {
	h := createTestHandler(t, createTestGateway(t, "http://127.0.0.1:1", ""))

	tests := []struct {
		name  string
		input *Input
		want  error
	}{
		{"nil input", nil, apperrors.ErrInvalidPayload},
		{"missing zip", &Input{Recipient: shipping.Recipient{CountryCode: "GB"}, Items: createValidInput().Items}, apperrors.ErrInvalidPayload},
		{"no items", &Input{Recipient: createValidInput().Recipient}, apperrors.ErrInvalidPayload},
		{"bad variant id", &Input{Recipient: createValidInput().Recipient, Items: []shipping.Item{{VariantID: "12 34", Quantity: 1}}}, apperrors.ErrInvalidVariantID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHandler_Execute_PropagatesQuoterError(t *testing.T) {
	h := createTestHandler(t, quoterFunc(func(context.Context, shipping.QuoteRequest) (shipping.QuoteResponse, error) {
		return shipping.QuoteResponse{}, context.Canceled
	}))

	_, err := h.Execute(context.Background(), createValidInput())
	assert.True(t, errors.Is(err, context.Canceled))
}

// ==========================
// Input parsing
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, createTestGateway(t, "http://127.0.0.1:1", ""))

	t.Run("numeric and string variant ids", func(t *testing.T) {
		in, err := h.parseInput(`{"orderId":"order-2002","recipient":{"country_code":"GB","zip":"M1 1AE","city":"Manchester"},"items":[{"printful_variant_id":4938821282,"quantity":1},{"printful_variant_id":"68a9daac4dcb25","quantity":2}]}`)
		require.NoError(t, err)
		assert.Equal(t, "order-2002", in.OrderID)
		require.Len(t, in.Items, 2)
		assert.Equal(t, shipping.VariantID("4938821282"), in.Items[0].VariantID)
		assert.Equal(t, 2, in.Items[1].Quantity)
	})

	rejects := []struct {
		name string
		vars string
	}{
		{"not json", `{"recipient":`},
		{"missing recipient", `{"items":[{"printful_variant_id":1,"quantity":1}]}`},
		{"empty zip", `{"recipient":{"country_code":"GB","zip":""},"items":[{"printful_variant_id":1,"quantity":1}]}`},
		{"no items", `{"recipient":{"country_code":"GB","zip":"M1 1AE"},"items":[]}`},
		{"zero quantity", `{"recipient":{"country_code":"GB","zip":"M1 1AE"},"items":[{"printful_variant_id":1,"quantity":0}]}`},
		{"variant id wrong type", `{"recipient":{"country_code":"GB","zip":"M1 1AE"},"items":[{"printful_variant_id":true,"quantity":1}]}`},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(tt.vars)
			assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
		})
	}
}
