package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
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
// Test helpers
// ==========================

type stubQuoter struct {
	resp shipping.QuoteResponse
	err  error
	got  shipping.QuoteRequest
}

func (s *stubQuoter) Quote(_ context.Context, req shipping.QuoteRequest) (shipping.QuoteResponse, error) {
	s.got = req
	return s.resp, s.err
}

func createTestHandler(t *testing.T, q Quoter, origins ...string) *ShippingHandler {
	return NewShippingHandler(q, origins, time.Second, logger.NewTestLogger(t))
}

const validBody = `{
  "recipient": {"country_code": "GB", "zip": "SW1A 1AA", "city": "London"},
  "items": [{"printful_variant_id": 4938821282, "quantity": 2}, {"printful_variant_id": "8923", "quantity": 1}]
}`

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipping-quotes", strings.NewReader(body)))
	return rec
}

// ==========================
// Success paths
// ==========================

func TestShippingHandler_Success(t *testing.T) {
	q := &stubQuoter{resp: shipping.QuoteResponse{
		Options:    []shipping.ShippingOption{{ID: "STANDARD", Name: "Flat Rate", Rate: "4.39", Currency: "GBP"}},
		TTLSeconds: 180,
		Source:     "upstream",
	}}

	rec := post(createTestHandler(t, q), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "upstream", rec.Header().Get("X-Quote-Source"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 180, body["ttlSeconds"])
	assert.NotContains(t, body, "Source")

	require.Len(t, q.got.Items, 2)
	assert.Equal(t, shipping.VariantID("4938821282"), q.got.Items[0].VariantID)
	assert.Equal(t, "SW1A 1AA", q.got.Recipient.Zip)
}

func TestShippingHandler_Preflight(t *testing.T) {
	rec := httptest.NewRecorder()
	createTestHandler(t, &stubQuoter{}).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/shipping-quotes", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "content-type")
}

func TestShippingHandler_AllowedOrigins(t *testing.T) {
	h := createTestHandler(t, &stubQuoter{}, "https://shop.example.com")

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"listed origin is echoed", "https://shop.example.com", "https://shop.example.com"},
		{"unlisted origin gets nothing", "https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/shipping-quotes", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

// ==========================
// Error paths
// ==========================

func TestShippingHandler_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		quoteErr error
		status   int
		kind     string
	}{
		{"invalid json", `{"recipient":`, nil, http.StatusBadRequest, "invalid_payload"},
		{"missing recipient", `{"items":[{"printful_variant_id":1,"quantity":1}]}`, nil, http.StatusBadRequest, "invalid_payload"},
		{"empty items", `{"recipient":{"country_code":"GB","zip":"E1"},"items":[]}`, nil, http.StatusBadRequest, "invalid_payload"},
		{"zero quantity", `{"recipient":{"country_code":"GB","zip":"E1"},"items":[{"printful_variant_id":1,"quantity":0}]}`, nil, http.StatusBadRequest, "invalid_payload"},
		{"gateway rejects variant id", validBody, apperrors.NewInvalidVariantIDError("!!"), http.StatusBadRequest, "invalid_variant_id"},
		{"gateway internal error", validBody, errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(createTestHandler(t, &stubQuoter{err: tt.quoteErr}), tt.body)

			assert.Equal(t, tt.status, rec.Code)
			var payload ErrorPayload
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, tt.kind, payload.Error)
			assert.NotEmpty(t, payload.Message)
		})
	}
}

func TestShippingHandler_SchemaDetails(t *testing.T) {
	rec := post(createTestHandler(t, &stubQuoter{}), `{"recipient":{"country_code":"GB"},"items":[{"printful_variant_id":1,"quantity":1}]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Details)
	assert.Contains(t, strings.Join(payload.Details, " "), "zip")
}

func TestShippingHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	createTestHandler(t, &stubQuoter{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shipping-quotes", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "method_not_allowed")
}

func TestShippingHandler_BodyTooLarge(t *testing.T) {
	big := `{"recipient":{"country_code":"GB","zip":"` + strings.Repeat("x", maxRequestBytes) + `"},"items":[]}`
	rec := post(createTestHandler(t, &stubQuoter{}), big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Through the real gateway
// ==========================

func TestShippingHandler_FallbackWithoutCredentials(t *testing.T) {
	gw := shipping.NewGateway(
		printful.NewClient(printful.Config{BaseURL: "http://127.0.0.1:1"}),
		cache.NewMemoryStore[shipping.QuoteResponse](),
		shipping.DefaultFallbackTable(),
		shipping.NewVariantTranslator(nil),
		shipping.GatewayConfig{TTL: 3 * time.Minute, FallbackTTL: time.Minute, UpstreamTimeout: time.Second},
		logger.NewTestLogger(t),
	)

	rec := post(createTestHandler(t, gw), validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback", rec.Header().Get("X-Quote-Source"))

	var resp shipping.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Options, 3)
	assert.Equal(t, "standard-uk", resp.Options[0].ID)
	assert.Equal(t, 60, resp.TTLSeconds)

	second := post(createTestHandler(t, gw), validBody)
	assert.Equal(t, "cache", second.Header().Get("X-Quote-Source"))
}
