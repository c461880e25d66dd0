package resolveordervariants

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-workers/internal/catalog"
	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/notify"
	"storefront-workers/internal/variant"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, Concurrency: 2}
}

func createTestCatalog() *catalog.StaticCatalog {
	return catalog.NewStaticCatalog(
		catalog.ProductRecord{
			ID:   "71",
			Name: "Unisex t-shirt DARK",
			Variants: []catalog.VariantRecord{
				{FulfillmentVariantID: "4011", Size: "M", Color: "Black"},
				{FulfillmentVariantID: "4013", Size: "M", Color: "Autumn"},
			},
		},
		catalog.ProductRecord{
			ID:   "72",
			Name: "Unisex t-shirt LIGHT",
			Variants: []catalog.VariantRecord{
				{FulfillmentVariantID: "4021", Size: "M", Color: "White"},
				{FulfillmentVariantID: "4022", Size: "L", Color: "Natural"},
			},
		},
		catalog.ProductRecord{
			ID:       "80",
			Name:     "Reform UK Mug",
			Variants: []catalog.VariantRecord{{FulfillmentVariantID: "1320", Size: "11oz", Color: "White"}},
		},
	)
}

func createTestResolver(t *testing.T) *variant.Resolver {
	return variant.NewResolver(
		variant.NewRouter(createTestCatalog(), variant.DefaultRoutes()),
		variant.NewMatcher(variant.DefaultAliasTable()),
		logger.NewTestLogger(t),
	)
}

func createTestHandler(t *testing.T, resolver Resolver, notifier Notifier) *Handler {
	h := NewHandler(createTestConfig(), resolver, notifier, logger.NewTestLogger(t))
	h.newBatchID = func() string { return "batch-1" }
	return h
}

type resolverFunc func(ctx context.Context, d variant.Descriptor) (variant.ResolvedVariant, error)

func (f resolverFunc) Resolve(ctx context.Context, d variant.Descriptor) (variant.ResolvedVariant, error) {
	return f(ctx, d)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyUnresolved(ctx context.Context, alert notify.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_AllResolved(t *testing.T) {
	h := createTestHandler(t, createTestResolver(t), nil)

	out, err := h.Execute(context.Background(), &Input{
		OrderID: "order-1001",
		Items: []LineItem{
			{LineID: "a", Descriptor: variant.KeyDescriptor("tshirt-M-Autumn"), Quantity: 2},
			{LineID: "b", Descriptor: variant.KeyDescriptor("tshirt-L-White")},
			{LineID: "c", Descriptor: variant.Descriptor{ProductType: "mug", Color: "white"}, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.True(t, out.AllResolved)
	assert.Equal(t, "batch-1", out.BatchID)
	assert.Empty(t, out.UnresolvedItems)
	require.Len(t, out.ResolvedItems, 3)

	assert.Equal(t, "4013", out.ResolvedItems[0].FulfillmentVariantID)
	assert.Equal(t, 2, out.ResolvedItems[0].Quantity)
	assert.Equal(t, "4022", out.ResolvedItems[1].FulfillmentVariantID)
	assert.Equal(t, 2, out.ResolvedItems[1].MatchTier)
	assert.Equal(t, "72", out.ResolvedItems[1].ProductID)
	assert.Equal(t, 1, out.ResolvedItems[1].Quantity, "missing quantity defaults to one")
	assert.Equal(t, "1320", out.ResolvedItems[2].FulfillmentVariantID)
	assert.Equal(t, "mug/white", out.ResolvedItems[2].Descriptor)
}

func TestHandler_Execute_ReportsLineFailures(t *testing.T) {
	h := createTestHandler(t, createTestResolver(t), nil)

	out, err := h.Execute(context.Background(), &Input{
		OrderID: "order-1002",
		Items: []LineItem{
			{Descriptor: variant.KeyDescriptor("tshirt-M-Autumn")},
			{Descriptor: variant.KeyDescriptor("tshirt-XXL-Teal")},
			{Descriptor: variant.KeyDescriptor("scarf-M-Red")},
			{Descriptor: variant.KeyDescriptor("a-b-c-d")},
		},
	})
	require.NoError(t, err)

	assert.False(t, out.AllResolved)
	require.Len(t, out.ResolvedItems, 1)
	require.Len(t, out.UnresolvedItems, 3)

	tests := []struct {
		index     int
		code      apperrors.ErrorCode
		productID string
	}{
		{1, apperrors.ErrCodeUnresolvedVariant, "71"},
		{2, apperrors.ErrCodeUnknownProductType, ""},
		{3, apperrors.ErrCodeMalformedDescriptor, ""},
	}
	for i, tt := range tests {
		got := out.UnresolvedItems[i]
		assert.Equal(t, tt.index, got.Index)
		assert.Equal(t, string(tt.code), got.ErrorCode)
		assert.Equal(t, tt.productID, got.ProductID)
		assert.NotEmpty(t, got.Message)
	}
}

func TestHandler_Execute_CatalogFailureAbortsBatch(t *testing.T) {
	h := createTestHandler(t, resolverFunc(func(_ context.Context, d variant.Descriptor) (variant.ResolvedVariant, error) {
		if d.Key == "mug-White" {
			return variant.ResolvedVariant{}, apperrors.NewCatalogLookupFailedError("list_variants", errors.New("connection reset"))
		}
		return variant.ResolvedVariant{FulfillmentVariantID: "1", MatchTier: 1}, nil
	}), nil)

	_, err := h.Execute(context.Background(), &Input{
		OrderID: "order-1003",
		Items: []LineItem{
			{Descriptor: variant.KeyDescriptor("tshirt-M-Black")},
			{Descriptor: variant.KeyDescriptor("mug-White")},
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCatalogLookupFailed)
	assert.True(t, apperrors.AsStandard(err).Retryable)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := createTestHandler(t, createTestResolver(t), nil)

	tests := []struct {
		name  string
		input *Input
	}{
		{"nil input", nil},
		{"missing order id", &Input{Items: []LineItem{{Descriptor: variant.KeyDescriptor("mug-White")}}}},
		{"no items", &Input{OrderID: "order-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
		})
	}
}

func TestHandler_Execute_RespectsConcurrencyLimit(t *testing.T) {
	var active, peak int32
	h := createTestHandler(t, resolverFunc(func(_ context.Context, d variant.Descriptor) (variant.ResolvedVariant, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return variant.ResolvedVariant{FulfillmentVariantID: d.Key, MatchTier: 1}, nil
	}), nil)

	items := make([]LineItem, 8)
	for i := range items {
		items[i] = LineItem{Descriptor: variant.KeyDescriptor(string(rune('a'+i)) + "-x")}
	}

	out, err := h.Execute(context.Background(), &Input{OrderID: "order-1004", Items: items})
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	for i, item := range out.ResolvedItems {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, items[i].Descriptor.Key, item.FulfillmentVariantID)
	}
}

// ==========================
// Input parsing and alerts
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, createTestResolver(t), nil)

	t.Run("string and structured descriptors", func(t *testing.T) {
		in, err := h.parseInput(`{"orderId":"o-1","items":[{"descriptor":"tshirt-M-Black","quantity":1},{"descriptor":{"productType":"mug","color":"White"}}]}`)
		require.NoError(t, err)
		require.Len(t, in.Items, 2)
		assert.Equal(t, "tshirt-M-Black", in.Items[0].Descriptor.Key)
		assert.Equal(t, "mug", in.Items[1].Descriptor.ProductType)
	})

	rejects := []struct {
		name string
		vars string
	}{
		{"not json", `{"orderId":`},
		{"missing items", `{"orderId":"o-1"}`},
		{"zero quantity", `{"orderId":"o-1","items":[{"descriptor":"mug-White","quantity":0}]}`},
		{"descriptor wrong type", `{"orderId":"o-1","items":[{"descriptor":42}]}`},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(tt.vars)
			assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
		})
	}
}

func TestHandler_AlertOperators(t *testing.T) {
	notifier := new(mockNotifier)
	notifier.On("NotifyUnresolved", mock.Anything, mock.MatchedBy(func(a notify.Alert) bool {
		return a.OrderID == "order-1005" && a.BatchID == "batch-1" &&
			len(a.Lines) == 1 && a.Lines[0].ErrorCode == "UNRESOLVED_VARIANT" && a.Lines[0].ProductID == "71"
	})).Return(errors.New("sns down"))

	h := createTestHandler(t, createTestResolver(t), notifier)
	out, err := h.Execute(context.Background(), &Input{
		OrderID: "order-1005",
		Items:   []LineItem{{Descriptor: variant.KeyDescriptor("tshirt-XXL-Teal")}},
	})
	require.NoError(t, err)

	h.alertOperators(context.Background(), out)
	notifier.AssertExpectations(t)
}

func TestHandler_AlertOperators_NoNotifier(t *testing.T) {
	h := createTestHandler(t, createTestResolver(t), nil)
	assert.NotPanics(t, func() {
		h.alertOperators(context.Background(), &Output{UnresolvedItems: []UnresolvedItem{{Index: 0}}})
	})
}
