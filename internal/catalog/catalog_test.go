package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "storefront-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Postgres
// ==========================

func setupMockDB(t *testing.T) (*PostgresCatalog, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresCatalog(db), mock
}

func TestPostgresCatalog_GetProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("found by name", func(t *testing.T) {
		cat, mock := setupMockDB(t)
		mock.ExpectQuery(getProductQuery).
			WithArgs("Unisex t-shirt DARK").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("12", "Unisex t-shirt DARK"))

		p, found, err := cat.GetProduct(ctx, "Unisex t-shirt DARK")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, ProductRecord{ID: "12", Name: "Unisex t-shirt DARK"}, p)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent", func(t *testing.T) {
		cat, mock := setupMockDB(t)
		mock.ExpectQuery(getProductQuery).
			WithArgs("Scarf").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

		_, found, err := cat.GetProduct(ctx, "Scarf")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("storage failure", func(t *testing.T) {
		cat, mock := setupMockDB(t)
		mock.ExpectQuery(getProductQuery).
			WithArgs("Cap").
			WillReturnError(errors.New("connection refused"))

		_, _, err := cat.GetProduct(ctx, "Cap")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrCatalogLookupFailed)
	})
}

func TestPostgresCatalog_ListVariants(t *testing.T) {
	ctx := context.Background()
	cat, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"printful_variant_id", "size", "color", "value"}).
		AddRow("4012", "M", "Black", nil).
		AddRow(nil, "L", "Black", nil).
		AddRow("4013", nil, nil, "Autumn / L")
	mock.ExpectQuery(listVariantsQuery).WithArgs("12").WillReturnRows(rows)

	variants, err := cat.ListVariants(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, []VariantRecord{
		{FulfillmentVariantID: "4012", Size: "M", Color: "Black"},
		{FulfillmentVariantID: "4013", Composite: "Autumn / L"},
	}, variants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_ListVariants_QueryError(t *testing.T) {
	cat, mock := setupMockDB(t)
	mock.ExpectQuery(listVariantsQuery).WithArgs("12").WillReturnError(errors.New("timeout"))

	_, err := cat.ListVariants(context.Background(), "12")
	assert.ErrorIs(t, err, apperrors.ErrCatalogLookupFailed)
}

// ==========================
// Elasticsearch
// ==========================

func newElasticCatalog(t *testing.T, handler http.HandlerFunc) *ElasticCatalog {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewElasticCatalog(es, "products")
}

func TestElasticCatalog_GetProduct(t *testing.T) {
	cat := newElasticCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/products/_search"), r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 1, body["size"])

		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_source":{
			"id":"12","name":"Unisex Hoodie DARK",
			"variants":[{"printful_variant_id":"5530","size":"M","color":"Black"},{"size":"L"}]
		}}]}}`))
	})

	p, found, err := cat.GetProduct(context.Background(), "Unisex Hoodie DARK")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "12", p.ID)
	assert.Equal(t, []VariantRecord{{FulfillmentVariantID: "5530", Size: "M", Color: "Black"}}, p.Variants)
}

func TestElasticCatalog_GetProduct_NoHits(t *testing.T) {
	cat := newElasticCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	})

	_, found, err := cat.GetProduct(context.Background(), "Scarf")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestElasticCatalog_GetProduct_ServerError(t *testing.T) {
	cat := newElasticCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad query"}`))
	})

	_, _, err := cat.GetProduct(context.Background(), "Cap")
	assert.ErrorIs(t, err, apperrors.ErrCatalogLookupFailed)
}

func TestElasticCatalog_ListVariants(t *testing.T) {
	cat := newElasticCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/products/_doc/12"):
			_, _ = w.Write([]byte(`{"found":true,"_source":{"id":"12","name":"Cap",
				"variants":[{"printful_variant_id":"301","value":"Black"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"found":false}`))
		}
	})

	variants, err := cat.ListVariants(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, []VariantRecord{{FulfillmentVariantID: "301", Composite: "Black"}}, variants)

	variants, err = cat.ListVariants(context.Background(), "99")
	require.NoError(t, err)
	assert.Empty(t, variants)
}

// ==========================
// Static and cached
// ==========================

func TestStaticCatalog(t *testing.T) {
	cat := NewStaticCatalog(ProductRecord{
		ID: "7", Name: "Reform UK Mug",
		Variants: []VariantRecord{{FulfillmentVariantID: "1320"}},
	})
	ctx := context.Background()

	p, found, err := cat.GetProduct(ctx, "Reform UK Mug")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "7", p.ID)

	_, found, _ = cat.GetProduct(ctx, "7")
	assert.True(t, found)

	_, found, _ = cat.GetProduct(ctx, "reform uk mug")
	assert.False(t, found, "name lookup is exact")

	variants, err := cat.ListVariants(ctx, "7")
	require.NoError(t, err)
	assert.Len(t, variants, 1)
}

type countingCatalog struct {
	Catalog
	productCalls int32
	variantCalls int32
}

func (c *countingCatalog) GetProduct(ctx context.Context, idOrName string) (ProductRecord, bool, error) {
	atomic.AddInt32(&c.productCalls, 1)
	return c.Catalog.GetProduct(ctx, idOrName)
}

func (c *countingCatalog) ListVariants(ctx context.Context, productID string) ([]VariantRecord, error) {
	atomic.AddInt32(&c.variantCalls, 1)
	return c.Catalog.ListVariants(ctx, productID)
}

func TestCachedCatalog_MemoizesHitsOnly(t *testing.T) {
	inner := &countingCatalog{Catalog: NewStaticCatalog(ProductRecord{
		ID: "7", Name: "Reform UK Mug",
		Variants: []VariantRecord{{FulfillmentVariantID: "1320"}},
	})}
	cat := NewCachedCatalog(inner, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, found, err := cat.GetProduct(ctx, "Reform UK Mug")
		require.NoError(t, err)
		require.True(t, found)
		_, err = cat.ListVariants(ctx, "7")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, inner.productCalls)
	assert.EqualValues(t, 1, inner.variantCalls)

	for i := 0; i < 2; i++ {
		_, found, _ := cat.GetProduct(ctx, "Scarf")
		assert.False(t, found)
	}
	assert.EqualValues(t, 3, inner.productCalls, "absent products are looked up every time")
}
