package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "storefront-workers/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticCatalog reads product documents that embed their variants.
type ElasticCatalog struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticCatalog(es *elasticsearch.Client, index string) *ElasticCatalog {
	return &ElasticCatalog{es: es, index: index}
}

type productDocument struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Variants []VariantRecord `json:"variants"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source productDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	Found  bool            `json:"found"`
	Source productDocument `json:"_source"`
}

func (c *ElasticCatalog) GetProduct(ctx context.Context, idOrName string) (ProductRecord, bool, error) {
	query := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"id": idOrName}},
					map[string]interface{}{"term": map[string]interface{}{"name.keyword": idOrName}},
				},
				"minimum_should_match": 1,
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return ProductRecord{}, false, apperrors.NewCatalogLookupFailedError("get_product", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return ProductRecord{}, false, apperrors.NewCatalogLookupFailedError("get_product", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return ProductRecord{}, false, apperrors.NewCatalogLookupFailedError("get_product",
			fmt.Errorf("search error: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return ProductRecord{}, false, apperrors.NewCatalogLookupFailedError("get_product", err)
	}
	if len(parsed.Hits.Hits) == 0 {
		return ProductRecord{}, false, nil
	}

	return toProduct(parsed.Hits.Hits[0].Source), true, nil
}

func (c *ElasticCatalog) ListVariants(ctx context.Context, productID string) ([]VariantRecord, error) {
	res, err := c.es.Get(c.index, productID, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, apperrors.NewCatalogLookupFailedError("list_variants", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return []VariantRecord{}, nil
	}
	if res.IsError() {
		return nil, apperrors.NewCatalogLookupFailedError("list_variants",
			fmt.Errorf("get error: %s", res.Status()))
	}

	var parsed getResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewCatalogLookupFailedError("list_variants", err)
	}

	return toProduct(parsed.Source).Variants, nil
}

func toProduct(doc productDocument) ProductRecord {
	variants := make([]VariantRecord, 0, len(doc.Variants))
	for _, v := range doc.Variants {
		if v.FulfillmentVariantID == "" {
			continue
		}
		variants = append(variants, v)
	}
	return ProductRecord{ID: doc.ID, Name: doc.Name, Variants: variants}
}
