package catalog

import "context"

// StaticCatalog serves a fixed product list from memory. Used in tests and
// local runs without a database.
type StaticCatalog struct {
	byID   map[string]ProductRecord
	byName map[string]ProductRecord
}

func NewStaticCatalog(products ...ProductRecord) *StaticCatalog {
	c := &StaticCatalog{
		byID:   make(map[string]ProductRecord, len(products)),
		byName: make(map[string]ProductRecord, len(products)),
	}
	for _, p := range products {
		c.byID[p.ID] = p
		c.byName[p.Name] = p
	}
	return c
}

func (c *StaticCatalog) GetProduct(_ context.Context, idOrName string) (ProductRecord, bool, error) {
	if p, ok := c.byID[idOrName]; ok {
		return p, true, nil
	}
	p, ok := c.byName[idOrName]
	return p, ok, nil
}

func (c *StaticCatalog) ListVariants(_ context.Context, productID string) ([]VariantRecord, error) {
	p, ok := c.byID[productID]
	if !ok {
		return []VariantRecord{}, nil
	}
	out := make([]VariantRecord, len(p.Variants))
	copy(out, p.Variants)
	return out, nil
}
