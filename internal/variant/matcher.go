package variant

import (
	"strings"

	"storefront-workers/internal/catalog"
	apperrors "storefront-workers/internal/common/errors"
)

// Request is the size and color asked for. Empty fields were not requested.
type Request struct {
	Size  string
	Color string
}

// ResolvedVariant is the outcome of a successful match.
type ResolvedVariant struct {
	FulfillmentVariantID string `json:"fulfillmentVariantId"`
	MatchTier            int    `json:"matchTier"`
	MatchedColor         string `json:"matchedColor,omitempty"`
	MatchedSize          string `json:"matchedSize,omitempty"`
	ProductID            string `json:"productId"`
}

// Strategy is one tier of the matching chain. Match returns the first
// qualifying variant in list order.
type Strategy interface {
	Tier() int
	Name() string
	Match(variants []catalog.VariantRecord, req Request) (catalog.VariantRecord, bool)
}

// sizeMatches applies the tier-1 size rule: an unrequested size matches anything.
func sizeMatches(v catalog.VariantRecord, req Request) bool {
	return req.Size == "" || equalFold(v.Size, req.Size)
}

// ExactMatch: size and color equal, ignoring case.
type ExactMatch struct{}

func (ExactMatch) Tier() int    { return 1 }
func (ExactMatch) Name() string { return "exact" }

func (ExactMatch) Match(variants []catalog.VariantRecord, req Request) (catalog.VariantRecord, bool) {
	for _, v := range variants {
		if sizeMatches(v, req) && (req.Color == "" || equalFold(v.Color, req.Color)) {
			return v, true
		}
	}
	return catalog.VariantRecord{}, false
}

// AliasMatch: the variant color equals, contains or is contained in one of
// the requested color's aliases.
type AliasMatch struct {
	Aliases AliasTable
}

func (AliasMatch) Tier() int    { return 2 }
func (AliasMatch) Name() string { return "alias" }

func (m AliasMatch) Match(variants []catalog.VariantRecord, req Request) (catalog.VariantRecord, bool) {
	if req.Color == "" {
		return catalog.VariantRecord{}, false
	}

	aliases := m.Aliases.Aliases(req.Color)
	folded := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if f := fold(a); f != "" {
			folded = append(folded, f)
		}
	}

	for _, v := range variants {
		if !sizeMatches(v, req) {
			continue
		}
		color := fold(v.Color)
		if color == "" {
			continue
		}
		for _, a := range folded {
			if color == a || strings.Contains(color, a) || strings.Contains(a, color) {
				return v, true
			}
		}
	}
	return catalog.VariantRecord{}, false
}

// SubstringMatch: the composite label contains the requested size and color.
type SubstringMatch struct{}

func (SubstringMatch) Tier() int    { return 3 }
func (SubstringMatch) Name() string { return "composite" }

func (SubstringMatch) Match(variants []catalog.VariantRecord, req Request) (catalog.VariantRecord, bool) {
	size, color := fold(req.Size), fold(req.Color)
	for _, v := range variants {
		composite := fold(v.Composite)
		if composite == "" {
			continue
		}
		if strings.Contains(composite, size) && strings.Contains(composite, color) {
			return v, true
		}
	}
	return catalog.VariantRecord{}, false
}

// SingleVariantFallback: a product with one variant resolves to it.
type SingleVariantFallback struct{}

func (SingleVariantFallback) Tier() int    { return 4 }
func (SingleVariantFallback) Name() string { return "single_variant" }

func (SingleVariantFallback) Match(variants []catalog.VariantRecord, _ Request) (catalog.VariantRecord, bool) {
	if len(variants) == 1 {
		return variants[0], true
	}
	return catalog.VariantRecord{}, false
}

// SizeOnlyFallback: the first variant of the requested size, any color.
type SizeOnlyFallback struct{}

func (SizeOnlyFallback) Tier() int    { return 5 }
func (SizeOnlyFallback) Name() string { return "size_only" }

func (SizeOnlyFallback) Match(variants []catalog.VariantRecord, req Request) (catalog.VariantRecord, bool) {
	if req.Size == "" {
		return catalog.VariantRecord{}, false
	}
	for _, v := range variants {
		if equalFold(v.Size, req.Size) {
			return v, true
		}
	}
	return catalog.VariantRecord{}, false
}

// Matcher runs strategies in order; the first to match wins.
type Matcher struct {
	strategies []Strategy
}

// NewMatcher builds the standard five-tier chain.
func NewMatcher(aliases AliasTable) *Matcher {
	return NewMatcherWithStrategies(
		ExactMatch{},
		AliasMatch{Aliases: aliases},
		SubstringMatch{},
		SingleVariantFallback{},
		SizeOnlyFallback{},
	)
}

func NewMatcherWithStrategies(strategies ...Strategy) *Matcher {
	return &Matcher{strategies: append([]Strategy(nil), strategies...)}
}

func (m *Matcher) Strategies() []Strategy {
	return append([]Strategy(nil), m.strategies...)
}

// Match returns the first tier's pick, or false when no tier matches.
func (m *Matcher) Match(variants []catalog.VariantRecord, req Request) (ResolvedVariant, bool) {
	for _, s := range m.strategies {
		if v, ok := s.Match(variants, req); ok {
			return ResolvedVariant{
				FulfillmentVariantID: v.FulfillmentVariantID,
				MatchTier:            s.Tier(),
				MatchedColor:         v.Color,
				MatchedSize:          v.Size,
			}, true
		}
	}
	return ResolvedVariant{}, false
}

// MatchProducts runs the full chain against each candidate product in order
// and returns the first product's match, so a later candidate is only probed
// when every tier failed on the earlier ones. No match reports
// UNRESOLVED_VARIANT naming the first product.
func (m *Matcher) MatchProducts(products []catalog.ProductRecord, req Request, descriptor string) (ResolvedVariant, error) {
	for _, p := range products {
		if rv, ok := m.Match(p.Variants, req); ok {
			rv.ProductID = p.ID
			return rv, nil
		}
	}

	productID := ""
	if len(products) > 0 {
		productID = products[0].ID
	}
	return ResolvedVariant{}, apperrors.NewUnresolvedVariantError(descriptor, productID)
}

func (m *Matcher) MatchProduct(p catalog.ProductRecord, req Request, descriptor string) (ResolvedVariant, error) {
	return m.MatchProducts([]catalog.ProductRecord{p}, req, descriptor)
}
