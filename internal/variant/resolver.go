package variant

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/observability"
)

// Resolver runs Normalize, Route and Match for one cart line item.
type Resolver struct {
	router  *Router
	matcher *Matcher
	logger  logger.Logger
}

func NewResolver(router *Router, matcher *Matcher, log logger.Logger) *Resolver {
	return &Resolver{
		router:  router,
		matcher: matcher,
		logger:  log.WithFields(map[string]interface{}{"component": "variant-resolver"}),
	}
}

// Resolve maps d to exactly one fulfillment variant.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor) (rv ResolvedVariant, err error) {
	ctx, span := observability.StartSpan(ctx, "variant.resolve",
		attribute.String("descriptor", d.String()))
	defer func() {
		if err == nil {
			span.SetAttributes(
				attribute.String("variant.id", rv.FulfillmentVariantID),
				attribute.Int("variant.tier", rv.MatchTier),
			)
		}
		observability.EndSpan(span, err)
		r.record(d, rv, err)
	}()

	triple, err := Normalize(d)
	if err != nil {
		return ResolvedVariant{}, err
	}

	products, err := r.router.Route(ctx, triple.ProductType)
	if err != nil {
		return ResolvedVariant{}, err
	}

	req := Request{Size: triple.Size, Color: triple.Color}
	return r.matcher.MatchProducts(products, req, d.String())
}

func (r *Resolver) record(d Descriptor, rv ResolvedVariant, err error) {
	if err != nil {
		code := apperrors.Code(err)
		metrics.VariantResolutionFailures.WithLabelValues(string(code)).Inc()
		r.logger.Warn("variant resolution failed", map[string]interface{}{
			"descriptor": d.String(),
			"errorCode":  code,
			"error":      err.Error(),
		})
		return
	}

	metrics.VariantResolutions.WithLabelValues(strconv.Itoa(rv.MatchTier)).Inc()
	r.logger.Debug("variant resolved", map[string]interface{}{
		"descriptor": d.String(),
		"variantId":  rv.FulfillmentVariantID,
		"tier":       rv.MatchTier,
		"productId":  rv.ProductID,
	})
}
