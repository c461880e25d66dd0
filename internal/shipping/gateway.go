package shipping

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"storefront-workers/internal/cache"
	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/metrics"
	"storefront-workers/internal/common/observability"
	"storefront-workers/internal/printful"
)

// Fallback reasons, used as metric labels.
const (
	ReasonNotConfigured         = "not_configured"
	ReasonUntranslatableVariant = "untranslatable_variant"
	ReasonRateLimited           = "rate_limited"
	ReasonBadStatus             = "bad_status"
	ReasonInvalidResponse       = "invalid_response"
	ReasonTimeout               = "timeout"
	ReasonTransport             = "transport"
)

// Upstream is the provider rate API.
type Upstream interface {
	Configured() bool
	ShippingRates(ctx context.Context, req printful.RatesRequest) ([]printful.Rate, error)
}

type GatewayConfig struct {
	TTL             time.Duration
	FallbackTTL     time.Duration
	UpstreamTimeout time.Duration
}

// Gateway answers shipping quotes from cache, the provider, or the fallback
// table. Only client errors are returned; upstream trouble always yields a quote.
type Gateway struct {
	upstream   Upstream
	cache      cache.Store[QuoteResponse]
	fallback   FallbackTable
	translator *VariantTranslator
	config     GatewayConfig
	logger     logger.Logger
	group      singleflight.Group
	now        func() time.Time
}

func NewGateway(
	upstream Upstream,
	store cache.Store[QuoteResponse],
	fallback FallbackTable,
	translator *VariantTranslator,
	config GatewayConfig,
	log logger.Logger,
) *Gateway {
	return &Gateway{
		upstream:   upstream,
		cache:      store,
		fallback:   fallback,
		translator: translator,
		config:     config,
		logger:     log.WithFields(map[string]interface{}{"component": "shipping-gateway"}),
		now:        time.Now,
	}
}

// Quote validates req and returns shipping options. Concurrent misses on the
// same key share one upstream call. If ctx expires first the caller gets the
// fallback table; if ctx is canceled the caller gets ctx.Err().
func (g *Gateway) Quote(ctx context.Context, req QuoteRequest) (resp QuoteResponse, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "shipping.quote",
		attribute.String("recipient.country", req.Recipient.CountryCode),
		attribute.Int("items", len(req.Items)))
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.String("quote.source", resp.Source))
			metrics.ShippingQuotes.WithLabelValues(resp.Source).Inc()
			metrics.ShippingQuoteDuration.WithLabelValues(resp.Source).Observe(time.Since(start).Seconds())
		}
		observability.EndSpan(span, err)
	}()

	if err := Validate(req); err != nil {
		return QuoteResponse{}, err
	}

	key := CacheKey(req)
	if cached, ok := g.cache.Get(ctx, key); ok {
		cached.Source = metrics.SourceCache
		return cached, nil
	}

	ch := g.group.DoChan(key, func() (interface{}, error) {
		return g.fetch(context.WithoutCancel(ctx), key, req), nil
	})

	select {
	case res := <-ch:
		return res.Val.(QuoteResponse), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			g.logFallback(key, ReasonTimeout, apperrors.NewUpstreamTimeoutError(ctx.Err()))
			return g.fallbackResponse(), nil
		}
		return QuoteResponse{}, ctx.Err()
	}
}

// fetch performs one upstream call and caches whatever it produces.
func (g *Gateway) fetch(ctx context.Context, key string, req QuoteRequest) QuoteResponse {
	resp, reason, err := g.live(ctx, req)
	if err != nil {
		g.logFallback(key, reason, err)
		resp = g.fallbackResponse()
		g.cache.Set(ctx, key, resp, g.config.FallbackTTL)
		return resp
	}

	g.cache.Set(ctx, key, resp, g.config.TTL)
	g.logger.Debug("shipping rates fetched", map[string]interface{}{
		"cacheKey": key,
		"options":  len(resp.Options),
	})
	return resp
}

func (g *Gateway) live(ctx context.Context, req QuoteRequest) (QuoteResponse, string, error) {
	if !g.upstream.Configured() {
		return QuoteResponse{}, ReasonNotConfigured, apperrors.NewUpstreamUnavailableError(printful.ErrNotConfigured)
	}

	items := make([]printful.RateItem, 0, len(req.Items))
	for _, item := range req.Items {
		catalogID, ok := g.translator.Translate(item.VariantID)
		if !ok {
			return QuoteResponse{}, ReasonUntranslatableVariant,
				apperrors.NewUpstreamInvalidResponseError("no catalog variant for " + string(item.VariantID))
		}
		items = append(items, printful.RateItem{VariantID: catalogID, Quantity: item.Quantity})
	}

	if g.config.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.UpstreamTimeout)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, "printful.shipping_rates")
	rates, err := g.upstream.ShippingRates(ctx, printful.RatesRequest{
		Recipient: toUpstreamRecipient(req.Recipient),
		Items:     items,
	})
	observability.EndSpan(span, err)
	if err != nil {
		reason, stdErr := classify(err)
		return QuoteResponse{}, reason, stdErr
	}

	now := g.now()
	options := make([]ShippingOption, len(rates))
	for i, r := range rates {
		options[i] = toOption(r, now)
	}
	return QuoteResponse{
		Options:    options,
		TTLSeconds: int(g.config.TTL / time.Second),
		Source:     metrics.SourceUpstream,
	}, "", nil
}

func (g *Gateway) fallbackResponse() QuoteResponse {
	return QuoteResponse{
		Options:    g.fallback.Options(),
		TTLSeconds: int(g.config.FallbackTTL / time.Second),
		Source:     metrics.SourceFallback,
	}
}

func (g *Gateway) logFallback(key, reason string, err error) {
	metrics.ShippingUpstreamFailures.WithLabelValues(reason).Inc()
	g.logger.Warn("serving fallback shipping rates", map[string]interface{}{
		"cacheKey":  key,
		"reason":    reason,
		"errorCode": apperrors.Code(err),
		"error":     err.Error(),
	})
}

func classify(err error) (string, error) {
	var statusErr *printful.StatusError
	switch {
	case errors.Is(err, printful.ErrRateLimited):
		return ReasonRateLimited, apperrors.NewUpstreamUnavailableError(err)
	case errors.As(err, &statusErr):
		return ReasonBadStatus, apperrors.NewUpstreamUnavailableError(err)
	case errors.Is(err, printful.ErrInvalidResponse):
		return ReasonInvalidResponse, apperrors.NewUpstreamInvalidResponseError(err.Error())
	case printful.IsTimeout(err):
		return ReasonTimeout, apperrors.NewUpstreamTimeoutError(err)
	default:
		return ReasonTransport, apperrors.NewUpstreamUnavailableError(err)
	}
}

func toUpstreamRecipient(r Recipient) printful.Recipient {
	return printful.Recipient{
		Name:        r.Name,
		Address1:    r.Address1,
		Address2:    r.Address2,
		City:        r.City,
		StateCode:   r.StateCode,
		CountryCode: r.CountryCode,
		Zip:         r.Zip,
		Phone:       r.Phone,
		Email:       r.Email,
	}
}
