package main

import (
	"context"
	"fmt"
	"strings"

	"storefront-workers/internal/catalog"
	awsclients "storefront-workers/internal/common/aws"
	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/config"
	"storefront-workers/internal/common/database"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/notify"
	"storefront-workers/internal/shipping"
	"storefront-workers/internal/variant"
	rov "storefront-workers/internal/workers/fulfillment/resolve-order-variants"
	"storefront-workers/pkg/aliasregistry"
)

func buildCatalog(cfg *config.Config, pg *database.PostgresClient, es *database.ElasticsearchClient) catalog.Catalog {
	var inner catalog.Catalog
	if es != nil {
		inner = catalog.NewElasticCatalog(es.Client, es.ProductIndex)
	} else {
		inner = catalog.NewPostgresCatalog(pg.DB)
	}
	if cfg.Catalog.CacheTTL <= 0 {
		return inner
	}
	return catalog.NewCachedCatalog(inner, config.GetDuration(cfg.Catalog.CacheTTL))
}

// loadAliases reads the reviewed alias file, or returns the built-in table
// when none is configured.
func loadAliases(path string) (variant.AliasTable, error) {
	if path == "" {
		return variant.DefaultAliasTable(), nil
	}
	reg, err := aliasregistry.Load(path)
	if err != nil {
		return variant.AliasTable{}, err
	}
	if err := reg.Validate(); err != nil {
		return variant.AliasTable{}, err
	}
	return variant.NewAliasTable(reg.Map()), nil
}

// routeTable lays configured product routes over the defaults.
func routeTable(overrides map[string][]string) variant.RouteTable {
	routes := variant.DefaultRoutes()
	for token, names := range overrides {
		if len(names) == 0 {
			delete(routes, token)
			continue
		}
		routes[token] = names
	}
	return routes
}

func fallbackTable(rates []config.FallbackRate) shipping.FallbackTable {
	if len(rates) == 0 {
		return shipping.DefaultFallbackTable()
	}
	options := make([]shipping.ShippingOption, len(rates))
	for i, r := range rates {
		opt := shipping.ShippingOption{
			ID:       r.ID,
			Name:     r.Name,
			Rate:     r.Rate,
			Currency: r.Currency,
			Carrier:  r.Carrier,
		}
		if r.MinDeliveryDays > 0 {
			n := r.MinDeliveryDays
			opt.MinDeliveryDays = &n
		}
		if r.MaxDeliveryDays > 0 {
			n := r.MaxDeliveryDays
			opt.MaxDeliveryDays = &n
		}
		options[i] = opt
	}
	return shipping.NewFallbackTable(options)
}

// buildNotifier returns nil when no alert channel is configured. The
// publisher and sender stay nil interfaces unless their channel is set.
func buildNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (rov.Notifier, error) {
	recipients := splitList(cfg.SESTo)
	if cfg.SNSTopicARN == "" && (cfg.SESFrom == "" || len(recipients) == 0) {
		return nil, nil
	}

	awsCfg, err := awsclients.LoadConfig(ctx, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var publisher notify.Publisher
	if cfg.SNSTopicARN != "" {
		publisher = awsclients.NewSNSClient(awsCfg)
	}
	var sender notify.EmailSender
	if cfg.SESFrom != "" && len(recipients) > 0 {
		sender = awsclients.NewSESClient(awsCfg)
	}

	return notify.NewOperatorNotifier(notify.Config{
		TopicARN: cfg.SNSTopicARN,
		From:     cfg.SESFrom,
		To:       recipients,
	}, publisher, sender, log), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func workerOptions(wcfg config.WorkerConfig) camunda.WorkerOptions {
	return camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
		Concurrency:   wcfg.Concurrency,
	}
}
