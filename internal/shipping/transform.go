package shipping

import (
	"strings"
	"time"

	"storefront-workers/internal/printful"
)

const estimatedDeliveryMarker = "(Estimated delivery:"

var deliveryDateLayouts = []string{time.RFC3339, "2006-01-02"}

// toOption converts a provider rate. Missing delivery-day bounds are derived
// from delivery dates when those are present.
func toOption(r printful.Rate, now time.Time) ShippingOption {
	opt := ShippingOption{
		ID:              r.ID,
		Name:            cleanName(r.Name),
		Rate:            r.Rate,
		Currency:        r.Currency,
		MinDeliveryDays: r.MinDeliveryDays,
		MaxDeliveryDays: r.MaxDeliveryDays,
		Carrier:         r.Carrier,
	}

	if opt.MinDeliveryDays == nil {
		if d, ok := parseDeliveryDate(r.MinDeliveryDate); ok {
			opt.MinDeliveryDays = intPtr(businessDaysUntil(now, d))
		}
	}
	if opt.MaxDeliveryDays == nil {
		if d, ok := parseDeliveryDate(r.MaxDeliveryDate); ok {
			opt.MaxDeliveryDays = intPtr(businessDaysUntil(now, d))
		}
	}
	return opt
}

func cleanName(name string) string {
	if i := strings.Index(name, estimatedDeliveryMarker); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func parseDeliveryDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range deliveryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// businessDaysUntil counts Monday to Friday days after from up to and
// including to, never less than 1.
func businessDaysUntil(from, to time.Time) int {
	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	current, end := day(from), day(to)

	count := 0
	for current.Before(end) {
		current = current.AddDate(0, 0, 1)
		if wd := current.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	if count < 1 {
		return 1
	}
	return count
}
