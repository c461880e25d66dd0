package quoteshipping

import "storefront-workers/internal/shipping"

// Input is the quote request carried on the checkout process instance.
type Input struct {
	OrderID   string             `json:"orderId,omitempty"`
	Recipient shipping.Recipient `json:"recipient"`
	Items     []shipping.Item    `json:"items"`
}

type Output struct {
	ShippingOptions []shipping.ShippingOption `json:"shippingOptions"`
	TTLSeconds      int                       `json:"ttlSeconds"`
	QuoteSource     string                    `json:"quoteSource"`
	QuotedAt        string                    `json:"quotedAt"`
}
