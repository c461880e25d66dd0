// Package shipping quotes shipping rates for a cart, degrading to a static
// rate table whenever the provider cannot answer.
package shipping

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VariantID is a cart variant identifier. In JSON it may be a number or a string.
type VariantID string

func (v *VariantID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = VariantID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("variant id must be a string or number: %w", err)
	}
	*v = VariantID(n.String())
	return nil
}

type Recipient struct {
	Name        string `json:"name,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

type Item struct {
	VariantID VariantID `json:"printful_variant_id"`
	Quantity  int       `json:"quantity"`
}

// QuoteRequest is the checkout's request for shipping options.
type QuoteRequest struct {
	Recipient Recipient `json:"recipient"`
	Items     []Item    `json:"items"`
}

// ShippingOption is one selectable shipping method.
type ShippingOption struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Rate            string `json:"rate"`
	Currency        string `json:"currency"`
	MinDeliveryDays *int   `json:"minDeliveryDays,omitempty"`
	MaxDeliveryDays *int   `json:"maxDeliveryDays,omitempty"`
	Carrier         string `json:"carrier,omitempty"`
}

// QuoteResponse is what checkout receives. Source is not serialized.
type QuoteResponse struct {
	Options    []ShippingOption `json:"options"`
	TTLSeconds int              `json:"ttlSeconds"`
	Source     string           `json:"-"`
}
