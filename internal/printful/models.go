package printful

import (
	"encoding/json"
)

// Recipient is the shipping destination in the provider's wire format.
type Recipient struct {
	Name        string `json:"name,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city,omitempty"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// RateItem references a catalog variant, never a store sync variant.
type RateItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type RatesRequest struct {
	Recipient Recipient  `json:"recipient"`
	Items     []RateItem `json:"items"`
}

// Rate is one shipping rate. Delivery bounds are nil when the provider
// omitted them; dates are kept raw for the caller to interpret.
type Rate struct {
	ID              string
	Name            string
	Rate            string
	Currency        string
	MinDeliveryDays *int
	MaxDeliveryDays *int
	MinDeliveryDate string
	MaxDeliveryDate string
	Carrier         string
}

// rateWire accepts both the documented snake_case fields and the camelCase
// ones some provider responses use.
type rateWire struct {
	ID                   json.RawMessage `json:"id"`
	Name                 string          `json:"name"`
	Rate                 json.Number     `json:"rate"`
	Currency             string          `json:"currency"`
	MinDeliveryDays      *int            `json:"min_delivery_days"`
	MaxDeliveryDays      *int            `json:"max_delivery_days"`
	MinDeliveryDaysCamel *int            `json:"minDeliveryDays"`
	MaxDeliveryDaysCamel *int            `json:"maxDeliveryDays"`
	MinDeliveryDate      string          `json:"min_delivery_date"`
	MaxDeliveryDate      string          `json:"max_delivery_date"`
	MinDeliveryDateCamel string          `json:"minDeliveryDate"`
	MaxDeliveryDateCamel string          `json:"maxDeliveryDate"`
	Carrier              string          `json:"carrier"`
}

func (r *Rate) UnmarshalJSON(data []byte) error {
	var w rateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Rate{
		ID:              rawString(w.ID),
		Name:            w.Name,
		Rate:            w.Rate.String(),
		Currency:        w.Currency,
		MinDeliveryDays: firstInt(w.MinDeliveryDays, w.MinDeliveryDaysCamel),
		MaxDeliveryDays: firstInt(w.MaxDeliveryDays, w.MaxDeliveryDaysCamel),
		MinDeliveryDate: firstString(w.MinDeliveryDate, w.MinDeliveryDateCamel),
		MaxDeliveryDate: firstString(w.MaxDeliveryDate, w.MaxDeliveryDateCamel),
		Carrier:         w.Carrier,
	}
	return nil
}

// rawString renders a JSON string or number id as text.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type ratesEnvelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
}
