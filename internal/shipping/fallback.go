package shipping

// FallbackTable is the static rate table served when the provider is
// unavailable. It is read-only after construction.
type FallbackTable struct {
	options []ShippingOption
}

func NewFallbackTable(options []ShippingOption) FallbackTable {
	return FallbackTable{options: cloneOptions(options)}
}

// DefaultFallbackTable holds the three built-in tiers.
func DefaultFallbackTable() FallbackTable {
	return NewFallbackTable([]ShippingOption{
		{ID: "standard-uk", Name: "Standard UK Delivery", Rate: "4.99", Currency: "GBP", MinDeliveryDays: intPtr(3), MaxDeliveryDays: intPtr(5), Carrier: "Royal Mail"},
		{ID: "express-uk", Name: "Express UK Delivery", Rate: "8.99", Currency: "GBP", MinDeliveryDays: intPtr(1), MaxDeliveryDays: intPtr(2), Carrier: "DHL Express"},
		{ID: "international-standard", Name: "International Standard", Rate: "12.99", Currency: "GBP", MinDeliveryDays: intPtr(7), MaxDeliveryDays: intPtr(14), Carrier: "Royal Mail International"},
	})
}

// Options returns a copy of the table.
func (t FallbackTable) Options() []ShippingOption {
	return cloneOptions(t.options)
}

func (t FallbackTable) Len() int {
	return len(t.options)
}

func cloneOptions(in []ShippingOption) []ShippingOption {
	out := make([]ShippingOption, len(in))
	for i, o := range in {
		out[i] = o
		if o.MinDeliveryDays != nil {
			out[i].MinDeliveryDays = intPtr(*o.MinDeliveryDays)
		}
		if o.MaxDeliveryDays != nil {
			out[i].MaxDeliveryDays = intPtr(*o.MaxDeliveryDays)
		}
	}
	return out
}

func intPtr(n int) *int {
	return &n
}
