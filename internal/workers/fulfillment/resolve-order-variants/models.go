package resolveordervariants

import "storefront-workers/internal/variant"

type LineItem struct {
	LineID     string             `json:"lineId,omitempty"`
	Descriptor variant.Descriptor `json:"descriptor"`
	Quantity   int                `json:"quantity"`
}

type Input struct {
	OrderID string     `json:"orderId"`
	Items   []LineItem `json:"items"`
}

type ResolvedItem struct {
	Index      int    `json:"index"`
	LineID     string `json:"lineId,omitempty"`
	Descriptor string `json:"descriptor"`
	Quantity   int    `json:"quantity"`
	variant.ResolvedVariant
}

type UnresolvedItem struct {
	Index      int    `json:"index"`
	LineID     string `json:"lineId,omitempty"`
	Descriptor string `json:"descriptor"`
	ErrorCode  string `json:"errorCode"`
	Message    string `json:"message"`
	ProductID  string `json:"productId,omitempty"`
}

type Output struct {
	OrderID         string           `json:"orderId"`
	BatchID         string           `json:"batchId"`
	ResolvedItems   []ResolvedItem   `json:"resolvedItems"`
	UnresolvedItems []UnresolvedItem `json:"unresolvedItems"`
	AllResolved     bool             `json:"allResolved"`
}
