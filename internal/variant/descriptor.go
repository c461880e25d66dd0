// Package variant resolves loosely structured cart line items to the
// fulfillment variant the print provider needs.
package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "storefront-workers/internal/common/errors"
)

// Descriptor identifies a cart line item before resolution. It is either a
// composite key such as "tshirt-M-Autumn" or structured fields. In JSON it
// is accepted as a string or as an object.
type Descriptor struct {
	Key         string `json:"-"`
	ProductType string `json:"productType"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
}

// KeyDescriptor builds a composite-key descriptor.
func KeyDescriptor(key string) Descriptor {
	return Descriptor{Key: key}
}

// String renders the descriptor for diagnostics.
func (d Descriptor) String() string {
	if d.Key != "" {
		return d.Key
	}
	parts := []string{d.ProductType}
	if d.Size != "" {
		parts = append(parts, d.Size)
	}
	if d.Color != "" {
		parts = append(parts, d.Color)
	}
	return strings.Join(parts, "/")
}

type structuredDescriptor struct {
	ProductType string `json:"productType"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var key string
		if err := json.Unmarshal(data, &key); err != nil {
			return err
		}
		*d = Descriptor{Key: key}
		return nil
	}

	var s structuredDescriptor
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("descriptor must be a string key or an object: %w", err)
	}
	*d = Descriptor{ProductType: s.ProductType, Size: s.Size, Color: s.Color}
	return nil
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	if d.Key != "" {
		return json.Marshal(d.Key)
	}
	return json.Marshal(structuredDescriptor{ProductType: d.ProductType, Size: d.Size, Color: d.Color})
}

// Triple is a normalized descriptor. Empty Size or Color means not requested.
type Triple struct {
	ProductType string
	Size        string
	Color       string
}

// Normalize decomposes a descriptor. Composite keys are split positionally on
// "-" and keep their case; structured fields are trimmed.
func Normalize(d Descriptor) (Triple, error) {
	if d.Key != "" {
		return ParseKey(d.Key)
	}

	t := Triple{
		ProductType: strings.TrimSpace(d.ProductType),
		Size:        strings.TrimSpace(d.Size),
		Color:       strings.TrimSpace(d.Color),
	}
	if t.ProductType == "" {
		return Triple{}, apperrors.NewMalformedDescriptorError(d.String())
	}
	return t, nil
}

// ParseKey splits "type-color" or "type-size-color".
func ParseKey(key string) (Triple, error) {
	segs := strings.Split(key, "-")
	switch len(segs) {
	case 2:
		return Triple{ProductType: segs[0], Color: segs[1]}, nil
	case 3:
		return Triple{ProductType: segs[0], Size: segs[1], Color: segs[2]}, nil
	default:
		return Triple{}, apperrors.NewMalformedDescriptorError(key)
	}
}
