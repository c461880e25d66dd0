package shipping

import (
	"fmt"
	"strings"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/variant"
)

// Validate checks the payload shape first, then every variant id. One bad id
// rejects the whole request.
func Validate(req QuoteRequest) error {
	if strings.TrimSpace(req.Recipient.CountryCode) == "" {
		return apperrors.NewInvalidPayloadError("recipient.country_code is required")
	}
	if strings.TrimSpace(req.Recipient.Zip) == "" {
		return apperrors.NewInvalidPayloadError("recipient.zip is required")
	}
	if len(req.Items) == 0 {
		return apperrors.NewInvalidPayloadError("items must not be empty")
	}
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return apperrors.NewInvalidPayloadError(fmt.Sprintf("items[%d].quantity must be at least 1", i))
		}
	}

	for _, item := range req.Items {
		if err := variant.ValidateID(string(item.VariantID)); err != nil {
			return err
		}
	}
	return nil
}
