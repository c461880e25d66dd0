package variant

import (
	"regexp"

	apperrors "storefront-workers/internal/common/errors"
)

var (
	numericID = regexp.MustCompile(`^[0-9]+$`)
	opaqueID  = regexp.MustCompile(`^[A-Za-z0-9_-]{8,}$`)
)

// ValidID reports whether id is all decimal digits, or at least eight
// letters, digits, hyphens or underscores.
func ValidID(id string) bool {
	return numericID.MatchString(id) || opaqueID.MatchString(id)
}

// ValidateID returns INVALID_VARIANT_ID for ids failing ValidID.
func ValidateID(id string) error {
	if !ValidID(id) {
		return apperrors.NewInvalidVariantIDError(id)
	}
	return nil
}
