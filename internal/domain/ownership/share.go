package ownership

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/shared/errors"
)

// ShareScale is the number of decimal places a share ratio may carry.
const ShareScale = 6

// FullShare is the whole parcel.
var FullShare = decimal.NewFromInt(1)

// ValidateShare checks share ∈ (0, 1] with at most ShareScale decimals.
// Values are never rounded or clamped.
func ValidateShare(share decimal.Decimal) error {
	if !share.IsPositive() {
		return errors.InvalidShare(fmt.Sprintf("share ratio %s must be greater than 0", share.String()))
	}
	if share.GreaterThan(FullShare) {
		return errors.InvalidShare(fmt.Sprintf("share ratio %s must not exceed 1", share.String()))
	}
	if !share.Equal(share.Truncate(ShareScale)) {
		return errors.InvalidShare(fmt.Sprintf("share ratio %s has more than %d decimal places", share.String(), ShareScale))
	}
	return nil
}

// ParseShare parses and validates a share ratio literal.
func ParseShare(s string) (decimal.Decimal, error) {
	share, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.InvalidShare(fmt.Sprintf("share ratio %q is not a decimal", s))
	}
	if err := ValidateShare(share); err != nil {
		return decimal.Zero, err
	}
	return share, nil
}
