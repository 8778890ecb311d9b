package parcel

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/shared/errors"
)

// AreaTolerance is the slack allowed when comparing summed child areas
// against the parent area, in square metres.
var AreaTolerance = decimal.NewFromFloat(0.1)

// ChildSpec describes one parcel to carve out of a parent.
type ChildSpec struct {
	UPIN       string
	FileNumber string
	Area       decimal.Decimal
	Location   Location
	LandUse    string
	Boundary   *Boundary
}

// ValidateSubdivision checks the children against the parent area. It does
// not consult the store; collisions with existing UPINs are checked by the
// caller under lock.
func ValidateSubdivision(parentArea decimal.Decimal, children []ChildSpec) error {
	if len(children) < 2 {
		return errors.InvalidPayload("a subdivision needs at least two children")
	}

	seen := make(map[string]struct{}, len(children))
	total := decimal.Zero
	for i, c := range children {
		upin := strings.TrimSpace(c.UPIN)
		if upin == "" {
			return errors.InvalidPayload(fmt.Sprintf("child %d has no upin", i+1))
		}
		if !c.Area.IsPositive() {
			return errors.InvalidArea(fmt.Sprintf("child %s area must be positive", upin), c.Area.String())
		}
		if _, dup := seen[upin]; dup {
			return errors.DuplicateChildUPIN(fmt.Sprintf("upin %s appears more than once", upin))
		}
		seen[upin] = struct{}{}
		total = total.Add(c.Area)
	}

	if total.GreaterThan(parentArea.Add(AreaTolerance)) {
		return errors.AreaExceeded(
			fmt.Sprintf("children total %s m2 exceeds parent area %s m2", total.String(), parentArea.String()),
		)
	}
	return nil
}
