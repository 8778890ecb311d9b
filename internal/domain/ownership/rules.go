package ownership

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/shared/errors"
)

// AllocatedTotal sums the shares of the active edges.
func AllocatedTotal(edges []*ParcelOwner) decimal.Decimal {
	total := decimal.Zero
	for _, e := range edges {
		if e.active {
			total = total.Add(e.share)
		}
	}
	return total
}

// FindActive returns ownerID's active edge, or nil.
func FindActive(edges []*ParcelOwner, ownerID uint) *ParcelOwner {
	for _, e := range edges {
		if e.active && e.ownerID == ownerID {
			return e
		}
	}
	return nil
}

// CheckAllocation fails with OverAllocation when extra does not fit in the
// unallocated remainder. The ceiling comparison is exact.
func CheckAllocation(edges []*ParcelOwner, extra decimal.Decimal) error {
	total := AllocatedTotal(edges)
	if total.Add(extra).GreaterThan(FullShare) {
		return errors.OverAllocation(
			fmt.Sprintf("allocating %s would raise the parcel total from %s above 1", extra.String(), total.String()),
		)
	}
	return nil
}

// PlanInitial validates a first allocation of share to ownerID and returns
// the edge to insert.
func PlanInitial(parcelID uint, edges []*ParcelOwner, ownerID uint, share decimal.Decimal, acquiredAt time.Time) (*ParcelOwner, error) {
	if err := ValidateShare(share); err != nil {
		return nil, err
	}
	if FindActive(edges, ownerID) != nil {
		return nil, errors.DuplicateOwnership(fmt.Sprintf("owner %d already holds a share of this parcel", ownerID))
	}
	if err := CheckAllocation(edges, share); err != nil {
		return nil, err
	}
	return NewParcelOwner(parcelID, ownerID, share, acquiredAt)
}

// TransferPlan is the set of edge mutations a transfer resolves to.
type TransferPlan struct {
	// From is nil when the share comes from the unallocated pool.
	From       *ParcelOwner
	FromClosed bool
	To         *ParcelOwner
	ToCreated  bool
}

// PlanTransfer moves share from fromOwnerID (or the unallocated pool when
// nil) to toOwnerID, mutating the affected edges in place.
func PlanTransfer(parcelID uint, edges []*ParcelOwner, fromOwnerID *uint, toOwnerID uint, share decimal.Decimal, at time.Time) (*TransferPlan, error) {
	if err := ValidateShare(share); err != nil {
		return nil, err
	}
	if toOwnerID == 0 {
		return nil, errors.InvalidPayload("to_owner is required")
	}
	if fromOwnerID != nil && *fromOwnerID == toOwnerID {
		return nil, errors.InvalidPayload("cannot transfer a share to the same owner")
	}

	plan := &TransferPlan{}
	total := AllocatedTotal(edges)

	if fromOwnerID != nil {
		from := FindActive(edges, *fromOwnerID)
		if from == nil {
			return nil, errors.InsufficientShare(fmt.Sprintf("owner %d holds no share of this parcel", *fromOwnerID))
		}
		if from.share.LessThan(share) {
			return nil, errors.InsufficientShare(
				fmt.Sprintf("owner %d holds %s, cannot transfer %s", *fromOwnerID, from.share.String(), share.String()),
			)
		}
		plan.From = from
	} else if total.Add(share).GreaterThan(FullShare) {
		return nil, errors.OverAllocation(
			fmt.Sprintf("only %s of the parcel is unallocated, cannot allocate %s", FullShare.Sub(total).String(), share.String()),
		)
	}

	to := FindActive(edges, toOwnerID)
	if to != nil && to.share.Add(share).GreaterThan(FullShare) {
		return nil, errors.OverAllocation(fmt.Sprintf("owner %d would hold more than the whole parcel", toOwnerID))
	}

	if plan.From != nil {
		remaining := plan.From.share.Sub(share)
		if remaining.IsZero() {
			plan.From.deactivate(at)
			plan.FromClosed = true
		} else {
			plan.From.setShare(remaining, at)
		}
	}

	if to != nil {
		to.setShare(to.share.Add(share), at)
		plan.To = to
	} else {
		created, err := NewParcelOwner(parcelID, toOwnerID, share, at)
		if err != nil {
			return nil, err
		}
		plan.To = created
		plan.ToCreated = true
	}

	return plan, nil
}

// PlanShareUpdate replaces edge's share with newShare if the parcel total
// stays within 1. edge must be one of edges.
func PlanShareUpdate(edges []*ParcelOwner, edge *ParcelOwner, newShare decimal.Decimal, at time.Time) error {
	if err := ValidateShare(newShare); err != nil {
		return err
	}
	if !edge.active {
		return errors.NewStateError(fmt.Sprintf("ownership %d is no longer active", edge.id))
	}
	others := AllocatedTotal(edges).Sub(edge.share)
	if others.Add(newShare).GreaterThan(FullShare) {
		return errors.OverAllocation(
			fmt.Sprintf("other owners hold %s, cannot set share to %s", others.String(), newShare.String()),
		)
	}
	edge.setShare(newShare, at)
	return nil
}

// ReplicateTo copies every active edge onto childParcelID with the same share
// and acquisition date.
func ReplicateTo(edges []*ParcelOwner, childParcelID uint) []*ParcelOwner {
	now := time.Now().UTC()
	out := make([]*ParcelOwner, 0, len(edges))
	for _, e := range edges {
		if !e.active {
			continue
		}
		out = append(out, &ParcelOwner{
			parcelID:   childParcelID,
			ownerID:    e.ownerID,
			share:      e.share,
			acquiredAt: e.acquiredAt,
			active:     true,
			version:    1,
			createdAt:  now,
			updatedAt:  now,
		})
	}
	return out
}
