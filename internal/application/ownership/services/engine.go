// Package services holds the ownership invariant engine: every write to
// parcels, owners, ownership edges, transfer history, leases and
// encumbrances goes through it, under the parcel lock and one transaction.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/domain/owner"
	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/parcel"
	"github.com/landreg/cadastre/internal/shared/biztime"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// Stores bundles the repositories the engine writes through.
type Stores struct {
	Parcels      parcel.Repository
	Owners       owner.Repository
	Edges        ownership.Repository
	History      ownership.HistoryRepository
	Encumbrances parcel.EncumbranceRepository
	Leases       parcel.LeaseRepository
}

type Engine struct {
	tx     common.Transactor
	locker ownership.ParcelLocker
	stores Stores
	logger logger.Interface
	now    func() time.Time
}

func NewEngine(tx common.Transactor, locker ownership.ParcelLocker, stores Stores, logger logger.Interface) *Engine {
	return &Engine{
		tx:     tx,
		locker: locker,
		stores: stores,
		logger: logger,
		now:    biztime.NowUTC,
	}
}

// Locker exposes the parcel locker so callers that wrap several engine
// operations can take the locks up front.
func (e *Engine) Locker() ownership.ParcelLocker {
	return e.locker
}

// Run takes the locks of upins and opens a transaction around fn. Locks are
// always taken before the transaction starts.
func (e *Engine) Run(ctx context.Context, upins []string, fn func(ctx context.Context) error) error {
	return ownership.WithParcelLocks(ctx, e.locker, upins, func(ctx context.Context) error {
		return e.tx.RunInTransaction(ctx, fn)
	})
}

type RegisterParcelResult struct {
	Parcel    *parcel.Parcel
	OwnerID   uint
	Ownership *ownership.ParcelOwner
	Lease     *parcel.LeaseAgreement
}

// RegisterParcel creates the parcel, resolves or creates its owner, and
// records the initial allocation and any lease terms.
func (e *Engine) RegisterParcel(ctx context.Context, cmd RegisterParcelCommand) (*RegisterParcelResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	pd := cmd.Parcel
	upin := strings.TrimSpace(pd.UPIN)

	var result *RegisterParcelResult
	err := e.Run(ctx, []string{upin}, func(ctx context.Context) error {
		p, err := parcel.NewParcel(upin, pd.FileNumber, pd.Location(), pd.TotalAreaM2, pd.LandUse, pd.TenureType, pd.Boundary())
		if err != nil {
			return err
		}
		if err := e.stores.Parcels.Create(ctx, p); err != nil {
			return err
		}

		ownerID, err := e.resolveOwner(ctx, ownerRefFrom(cmd.Owner))
		if err != nil {
			return err
		}

		now := e.now()
		edge, err := e.link(ctx, p, nil, ownerID, cmd.Owner.ShareRatio, cmd.Owner.AcquiredOn(now), now)
		if err != nil {
			return err
		}

		result = &RegisterParcelResult{Parcel: p, OwnerID: ownerID, Ownership: edge}

		if p.Tenure().IsLease() && cmd.Lease != nil {
			start, expiry, contract := cmd.Lease.Dates()
			lease := &parcel.LeaseAgreement{
				ParcelID:         p.ID(),
				LeasedArea:       cmd.Lease.LeasedAreaM2,
				TotalLeaseAmount: cmd.Lease.TotalLeaseAmount,
				DownPayment:      cmd.Lease.DownPayment,
				StartDate:        start,
				ExpiryDate:       expiry,
				ContractDate:     contract,
				Status:           parcel.LeaseStatusActive,
				CreatedAt:        now,
			}
			if err := e.stores.Leases.Create(ctx, lease); err != nil {
				return err
			}
			result.Lease = lease
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Infow("parcel registered",
		"upin", upin,
		"parcel_id", result.Parcel.ID(),
		"owner_id", result.OwnerID,
	)
	return result, nil
}

// CreateInitialOwnership allocates share of an active parcel to an owner
// that holds none of it yet.
func (e *Engine) CreateInitialOwnership(ctx context.Context, cmd LinkOwnerCommand) (*ownership.ParcelOwner, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var created *ownership.ParcelOwner
	err := e.Run(ctx, []string{cmd.UPIN}, func(ctx context.Context) error {
		p, err := e.stores.Parcels.GetByUPINForUpdate(ctx, cmd.UPIN)
		if err != nil {
			return err
		}
		if err := p.EnsureAcceptsOwnership(); err != nil {
			return err
		}
		ownerID, err := e.resolveOwner(ctx, cmd.Owner)
		if err != nil {
			return err
		}
		edges, err := e.stores.Edges.ListActiveByParcel(ctx, p.ID())
		if err != nil {
			return err
		}

		now := e.now()
		acquiredAt := now
		if cmd.AcquiredAt != nil {
			acquiredAt = cmd.AcquiredAt.UTC()
		}
		created, err = e.link(ctx, p, edges, ownerID, cmd.Share, acquiredAt, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Infow("ownership created",
		"upin", cmd.UPIN,
		"owner_id", created.OwnerID(),
		"share", created.Share().String(),
	)
	return created, nil
}

// link inserts an INITIAL edge plus its history row. Caller holds the lock.
func (e *Engine) link(ctx context.Context, p *parcel.Parcel, edges []*ownership.ParcelOwner, ownerID uint, share decimal.Decimal, acquiredAt, now time.Time) (*ownership.ParcelOwner, error) {
	edge, err := ownership.PlanInitial(p.ID(), edges, ownerID, share, acquiredAt)
	if err != nil {
		return nil, err
	}
	if err := e.stores.Edges.Create(ctx, edge); err != nil {
		return nil, err
	}
	if err := e.stores.History.Append(ctx, &ownership.TransferHistory{
		ParcelID:      p.ID(),
		ToOwnerID:     ownerID,
		Share:         share,
		TransferType:  ownership.TransferInitial,
		TransferredAt: now,
	}); err != nil {
		return nil, err
	}
	return edge, nil
}

type TransferResult struct {
	ParcelID uint
	From     *ownership.ParcelOwner
	To       *ownership.ParcelOwner
	History  *ownership.TransferHistory
}

// TransferOwnership moves share between owners all-or-nothing.
func (e *Engine) TransferOwnership(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *TransferResult
	err := e.Run(ctx, []string{cmd.UPIN}, func(ctx context.Context) error {
		p, err := e.stores.Parcels.GetByUPINForUpdate(ctx, cmd.UPIN)
		if err != nil {
			return err
		}
		if err := p.EnsureAcceptsOwnership(); err != nil {
			return err
		}
		toID, err := e.resolveOwner(ctx, cmd.To)
		if err != nil {
			return err
		}
		edges, err := e.stores.Edges.ListActiveByParcel(ctx, p.ID())
		if err != nil {
			return err
		}

		now := e.now()
		plan, err := ownership.PlanTransfer(p.ID(), edges, cmd.FromOwnerID, toID, cmd.Share, now)
		if err != nil {
			return err
		}
		if plan.From != nil {
			if err := e.stores.Edges.Update(ctx, plan.From); err != nil {
				return err
			}
		}
		if plan.ToCreated {
			err = e.stores.Edges.Create(ctx, plan.To)
		} else {
			err = e.stores.Edges.Update(ctx, plan.To)
		}
		if err != nil {
			return err
		}

		h := &ownership.TransferHistory{
			ParcelID:      p.ID(),
			FromOwnerID:   cmd.FromOwnerID,
			ToOwnerID:     toID,
			Share:         cmd.Share,
			TransferType:  cmd.TransferType,
			Price:         cmd.Price,
			Reference:     strings.TrimSpace(cmd.Reference),
			TransferredAt: now,
		}
		if err := e.stores.History.Append(ctx, h); err != nil {
			return err
		}

		result = &TransferResult{ParcelID: p.ID(), From: plan.From, To: plan.To, History: h}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Infow("ownership transferred",
		"upin", cmd.UPIN,
		"to_owner_id", result.To.OwnerID(),
		"share", cmd.Share.String(),
		"type", cmd.TransferType,
	)
	return result, nil
}

type SubdivideResult struct {
	Parent   *parcel.Parcel
	Children []*parcel.Parcel
}

// SubdivideParcel retires the parent and creates the children, copying
// every active ownership edge onto each child.
func (e *Engine) SubdivideParcel(ctx context.Context, cmd SubdivideCommand) (*SubdivideResult, error) {
	cmd.ParentUPIN = strings.TrimSpace(cmd.ParentUPIN)
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	specs := cmd.specs()

	var result *SubdivideResult
	err := e.Run(ctx, cmd.UPINs(), func(ctx context.Context) error {
		parent, err := e.stores.Parcels.GetByUPINForUpdate(ctx, cmd.ParentUPIN)
		if err != nil {
			return err
		}
		if !parent.IsActive() {
			return errors.NewStateError(fmt.Sprintf("parcel %s is retired and cannot be subdivided", parent.UPIN()))
		}
		if err := parcel.ValidateSubdivision(parent.TotalArea(), specs); err != nil {
			return err
		}

		childUPINs := make([]string, 0, len(specs))
		for _, s := range specs {
			childUPINs = append(childUPINs, s.UPIN)
		}
		taken, err := e.stores.Parcels.ExistingUPINs(ctx, childUPINs)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return errors.DuplicateChildUPIN(fmt.Sprintf("upin %s is already registered", strings.Join(taken, ", ")))
		}

		edges, err := e.stores.Edges.ListActiveByParcel(ctx, parent.ID())
		if err != nil {
			return err
		}

		now := e.now()
		children := make([]*parcel.Parcel, 0, len(specs))
		for _, spec := range specs {
			child, err := parent.NewChild(spec)
			if err != nil {
				return err
			}
			if err := e.stores.Parcels.Create(ctx, child); err != nil {
				if errors.HasReason(err, errors.ReasonDuplicateUPIN) {
					return errors.DuplicateChildUPIN(fmt.Sprintf("upin %s is already registered", spec.UPIN))
				}
				return err
			}
			for _, copied := range ownership.ReplicateTo(edges, child.ID()) {
				if err := e.stores.Edges.Create(ctx, copied); err != nil {
					return err
				}
				ownerID := copied.OwnerID()
				if err := e.stores.History.Append(ctx, &ownership.TransferHistory{
					ParcelID:      child.ID(),
					FromOwnerID:   &ownerID,
					ToOwnerID:     ownerID,
					Share:         copied.Share(),
					TransferType:  ownership.TransferSubdivision,
					Reference:     parent.UPIN(),
					TransferredAt: now,
				}); err != nil {
					return err
				}
			}
			children = append(children, child)
		}

		if err := parent.Retire(now); err != nil {
			return err
		}
		if err := e.stores.Parcels.Update(ctx, parent); err != nil {
			return err
		}

		result = &SubdivideResult{Parent: parent, Children: children}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Infow("parcel subdivided",
		"parent_upin", cmd.ParentUPIN,
		"children", len(result.Children),
	)
	return result, nil
}

// ParcelUPINForOwnership resolves the parcel an ownership edge belongs to.
func (e *Engine) ParcelUPINForOwnership(ctx context.Context, ownershipID uint) (string, error) {
	edge, err := e.stores.Edges.GetByID(ctx, ownershipID)
	if err != nil {
		return "", err
	}
	p, err := e.stores.Parcels.GetByID(ctx, edge.ParcelID())
	if err != nil {
		return "", err
	}
	return p.UPIN(), nil
}

// ParcelUPINForEncumbrance resolves the parcel an encumbrance is held on.
func (e *Engine) ParcelUPINForEncumbrance(ctx context.Context, encumbranceID uint) (string, error) {
	enc, err := e.stores.Encumbrances.GetByID(ctx, encumbranceID)
	if err != nil {
		return "", err
	}
	p, err := e.stores.Parcels.GetByID(ctx, enc.ParcelID())
	if err != nil {
		return "", err
	}
	return p.UPIN(), nil
}

// UpdateShare replaces one owner's share as long as the parcel total stays
// within the whole.
func (e *Engine) UpdateShare(ctx context.Context, cmd UpdateShareCommand) (*ownership.ParcelOwner, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	upin, err := e.ParcelUPINForOwnership(ctx, cmd.OwnershipID)
	if err != nil {
		return nil, err
	}

	var updated *ownership.ParcelOwner
	var previous string
	err = e.Run(ctx, []string{upin}, func(ctx context.Context) error {
		p, err := e.stores.Parcels.GetByUPINForUpdate(ctx, upin)
		if err != nil {
			return err
		}
		if err := p.EnsureAcceptsOwnership(); err != nil {
			return err
		}
		edges, err := e.stores.Edges.ListActiveByParcel(ctx, p.ID())
		if err != nil {
			return err
		}
		var edge *ownership.ParcelOwner
		for _, candidate := range edges {
			if candidate.ID() == cmd.OwnershipID {
				edge = candidate
				break
			}
		}
		if edge == nil {
			return errors.NewStateError(fmt.Sprintf("ownership %d is no longer active", cmd.OwnershipID))
		}
		previous = edge.Share().String()

		now := e.now()
		if err := ownership.PlanShareUpdate(edges, edge, cmd.Share, now); err != nil {
			return err
		}
		if err := e.stores.Edges.Update(ctx, edge); err != nil {
			return err
		}
		if err := e.stores.History.Append(ctx, &ownership.TransferHistory{
			ParcelID:      p.ID(),
			ToOwnerID:     edge.OwnerID(),
			Share:         cmd.Share,
			TransferType:  ownership.TransferAdjustment,
			Reference:     "previous share " + previous,
			TransferredAt: now,
		}); err != nil {
			return err
		}
		updated = edge
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Infow("ownership share updated",
		"ownership_id", cmd.OwnershipID,
		"from", previous,
		"to", cmd.Share.String(),
	)
	return updated, nil
}

func (e *Engine) RegisterEncumbrance(ctx context.Context, cmd EncumbranceCommand) (*parcel.Encumbrance, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var created *parcel.Encumbrance
	err := e.Run(ctx, []string{cmd.UPIN}, func(ctx context.Context) error {
		p, err := e.stores.Parcels.GetByUPINForUpdate(ctx, cmd.UPIN)
		if err != nil {
			return err
		}
		if !p.IsActive() {
			return errors.NewStateError(fmt.Sprintf("parcel %s is retired and cannot be encumbered", p.UPIN()))
		}
		enc, err := parcel.NewEncumbrance(p.ID(), cmd.Type, cmd.IssuingEntity, cmd.ReferenceNumber, cmd.Description, e.now())
		if err != nil {
			return err
		}
		if err := e.stores.Encumbrances.Create(ctx, enc); err != nil {
			return err
		}
		created = enc
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Infow("encumbrance registered",
		"upin", cmd.UPIN,
		"encumbrance_id", created.ID(),
		"type", created.Type(),
	)
	return created, nil
}

// ReleaseEncumbrance moves an ACTIVE encumbrance to RELEASED. Releasing
// twice is an InvalidState error.
func (e *Engine) ReleaseEncumbrance(ctx context.Context, id uint) (*parcel.Encumbrance, error) {
	enc, err := e.stores.Encumbrances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := e.stores.Parcels.GetByID(ctx, enc.ParcelID())
	if err != nil {
		return nil, err
	}

	err = e.Run(ctx, []string{p.UPIN()}, func(ctx context.Context) error {
		if _, err := e.stores.Parcels.GetByUPINForUpdate(ctx, p.UPIN()); err != nil {
			return err
		}
		enc, err = e.stores.Encumbrances.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := enc.Release(e.now()); err != nil {
			return err
		}
		return e.stores.Encumbrances.Update(ctx, enc)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Infow("encumbrance released", "encumbrance_id", id, "upin", p.UPIN())
	return enc, nil
}

// resolveOwner returns the id of the owner ref points at, registering a new
// owner when the national id is unknown. A known national id under another
// name is a conflict.
func (e *Engine) resolveOwner(ctx context.Context, ref OwnerRef) (uint, error) {
	if ref.OwnerID != nil {
		o, err := e.stores.Owners.GetByID(ctx, *ref.OwnerID)
		if err != nil {
			return 0, err
		}
		return o.ID(), nil
	}

	existing, err := e.stores.Owners.GetByNationalID(ctx, strings.TrimSpace(ref.NationalID))
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if !existing.Matches(ref.FullName, ref.NationalID) {
			return 0, errors.NewConflictError(
				fmt.Sprintf("national id %s is registered to a different owner", existing.NationalID()))
		}
		return existing.ID(), nil
	}

	o, err := owner.NewOwner(ref.FullName, ref.NationalID, ref.PhoneNumber, ref.TINNumber)
	if err != nil {
		return 0, err
	}
	if err := e.stores.Owners.Create(ctx, o); err != nil {
		return 0, err
	}
	return o.ID(), nil
}
