package services

import (
	"context"

	"github.com/landreg/cadastre/internal/application/ownership/dto"
	"github.com/landreg/cadastre/internal/domain/owner"
	"github.com/landreg/cadastre/internal/domain/ownership"
)

func (e *Engine) GetParcel(ctx context.Context, upin string) (*dto.ParcelResponse, error) {
	p, err := e.stores.Parcels.GetByUPIN(ctx, upin)
	if err != nil {
		return nil, err
	}
	return dto.ToParcelResponse(p), nil
}

// ListOwnership returns the active owners of a parcel with their details.
func (e *Engine) ListOwnership(ctx context.Context, upin string) (*dto.ParcelOwnershipResponse, error) {
	p, err := e.stores.Parcels.GetByUPIN(ctx, upin)
	if err != nil {
		return nil, err
	}
	edges, err := e.stores.Edges.ListActiveByParcel(ctx, p.ID())
	if err != nil {
		return nil, err
	}

	owners := make(map[uint]*owner.Owner, len(edges))
	resp := &dto.ParcelOwnershipResponse{
		Parcel: dto.ToParcelResponse(p),
		Owners: make([]*dto.OwnershipResponse, 0, len(edges)),
	}
	for _, edge := range edges {
		o, ok := owners[edge.OwnerID()]
		if !ok {
			o, err = e.stores.Owners.GetByID(ctx, edge.OwnerID())
			if err != nil {
				return nil, err
			}
			owners[edge.OwnerID()] = o
		}
		resp.Owners = append(resp.Owners, dto.ToOwnershipResponse(edge, o))
	}
	resp.Allocated = ownership.AllocatedTotal(edges)
	resp.Unallocated = ownership.FullShare.Sub(resp.Allocated)
	return resp, nil
}

func (e *Engine) ListTransferHistory(ctx context.Context, upin string) ([]*dto.TransferHistoryResponse, error) {
	p, err := e.stores.Parcels.GetByUPIN(ctx, upin)
	if err != nil {
		return nil, err
	}
	list, err := e.stores.History.ListByParcel(ctx, p.ID())
	if err != nil {
		return nil, err
	}
	return dto.ToTransferHistoryResponses(list), nil
}

func (e *Engine) ListEncumbrances(ctx context.Context, upin string) ([]*dto.EncumbranceResponse, error) {
	p, err := e.stores.Parcels.GetByUPIN(ctx, upin)
	if err != nil {
		return nil, err
	}
	list, err := e.stores.Encumbrances.ListByParcel(ctx, p.ID())
	if err != nil {
		return nil, err
	}
	return dto.ToEncumbranceResponses(list), nil
}
