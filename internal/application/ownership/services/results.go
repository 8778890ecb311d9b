package services

import (
	"github.com/landreg/cadastre/internal/application/ownership/dto"
)

func (r *RegisterParcelResult) Response() *dto.RegistrationResponse {
	resp := &dto.RegistrationResponse{
		Parcel:    dto.ToParcelResponse(r.Parcel),
		OwnerID:   r.OwnerID,
		Ownership: dto.ToOwnershipResponse(r.Ownership, nil),
	}
	if r.Lease != nil {
		expiry := r.Lease.ExpiryDate
		resp.HasLease = true
		resp.LeaseExpiry = &expiry
	}
	return resp
}

func (r *TransferResult) Response() *dto.TransferResponse {
	resp := &dto.TransferResponse{
		ParcelID: r.ParcelID,
		To:       dto.ToOwnershipResponse(r.To, nil),
	}
	if r.From != nil {
		resp.From = dto.ToOwnershipResponse(r.From, nil)
		resp.Closed = !r.From.IsActive()
	}
	return resp
}

func (r *SubdivideResult) Response() *dto.SubdivisionResponse {
	resp := &dto.SubdivisionResponse{
		Parent:   dto.ToParcelResponse(r.Parent),
		Children: make([]*dto.ParcelResponse, 0, len(r.Children)),
	}
	for _, c := range r.Children {
		resp.Children = append(resp.Children, dto.ToParcelResponse(c))
	}
	return resp
}
