package mappers

import (
	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
)

// OwnershipMapper converts ownership edges and transfer history rows.
type OwnershipMapper interface {
	ToModel(e *ownership.ParcelOwner) *models.ParcelOwnerModel
	ToDomain(model *models.ParcelOwnerModel) *ownership.ParcelOwner
	ToDomainList(list []models.ParcelOwnerModel) []*ownership.ParcelOwner

	HistoryToModel(h *ownership.TransferHistory) *models.TransferHistoryModel
	HistoryToDomain(model *models.TransferHistoryModel) *ownership.TransferHistory
}

type OwnershipMapperImpl struct{}

func NewOwnershipMapper() OwnershipMapper {
	return &OwnershipMapperImpl{}
}

func (m *OwnershipMapperImpl) ToModel(e *ownership.ParcelOwner) *models.ParcelOwnerModel {
	return &models.ParcelOwnerModel{
		ID:         e.ID(),
		ParcelID:   e.ParcelID(),
		OwnerID:    e.OwnerID(),
		ShareRatio: e.Share(),
		AcquiredAt: e.AcquiredAt(),
		IsActive:   e.IsActive(),
		Version:    e.Version(),
		CreatedAt:  e.CreatedAt(),
		UpdatedAt:  e.UpdatedAt(),
	}
}

func (m *OwnershipMapperImpl) ToDomain(model *models.ParcelOwnerModel) *ownership.ParcelOwner {
	if model == nil {
		return nil
	}
	return ownership.ReconstructParcelOwner(
		model.ID,
		model.ParcelID,
		model.OwnerID,
		model.ShareRatio,
		model.AcquiredAt,
		model.IsActive,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *OwnershipMapperImpl) ToDomainList(list []models.ParcelOwnerModel) []*ownership.ParcelOwner {
	out := make([]*ownership.ParcelOwner, 0, len(list))
	for i := range list {
		out = append(out, m.ToDomain(&list[i]))
	}
	return out
}

func (m *OwnershipMapperImpl) HistoryToModel(h *ownership.TransferHistory) *models.TransferHistoryModel {
	model := &models.TransferHistoryModel{
		ID:            h.ID,
		ParcelID:      h.ParcelID,
		FromOwnerID:   h.FromOwnerID,
		ToOwnerID:     h.ToOwnerID,
		Share:         h.Share,
		TransferType:  string(h.TransferType),
		Reference:     h.Reference,
		TransferredAt: h.TransferredAt,
	}
	if h.Price != nil {
		model.Price = decimal.NewNullDecimal(*h.Price)
	}
	return model
}

func (m *OwnershipMapperImpl) HistoryToDomain(model *models.TransferHistoryModel) *ownership.TransferHistory {
	if model == nil {
		return nil
	}
	h := &ownership.TransferHistory{
		ID:            model.ID,
		ParcelID:      model.ParcelID,
		FromOwnerID:   model.FromOwnerID,
		ToOwnerID:     model.ToOwnerID,
		Share:         model.Share,
		TransferType:  ownership.TransferType(model.TransferType),
		Reference:     model.Reference,
		TransferredAt: model.TransferredAt,
	}
	if model.Price.Valid {
		price := model.Price.Decimal
		h.Price = &price
	}
	return h
}
