package mappers

import (
	"fmt"

	"github.com/landreg/cadastre/internal/domain/owner"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
)

type OwnerMapper interface {
	ToModel(o *owner.Owner) *models.OwnerModel
	ToDomain(model *models.OwnerModel) (*owner.Owner, error)
}

type OwnerMapperImpl struct{}

func NewOwnerMapper() OwnerMapper {
	return &OwnerMapperImpl{}
}

func (m *OwnerMapperImpl) ToModel(o *owner.Owner) *models.OwnerModel {
	return &models.OwnerModel{
		ID:          o.ID(),
		FullName:    o.FullName(),
		NationalID:  o.NationalID(),
		PhoneNumber: o.PhoneNumber(),
		TINNumber:   o.TINNumber(),
		CreatedAt:   o.CreatedAt(),
		UpdatedAt:   o.UpdatedAt(),
	}
}

func (m *OwnerMapperImpl) ToDomain(model *models.OwnerModel) (*owner.Owner, error) {
	if model == nil {
		return nil, nil
	}
	o, err := owner.ReconstructOwner(
		model.ID,
		model.FullName,
		model.NationalID,
		model.PhoneNumber,
		model.TINNumber,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct owner: %w", err)
	}
	return o, nil
}
