package mappers

import (
	"fmt"

	"gorm.io/datatypes"

	"github.com/landreg/cadastre/internal/domain/parcel"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
)

// ParcelMapper handles the conversion between Parcel domain entities and persistence models.
type ParcelMapper interface {
	ToModel(p *parcel.Parcel) *models.ParcelModel
	ToDomain(model *models.ParcelModel) (*parcel.Parcel, error)
	ToDomainList(list []models.ParcelModel) ([]*parcel.Parcel, error)

	EncumbranceToModel(e *parcel.Encumbrance) *models.EncumbranceModel
	EncumbranceToDomain(model *models.EncumbranceModel) *parcel.Encumbrance

	LeaseToModel(l *parcel.LeaseAgreement) *models.LeaseAgreementModel
	LeaseToDomain(model *models.LeaseAgreementModel) *parcel.LeaseAgreement
}

// ParcelMapperImpl is the concrete implementation of ParcelMapper.
type ParcelMapperImpl struct{}

// NewParcelMapper creates a new ParcelMapper.
func NewParcelMapper() ParcelMapper {
	return &ParcelMapperImpl{}
}

func (m *ParcelMapperImpl) ToModel(p *parcel.Parcel) *models.ParcelModel {
	loc := p.Location()
	b := p.Boundary()
	model := &models.ParcelModel{
		ID:            p.ID(),
		UPIN:          p.UPIN(),
		FileNumber:    p.FileNumber(),
		SubCity:       loc.SubCity,
		Wereda:        loc.Wereda,
		Kebele:        loc.Kebele,
		BlockNumber:   loc.BlockNumber,
		ParcelNumber:  loc.ParcelNumber,
		TotalAreaM2:   p.TotalArea(),
		LandUse:       p.LandUse(),
		TenureType:    string(p.Tenure()),
		BoundaryNorth: b.North,
		BoundaryEast:  b.East,
		BoundarySouth: b.South,
		BoundaryWest:  b.West,
		Status:        string(p.Status()),
		ParentUPIN:    p.ParentUPIN(),
		RetiredAt:     p.RetiredAt(),
		Version:       p.Version(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
	if len(b.Geometry) > 0 {
		model.Geometry = datatypes.JSON(b.Geometry)
	}
	return model
}

func (m *ParcelMapperImpl) ToDomain(model *models.ParcelModel) (*parcel.Parcel, error) {
	if model == nil {
		return nil, nil
	}

	location := parcel.Location{
		SubCity:      model.SubCity,
		Wereda:       model.Wereda,
		Kebele:       model.Kebele,
		BlockNumber:  model.BlockNumber,
		ParcelNumber: model.ParcelNumber,
	}
	boundary := parcel.Boundary{
		North: model.BoundaryNorth,
		East:  model.BoundaryEast,
		South: model.BoundarySouth,
		West:  model.BoundaryWest,
	}
	if len(model.Geometry) > 0 {
		boundary.Geometry = []byte(model.Geometry)
	}

	p, err := parcel.ReconstructParcel(
		model.ID,
		model.UPIN,
		model.FileNumber,
		location,
		model.TotalAreaM2,
		model.LandUse,
		parcel.TenureType(model.TenureType),
		boundary,
		parcel.Status(model.Status),
		model.ParentUPIN,
		model.RetiredAt,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct parcel: %w", err)
	}
	return p, nil
}

func (m *ParcelMapperImpl) ToDomainList(list []models.ParcelModel) ([]*parcel.Parcel, error) {
	out := make([]*parcel.Parcel, 0, len(list))
	for i := range list {
		p, err := m.ToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *ParcelMapperImpl) EncumbranceToModel(e *parcel.Encumbrance) *models.EncumbranceModel {
	return &models.EncumbranceModel{
		ID:              e.ID(),
		ParcelID:        e.ParcelID(),
		Type:            string(e.Type()),
		IssuingEntity:   e.IssuingEntity(),
		ReferenceNumber: e.ReferenceNumber(),
		Description:     e.Description(),
		Status:          string(e.Status()),
		RegisteredAt:    e.RegisteredAt(),
		ReleasedAt:      e.ReleasedAt(),
	}
}

func (m *ParcelMapperImpl) EncumbranceToDomain(model *models.EncumbranceModel) *parcel.Encumbrance {
	if model == nil {
		return nil
	}
	return parcel.ReconstructEncumbrance(
		model.ID,
		model.ParcelID,
		parcel.EncumbranceType(model.Type),
		model.IssuingEntity,
		model.ReferenceNumber,
		model.Description,
		parcel.EncumbranceStatus(model.Status),
		model.RegisteredAt,
		model.ReleasedAt,
	)
}

func (m *ParcelMapperImpl) LeaseToModel(l *parcel.LeaseAgreement) *models.LeaseAgreementModel {
	return &models.LeaseAgreementModel{
		ID:               l.ID,
		ParcelID:         l.ParcelID,
		LeasedAreaM2:     l.LeasedArea,
		TotalLeaseAmount: l.TotalLeaseAmount,
		DownPayment:      l.DownPayment,
		StartDate:        l.StartDate,
		ExpiryDate:       l.ExpiryDate,
		ContractDate:     l.ContractDate,
		Status:           l.Status,
		CreatedAt:        l.CreatedAt,
	}
}

func (m *ParcelMapperImpl) LeaseToDomain(model *models.LeaseAgreementModel) *parcel.LeaseAgreement {
	if model == nil {
		return nil
	}
	return &parcel.LeaseAgreement{
		ID:               model.ID,
		ParcelID:         model.ParcelID,
		LeasedArea:       model.LeasedAreaM2,
		TotalLeaseAmount: model.TotalLeaseAmount,
		DownPayment:      model.DownPayment,
		StartDate:        model.StartDate,
		ExpiryDate:       model.ExpiryDate,
		ContractDate:     model.ContractDate,
		Status:           model.Status,
		CreatedAt:        model.CreatedAt,
	}
}
