package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
	"github.com/landreg/cadastre/internal/shared/authorization"
)

type ApprovalRequestMapper interface {
	ToModel(r *approval.Request) *models.ApprovalRequestModel
	ToDomain(model *models.ApprovalRequestModel) (*approval.Request, error)
	ToDomainList(list []models.ApprovalRequestModel) ([]*approval.Request, error)
}

type ApprovalRequestMapperImpl struct{}

func NewApprovalRequestMapper() ApprovalRequestMapper {
	return &ApprovalRequestMapperImpl{}
}

func (m *ApprovalRequestMapperImpl) ToModel(r *approval.Request) *models.ApprovalRequestModel {
	model := &models.ApprovalRequestModel{
		ID:              r.ID(),
		RequestID:       r.RequestID(),
		Action:          string(r.Action()),
		EntityType:      string(r.EntityType()),
		EntityID:        r.EntityID(),
		Status:          string(r.Status()),
		MakerID:         r.MakerID(),
		MakerRole:       string(r.MakerRole()),
		ApproverRole:    string(r.ApproverRole()),
		SubAuthority:    r.SubAuthority(),
		RequestData:     datatypes.JSON(r.RequestData()),
		RejectionReason: r.RejectionReason(),
		DecidedBy:       r.DecidedBy(),
		DecidedAt:       r.DecidedAt(),
		Version:         r.Version(),
		CreatedAt:       r.CreatedAt(),
		UpdatedAt:       r.UpdatedAt(),
	}
	if sid := r.SessionID(); sid != "" {
		model.SessionID = &sid
	}
	return model
}

func (m *ApprovalRequestMapperImpl) ToDomain(model *models.ApprovalRequestModel) (*approval.Request, error) {
	if model == nil {
		return nil, nil
	}
	st := approval.RequestState{
		ID:              model.ID,
		RequestID:       model.RequestID,
		Action:          approval.Action(model.Action),
		EntityType:      approval.EntityType(model.EntityType),
		EntityID:        model.EntityID,
		Status:          approval.Status(model.Status),
		MakerID:         model.MakerID,
		MakerRole:       authorization.UserRole(model.MakerRole),
		ApproverRole:    authorization.UserRole(model.ApproverRole),
		SubAuthority:    model.SubAuthority,
		RequestData:     json.RawMessage(model.RequestData),
		RejectionReason: model.RejectionReason,
		DecidedBy:       model.DecidedBy,
		DecidedAt:       model.DecidedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
		Version:         model.Version,
	}
	if model.SessionID != nil {
		st.SessionID = *model.SessionID
	}
	r, err := approval.ReconstructRequest(st)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct approval request: %w", err)
	}
	return r, nil
}

func (m *ApprovalRequestMapperImpl) ToDomainList(list []models.ApprovalRequestModel) ([]*approval.Request, error) {
	out := make([]*approval.Request, 0, len(list))
	for i := range list {
		r, err := m.ToDomain(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
