package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
)

// RegistrationSessionMapper converts wizard drafts. Step payloads are stored
// as JSON columns; document handles live in their own table.
type RegistrationSessionMapper interface {
	ToModel(s *registration.Session) (*models.RegistrationSessionModel, error)
	ToDomain(model *models.RegistrationSessionModel, docs map[registration.Step][]document.Handle) (*registration.Session, error)

	DocumentToModel(sessionRowID uint, step registration.Step, h document.Handle) *models.SessionDocumentModel
	DocumentsToDomain(list []models.SessionDocumentModel) map[registration.Step][]document.Handle
}

type RegistrationSessionMapperImpl struct{}

func NewRegistrationSessionMapper() RegistrationSessionMapper {
	return &RegistrationSessionMapperImpl{}
}

func (m *RegistrationSessionMapperImpl) ToModel(s *registration.Session) (*models.RegistrationSessionModel, error) {
	model := &models.RegistrationSessionModel{
		ID:                s.ID(),
		SessionID:         s.SessionID(),
		Status:            s.Status().String(),
		CurrentStep:       s.CurrentStep().String(),
		UserID:            s.UserID(),
		SubAuthority:      s.SubAuthority(),
		ApprovalRequestID: s.ApprovalRequestID(),
		RejectionReason:   s.RejectionReason(),
		MergedParcelID:    s.MergedParcelID(),
		ExpiresAt:         s.ExpiresAt(),
		SubmittedAt:       s.SubmittedAt(),
		Version:           s.Version(),
		CreatedAt:         s.CreatedAt(),
		UpdatedAt:         s.UpdatedAt(),
	}

	var err error
	if model.ParcelData, err = marshalPayload(s.ParcelData()); err != nil {
		return nil, fmt.Errorf("failed to encode parcel data: %w", err)
	}
	if model.OwnerData, err = marshalPayload(s.OwnerData()); err != nil {
		return nil, fmt.Errorf("failed to encode owner data: %w", err)
	}
	if model.LeaseData, err = marshalPayload(s.LeaseData()); err != nil {
		return nil, fmt.Errorf("failed to encode lease data: %w", err)
	}
	return model, nil
}

func (m *RegistrationSessionMapperImpl) ToDomain(model *models.RegistrationSessionModel, docs map[registration.Step][]document.Handle) (*registration.Session, error) {
	if model == nil {
		return nil, nil
	}

	st := registration.SessionState{
		ID:                model.ID,
		SessionID:         model.SessionID,
		Status:            registration.Status(model.Status),
		CurrentStep:       registration.Step(model.CurrentStep),
		Documents:         docs,
		UserID:            model.UserID,
		SubAuthority:      model.SubAuthority,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
		ExpiresAt:         model.ExpiresAt,
		SubmittedAt:       model.SubmittedAt,
		ApprovalRequestID: model.ApprovalRequestID,
		RejectionReason:   model.RejectionReason,
		MergedParcelID:    model.MergedParcelID,
		Version:           model.Version,
	}

	if len(model.ParcelData) > 0 {
		var p registration.ParcelData
		if err := json.Unmarshal(model.ParcelData, &p); err != nil {
			return nil, fmt.Errorf("failed to decode parcel data of session %s: %w", model.SessionID, err)
		}
		st.ParcelData = &p
	}
	if len(model.OwnerData) > 0 {
		var o registration.OwnerData
		if err := json.Unmarshal(model.OwnerData, &o); err != nil {
			return nil, fmt.Errorf("failed to decode owner data of session %s: %w", model.SessionID, err)
		}
		st.OwnerData = &o
	}
	if len(model.LeaseData) > 0 {
		var l registration.LeaseData
		if err := json.Unmarshal(model.LeaseData, &l); err != nil {
			return nil, fmt.Errorf("failed to decode lease data of session %s: %w", model.SessionID, err)
		}
		st.LeaseData = &l
	}

	s, err := registration.ReconstructSession(st)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct session: %w", err)
	}
	return s, nil
}

func (m *RegistrationSessionMapperImpl) DocumentToModel(sessionRowID uint, step registration.Step, h document.Handle) *models.SessionDocumentModel {
	return &models.SessionDocumentModel{
		SessionRowID: sessionRowID,
		Step:         step.String(),
		HandleID:     h.ID,
		URL:          h.URL,
		Name:         h.Name,
		UploadedAt:   h.UploadedAt,
	}
}

func (m *RegistrationSessionMapperImpl) DocumentsToDomain(list []models.SessionDocumentModel) map[registration.Step][]document.Handle {
	out := make(map[registration.Step][]document.Handle)
	for _, d := range list {
		step := registration.Step(d.Step)
		out[step] = append(out[step], document.Handle{
			ID:         d.HandleID,
			URL:        d.URL,
			Name:       d.Name,
			UploadedAt: d.UploadedAt,
		})
	}
	return out
}

// marshalPayload returns nil for a nil payload so the column stays NULL.
func marshalPayload[T any](p *T) (datatypes.JSON, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
