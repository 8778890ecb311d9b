package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/mappers"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
	db "github.com/landreg/cadastre/internal/shared/db"
	"github.com/landreg/cadastre/internal/shared/errors"
)

type RegistrationSessionRepository struct {
	db     *gorm.DB
	mapper mappers.RegistrationSessionMapper
}

func NewRegistrationSessionRepository(db *gorm.DB) *RegistrationSessionRepository {
	return &RegistrationSessionRepository{
		db:     db,
		mapper: mappers.NewRegistrationSessionMapper(),
	}
}

// Create inserts a new draft. A second open draft for the same user violates
// the open_draft_key index and surfaces as a conflict.
func (r *RegistrationSessionRepository) Create(ctx context.Context, s *registration.Session) error {
	model, err := r.mapper.ToModel(s)
	if err != nil {
		return err
	}
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("user already has an open registration draft")
		}
		return fmt.Errorf("failed to create registration session: %w", err)
	}

	if err := s.SetID(model.ID); err != nil {
		return err
	}
	s.MarkSaved()
	return nil
}

func (r *RegistrationSessionRepository) Update(ctx context.Context, s *registration.Session) error {
	if s.Version() == s.BaseVersion() {
		return nil
	}
	model, err := r.mapper.ToModel(s)
	if err != nil {
		return err
	}
	// Updates with a map skips hooks, so the guard column is set here.
	var openDraftKey *uint
	if s.Status() == registration.StatusDraft {
		uid := s.UserID()
		openDraftKey = &uid
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.RegistrationSessionModel{}).
		Where("id = ? AND version = ?", model.ID, s.BaseVersion()).
		Updates(map[string]interface{}{
			"status":              model.Status,
			"current_step":        model.CurrentStep,
			"parcel_data":         model.ParcelData,
			"owner_data":          model.OwnerData,
			"lease_data":          model.LeaseData,
			"open_draft_key":      openDraftKey,
			"approval_request_id": model.ApprovalRequestID,
			"rejection_reason":    model.RejectionReason,
			"merged_parcel_id":    model.MergedParcelID,
			"expires_at":          model.ExpiresAt,
			"submitted_at":        model.SubmittedAt,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		if errors.IsDuplicateError(result.Error) {
			return errors.NewConflictError("user already has an open registration draft")
		}
		return fmt.Errorf("failed to update registration session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.VersionConflict(fmt.Sprintf("session %s was modified concurrently", s.SessionID()))
	}

	s.MarkSaved()
	return nil
}

func (r *RegistrationSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*registration.Session, error) {
	var model models.RegistrationSessionModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("session_id = ?", sessionID).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("session %s not found", sessionID))
		}
		return nil, fmt.Errorf("failed to get registration session: %w", err)
	}
	return r.load(tx, &model)
}

func (r *RegistrationSessionRepository) FindOpenDraft(ctx context.Context, userID uint) (*registration.Session, error) {
	var model models.RegistrationSessionModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("user_id = ? AND status = ?", userID, registration.StatusDraft.String()).
		First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open draft: %w", err)
	}
	return r.load(tx, &model)
}

func (r *RegistrationSessionRepository) ListByUser(ctx context.Context, userID uint, filter registration.ListFilter) ([]*registration.Session, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Model(&models.RegistrationSessionModel{}).Where("user_id = ?", userID)
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count registration sessions: %w", err)
	}

	var list []models.RegistrationSessionModel
	if err := query.Order("created_at DESC, id DESC").
		Scopes(db.Paginate(filter.PageFilter)).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list registration sessions: %w", err)
	}

	sessions := make([]*registration.Session, 0, len(list))
	for i := range list {
		s, err := r.load(tx, &list[i])
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, s)
	}
	return sessions, total, nil
}

func (r *RegistrationSessionRepository) ListExpiredDrafts(ctx context.Context, now time.Time, limit int) ([]*registration.Session, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Where("status = ? AND expires_at <= ?", registration.StatusDraft.String(), now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var list []models.RegistrationSessionModel
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired drafts: %w", err)
	}

	sessions := make([]*registration.Session, 0, len(list))
	for i := range list {
		s, err := r.mapper.ToDomain(&list[i], nil)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *RegistrationSessionRepository) Delete(ctx context.Context, id uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Delete(&models.RegistrationSessionModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete registration session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("session row %d not found", id))
	}
	return nil
}

func (r *RegistrationSessionRepository) load(tx *gorm.DB, model *models.RegistrationSessionModel) (*registration.Session, error) {
	var docs []models.SessionDocumentModel
	if err := tx.Where("session_row_id = ?", model.ID).
		Order("uploaded_at ASC, id ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to load session documents: %w", err)
	}
	return r.mapper.ToDomain(model, r.mapper.DocumentsToDomain(docs))
}

// SessionDocumentRepository stores one row per attached handle.
type SessionDocumentRepository struct {
	db     *gorm.DB
	mapper mappers.RegistrationSessionMapper
}

func NewSessionDocumentRepository(db *gorm.DB) *SessionDocumentRepository {
	return &SessionDocumentRepository{
		db:     db,
		mapper: mappers.NewRegistrationSessionMapper(),
	}
}

func (r *SessionDocumentRepository) Add(ctx context.Context, sessionRowID uint, step registration.Step, h document.Handle) (bool, error) {
	model := r.mapper.DocumentToModel(sessionRowID, step, h)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to attach document: %w", err)
	}
	return true, nil
}

func (r *SessionDocumentRepository) Remove(ctx context.Context, sessionRowID uint, step registration.Step, handleID string) (bool, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Where("session_row_id = ? AND step = ? AND handle_id = ?", sessionRowID, step.String(), handleID).
		Delete(&models.SessionDocumentModel{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove document: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *SessionDocumentRepository) ListBySession(ctx context.Context, sessionRowID uint) (map[registration.Step][]document.Handle, error) {
	var docs []models.SessionDocumentModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("session_row_id = ?", sessionRowID).
		Order("uploaded_at ASC, id ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list session documents: %w", err)
	}
	return r.mapper.DocumentsToDomain(docs), nil
}

func (r *SessionDocumentRepository) DeleteBySession(ctx context.Context, sessionRowID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("session_row_id = ?", sessionRowID).
		Delete(&models.SessionDocumentModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete session documents: %w", err)
	}
	return nil
}
