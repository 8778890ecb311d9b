package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/mappers"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
	db "github.com/landreg/cadastre/internal/shared/db"
	"github.com/landreg/cadastre/internal/shared/errors"
)

type ApprovalRequestRepository struct {
	db     *gorm.DB
	mapper mappers.ApprovalRequestMapper
}

func NewApprovalRequestRepository(db *gorm.DB) *ApprovalRequestRepository {
	return &ApprovalRequestRepository{
		db:     db,
		mapper: mappers.NewApprovalRequestMapper(),
	}
}

func (r *ApprovalRequestRepository) Create(ctx context.Context, req *approval.Request) error {
	model := r.mapper.ToModel(req)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.DuplicateRequest(fmt.Sprintf("session %s already has a pending approval request", req.SessionID()))
		}
		return fmt.Errorf("failed to create approval request: %w", err)
	}

	return req.SetID(model.ID)
}

func (r *ApprovalRequestRepository) Update(ctx context.Context, req *approval.Request) error {
	model := r.mapper.ToModel(req)
	tx := db.GetTxFromContext(ctx, r.db)

	var pendingKey *string
	if req.Status().IsPending() && model.SessionID != nil {
		pendingKey = model.SessionID
	}

	result := tx.Model(&models.ApprovalRequestModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"status":           model.Status,
			"pending_key":      pendingKey,
			"rejection_reason": model.RejectionReason,
			"decided_by":       model.DecidedBy,
			"decided_at":       model.DecidedAt,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update approval request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewStateError(fmt.Sprintf("request %s was already decided", req.RequestID()))
	}
	return nil
}

func (r *ApprovalRequestRepository) GetByRequestID(ctx context.Context, requestID string) (*approval.Request, error) {
	var model models.ApprovalRequestModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("request_id = ?", requestID).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("approval request %s not found", requestID))
		}
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *ApprovalRequestRepository) FindPendingBySession(ctx context.Context, sessionID string) (*approval.Request, error) {
	var model models.ApprovalRequestModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("session_id = ? AND status = ?", sessionID, string(approval.StatusPending)).
		First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending approval request: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *ApprovalRequestRepository) ListPending(ctx context.Context, filter approval.ListFilter) ([]*approval.Request, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Model(&models.ApprovalRequestModel{}).
		Where("status = ?", string(approval.StatusPending))

	if len(filter.ApproverRoles) > 0 {
		query = query.Where("approver_role IN ?", filter.ApproverRoles)
	}
	if filter.SubAuthority != "" {
		query = query.Where("sub_authority = ?", filter.SubAuthority)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", string(*filter.EntityType))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pending approval requests: %w", err)
	}

	var list []models.ApprovalRequestModel
	if err := query.Order("created_at ASC, id ASC").
		Scopes(db.Paginate(filter.PageFilter)).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list pending approval requests: %w", err)
	}

	requests, err := r.mapper.ToDomainList(list)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *ApprovalRequestRepository) ListBySession(ctx context.Context, sessionID string) ([]*approval.Request, error) {
	var list []models.ApprovalRequestModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list approval requests: %w", err)
	}
	return r.mapper.ToDomainList(list)
}
