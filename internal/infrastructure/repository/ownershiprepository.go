package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/mappers"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
	db "github.com/landreg/cadastre/internal/shared/db"
	"github.com/landreg/cadastre/internal/shared/errors"
)

type OwnershipRepository struct {
	db     *gorm.DB
	mapper mappers.OwnershipMapper
}

func NewOwnershipRepository(db *gorm.DB) *OwnershipRepository {
	return &OwnershipRepository{
		db:     db,
		mapper: mappers.NewOwnershipMapper(),
	}
}

func (r *OwnershipRepository) Create(ctx context.Context, e *ownership.ParcelOwner) error {
	model := r.mapper.ToModel(e)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create ownership edge: %w", err)
	}
	e.SetID(model.ID)
	return nil
}

func (r *OwnershipRepository) Update(ctx context.Context, e *ownership.ParcelOwner) error {
	model := r.mapper.ToModel(e)
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.ParcelOwnerModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"share_ratio": model.ShareRatio,
			"is_active":   model.IsActive,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update ownership edge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.VersionConflict(fmt.Sprintf("ownership edge %d was modified concurrently", model.ID))
	}
	return nil
}

func (r *OwnershipRepository) GetByID(ctx context.Context, id uint) (*ownership.ParcelOwner, error) {
	var model models.ParcelOwnerModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("ownership edge %d not found", id))
		}
		return nil, fmt.Errorf("failed to get ownership edge: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *OwnershipRepository) ListActiveByParcel(ctx context.Context, parcelID uint) ([]*ownership.ParcelOwner, error) {
	var list []models.ParcelOwnerModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Scopes(db.ActiveEdges()).
		Where("parcel_id = ?", parcelID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list ownership edges: %w", err)
	}
	return r.mapper.ToDomainList(list), nil
}

type TransferHistoryRepository struct {
	db     *gorm.DB
	mapper mappers.OwnershipMapper
}

func NewTransferHistoryRepository(db *gorm.DB) *TransferHistoryRepository {
	return &TransferHistoryRepository{
		db:     db,
		mapper: mappers.NewOwnershipMapper(),
	}
}

func (r *TransferHistoryRepository) Append(ctx context.Context, h *ownership.TransferHistory) error {
	model := r.mapper.HistoryToModel(h)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to append transfer history: %w", err)
	}
	h.ID = model.ID
	return nil
}

func (r *TransferHistoryRepository) ListByParcel(ctx context.Context, parcelID uint) ([]*ownership.TransferHistory, error) {
	var list []models.TransferHistoryModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("parcel_id = ?", parcelID).
		Order("transferred_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list transfer history: %w", err)
	}
	out := make([]*ownership.TransferHistory, 0, len(list))
	for i := range list {
		out = append(out, r.mapper.HistoryToDomain(&list[i]))
	}
	return out, nil
}
