package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/domain/owner"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/mappers"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
	db "github.com/landreg/cadastre/internal/shared/db"
	"github.com/landreg/cadastre/internal/shared/errors"
)

type OwnerRepository struct {
	db     *gorm.DB
	mapper mappers.OwnerMapper
}

func NewOwnerRepository(db *gorm.DB) *OwnerRepository {
	return &OwnerRepository{
		db:     db,
		mapper: mappers.NewOwnerMapper(),
	}
}

func (r *OwnerRepository) Create(ctx context.Context, o *owner.Owner) error {
	model := r.mapper.ToModel(o)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("an owner with this national id already exists", o.NationalID())
		}
		return fmt.Errorf("failed to create owner: %w", err)
	}
	return o.SetID(model.ID)
}

func (r *OwnerRepository) GetByID(ctx context.Context, id uint) (*owner.Owner, error) {
	var model models.OwnerModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("owner %d not found", id))
		}
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *OwnerRepository) GetByNationalID(ctx context.Context, nationalID string) (*owner.Owner, error) {
	var model models.OwnerModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("national_id = ?", nationalID).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get owner by national id: %w", err)
	}
	return r.mapper.ToDomain(&model)
}
