package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/landreg/cadastre/internal/domain/parcel"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/mappers"
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
	db "github.com/landreg/cadastre/internal/shared/db"
	"github.com/landreg/cadastre/internal/shared/errors"
)

type ParcelRepository struct {
	db     *gorm.DB
	mapper mappers.ParcelMapper
}

func NewParcelRepository(db *gorm.DB) *ParcelRepository {
	return &ParcelRepository{
		db:     db,
		mapper: mappers.NewParcelMapper(),
	}
}

func (r *ParcelRepository) Create(ctx context.Context, p *parcel.Parcel) error {
	model := r.mapper.ToModel(p)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.DuplicateUPIN(fmt.Sprintf("parcel %s is already registered", p.UPIN()))
		}
		return fmt.Errorf("failed to create parcel: %w", err)
	}

	return p.SetID(model.ID)
}

// Update persists status changes guarded by the parcel version.
func (r *ParcelRepository) Update(ctx context.Context, p *parcel.Parcel) error {
	model := r.mapper.ToModel(p)
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Model(&models.ParcelModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"file_number": model.FileNumber,
			"land_use":    model.LandUse,
			"status":      model.Status,
			"retired_at":  model.RetiredAt,
			"version":     model.Version,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update parcel: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.VersionConflict(fmt.Sprintf("parcel %s was modified concurrently", p.UPIN()))
	}
	return nil
}

func (r *ParcelRepository) GetByID(ctx context.Context, id uint) (*parcel.Parcel, error) {
	var model models.ParcelModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.First(&model, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("parcel %d not found", id))
		}
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *ParcelRepository) GetByUPIN(ctx context.Context, upin string) (*parcel.Parcel, error) {
	return r.getByUPIN(db.GetTxFromContext(ctx, r.db), upin)
}

func (r *ParcelRepository) GetByUPINForUpdate(ctx context.Context, upin string) (*parcel.Parcel, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	return r.getByUPIN(tx.Clauses(clause.Locking{Strength: "UPDATE"}), upin)
}

func (r *ParcelRepository) getByUPIN(tx *gorm.DB, upin string) (*parcel.Parcel, error) {
	var model models.ParcelModel
	if err := tx.Where("upin = ?", upin).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("parcel %s not found", upin))
		}
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}
	return r.mapper.ToDomain(&model)
}

func (r *ParcelRepository) ExistingUPINs(ctx context.Context, upins []string) ([]string, error) {
	if len(upins) == 0 {
		return nil, nil
	}
	var found []string
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Model(&models.ParcelModel{}).
		Where("upin IN ?", upins).
		Pluck("upin", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check parcel upins: %w", err)
	}
	return found, nil
}

func (r *ParcelRepository) ListChildren(ctx context.Context, parentUPIN string) ([]*parcel.Parcel, error) {
	var list []models.ParcelModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("parent_upin = ?", parentUPIN).Order("upin ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list child parcels: %w", err)
	}
	return r.mapper.ToDomainList(list)
}

type EncumbranceRepository struct {
	db     *gorm.DB
	mapper mappers.ParcelMapper
}

func NewEncumbranceRepository(db *gorm.DB) *EncumbranceRepository {
	return &EncumbranceRepository{
		db:     db,
		mapper: mappers.NewParcelMapper(),
	}
}

func (r *EncumbranceRepository) Create(ctx context.Context, e *parcel.Encumbrance) error {
	model := r.mapper.EncumbranceToModel(e)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create encumbrance: %w", err)
	}
	e.SetID(model.ID)
	return nil
}

func (r *EncumbranceRepository) Update(ctx context.Context, e *parcel.Encumbrance) error {
	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.EncumbranceModel{}).
		Where("id = ?", e.ID()).
		Updates(map[string]interface{}{
			"status":      string(e.Status()),
			"released_at": e.ReleasedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update encumbrance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("encumbrance %d not found", e.ID()))
	}
	return nil
}

func (r *EncumbranceRepository) GetByID(ctx context.Context, id uint) (*parcel.Encumbrance, error) {
	var model models.EncumbranceModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("encumbrance %d not found", id))
		}
		return nil, fmt.Errorf("failed to get encumbrance: %w", err)
	}
	return r.mapper.EncumbranceToDomain(&model), nil
}

func (r *EncumbranceRepository) ListByParcel(ctx context.Context, parcelID uint) ([]*parcel.Encumbrance, error) {
	var list []models.EncumbranceModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("parcel_id = ?", parcelID).Order("registered_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list encumbrances: %w", err)
	}
	out := make([]*parcel.Encumbrance, 0, len(list))
	for i := range list {
		out = append(out, r.mapper.EncumbranceToDomain(&list[i]))
	}
	return out, nil
}

type LeaseRepository struct {
	db     *gorm.DB
	mapper mappers.ParcelMapper
}

func NewLeaseRepository(db *gorm.DB) *LeaseRepository {
	return &LeaseRepository{
		db:     db,
		mapper: mappers.NewParcelMapper(),
	}
}

func (r *LeaseRepository) Create(ctx context.Context, l *parcel.LeaseAgreement) error {
	model := r.mapper.LeaseToModel(l)
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create lease agreement: %w", err)
	}
	l.ID = model.ID
	return nil
}

// GetByParcel returns nil when the parcel has no lease.
func (r *LeaseRepository) GetByParcel(ctx context.Context, parcelID uint) (*parcel.LeaseAgreement, error) {
	var model models.LeaseAgreementModel
	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("parcel_id = ?", parcelID).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lease agreement: %w", err)
	}
	return r.mapper.LeaseToDomain(&model), nil
}
