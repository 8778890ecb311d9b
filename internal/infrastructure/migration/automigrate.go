package migration

import (
	"github.com/landreg/cadastre/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every table owned by the cadastre core.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ParcelModel{},
		&models.OwnerModel{},
		&models.ParcelOwnerModel{},
		&models.TransferHistoryModel{},
		&models.EncumbranceModel{},
		&models.LeaseAgreementModel{},
		&models.RegistrationSessionModel{},
		&models.SessionDocumentModel{},
		&models.ApprovalRequestModel{},
	}
}
