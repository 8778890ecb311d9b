package http

import (
	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/application/ownership/services"
	"github.com/landreg/cadastre/internal/infrastructure/repository"
)

// repositories holds the gorm repositories shared by the use cases.
type repositories struct {
	sessions  *repository.RegistrationSessionRepository
	documents *repository.SessionDocumentRepository
	approvals *repository.ApprovalRequestRepository
	stores    services.Stores
}

// newRepositories creates all repository instances from the database connection.
func newRepositories(db *gorm.DB) *repositories {
	return &repositories{
		sessions:  repository.NewRegistrationSessionRepository(db),
		documents: repository.NewSessionDocumentRepository(db),
		approvals: repository.NewApprovalRequestRepository(db),
		stores: services.Stores{
			Parcels:      repository.NewParcelRepository(db),
			Owners:       repository.NewOwnerRepository(db),
			Edges:        repository.NewOwnershipRepository(db),
			History:      repository.NewTransferHistoryRepository(db),
			Encumbrances: repository.NewEncumbranceRepository(db),
			Leases:       repository.NewLeaseRepository(db),
		},
	}
}
