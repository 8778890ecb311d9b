package http

import (
	"github.com/landreg/cadastre/internal/interfaces/http/handlers"
	approvalHandlers "github.com/landreg/cadastre/internal/interfaces/http/handlers/approval"
	parcelHandlers "github.com/landreg/cadastre/internal/interfaces/http/handlers/parcel"
	registrationHandlers "github.com/landreg/cadastre/internal/interfaces/http/handlers/registration"
)

// allHandlers holds the HTTP handlers mounted by SetupRoutes.
type allHandlers struct {
	healthHandler       *handlers.HealthHandler
	registrationHandler *registrationHandlers.Handler
	approvalHandler     *approvalHandlers.Handler
	parcelHandler       *parcelHandlers.Handler
}

// ============================================================
// Section 3: Handlers
// ============================================================

func (c *Container) initHandlers() {
	log := c.log
	ucs := c.ucs

	c.hdlrs = &allHandlers{
		healthHandler: handlers.NewHealthHandler(c.db, c.redis),
		registrationHandler: registrationHandlers.NewHandler(registrationHandlers.UseCases{
			Create:   ucs.createSessionUC,
			Get:      ucs.getSessionUC,
			List:     ucs.listSessionsUC,
			Save:     ucs.saveStepUC,
			Attach:   ucs.attachDocumentUC,
			Remove:   ucs.removeDocumentUC,
			Validate: ucs.validateSessionUC,
			Abandon:  ucs.abandonSessionUC,
			Submit:   ucs.submitSessionUC,
			Resubmit: ucs.resubmitSessionUC,
		}, c.cfg.Documents.MaxUploadBytes(), log),
		approvalHandler: approvalHandlers.NewHandler(ucs.listPendingUC, ucs.getRequestUC, ucs.decideRequestUC, log),
		parcelHandler:   parcelHandlers.NewHandler(c.ownerEngine, ucs.gatedCommandUC, log),
	}
}
