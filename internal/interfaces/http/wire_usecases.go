package http

import (
	approvalUsecases "github.com/landreg/cadastre/internal/application/approval/usecases"
	registrationUsecases "github.com/landreg/cadastre/internal/application/registration/usecases"
	"github.com/landreg/cadastre/internal/infrastructure/permission"
)

// allUseCases holds every use case the handlers and jobs call.
type allUseCases struct {
	// Registration wizard
	createSessionUC   *registrationUsecases.CreateSessionUseCase
	getSessionUC      *registrationUsecases.GetSessionUseCase
	listSessionsUC    *registrationUsecases.ListSessionsUseCase
	saveStepUC        *registrationUsecases.SaveStepUseCase
	attachDocumentUC  *registrationUsecases.AttachDocumentUseCase
	removeDocumentUC  *registrationUsecases.RemoveDocumentUseCase
	validateSessionUC *registrationUsecases.ValidateSessionUseCase
	abandonSessionUC  *registrationUsecases.AbandonSessionUseCase
	expireSessionsUC  *registrationUsecases.ExpireSessionsUseCase

	// Maker-checker
	submitSessionUC   *approvalUsecases.SubmitSessionUseCase
	resubmitSessionUC *approvalUsecases.SubmitSessionUseCase
	decideRequestUC   *approvalUsecases.DecideRequestUseCase
	listPendingUC     *approvalUsecases.ListPendingRequestsUseCase
	getRequestUC      *approvalUsecases.GetRequestUseCase
	gatedCommandUC    *approvalUsecases.GatedCommandUseCase
}

// ============================================================
// Section 2: Use cases
// ============================================================

func (c *Container) initUseCases() {
	cfg := c.cfg
	log := c.log
	repos := c.repos
	ttl := cfg.Registration.SessionTTL()

	policy := permission.NewApprovalPolicy(c.enforcer)
	applier := approvalUsecases.NewApplier(c.ownerEngine)

	c.ucs = &allUseCases{
		createSessionUC:   registrationUsecases.NewCreateSessionUseCase(repos.sessions, c.tx, c.publisher, ttl, log),
		getSessionUC:      registrationUsecases.NewGetSessionUseCase(repos.sessions, log),
		listSessionsUC:    registrationUsecases.NewListSessionsUseCase(repos.sessions, log),
		saveStepUC:        registrationUsecases.NewSaveStepUseCase(repos.sessions, c.tx, ttl, log),
		attachDocumentUC:  registrationUsecases.NewAttachDocumentUseCase(repos.sessions, repos.documents, c.gateway, c.tx, log),
		removeDocumentUC:  registrationUsecases.NewRemoveDocumentUseCase(repos.sessions, repos.documents, c.tx, log),
		validateSessionUC: registrationUsecases.NewValidateSessionUseCase(repos.sessions, log),
		abandonSessionUC:  registrationUsecases.NewAbandonSessionUseCase(repos.sessions, repos.documents, c.tx, log),
		expireSessionsUC:  registrationUsecases.NewExpireSessionsUseCase(repos.sessions, c.publisher, cfg.Registration.ExpirySweepBatchSize, log),

		submitSessionUC:   approvalUsecases.NewSubmitSessionUseCase(repos.sessions, repos.approvals, policy, c.ownerEngine, c.tx, c.publisher, log),
		resubmitSessionUC: approvalUsecases.NewResubmitSessionUseCase(repos.sessions, repos.approvals, policy, c.ownerEngine, c.tx, c.publisher, log),
		decideRequestUC:   approvalUsecases.NewDecideRequestUseCase(repos.approvals, repos.sessions, policy, applier, c.locker, c.tx, c.publisher, log),
		listPendingUC:     approvalUsecases.NewListPendingRequestsUseCase(repos.approvals, policy, log),
		getRequestUC:      approvalUsecases.NewGetRequestUseCase(repos.approvals, policy, log),
		gatedCommandUC:    approvalUsecases.NewGatedCommandUseCase(repos.approvals, policy, applier, c.publisher, log),
	}
}
