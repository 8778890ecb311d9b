package approval

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/application/approval/usecases"
	domain "github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/interfaces/http/handlers/common"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/id"
	"github.com/landreg/cadastre/internal/shared/logger"
	"github.com/landreg/cadastre/internal/shared/utils"
)

type ListPendingExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, req dto.ListPendingRequest) (*dto.ListPendingResponse, error)
}

type GetRequestExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, requestID string) (*dto.RequestResponse, error)
}

type DecideExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, cmd usecases.DecideCommand) (*dto.DecisionResponse, error)
}

type Handler struct {
	listPendingUC ListPendingExecutor
	getRequestUC  GetRequestExecutor
	decideUC      DecideExecutor
	logger        logger.Interface
}

func NewHandler(listPendingUC ListPendingExecutor, getRequestUC GetRequestExecutor, decideUC DecideExecutor, logger logger.Interface) *Handler {
	return &Handler{
		listPendingUC: listPendingUC,
		getRequestUC:  getRequestUC,
		decideUC:      decideUC,
		logger:        logger,
	}
}

// ListPending handles GET /approvals
// @Summary List pending approval requests
// @Tags Approvals
// @Produce json
// @Security Bearer
// @Param entity_type query string false "Entity type"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.APIResponse{data=utils.ListResponse{items=[]dto.RequestResponse}}
// @Router /approvals [get]
func (h *Handler) ListPending(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	var req dto.ListPendingRequest
	if !common.BindQuery(c, &req) {
		return
	}

	result, err := h.listPendingUC.Execute(c.Request.Context(), actor, req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, result.Requests, result.Total, result.Page, result.PageSize)
}

// GetRequest handles GET /approvals/:rid
// @Summary Get approval request
// @Tags Approvals
// @Produce json
// @Security Bearer
// @Param rid path string true "Approval request ID"
// @Success 200 {object} utils.APIResponse{data=dto.RequestResponse}
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /approvals/{rid} [get]
func (h *Handler) GetRequest(c *gin.Context) {
	actor, rid, ok := requestParams(c)
	if !ok {
		return
	}

	result, err := h.getRequestUC.Execute(c.Request.Context(), actor, rid)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Decide handles POST /approvals/:rid/decision
// @Summary Decide approval request
// @Description Approve replays the frozen command; reject requires a reason
// @Tags Approvals
// @Accept json
// @Produce json
// @Security Bearer
// @Param rid path string true "Approval request ID"
// @Param request body dto.DecisionRequest true "Decision"
// @Success 200 {object} utils.APIResponse{data=dto.DecisionResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /approvals/{rid}/decision [post]
func (h *Handler) Decide(c *gin.Context) {
	actor, rid, ok := requestParams(c)
	if !ok {
		return
	}
	var req dto.DecisionRequest
	if !common.BindJSON(c, &req) {
		return
	}

	result, err := h.decideUC.Execute(c.Request.Context(), actor, usecases.DecideCommand{
		RequestID: rid,
		Decision:  domain.Decision(req.Decision),
		Reason:    utils.SanitizeText(req.Reason),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Decision recorded", result)
}

func requestParams(c *gin.Context) (authorization.Actor, string, bool) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return actor, "", false
	}
	rid, err := utils.ParseSIDParam(c, "rid", id.PrefixRequest, "approval request")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return actor, "", false
	}
	return actor, rid, true
}
