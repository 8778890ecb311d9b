package registration

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	approvaldto "github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/application/registration/dto"
	"github.com/landreg/cadastre/internal/application/registration/usecases"
	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/interfaces/http/handlers/common"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/id"
	"github.com/landreg/cadastre/internal/shared/logger"
	"github.com/landreg/cadastre/internal/shared/utils"
)

// maxStepBody caps a step payload; uploads have their own limit.
const maxStepBody = 1 << 20

type CreateSessionExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor) (*dto.SessionResponse, bool, error)
}

type GetSessionExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, sessionID string) (*dto.SessionResponse, error)
}

type ListSessionsExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, req dto.ListSessionsRequest) (*dto.ListSessionsResponse, error)
}

type SaveStepExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, sessionID, stepName string, body []byte) (*dto.SessionResponse, error)
}

type AttachDocumentExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, cmd usecases.AttachDocumentCommand) (*dto.DocumentResponse, error)
}

type RemoveDocumentExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, sessionID, stepName, documentID string) error
}

type ValidateSessionExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, sessionID string) (*dto.ValidationResponse, error)
}

type AbandonSessionExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, sessionID string) error
}

type SubmitSessionExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, sessionID string) (*approvaldto.SubmitResponse, error)
}

// UseCases groups the executors behind the registration wizard routes.
type UseCases struct {
	Create   CreateSessionExecutor
	Get      GetSessionExecutor
	List     ListSessionsExecutor
	Save     SaveStepExecutor
	Attach   AttachDocumentExecutor
	Remove   RemoveDocumentExecutor
	Validate ValidateSessionExecutor
	Abandon  AbandonSessionExecutor
	Submit   SubmitSessionExecutor
	Resubmit SubmitSessionExecutor
}

type Handler struct {
	ucs            UseCases
	maxUploadBytes int64
	logger         logger.Interface
}

func NewHandler(ucs UseCases, maxUploadBytes int64, logger logger.Interface) *Handler {
	return &Handler{
		ucs:            ucs,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// CreateSession handles POST /registration/sessions. An open draft is
// resumed with 200; a new one answers 201.
// @Summary Create registration session
// @Tags Registration
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.APIResponse{data=dto.SessionResponse}
// @Success 201 {object} utils.APIResponse{data=dto.SessionResponse}
// @Failure 401 {object} utils.APIResponse
// @Router /registration/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	session, created, err := h.ucs.Create.Execute(c.Request.Context(), actor)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if created {
		utils.CreatedResponse(c, session, "Registration session created")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Resumed open registration session", session)
}

// ListSessions handles GET /registration/sessions
// @Summary List own registration sessions
// @Tags Registration
// @Produce json
// @Security Bearer
// @Param status query string false "Session status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} utils.APIResponse{data=utils.ListResponse{items=[]dto.SessionSummary}}
// @Router /registration/sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}
	var req dto.ListSessionsRequest
	if !common.BindQuery(c, &req) {
		return
	}

	result, err := h.ucs.List.Execute(c.Request.Context(), actor, req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, result.Sessions, result.Total, result.Page, result.PageSize)
}

// GetSession handles GET /registration/sessions/:sid
// @Summary Get registration session
// @Tags Registration
// @Produce json
// @Security Bearer
// @Param sid path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=dto.SessionResponse}
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /registration/sessions/{sid} [get]
func (h *Handler) GetSession(c *gin.Context) {
	actor, sid, ok := h.sessionRequest(c)
	if !ok {
		return
	}

	session, err := h.ucs.Get.Execute(c.Request.Context(), actor, sid)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", session)
}

// AbandonSession handles DELETE /registration/sessions/:sid
// @Summary Abandon draft session
// @Tags Registration
// @Security Bearer
// @Param sid path string true "Session ID"
// @Success 204
// @Failure 409 {object} utils.APIResponse
// @Router /registration/sessions/{sid} [delete]
func (h *Handler) AbandonSession(c *gin.Context) {
	actor, sid, ok := h.sessionRequest(c)
	if !ok {
		return
	}

	if err := h.ucs.Abandon.Execute(c.Request.Context(), actor, sid); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

// SaveStep handles PUT /registration/sessions/:sid/steps/:step. The body is
// passed through raw so each step decodes its own payload.
// @Summary Save wizard step
// @Tags Registration
// @Accept json
// @Produce json
// @Security Bearer
// @Param sid path string true "Session ID"
// @Param step path string true "Wizard step"
// @Success 200 {object} utils.APIResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /registration/sessions/{sid}/steps/{step} [put]
func (h *Handler) SaveStep(c *gin.Context) {
	actor, sid, ok := h.sessionRequest(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxStepBody))
	if err != nil {
		utils.ErrorResponseWithError(c, errors.InvalidPayload("step payload is too large or unreadable", err.Error()))
		return
	}

	session, err := h.ucs.Save.Execute(c.Request.Context(), actor, sid, c.Param("step"), body)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Step saved", session)
}

// AttachDocument handles POST /registration/sessions/:sid/steps/:step/documents.
// A multipart "file" part is uploaded through the gateway; a JSON body is
// taken as a handle the client already holds.
// @Summary Attach step document
// @Tags Registration
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Security Bearer
// @Param sid path string true "Session ID"
// @Param step path string true "Wizard step"
// @Param file formData file false "Document file"
// @Success 200 {object} utils.APIResponse{data=dto.DocumentResponse}
// @Success 201 {object} utils.APIResponse{data=dto.DocumentResponse}
// @Failure 400 {object} utils.APIResponse
// @Router /registration/sessions/{sid}/steps/{step}/documents [post]
func (h *Handler) AttachDocument(c *gin.Context) {
	actor, sid, ok := h.sessionRequest(c)
	if !ok {
		return
	}
	cmd := usecases.AttachDocumentCommand{SessionID: sid, Step: c.Param("step")}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+(1<<20))
		fh, err := c.FormFile("file")
		if err != nil {
			utils.ErrorResponseWithError(c, errors.InvalidPayload("multipart field \"file\" is required", err.Error()))
			return
		}
		f, err := fh.Open()
		if err != nil {
			utils.ErrorResponseWithError(c, errors.InvalidPayload("uploaded file is unreadable", err.Error()))
			return
		}
		defer f.Close()
		cmd.File = &document.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}
	} else {
		var handle document.Handle
		if !common.BindJSON(c, &handle) {
			return
		}
		cmd.Handle = &handle
	}

	result, err := h.ucs.Attach.Execute(c.Request.Context(), actor, cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if result.Attached {
		utils.CreatedResponse(c, result, "Document attached")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Document already attached", result)
}

// RemoveDocument handles DELETE /registration/sessions/:sid/steps/:step/documents/:did
// @Summary Remove step document
// @Tags Registration
// @Produce json
// @Security Bearer
// @Param sid path string true "Session ID"
// @Param step path string true "Wizard step"
// @Param did path string true "Document ID"
// @Success 204
// @Failure 404 {object} utils.APIResponse
// @Router /registration/sessions/{sid}/steps/{step}/documents/{did} [delete]
func (h *Handler) RemoveDocument(c *gin.Context) {
	actor, sid, ok := h.sessionRequest(c)
	if !ok {
		return
	}

	if err := h.ucs.Remove.Execute(c.Request.Context(), actor, sid, c.Param("step"), c.Param("did")); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

// ValidateSession handles GET /registration/sessions/:sid/validation
// @Summary Validate session
// @Tags Registration
// @Produce json
// @Security Bearer
// @Param sid path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=dto.ValidationResponse}
// @Router /registration/sessions/{sid}/validation [get]
func (h *Handler) ValidateSession(c *gin.Context) {
	actor, sid, ok := h.sessionRequest(c)
	if !ok {
		return
	}

	result, err := h.ucs.Validate.Execute(c.Request.Context(), actor, sid)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Submit handles POST /registration/sessions/:sid/submit
// @Summary Submit session for approval
// @Description Self-approving makers merge immediately; others park a pending request
// @Tags Registration
// @Produce json
// @Security Bearer
// @Param sid path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=approvaldto.SubmitResponse}
// @Success 202 {object} utils.APIResponse{data=approvaldto.SubmitResponse}
// @Failure 409 {object} utils.APIResponse
// @Failure 422 {object} utils.APIResponse
// @Router /registration/sessions/{sid}/submit [post]
func (h *Handler) Submit(c *gin.Context) {
	h.submit(c, h.ucs.Submit)
}

// Resubmit handles POST /registration/sessions/:sid/resubmit
// @Summary Resubmit rejected session
// @Tags Registration
// @Produce json
// @Security Bearer
// @Param sid path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=approvaldto.SubmitResponse}
// @Success 202 {object} utils.APIResponse{data=approvaldto.SubmitResponse}
// @Failure 409 {object} utils.APIResponse
// @Router /registration/sessions/{sid}/resubmit [post]
func (h *Handler) Resubmit(c *gin.Context) {
	h.submit(c, h.ucs.Resubmit)
}

func (h *Handler) submit(c *gin.Context, uc SubmitSessionExecutor) {
	actor, sid, ok := h.sessionRequest(c)
	if !ok {
		return
	}

	result, err := uc.Execute(c.Request.Context(), actor, sid)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if result.RequiresApproval {
		utils.SuccessResponse(c, http.StatusAccepted, "Submitted for approval", result)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Registration merged", result)
}

func (h *Handler) sessionRequest(c *gin.Context) (authorization.Actor, string, bool) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return actor, "", false
	}
	sid, err := utils.ParseSIDParam(c, "sid", id.PrefixSession, "session")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return actor, "", false
	}
	return actor, sid, true
}
