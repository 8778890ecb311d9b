package parcel

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	approvaldto "github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/application/approval/usecases"
	"github.com/landreg/cadastre/internal/application/ownership/dto"
	"github.com/landreg/cadastre/internal/application/ownership/services"
	"github.com/landreg/cadastre/internal/interfaces/http/handlers/common"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
	"github.com/landreg/cadastre/internal/shared/utils"
)

// Registry is the read side of the ownership engine.
type Registry interface {
	GetParcel(ctx context.Context, upin string) (*dto.ParcelResponse, error)
	ListOwnership(ctx context.Context, upin string) (*dto.ParcelOwnershipResponse, error)
	ListTransferHistory(ctx context.Context, upin string) ([]*dto.TransferHistoryResponse, error)
	ListEncumbrances(ctx context.Context, upin string) ([]*dto.EncumbranceResponse, error)
}

// GatedExecutor applies a command now or parks it for a checker.
type GatedExecutor interface {
	Execute(ctx context.Context, actor authorization.Actor, cmd usecases.Command) (*approvaldto.GatedResponse, error)
}

type Handler struct {
	registry Registry
	gate     GatedExecutor
	logger   logger.Interface
}

func NewHandler(registry Registry, gate GatedExecutor, logger logger.Interface) *Handler {
	return &Handler{
		registry: registry,
		gate:     gate,
		logger:   logger,
	}
}

// GetParcel handles GET /parcels/:upin
// @Summary Get parcel
// @Description Get a parcel and its current owners by UPIN
// @Tags Parcels
// @Produce json
// @Security Bearer
// @Param upin path string true "Parcel UPIN"
// @Success 200 {object} utils.APIResponse{data=dto.ParcelResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /parcels/{upin} [get]
func (h *Handler) GetParcel(c *gin.Context) {
	upin, ok := upinParam(c)
	if !ok {
		return
	}
	result, err := h.registry.GetParcel(c.Request.Context(), upin)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListOwnership handles GET /parcels/:upin/owners
// @Summary List parcel owners
// @Tags Parcels
// @Produce json
// @Security Bearer
// @Param upin path string true "Parcel UPIN"
// @Success 200 {object} utils.APIResponse{data=dto.ParcelOwnershipResponse}
// @Failure 404 {object} utils.APIResponse
// @Router /parcels/{upin}/owners [get]
func (h *Handler) ListOwnership(c *gin.Context) {
	upin, ok := upinParam(c)
	if !ok {
		return
	}
	result, err := h.registry.ListOwnership(c.Request.Context(), upin)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListTransferHistory handles GET /parcels/:upin/transfers
// @Summary List transfer history
// @Tags Parcels
// @Produce json
// @Security Bearer
// @Param upin path string true "Parcel UPIN"
// @Success 200 {object} utils.APIResponse{data=[]dto.TransferHistoryResponse}
// @Failure 404 {object} utils.APIResponse
// @Router /parcels/{upin}/transfers [get]
func (h *Handler) ListTransferHistory(c *gin.Context) {
	upin, ok := upinParam(c)
	if !ok {
		return
	}
	result, err := h.registry.ListTransferHistory(c.Request.Context(), upin)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListEncumbrances handles GET /parcels/:upin/encumbrances
// @Summary List encumbrances
// @Tags Encumbrances
// @Produce json
// @Security Bearer
// @Param upin path string true "Parcel UPIN"
// @Success 200 {object} utils.APIResponse{data=[]dto.EncumbranceResponse}
// @Failure 404 {object} utils.APIResponse
// @Router /parcels/{upin}/encumbrances [get]
func (h *Handler) ListEncumbrances(c *gin.Context) {
	upin, ok := upinParam(c)
	if !ok {
		return
	}
	result, err := h.registry.ListEncumbrances(c.Request.Context(), upin)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// LinkOwner handles POST /parcels/:upin/owners
// @Summary Link co-owner
// @Description Add an owner to a parcel, directly or via approval
// @Tags Parcels
// @Accept json
// @Produce json
// @Security Bearer
// @Param upin path string true "Parcel UPIN"
// @Param request body services.LinkOwnerCommand true "Owner and share"
// @Success 200 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Success 202 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /parcels/{upin}/owners [post]
func (h *Handler) LinkOwner(c *gin.Context) {
	var cmd services.LinkOwnerCommand
	upin, ok := h.bind(c, &cmd)
	if !ok {
		return
	}
	cmd.UPIN = upin
	h.execute(c, cmd)
}

// Transfer handles POST /parcels/:upin/transfers
// @Summary Transfer ownership
// @Tags Parcels
// @Accept json
// @Produce json
// @Security Bearer
// @Param upin path string true "Parcel UPIN"
// @Param request body services.TransferCommand true "Transfer details"
// @Success 200 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Success 202 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /parcels/{upin}/transfers [post]
func (h *Handler) Transfer(c *gin.Context) {
	var cmd services.TransferCommand
	upin, ok := h.bind(c, &cmd)
	if !ok {
		return
	}
	cmd.UPIN = upin
	cmd.Reference = utils.SanitizeText(cmd.Reference)
	h.execute(c, cmd)
}

// Subdivide handles POST /parcels/:upin/subdivisions
// @Summary Subdivide parcel
// @Description Retire a parcel and register its children with the parent's owners
// @Tags Parcels
// @Accept json
// @Produce json
// @Security Bearer
// @Param upin path string true "Parent UPIN"
// @Param request body services.SubdivideCommand true "Child parcels"
// @Success 200 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Success 202 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /parcels/{upin}/subdivisions [post]
func (h *Handler) Subdivide(c *gin.Context) {
	var cmd services.SubdivideCommand
	upin, ok := h.bind(c, &cmd)
	if !ok {
		return
	}
	cmd.ParentUPIN = upin
	h.execute(c, cmd)
}

// RegisterEncumbrance handles POST /parcels/:upin/encumbrances
// @Summary Register encumbrance
// @Tags Encumbrances
// @Accept json
// @Produce json
// @Security Bearer
// @Param upin path string true "Parcel UPIN"
// @Param request body services.EncumbranceCommand true "Encumbrance"
// @Success 200 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Success 202 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Failure 400 {object} utils.APIResponse
// @Router /parcels/{upin}/encumbrances [post]
func (h *Handler) RegisterEncumbrance(c *gin.Context) {
	var cmd services.EncumbranceCommand
	upin, ok := h.bind(c, &cmd)
	if !ok {
		return
	}
	cmd.UPIN = upin
	cmd.IssuingEntity = utils.SanitizeText(cmd.IssuingEntity)
	cmd.Description = utils.SanitizeText(cmd.Description)
	h.execute(c, cmd)
}

// UpdateShare handles PATCH /ownerships/:id/share
// @Summary Update owner share
// @Tags Ownerships
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Ownership ID"
// @Param request body services.UpdateShareCommand true "New share"
// @Success 200 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Success 202 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /ownerships/{id}/share [patch]
func (h *Handler) UpdateShare(c *gin.Context) {
	ownershipID, err := utils.ParseUintParam(c, "id", "ownership")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	var cmd services.UpdateShareCommand
	if !common.BindJSON(c, &cmd) {
		return
	}
	cmd.OwnershipID = ownershipID
	h.execute(c, cmd)
}

// ReleaseEncumbrance handles POST /encumbrances/:id/release
// @Summary Release encumbrance
// @Description Release an active encumbrance, directly or via approval
// @Tags Encumbrances
// @Produce json
// @Security Bearer
// @Param id path int true "Encumbrance ID"
// @Success 200 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Success 202 {object} utils.APIResponse{data=approvaldto.GatedResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /encumbrances/{id}/release [post]
func (h *Handler) ReleaseEncumbrance(c *gin.Context) {
	encumbranceID, err := utils.ParseUintParam(c, "id", "encumbrance")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	h.execute(c, services.ReleaseEncumbranceCommand{EncumbranceID: encumbranceID})
}

func (h *Handler) bind(c *gin.Context, cmd any) (string, bool) {
	upin, ok := upinParam(c)
	if !ok {
		return "", false
	}
	if !common.BindJSON(c, cmd) {
		return "", false
	}
	return upin, true
}

func (h *Handler) execute(c *gin.Context, cmd usecases.Command) {
	actor, ok := common.RequireActor(c)
	if !ok {
		return
	}

	result, err := h.gate.Execute(c.Request.Context(), actor, cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if result.RequiresApproval {
		utils.SuccessResponse(c, http.StatusAccepted, "Submitted for approval", result)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Applied", result)
}

func upinParam(c *gin.Context) (string, bool) {
	upin := strings.TrimSpace(c.Param("upin"))
	if upin == "" || len(upin) > 64 {
		utils.ErrorResponseWithError(c, errors.NewValidationError("a valid UPIN is required"))
		return "", false
	}
	return upin, true
}
