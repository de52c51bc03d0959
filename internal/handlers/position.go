package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"squad-management-api/internal/dto"
	apierrors "squad-management-api/internal/errors"
	"squad-management-api/internal/middleware"
	"squad-management-api/internal/models"
	"squad-management-api/internal/repository"
	"squad-management-api/internal/services"
	"squad-management-api/internal/utils"
)

type PositionHandler struct {
	positionService *services.PositionService
}

func NewPositionHandler(positionService *services.PositionService) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
	}
}

// CreatePosition publishes an open position (captain only)
func (h *PositionHandler) CreatePosition(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type CreatePositionRequest struct {
		Role                models.SquadRole `json:"role" binding:"required"`
		Description         string           `json:"description"`
		MinScoreTier        models.ScoreTier `json:"min_score_tier"`
		RequiresMutualVouch bool             `json:"requires_mutual_vouch"`
		Benefits            []string         `json:"benefits"`
	}

	var req CreatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	position, err := h.positionService.CreatePosition(squadID, userID, services.CreatePositionInput{
		Role:                req.Role,
		Description:         req.Description,
		MinScoreTier:        req.MinScoreTier,
		RequiresMutualVouch: req.RequiresMutualVouch,
		Benefits:            req.Benefits,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToPositionDTO(*position, time.Now()))
}

// BrowsePositions lists open, non-expired positions across squads
func (h *PositionHandler) BrowsePositions(c *gin.Context) {
	pagination := utils.GetPaginationParams(c)

	filter := repository.PositionFilter{
		Pagination: pagination,
	}
	if raw := c.Query("squad_id"); raw != "" {
		squadID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid squad_id")
			return
		}
		filter.SquadID = &squadID
	}
	if raw := c.Query("role"); raw != "" {
		role := models.SquadRole(raw)
		if !models.ValidSquadRole(role) {
			apierrors.BadRequest(c, "Invalid role")
			return
		}
		filter.Role = &role
	}

	positions, total, err := h.positionService.ListOpenPositions(filter)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"positions": dto.ToPositionDTOs(positions, time.Now()),
		"pagination": utils.PaginationResponse{
			Page:  pagination.Page,
			Limit: pagination.Limit,
			Total: total,
		},
	})
}

// ListSquadPositions lists all positions of a squad (members can see them)
func (h *PositionHandler) ListSquadPositions(c *gin.Context) {
	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	positions, err := h.positionService.ListSquadPositions(squadID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"positions": dto.ToPositionDTOs(positions, time.Now())})
}

// DeletePosition removes a position and rejects its pending applications
// (captain only)
func (h *PositionHandler) DeletePosition(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	positionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.positionService.DeletePosition(positionID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Position deleted"})
}

// Apply submits an application for an open position
func (h *PositionHandler) Apply(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	positionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type ApplyRequest struct {
		Message string `json:"message"`
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		apierrors.BadRequest(c, "")
		return
	}

	application, err := h.positionService.ApplyToPosition(c.Request.Context(), positionID, userID, req.Message)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToApplicationDTO(*application, time.Now()))
}

// ListPositionApplications lists applications for a position (captain only)
func (h *PositionHandler) ListPositionApplications(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	positionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	applications, err := h.positionService.ListApplicationsForPosition(positionID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": dto.ToApplicationDTOs(applications, time.Now())})
}

// ListMyApplications lists the caller's own applications
func (h *PositionHandler) ListMyApplications(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	applications, err := h.positionService.ListApplicationsForUser(userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": dto.ToApplicationDTOs(applications, time.Now())})
}

// ApproveApplication approves an application, admitting the applicant
// (captain only)
func (h *PositionHandler) ApproveApplication(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	application, err := h.positionService.ApproveApplication(c.Request.Context(), applicationID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToApplicationDTO(*application, time.Now()))
}

// RejectApplication rejects a pending application (captain only)
func (h *PositionHandler) RejectApplication(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.positionService.RejectApplication(applicationID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application rejected"})
}

// WithdrawApplication withdraws a pending application (applicant only)
func (h *PositionHandler) WithdrawApplication(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.positionService.WithdrawApplication(applicationID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application withdrawn"})
}

// ProcessExpirations runs the batch expiry sweep
func (h *PositionHandler) ProcessExpirations(c *gin.Context) {
	closedPositions, expiredApplications, err := h.positionService.ProcessExpirations()
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"closed_positions":     closedPositions,
		"expired_applications": expiredApplications,
	})
}
