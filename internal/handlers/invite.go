package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"squad-management-api/internal/dto"
	apierrors "squad-management-api/internal/errors"
	"squad-management-api/internal/middleware"
	"squad-management-api/internal/models"
	"squad-management-api/internal/services"
)

type InviteHandler struct {
	inviteService *services.InviteService
}

func NewInviteHandler(inviteService *services.InviteService) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
	}
}

// CreateInvite sends a squad invite (captain only)
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type CreateInviteRequest struct {
		InviteeID uint64           `json:"invitee_id" binding:"required"`
		Role      models.SquadRole `json:"role" binding:"required"`
		Message   string           `json:"message"`
	}

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	invite, err := h.inviteService.CreateInvite(squadID, userID, services.CreateInviteInput{
		InviteeID: req.InviteeID,
		Role:      req.Role,
		Message:   req.Message,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInviteDTO(*invite, time.Now()))
}

// ListMyInvites lists invites addressed to the caller
func (h *InviteHandler) ListMyInvites(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	invites, err := h.inviteService.ListInvitesForUser(userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": dto.ToInviteDTOs(invites, time.Now())})
}

// ListSquadInvites lists a squad's invites (captain only)
func (h *InviteHandler) ListSquadInvites(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invites, err := h.inviteService.ListInvitesForSquad(squadID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": dto.ToInviteDTOs(invites, time.Now())})
}

// AcceptInvite accepts a pending invite (invitee only)
func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	inviteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invite, err := h.inviteService.AcceptInvite(inviteID, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInviteDTO(*invite, time.Now()))
}

// DeclineInvite declines a pending invite (invitee only)
func (h *InviteHandler) DeclineInvite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	inviteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.inviteService.DeclineInvite(inviteID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite declined"})
}

// CancelInvite cancels a pending invite (inviter or current captain)
func (h *InviteHandler) CancelInvite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	inviteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.inviteService.CancelInvite(inviteID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite cancelled"})
}
