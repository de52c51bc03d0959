package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"squad-management-api/internal/dto"
	apierrors "squad-management-api/internal/errors"
	"squad-management-api/internal/middleware"
	"squad-management-api/internal/models"
	"squad-management-api/internal/services"
)

type SquadHandler struct {
	squadService *services.SquadService
}

func NewSquadHandler(squadService *services.SquadService) *SquadHandler {
	return &SquadHandler{
		squadService: squadService,
	}
}

// CreateSquad creates a new squad with the caller as captain
func (h *SquadHandler) CreateSquad(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateSquadRequest struct {
		Name        string           `json:"name" binding:"required"`
		Description string           `json:"description"`
		AvatarRef   string           `json:"avatar_ref"`
		MaxSize     int              `json:"max_size"`
		IsFixedSize bool             `json:"is_fixed_size"`
		Role        models.SquadRole `json:"role" binding:"required"`
	}

	var req CreateSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	squad, err := h.squadService.CreateSquad(c.Request.Context(), userID, services.CreateSquadInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarRef:   req.AvatarRef,
		MaxSize:     req.MaxSize,
		IsFixedSize: req.IsFixedSize,
		CaptainRole: req.Role,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSquadDTO(*squad))
}

// ListSquads returns all squads the user is a member of
func (h *SquadHandler) ListSquads(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.squadService.ListSquadsForUser(userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	squads := make([]dto.SquadWithRoleDTO, len(memberships))
	for i, m := range memberships {
		squads[i] = dto.ToSquadWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"squads": squads})
}

// GetSquad returns squad details with members
func (h *SquadHandler) GetSquad(c *gin.Context) {
	squadInterface, _ := c.Get("squad")
	squad := squadInterface.(models.Squad)

	memberInterface, _ := c.Get("squad_member")
	member := memberInterface.(models.SquadMember)

	_, members, err := h.squadService.GetSquadWithMembers(squad.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSquadDetailDTO(squad, members, member.Role))
}

// GetQuota returns the caller's squad creation quota
func (h *SquadHandler) GetQuota(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	quota, err := h.squadService.CanUserCreateSquad(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, quota)
}

// UpdateSquad applies a captain-only patch to the squad
func (h *SquadHandler) UpdateSquad(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateSquadRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		AvatarRef   *string `json:"avatar_ref"`
		MaxSize     *int    `json:"max_size"`
		IsFixedSize *bool   `json:"is_fixed_size"`
	}

	var req UpdateSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	squad, err := h.squadService.UpdateSquad(squadID, userID, services.UpdateSquadInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarRef:   req.AvatarRef,
		MaxSize:     req.MaxSize,
		IsFixedSize: req.IsFixedSize,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSquadDTO(*squad))
}

// DismantleSquad deletes a squad and all related data
func (h *SquadHandler) DismantleSquad(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.squadService.DismantleSquad(squadID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Squad dismantled"})
}

// RemoveMember removes a member from the squad (captain only)
func (h *SquadHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.squadService.RemoveMember(squadID, userID, targetID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// LeaveSquad removes the caller from the squad
func (h *SquadHandler) LeaveSquad(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.squadService.LeaveSquad(squadID, userID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left squad"})
}

// ChangeMemberRole changes a member's role (captain only)
func (h *SquadHandler) ChangeMemberRole(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	type ChangeRoleRequest struct {
		Role models.SquadRole `json:"role" binding:"required"`
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	if err := h.squadService.ChangeMemberRole(squadID, userID, targetID, req.Role); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// TransferCaptaincy reassigns the squad captain (captain only)
func (h *SquadHandler) TransferCaptaincy(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	squadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type TransferRequest struct {
		NewCaptainID uint64 `json:"new_captain_id" binding:"required"`
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "")
		return
	}

	if err := h.squadService.TransferCaptaincy(squadID, userID, req.NewCaptainID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Captaincy transferred"})
}

// parseIDParam parses a uint64 URL parameter, writing a 400 on failure
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return value, true
}
