package dto

import (
	"time"

	"squad-management-api/internal/models"
)

// InviteDTO represents a squad invite in API responses. Status is the
// effective status as of the request.
type InviteDTO struct {
	ID          uint64              `json:"id"`
	SquadID     uint64              `json:"squad_id"`
	InviterID   uint64              `json:"inviter_id"`
	InviteeID   uint64              `json:"invitee_id"`
	Role        models.SquadRole    `json:"role"`
	Status      models.InviteStatus `json:"status"`
	Message     string              `json:"message,omitempty"`
	ExpiresAt   time.Time           `json:"expires_at"`
	RespondedAt *time.Time          `json:"responded_at"`
	CreatedAt   time.Time           `json:"created_at"`
	Squad       *SquadDTO           `json:"squad,omitempty"`
	Inviter     *UserDTO            `json:"inviter,omitempty"`
	Invitee     *UserDTO            `json:"invitee,omitempty"`
}

// ToInviteDTO converts an invite to DTO, computing the effective status as
// of now without mutating state.
func ToInviteDTO(invite models.SquadInvite, now time.Time) InviteDTO {
	dto := InviteDTO{
		ID:          invite.ID,
		SquadID:     invite.SquadID,
		InviterID:   invite.InviterID,
		InviteeID:   invite.InviteeID,
		Role:        invite.Role,
		Status:      invite.EffectiveStatus(now),
		Message:     invite.Message,
		ExpiresAt:   invite.ExpiresAt,
		RespondedAt: invite.RespondedAt,
		CreatedAt:   invite.CreatedAt,
	}

	if invite.Squad.ID != 0 {
		squad := ToSquadDTO(invite.Squad)
		dto.Squad = &squad
	}
	if invite.Inviter.ID != 0 {
		inviter := ToUserDTO(invite.Inviter)
		dto.Inviter = &inviter
	}
	if invite.Invitee.ID != 0 {
		invitee := ToUserDTO(invite.Invitee)
		dto.Invitee = &invitee
	}

	return dto
}

// ToInviteDTOs converts a slice of invites
func ToInviteDTOs(invites []models.SquadInvite, now time.Time) []InviteDTO {
	dtos := make([]InviteDTO, len(invites))
	for i, invite := range invites {
		dtos[i] = ToInviteDTO(invite, now)
	}
	return dtos
}
