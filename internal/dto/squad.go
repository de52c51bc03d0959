package dto

import (
	"time"

	"squad-management-api/internal/models"
)

// SquadDTO represents a squad in API responses
type SquadDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	MinSize     int       `json:"min_size"`
	MaxSize     int       `json:"max_size"`
	IsFixedSize bool      `json:"is_fixed_size"`
	IsActive    bool      `json:"is_active"`
	CreatorID   uint64    `json:"creator_id"`
	CaptainID   uint64    `json:"captain_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// SquadWithRoleDTO represents a squad with the user's role in it
type SquadWithRoleDTO struct {
	SquadDTO
	Role models.SquadRole `json:"role"`
}

// SquadMemberDTO represents a member in a squad
type SquadMemberDTO struct {
	User     UserDTO          `json:"user"`
	Role     models.SquadRole `json:"role"`
	JoinedAt time.Time        `json:"joined_at"`
}

// SquadDetailDTO represents detailed squad information
type SquadDetailDTO struct {
	SquadDTO
	Members  []SquadMemberDTO `json:"members"`
	YourRole models.SquadRole `json:"your_role"`
}

// ToSquadDTO converts a Squad model to SquadDTO
func ToSquadDTO(squad models.Squad) SquadDTO {
	return SquadDTO{
		ID:          squad.ID,
		Name:        squad.Name,
		Description: squad.Description,
		AvatarRef:   squad.AvatarRef,
		MinSize:     squad.MinSize,
		MaxSize:     squad.MaxSize,
		IsFixedSize: squad.IsFixedSize,
		IsActive:    squad.IsActive,
		CreatorID:   squad.CreatorID,
		CaptainID:   squad.CaptainID,
		CreatedAt:   squad.CreatedAt,
	}
}

// ToSquadWithRoleDTO converts a membership to a squad DTO with role
func ToSquadWithRoleDTO(member models.SquadMember) SquadWithRoleDTO {
	return SquadWithRoleDTO{
		SquadDTO: ToSquadDTO(member.Squad),
		Role:     member.Role,
	}
}

// ToSquadMemberDTO converts a member to DTO
func ToSquadMemberDTO(member models.SquadMember) SquadMemberDTO {
	return SquadMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToSquadDetailDTO converts a squad with members to a detailed DTO
func ToSquadDetailDTO(squad models.Squad, members []models.SquadMember, yourRole models.SquadRole) SquadDetailDTO {
	memberDTOs := make([]SquadMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToSquadMemberDTO(member)
	}

	return SquadDetailDTO{
		SquadDTO: ToSquadDTO(squad),
		Members:  memberDTOs,
		YourRole: yourRole,
	}
}
