package dto

import (
	"time"

	"squad-management-api/internal/models"
)

// PositionDTO represents an open position in API responses. IsOpen is the
// effective openness as of the request.
type PositionDTO struct {
	ID                  uint64           `json:"id"`
	SquadID             uint64           `json:"squad_id"`
	Role                models.SquadRole `json:"role"`
	Description         string           `json:"description"`
	MinScoreTier        models.ScoreTier `json:"min_score_tier"`
	RequiresMutualVouch bool             `json:"requires_mutual_vouch"`
	Benefits            []string         `json:"benefits"`
	ExpiresAt           time.Time        `json:"expires_at"`
	IsOpen              bool             `json:"is_open"`
	CreatedAt           time.Time        `json:"created_at"`
	Squad               *SquadDTO        `json:"squad,omitempty"`
}

// ApplicationDTO represents an application in API responses. Status is the
// effective status as of the request.
type ApplicationDTO struct {
	ID          uint64                   `json:"id"`
	PositionID  uint64                   `json:"position_id"`
	ApplicantID uint64                   `json:"applicant_id"`
	Message     string                   `json:"message,omitempty"`
	Status      models.ApplicationStatus `json:"status"`
	ExpiresAt   time.Time                `json:"expires_at"`
	RespondedAt *time.Time               `json:"responded_at"`
	CreatedAt   time.Time                `json:"created_at"`
	Position    *PositionDTO             `json:"position,omitempty"`
	Applicant   *UserDTO                 `json:"applicant,omitempty"`
}

// ToPositionDTO converts a position to DTO, computing effective openness as
// of now without mutating state.
func ToPositionDTO(position models.OpenPosition, now time.Time) PositionDTO {
	dto := PositionDTO{
		ID:                  position.ID,
		SquadID:             position.SquadID,
		Role:                position.Role,
		Description:         position.Description,
		MinScoreTier:        position.MinScoreTier,
		RequiresMutualVouch: position.RequiresMutualVouch,
		Benefits:            position.Benefits,
		ExpiresAt:           position.ExpiresAt,
		IsOpen:              position.EffectiveOpen(now),
		CreatedAt:           position.CreatedAt,
	}

	if position.Squad.ID != 0 {
		squad := ToSquadDTO(position.Squad)
		dto.Squad = &squad
	}

	return dto
}

// ToPositionDTOs converts a slice of positions
func ToPositionDTOs(positions []models.OpenPosition, now time.Time) []PositionDTO {
	dtos := make([]PositionDTO, len(positions))
	for i, position := range positions {
		dtos[i] = ToPositionDTO(position, now)
	}
	return dtos
}

// ToApplicationDTO converts an application to DTO
func ToApplicationDTO(application models.Application, now time.Time) ApplicationDTO {
	dto := ApplicationDTO{
		ID:          application.ID,
		PositionID:  application.PositionID,
		ApplicantID: application.ApplicantID,
		Message:     application.Message,
		Status:      application.EffectiveStatus(now),
		ExpiresAt:   application.ExpiresAt,
		RespondedAt: application.RespondedAt,
		CreatedAt:   application.CreatedAt,
	}

	if application.Position.ID != 0 {
		position := ToPositionDTO(application.Position, now)
		dto.Position = &position
	}
	if application.Applicant.ID != 0 {
		applicant := ToUserDTO(application.Applicant)
		dto.Applicant = &applicant
	}

	return dto
}

// ToApplicationDTOs converts a slice of applications
func ToApplicationDTOs(applications []models.Application, now time.Time) []ApplicationDTO {
	dtos := make([]ApplicationDTO, len(applications))
	for i, application := range applications {
		dtos[i] = ToApplicationDTO(application, now)
	}
	return dtos
}
