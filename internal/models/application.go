package models

import (
	"time"

	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "PENDING"
	ApplicationStatusApproved  ApplicationStatus = "APPROVED"
	ApplicationStatusRejected  ApplicationStatus = "REJECTED"
	ApplicationStatusWithdrawn ApplicationStatus = "WITHDRAWN"
	ApplicationStatusExpired   ApplicationStatus = "EXPIRED"
)

// IsTerminal reports whether the status is final.
func (s ApplicationStatus) IsTerminal() bool {
	return s != ApplicationStatusPending
}

type Application struct {
	ID          uint64            `gorm:"primarykey" json:"id"`
	PositionID  uint64            `gorm:"not null" json:"position_id"`
	ApplicantID uint64            `gorm:"not null" json:"applicant_id"`
	Message     string            `gorm:"type:text" json:"message"`
	Status      ApplicationStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ExpiresAt   time.Time         `gorm:"not null" json:"expires_at"`
	RespondedAt *time.Time        `json:"responded_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relations
	Position  OpenPosition `gorm:"foreignKey:PositionID" json:"position,omitempty"`
	Applicant User         `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
}

// EffectiveStatus computes the status as of now without mutating state. Only
// the expiry sweep persists EXPIRED.
func (a *Application) EffectiveStatus(now time.Time) ApplicationStatus {
	if a.Status == ApplicationStatusPending && !now.Before(a.ExpiresAt) {
		return ApplicationStatusExpired
	}
	return a.Status
}
