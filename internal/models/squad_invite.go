package models

import (
	"time"

	"gorm.io/gorm"
)

type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "PENDING"
	InviteStatusAccepted  InviteStatus = "ACCEPTED"
	InviteStatusDeclined  InviteStatus = "DECLINED"
	InviteStatusExpired   InviteStatus = "EXPIRED"
	InviteStatusCancelled InviteStatus = "CANCELLED"
)

// IsTerminal reports whether the status is final. Terminal invites are
// immutable.
func (s InviteStatus) IsTerminal() bool {
	return s != InviteStatusPending
}

type SquadInvite struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	SquadID     uint64         `gorm:"not null" json:"squad_id"`
	InviterID   uint64         `gorm:"not null" json:"inviter_id"`
	InviteeID   uint64         `gorm:"not null" json:"invitee_id"`
	Role        SquadRole      `gorm:"type:varchar(20);not null" json:"role"`
	Status      InviteStatus   `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Message     string         `gorm:"type:text" json:"message"`
	ExpiresAt   time.Time      `gorm:"not null" json:"expires_at"`
	RespondedAt *time.Time     `json:"responded_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Squad   Squad `gorm:"foreignKey:SquadID" json:"squad,omitempty"`
	Inviter User  `gorm:"foreignKey:InviterID" json:"inviter,omitempty"`
	Invitee User  `gorm:"foreignKey:InviteeID" json:"invitee,omitempty"`
}

// EffectiveStatus computes the status as of now without mutating state. A
// pending invite whose expiry has passed reads as EXPIRED; the sweep is the
// only writer of the persisted EXPIRED status.
func (i *SquadInvite) EffectiveStatus(now time.Time) InviteStatus {
	if i.Status == InviteStatusPending && !now.Before(i.ExpiresAt) {
		return InviteStatusExpired
	}
	return i.Status
}
