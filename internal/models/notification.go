package models

import "time"

type NotificationType string

const (
	NotificationInviteReceived       NotificationType = "INVITE_RECEIVED"
	NotificationInviteAccepted       NotificationType = "INVITE_ACCEPTED"
	NotificationInviteDeclined       NotificationType = "INVITE_DECLINED"
	NotificationApplicationReceived  NotificationType = "APPLICATION_RECEIVED"
	NotificationApplicationApproved  NotificationType = "APPLICATION_APPROVED"
	NotificationApplicationRejected  NotificationType = "APPLICATION_REJECTED"
	NotificationApplicationExpired   NotificationType = "APPLICATION_EXPIRED"
	NotificationPositionClosed       NotificationType = "POSITION_CLOSED"
	NotificationMemberRemoved        NotificationType = "MEMBER_REMOVED"
	NotificationCaptaincyTransferred NotificationType = "CAPTAINCY_TRANSFERRED"
	NotificationSquadDismantled      NotificationType = "SQUAD_DISMANTLED"
)

// Notification rows are created as side effects of workflow transitions and
// are never mutated afterwards except for the read flag.
type Notification struct {
	ID            uint64           `gorm:"primarykey" json:"id"`
	UserID        uint64           `gorm:"not null;index" json:"user_id"`
	Type          NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title         string           `gorm:"type:varchar(255);not null" json:"title"`
	Message       string           `gorm:"type:text" json:"message"`
	Read          bool             `gorm:"not null;default:false" json:"read"`
	SquadID       *uint64          `json:"squad_id,omitempty"`
	PositionID    *uint64          `json:"position_id,omitempty"`
	ApplicationID *uint64          `json:"application_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
