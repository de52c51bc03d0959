package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships   []SquadMember  `gorm:"foreignKey:UserID" json:"-"`
	Invites       []SquadInvite  `gorm:"foreignKey:InviteeID" json:"-"`
	Applications  []Application  `gorm:"foreignKey:ApplicantID" json:"-"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"-"`
}
