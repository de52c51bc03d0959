package models

import (
	"time"

	"gorm.io/gorm"
)

type Squad struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	AvatarRef   string         `gorm:"type:varchar(255)" json:"avatar_ref"`
	MinSize     int            `gorm:"not null" json:"min_size"`
	MaxSize     int            `gorm:"not null" json:"max_size"`
	IsFixedSize bool           `gorm:"not null;default:false" json:"is_fixed_size"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	CreatorID   uint64         `gorm:"not null" json:"creator_id"`
	CaptainID   uint64         `gorm:"not null" json:"captain_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members   []SquadMember  `gorm:"foreignKey:SquadID" json:"members,omitempty"`
	Invites   []SquadInvite  `gorm:"foreignKey:SquadID" json:"invites,omitempty"`
	Positions []OpenPosition `gorm:"foreignKey:SquadID" json:"positions,omitempty"`
}
