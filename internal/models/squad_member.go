package models

import "time"

type SquadRole string

const (
	RoleTrader  SquadRole = "TRADER"
	RoleScout   SquadRole = "SCOUT"
	RoleAnalyst SquadRole = "ANALYST"
	RoleSupport SquadRole = "SUPPORT"
	RoleFlex    SquadRole = "FLEX"
)

// ValidSquadRole reports whether the role is one of the known squad roles.
func ValidSquadRole(role SquadRole) bool {
	switch role {
	case RoleTrader, RoleScout, RoleAnalyst, RoleSupport, RoleFlex:
		return true
	}
	return false
}

// SquadMember uses a composite primary key, so a user can hold at most one
// membership per squad.
type SquadMember struct {
	SquadID  uint64    `gorm:"primarykey" json:"squad_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	Role     SquadRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Squad Squad `gorm:"foreignKey:SquadID" json:"squad,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
