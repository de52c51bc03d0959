package models

import (
	"time"

	"gorm.io/gorm"
)

// ScoreTier is the minimum reputation score required to apply. Comparisons
// are inclusive: a score exactly at the threshold qualifies.
type ScoreTier string

const (
	TierNone     ScoreTier = "NONE"
	Tier1400Plus ScoreTier = "1400+"
	Tier1500Plus ScoreTier = "1500+"
	Tier1600Plus ScoreTier = "1600+"
	Tier1700Plus ScoreTier = "1700+"
	Tier1800Plus ScoreTier = "1800+"
	Tier1900Plus ScoreTier = "1900+"
	Tier2000Plus ScoreTier = "2000+"
)

var tierMinScores = map[ScoreTier]int{
	TierNone:     0,
	Tier1400Plus: 1400,
	Tier1500Plus: 1500,
	Tier1600Plus: 1600,
	Tier1700Plus: 1700,
	Tier1800Plus: 1800,
	Tier1900Plus: 1900,
	Tier2000Plus: 2000,
}

// MinScore returns the inclusive threshold for the tier.
func (t ScoreTier) MinScore() int {
	return tierMinScores[t]
}

// ValidScoreTier reports whether the tier is a known threshold.
func ValidScoreTier(t ScoreTier) bool {
	_, ok := tierMinScores[t]
	return ok
}

type OpenPosition struct {
	ID                  uint64         `gorm:"primarykey" json:"id"`
	SquadID             uint64         `gorm:"not null" json:"squad_id"`
	Role                SquadRole      `gorm:"type:varchar(20);not null" json:"role"`
	Description         string         `gorm:"type:text" json:"description"`
	MinScoreTier        ScoreTier      `gorm:"type:varchar(10);not null;default:'NONE'" json:"min_score_tier"`
	RequiresMutualVouch bool           `gorm:"not null;default:false" json:"requires_mutual_vouch"`
	Benefits            []string       `gorm:"serializer:json" json:"benefits"`
	ExpiresAt           time.Time      `gorm:"not null" json:"expires_at"`
	IsOpen              bool           `gorm:"not null;default:true" json:"is_open"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Squad        Squad         `gorm:"foreignKey:SquadID" json:"squad,omitempty"`
	Applications []Application `gorm:"foreignKey:PositionID" json:"applications,omitempty"`
}

// EffectiveOpen computes whether the position is accepting applications as of
// now, without mutating state.
func (p *OpenPosition) EffectiveOpen(now time.Time) bool {
	return p.IsOpen && now.Before(p.ExpiresAt)
}
