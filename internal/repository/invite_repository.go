package repository

import (
	"time"

	"squad-management-api/internal/models"
	"gorm.io/gorm"
)

// GormInviteRepository is a GORM implementation of InviteRepository
type GormInviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &GormInviteRepository{db: db}
}

// Create inserts an invite. A lapsed pending invite for the same
// (squad, invitee) is persisted as EXPIRED in the same transaction, so the
// insert never collides with the partial unique index that enforces one
// pending invite per invitee.
func (r *GormInviteRepository) Create(invite *models.SquadInvite, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SquadInvite{}).
			Where("squad_id = ? AND invitee_id = ? AND status = ? AND expires_at <= ?",
				invite.SquadID, invite.InviteeID, models.InviteStatusPending, now).
			Updates(map[string]interface{}{
				"status":       models.InviteStatusExpired,
				"responded_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Create(invite).Error
	})
}

// FindByID finds an invite by ID
func (r *GormInviteRepository) FindByID(id uint64, preload ...string) (*models.SquadInvite, error) {
	var invite models.SquadInvite
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&invite, id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindPending finds a pending, non-expired invite for an invitee in a squad
func (r *GormInviteRepository) FindPending(squadID, inviteeID uint64, now time.Time) (*models.SquadInvite, error) {
	var invite models.SquadInvite
	if err := r.db.
		Where("squad_id = ? AND invitee_id = ? AND status = ? AND expires_at > ?",
			squadID, inviteeID, models.InviteStatusPending, now).
		First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// UpdateStatus records a status transition with its response timestamp
func (r *GormInviteRepository) UpdateStatus(id uint64, status models.InviteStatus, respondedAt time.Time) error {
	return r.db.Model(&models.SquadInvite{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
		}).Error
}

// Accept marks the invite accepted and adds the member atomically. The
// pending and expiry checks re-run inside the transaction so a concurrent
// response or cancellation cannot slip through.
func (r *GormInviteRepository) Accept(inviteID uint64, member *models.SquadMember, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var invite models.SquadInvite
		if err := tx.First(&invite, inviteID).Error; err != nil {
			return err
		}

		if invite.Status != models.InviteStatusPending {
			return ErrInviteNotPending
		}
		if !now.Before(invite.ExpiresAt) {
			return ErrInviteExpired
		}

		if err := tx.Model(&models.SquadInvite{}).
			Where("id = ?", inviteID).
			Updates(map[string]interface{}{
				"status":       models.InviteStatusAccepted,
				"responded_at": now,
			}).Error; err != nil {
			return err
		}

		return addMemberTx(tx, invite.SquadID, member)
	})
}

// ListByInvitee lists invites addressed to a user
func (r *GormInviteRepository) ListByInvitee(inviteeID uint64) ([]models.SquadInvite, error) {
	var invites []models.SquadInvite
	if err := r.db.Preload("Squad").Preload("Inviter").
		Where("invitee_id = ?", inviteeID).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

// ListBySquad lists invites sent for a squad
func (r *GormInviteRepository) ListBySquad(squadID uint64) ([]models.SquadInvite, error) {
	var invites []models.SquadInvite
	if err := r.db.Preload("Invitee").
		Where("squad_id = ?", squadID).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}
