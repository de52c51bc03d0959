package repository

import (
	"squad-management-api/internal/models"
	"gorm.io/gorm"
)

// GormSquadRepository is a GORM implementation of SquadRepository
type GormSquadRepository struct {
	db *gorm.DB
}

// NewSquadRepository creates a new SquadRepository
func NewSquadRepository(db *gorm.DB) SquadRepository {
	return &GormSquadRepository{db: db}
}

// CreateWithCaptain creates a squad and its captain membership atomically.
func (r *GormSquadRepository) CreateWithCaptain(squad *models.Squad, captain *models.SquadMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(squad).Error; err != nil {
			return err
		}

		captain.SquadID = squad.ID
		if err := tx.Create(captain).Error; err != nil {
			return err
		}

		return nil
	})
}

// FindByID finds a squad by ID
func (r *GormSquadRepository) FindByID(id uint64, preload ...string) (*models.Squad, error) {
	var squad models.Squad
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&squad, id).Error; err != nil {
		return nil, err
	}
	return &squad, nil
}

// Update updates a squad
func (r *GormSquadRepository) Update(squad *models.Squad) error {
	return r.db.Save(squad).Error
}

// Delete dismantles a squad and all related data in a transaction
func (r *GormSquadRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var positionIDs []uint64
		if err := tx.Model(&models.OpenPosition{}).
			Where("squad_id = ?", id).
			Pluck("id", &positionIDs).Error; err != nil {
			return err
		}

		if len(positionIDs) > 0 {
			if err := tx.Where("position_id IN ?", positionIDs).
				Delete(&models.Application{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("squad_id = ?", id).Delete(&models.OpenPosition{}).Error; err != nil {
			return err
		}

		if err := tx.Where("squad_id = ?", id).Delete(&models.SquadInvite{}).Error; err != nil {
			return err
		}

		if err := tx.Where("squad_id = ?", id).Delete(&models.SquadMember{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Squad{}, id).Error; err != nil {
			return err
		}

		return nil
	})
}

// AddMember inserts a member with capacity and duplicate checks in one transaction
func (r *GormSquadRepository) AddMember(squadID uint64, member *models.SquadMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return addMemberTx(tx, squadID, member)
	})
}

// RemoveMember deletes a membership and recomputes the active flag atomically
func (r *GormSquadRepository) RemoveMember(squadID, userID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("squad_id = ? AND user_id = ?", squadID, userID).
			Delete(&models.SquadMember{}).Error; err != nil {
			return err
		}

		return recomputeActiveTx(tx, squadID)
	})
}

// UpdateMemberRole changes a member's role
func (r *GormSquadRepository) UpdateMemberRole(squadID, userID uint64, role models.SquadRole) error {
	return r.db.Model(&models.SquadMember{}).
		Where("squad_id = ? AND user_id = ?", squadID, userID).
		Update("role", role).Error
}

// UpdateCaptain reassigns the squad's captain
func (r *GormSquadRepository) UpdateCaptain(squadID, newCaptainID uint64) error {
	return r.db.Model(&models.Squad{}).
		Where("id = ?", squadID).
		Update("captain_id", newCaptainID).Error
}

// FindMember finds a specific squad member
func (r *GormSquadRepository) FindMember(squadID, userID uint64) (*models.SquadMember, error) {
	var member models.SquadMember
	if err := r.db.Where("squad_id = ? AND user_id = ?", squadID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a squad
func (r *GormSquadRepository) ListMembers(squadID uint64) ([]models.SquadMember, error) {
	var members []models.SquadMember
	if err := r.db.Preload("User").
		Where("squad_id = ?", squadID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembershipsByUserID lists all squads a user is a member of
func (r *GormSquadRepository) ListMembershipsByUserID(userID uint64) ([]models.SquadMember, error) {
	var memberships []models.SquadMember
	if err := r.db.Preload("Squad").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountMembers counts current members of a squad
func (r *GormSquadRepository) CountMembers(squadID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.SquadMember{}).
		Where("squad_id = ?", squadID).
		Count(&count).Error
	return count, err
}

// CountCreatedBy counts squads created by a user
func (r *GormSquadRepository) CountCreatedBy(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Squad{}).
		Where("creator_id = ?", userID).
		Count(&count).Error
	return count, err
}

// addMemberTx inserts a membership after re-checking capacity and uniqueness
// inside the caller's transaction, then recomputes the active flag. Shared
// by direct additions, invite acceptance and application approval.
func addMemberTx(tx *gorm.DB, squadID uint64, member *models.SquadMember) error {
	var squad models.Squad
	if err := tx.First(&squad, squadID).Error; err != nil {
		return err
	}

	var memberCount int64
	if err := tx.Model(&models.SquadMember{}).
		Where("squad_id = ?", squadID).
		Count(&memberCount).Error; err != nil {
		return err
	}
	if memberCount >= int64(squad.MaxSize) {
		return ErrSquadFull
	}

	var existing int64
	if err := tx.Model(&models.SquadMember{}).
		Where("squad_id = ? AND user_id = ?", squadID, member.UserID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return ErrDuplicateMember
	}

	member.SquadID = squadID
	if err := tx.Create(member).Error; err != nil {
		return err
	}

	return recomputeActiveTx(tx, squadID)
}

// recomputeActiveTx derives is_active from the current member count so a
// reader outside the transaction never observes a stale flag.
func recomputeActiveTx(tx *gorm.DB, squadID uint64) error {
	var squad models.Squad
	if err := tx.First(&squad, squadID).Error; err != nil {
		return err
	}

	var count int64
	if err := tx.Model(&models.SquadMember{}).
		Where("squad_id = ?", squadID).
		Count(&count).Error; err != nil {
		return err
	}

	isActive := count >= int64(squad.MinSize)
	if isActive == squad.IsActive {
		return nil
	}

	return tx.Model(&models.Squad{}).
		Where("id = ?", squadID).
		Update("is_active", isActive).Error
}
