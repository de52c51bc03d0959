package repository

import (
	"time"

	"squad-management-api/internal/database"
	"squad-management-api/internal/models"
	"gorm.io/gorm"
)

// GormPositionRepository is a GORM implementation of PositionRepository
type GormPositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new PositionRepository
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &GormPositionRepository{db: db}
}

// Create inserts a position after re-checking the free-slot invariant inside
// a transaction: open, non-expired positions for a squad never exceed
// maxSize minus the current member count. Pending invites do not reserve
// slots.
func (r *GormPositionRepository) Create(position *models.OpenPosition, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var squad models.Squad
		if err := tx.First(&squad, position.SquadID).Error; err != nil {
			return err
		}

		var memberCount int64
		if err := tx.Model(&models.SquadMember{}).
			Where("squad_id = ?", position.SquadID).
			Count(&memberCount).Error; err != nil {
			return err
		}

		var openCount int64
		if err := tx.Model(&models.OpenPosition{}).
			Where("squad_id = ? AND is_open = ? AND expires_at > ?", position.SquadID, true, now).
			Count(&openCount).Error; err != nil {
			return err
		}

		freeSlots := int64(squad.MaxSize) - memberCount
		if openCount >= freeSlots {
			return ErrNoFreeSlots
		}

		return tx.Create(position).Error
	})
}

// FindByID finds a position by ID
func (r *GormPositionRepository) FindByID(id uint64, preload ...string) (*models.OpenPosition, error) {
	var position models.OpenPosition
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&position, id).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

// ListBySquad lists all positions of a squad
func (r *GormPositionRepository) ListBySquad(squadID uint64) ([]models.OpenPosition, error) {
	var positions []models.OpenPosition
	if err := r.db.Where("squad_id = ?", squadID).
		Order("created_at DESC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

// ListOpen lists open, non-expired positions with pagination
func (r *GormPositionRepository) ListOpen(filter PositionFilter, now time.Time) ([]models.OpenPosition, int64, error) {
	query := r.db.Model(&models.OpenPosition{}).
		Where("is_open = ? AND expires_at > ?", true, now)

	if filter.SquadID != nil {
		query = query.Where("squad_id = ?", *filter.SquadID)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var positions []models.OpenPosition
	if err := query.Preload("Squad").
		Order("created_at DESC").
		Scopes(database.Paginate(filter.Pagination)).
		Find(&positions).Error; err != nil {
		return nil, 0, err
	}

	return positions, total, nil
}

// CountOpenBySquad counts open, non-expired positions for a squad
func (r *GormPositionRepository) CountOpenBySquad(squadID uint64, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.OpenPosition{}).
		Where("squad_id = ? AND is_open = ? AND expires_at > ?", squadID, true, now).
		Count(&count).Error
	return count, err
}

// Delete rejects all pending applications for the position and deletes the
// position atomically; the rejected applications are returned so the caller
// can notify their applicants after commit.
func (r *GormPositionRepository) Delete(positionID uint64, now time.Time) ([]models.Application, error) {
	var rejected []models.Application
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		rejected, err = rejectPendingApplicationsTx(tx, []uint64{positionID}, now)
		if err != nil {
			return err
		}

		return tx.Delete(&models.OpenPosition{}, positionID).Error
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// CloseAllOpenForSquad closes every open position of a squad and rejects
// their pending applications in one transaction.
func (r *GormPositionRepository) CloseAllOpenForSquad(squadID uint64, now time.Time) ([]models.Application, error) {
	var rejected []models.Application
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var positionIDs []uint64
		if err := tx.Model(&models.OpenPosition{}).
			Where("squad_id = ? AND is_open = ?", squadID, true).
			Pluck("id", &positionIDs).Error; err != nil {
			return err
		}
		if len(positionIDs) == 0 {
			return nil
		}

		if err := tx.Model(&models.OpenPosition{}).
			Where("id IN ?", positionIDs).
			Update("is_open", false).Error; err != nil {
			return err
		}

		var err error
		rejected, err = rejectPendingApplicationsTx(tx, positionIDs, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// ExpireSweep closes expired open positions and flips expired pending
// applications to EXPIRED. It is the only writer of persisted expiry state;
// read paths compute effective status without mutating.
func (r *GormPositionRepository) ExpireSweep(now time.Time) (int64, []models.Application, error) {
	var closedPositions int64
	var expired []models.Application

	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OpenPosition{}).
			Where("is_open = ? AND expires_at <= ?", true, now).
			Update("is_open", false)
		if result.Error != nil {
			return result.Error
		}
		closedPositions = result.RowsAffected

		if err := tx.
			Where("status = ? AND expires_at <= ?", models.ApplicationStatusPending, now).
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(expired))
		for _, app := range expired {
			ids = append(ids, app.ID)
		}

		return tx.Model(&models.Application{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":       models.ApplicationStatusExpired,
				"responded_at": now,
			}).Error
	})
	if err != nil {
		return 0, nil, err
	}

	return closedPositions, expired, nil
}

// rejectPendingApplicationsTx flips every pending application of the given
// positions to REJECTED and returns them.
func rejectPendingApplicationsTx(tx *gorm.DB, positionIDs []uint64, now time.Time) ([]models.Application, error) {
	var pending []models.Application
	if err := tx.
		Where("position_id IN ? AND status = ?", positionIDs, models.ApplicationStatusPending).
		Find(&pending).Error; err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(pending))
	for _, app := range pending {
		ids = append(ids, app.ID)
	}

	if err := tx.Model(&models.Application{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"status":       models.ApplicationStatusRejected,
			"responded_at": now,
		}).Error; err != nil {
		return nil, err
	}

	return pending, nil
}
