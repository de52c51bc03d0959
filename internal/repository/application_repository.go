package repository

import (
	"time"

	"squad-management-api/internal/models"
	"gorm.io/gorm"
)

// GormApplicationRepository is a GORM implementation of ApplicationRepository
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// Create inserts an application. A lapsed pending application by the same
// applicant for the same position is persisted as EXPIRED in the same
// transaction, so the insert never collides with the partial unique index
// that enforces one live application per (position, applicant).
func (r *GormApplicationRepository) Create(application *models.Application, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Application{}).
			Where("position_id = ? AND applicant_id = ? AND status = ? AND expires_at <= ?",
				application.PositionID, application.ApplicantID, models.ApplicationStatusPending, now).
			Updates(map[string]interface{}{
				"status":       models.ApplicationStatusExpired,
				"responded_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Create(application).Error
	})
}

// FindByID finds an application by ID
func (r *GormApplicationRepository) FindByID(id uint64, preload ...string) (*models.Application, error) {
	var application models.Application
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&application, id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

// FindLive finds an APPROVED or still-pending application for an applicant
// on a position. A pending application past its expiry is not live even
// before the sweep persists EXPIRED.
func (r *GormApplicationRepository) FindLive(positionID, applicantID uint64, now time.Time) (*models.Application, error) {
	var application models.Application
	if err := r.db.
		Where("position_id = ? AND applicant_id = ?", positionID, applicantID).
		Where("status = ? OR (status = ? AND expires_at > ?)",
			models.ApplicationStatusApproved, models.ApplicationStatusPending, now).
		First(&application).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

// ListByPosition lists applications for a position
func (r *GormApplicationRepository) ListByPosition(positionID uint64) ([]models.Application, error) {
	var applications []models.Application
	if err := r.db.Preload("Applicant").
		Where("position_id = ?", positionID).
		Order("created_at ASC").
		Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// ListByApplicant lists a user's applications
func (r *GormApplicationRepository) ListByApplicant(applicantID uint64) ([]models.Application, error) {
	var applications []models.Application
	if err := r.db.Preload("Position").Preload("Position.Squad").
		Where("applicant_id = ?", applicantID).
		Order("created_at DESC").
		Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// UpdateStatus records a status transition with its response timestamp
func (r *GormApplicationRepository) UpdateStatus(id uint64, status models.ApplicationStatus, respondedAt time.Time) error {
	return r.db.Model(&models.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
		}).Error
}

// Approve performs the full approval transaction: re-check the application
// is still pending and the position still open, add the member (capacity and
// uniqueness re-checked inside), mark APPROVED, close the position and
// reject every competing pending application. Returns the rejected
// applications for post-commit notification.
func (r *GormApplicationRepository) Approve(applicationID uint64, member *models.SquadMember, now time.Time) ([]models.Application, error) {
	var rejected []models.Application

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var application models.Application
		if err := tx.First(&application, applicationID).Error; err != nil {
			return err
		}
		if application.Status != models.ApplicationStatusPending {
			return ErrApplicationNotPending
		}

		var position models.OpenPosition
		if err := tx.First(&position, application.PositionID).Error; err != nil {
			return err
		}
		if !position.EffectiveOpen(now) {
			return ErrPositionClosed
		}

		if err := addMemberTx(tx, position.SquadID, member); err != nil {
			return err
		}

		if err := tx.Model(&models.Application{}).
			Where("id = ?", applicationID).
			Updates(map[string]interface{}{
				"status":       models.ApplicationStatusApproved,
				"responded_at": now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.OpenPosition{}).
			Where("id = ?", position.ID).
			Update("is_open", false).Error; err != nil {
			return err
		}

		var err error
		rejected, err = rejectPendingApplicationsTx(tx, []uint64{position.ID}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return rejected, nil
}
