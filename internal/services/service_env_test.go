package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"squad-management-api/internal/constants"
	"squad-management-api/internal/database"
	"squad-management-api/internal/models"
	"squad-management-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db          *gorm.DB
	reputation  *StaticReputationSource
	vouch       *StaticVouchSource
	squads      *SquadService
	positions   *PositionService
	invites     *InviteService
	eligibility *EligibilityService
	notifier    *NotificationService
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Squad{},
		&models.SquadMember{},
		&models.SquadInvite{},
		&models.OpenPosition{},
		&models.Application{},
		&models.Notification{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	squadRepo := repository.NewSquadRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	reputation := &StaticReputationSource{Scores: map[uint64]int{}}
	vouch := &StaticVouchSource{Pairs: map[[2]uint64]bool{}}

	notifier := NewNotificationService(notificationRepo)
	eligibility := NewEligibilityService(squadRepo, applicationRepo, reputation, vouch)
	squads := NewSquadService(squadRepo, positionRepo, reputation, notifier)
	positions := NewPositionService(positionRepo, applicationRepo, squadRepo, eligibility, notifier)
	invites := NewInviteService(inviteRepo, squadRepo, userRepo, positions, notifier)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return &serviceTestEnv{
		db:          db,
		reputation:  reputation,
		vouch:       vouch,
		squads:      squads,
		positions:   positions,
		invites:     invites,
		eligibility: eligibility,
		notifier:    notifier,
	}
}

func (env *serviceTestEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "hashed",
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

// createSquad creates a squad with the captain as its only member.
func (env *serviceTestEnv) createSquad(t *testing.T, name string, captainID uint64, maxSize int) *models.Squad {
	t.Helper()

	squad := &models.Squad{
		Name:      name,
		MinSize:   constants.SquadMinSize,
		MaxSize:   maxSize,
		CreatorID: captainID,
		CaptainID: captainID,
	}
	require.NoError(t, env.db.Create(squad).Error)

	member := &models.SquadMember{
		SquadID:  squad.ID,
		UserID:   captainID,
		Role:     models.RoleFlex,
		JoinedAt: time.Now(),
	}
	require.NoError(t, env.db.Create(member).Error)

	return squad
}

func (env *serviceTestEnv) addMember(t *testing.T, squadID, userID uint64, role models.SquadRole) {
	t.Helper()

	member := &models.SquadMember{
		SquadID:  squadID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	require.NoError(t, env.db.Create(member).Error)
}

func (env *serviceTestEnv) createPosition(t *testing.T, squadID uint64, role models.SquadRole, tier models.ScoreTier, requiresVouch bool) *models.OpenPosition {
	t.Helper()

	position := &models.OpenPosition{
		SquadID:             squadID,
		Role:                role,
		MinScoreTier:        tier,
		RequiresMutualVouch: requiresVouch,
		ExpiresAt:           time.Now().Add(constants.PositionExpiry),
		IsOpen:              true,
	}
	require.NoError(t, env.db.Create(position).Error)
	return position
}

func (env *serviceTestEnv) createApplication(t *testing.T, positionID, applicantID uint64, status models.ApplicationStatus, expiresAt time.Time) *models.Application {
	t.Helper()

	application := &models.Application{
		PositionID:  positionID,
		ApplicantID: applicantID,
		Status:      status,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, env.db.Create(application).Error)
	return application
}

func (env *serviceTestEnv) createInvite(t *testing.T, squadID, inviterID, inviteeID uint64, status models.InviteStatus, expiresAt time.Time) *models.SquadInvite {
	t.Helper()

	invite := &models.SquadInvite{
		SquadID:   squadID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Role:      models.RoleScout,
		Status:    status,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, env.db.Create(invite).Error)
	return invite
}

func (env *serviceTestEnv) countNotifications(t *testing.T, userID uint64, kind models.NotificationType) int64 {
	t.Helper()

	var count int64
	err := env.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, kind).
		Count(&count).Error
	require.NoError(t, err)
	return count
}
