package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"squad-management-api/internal/constants"
	"squad-management-api/internal/models"
)

func TestCreateSquad_CreatorBecomesCaptainAndSoleMember(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := env.createUser(t, "creator")

	squad, err := env.squads.CreateSquad(context.Background(), creator.ID, CreateSquadInput{
		Name:        "Alpha",
		MaxSize:     5,
		CaptainRole: models.RoleTrader,
	})
	require.NoError(t, err)
	require.Equal(t, creator.ID, squad.CaptainID)
	require.Equal(t, creator.ID, squad.CreatorID)
	require.Equal(t, constants.SquadMinSize, squad.MinSize)
	require.Equal(t, 5, squad.MaxSize)
	require.False(t, squad.IsActive, "a one-member squad must start inactive")

	var member models.SquadMember
	err = env.db.Where("squad_id = ? AND user_id = ?", squad.ID, creator.ID).First(&member).Error
	require.NoError(t, err)
	require.Equal(t, models.RoleTrader, member.Role)
}

func TestCreateSquad_ClampsMaxSize(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := env.createUser(t, "creator")

	squad, err := env.squads.CreateSquad(context.Background(), creator.ID, CreateSquadInput{
		Name:        "Oversized",
		MaxSize:     20,
		CaptainRole: models.RoleFlex,
	})
	require.NoError(t, err)
	require.Equal(t, constants.SquadMaxSize, squad.MaxSize)
}

func TestCreateSquad_EmptyNameFails(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := env.createUser(t, "creator")

	_, err := env.squads.CreateSquad(context.Background(), creator.ID, CreateSquadInput{
		Name:        "   ",
		CaptainRole: models.RoleFlex,
	})
	require.ErrorIs(t, err, ErrSquadNameRequired)
}

func TestCreateSquad_QuotaSteppedByScore(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := env.createUser(t, "creator")

	// Base quota is one squad.
	_, err := env.squads.CreateSquad(context.Background(), creator.ID, CreateSquadInput{
		Name:        "First",
		CaptainRole: models.RoleFlex,
	})
	require.NoError(t, err)

	_, err = env.squads.CreateSquad(context.Background(), creator.ID, CreateSquadInput{
		Name:        "Second",
		CaptainRole: models.RoleFlex,
	})
	require.ErrorIs(t, err, ErrSquadQuotaReached)

	// A score at the next threshold raises the allowance to two.
	env.reputation.Scores[creator.ID] = constants.QuotaScoreTier2

	quota, err := env.squads.CanUserCreateSquad(context.Background(), creator.ID)
	require.NoError(t, err)
	require.True(t, quota.CanCreate)
	require.Equal(t, constants.QuotaTier2, quota.MaxAllowed)
	require.EqualValues(t, 1, quota.CurrentCount)

	_, err = env.squads.CreateSquad(context.Background(), creator.ID, CreateSquadInput{
		Name:        "Second",
		CaptainRole: models.RoleFlex,
	})
	require.NoError(t, err)
}

func TestUpdateSquad_MaxSizeBelowMemberCountFails(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	a := env.createUser(t, "member-a")
	b := env.createUser(t, "member-b")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, a.ID, models.RoleScout)
	env.addMember(t, squad.ID, b.ID, models.RoleSupport)

	two := 2
	_, err := env.squads.UpdateSquad(squad.ID, captain.ID, UpdateSquadInput{MaxSize: &two})
	require.ErrorIs(t, err, ErrMaxSizeBelowMembers)

	three := 3
	updated, err := env.squads.UpdateSquad(squad.ID, captain.ID, UpdateSquadInput{MaxSize: &three})
	require.NoError(t, err)
	require.Equal(t, 3, updated.MaxSize)
}

func TestUpdateSquad_MaxSizeBelowOpenPositionsFails(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	squad := env.createSquad(t, "Alpha", captain.ID, 4)
	env.createPosition(t, squad.ID, models.RoleScout, models.TierNone, false)
	env.createPosition(t, squad.ID, models.RoleAnalyst, models.TierNone, false)

	// One member, two open positions: two slots would leave more openings
	// than free slots.
	two := 2
	_, err := env.squads.UpdateSquad(squad.ID, captain.ID, UpdateSquadInput{MaxSize: &two})
	require.ErrorIs(t, err, ErrMaxSizeBelowOpenings)

	three := 3
	updated, err := env.squads.UpdateSquad(squad.ID, captain.ID, UpdateSquadInput{MaxSize: &three})
	require.NoError(t, err)
	require.Equal(t, 3, updated.MaxSize)
}

func TestUpdateSquad_NotCaptainFails(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	outsider := env.createUser(t, "outsider")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)

	name := "Renamed"
	_, err := env.squads.UpdateSquad(squad.ID, outsider.ID, UpdateSquadInput{Name: &name})
	require.ErrorIs(t, err, ErrNotCaptain)
}

func TestRemoveMember_CaptainCannotRemoveSelf(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)

	err := env.squads.RemoveMember(squad.ID, captain.ID, captain.ID)
	require.ErrorIs(t, err, ErrCannotRemoveCaptain)
}

func TestRemoveMember_NotifiesAndRecomputesActive(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)
	require.NoError(t, env.db.Model(&models.Squad{}).Where("id = ?", squad.ID).Update("is_active", true).Error)

	require.NoError(t, env.squads.RemoveMember(squad.ID, captain.ID, member.ID))

	var reloaded models.Squad
	require.NoError(t, env.db.First(&reloaded, squad.ID).Error)
	require.False(t, reloaded.IsActive, "dropping below min size must deactivate the squad")

	require.EqualValues(t, 1, env.countNotifications(t, member.ID, models.NotificationMemberRemoved))
}

func TestLeaveSquad_CaptainCannotLeave(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)

	err := env.squads.LeaveSquad(squad.ID, captain.ID)
	require.ErrorIs(t, err, ErrCaptainCannotLeave)
}

func TestTransferCaptaincy(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	outsider := env.createUser(t, "outsider")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)

	err := env.squads.TransferCaptaincy(squad.ID, captain.ID, outsider.ID)
	require.ErrorIs(t, err, ErrNewCaptainNotMember)

	require.NoError(t, env.squads.TransferCaptaincy(squad.ID, captain.ID, member.ID))

	var reloaded models.Squad
	require.NoError(t, env.db.First(&reloaded, squad.ID).Error)
	require.Equal(t, member.ID, reloaded.CaptainID)

	require.EqualValues(t, 1, env.countNotifications(t, member.ID, models.NotificationCaptaincyTransferred))
}

func TestDismantleSquad_CascadesAndNotifiesMembers(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)
	env.createPosition(t, squad.ID, models.RoleAnalyst, models.TierNone, false)

	require.NoError(t, env.squads.DismantleSquad(squad.ID, captain.ID))

	var squadCount, memberCount, positionCount int64
	env.db.Model(&models.Squad{}).Where("id = ?", squad.ID).Count(&squadCount)
	env.db.Model(&models.SquadMember{}).Where("squad_id = ?", squad.ID).Count(&memberCount)
	env.db.Model(&models.OpenPosition{}).Where("squad_id = ?", squad.ID).Count(&positionCount)
	require.Zero(t, squadCount)
	require.Zero(t, memberCount)
	require.Zero(t, positionCount)

	require.EqualValues(t, 1, env.countNotifications(t, member.ID, models.NotificationSquadDismantled))
	require.Zero(t, env.countNotifications(t, captain.ID, models.NotificationSquadDismantled))
}

func TestDismantleSquad_MemberCannotDismantle(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)

	err := env.squads.DismantleSquad(squad.ID, member.ID)
	require.ErrorIs(t, err, ErrNotCreatorOrCaptain)
}

func TestChangeMemberRole(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)

	err := env.squads.ChangeMemberRole(squad.ID, captain.ID, member.ID, "WIZARD")
	require.ErrorIs(t, err, ErrInvalidSquadRole)

	require.NoError(t, env.squads.ChangeMemberRole(squad.ID, captain.ID, member.ID, models.RoleAnalyst))

	var reloaded models.SquadMember
	require.NoError(t, env.db.Where("squad_id = ? AND user_id = ?", squad.ID, member.ID).First(&reloaded).Error)
	require.Equal(t, models.RoleAnalyst, reloaded.Role)
}
