package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"squad-management-api/internal/database"
	"squad-management-api/internal/models"
	"squad-management-api/internal/repository"
)

func TestCreateInvite_Success(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)

	invite, err := env.invites.CreateInvite(squad.ID, captain.ID, CreateInviteInput{
		InviteeID: invitee.ID,
		Role:      models.RoleScout,
		Message:   "join us",
	})
	require.NoError(t, err)
	require.Equal(t, models.InviteStatusPending, invite.Status)
	require.True(t, invite.ExpiresAt.After(time.Now()))

	require.EqualValues(t, 1, env.countNotifications(t, invitee.ID, models.NotificationInviteReceived))
}

func TestCreateInvite_OnlyCaptainCanInvite(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)

	_, err := env.invites.CreateInvite(squad.ID, member.ID, CreateInviteInput{
		InviteeID: invitee.ID,
		Role:      models.RoleScout,
	})
	require.ErrorIs(t, err, ErrNotCaptain)
}

func TestCreateInvite_PendingInviteAlreadyExists(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	_, err := env.invites.CreateInvite(squad.ID, captain.ID, CreateInviteInput{
		InviteeID: invitee.ID,
		Role:      models.RoleScout,
	})
	require.ErrorIs(t, err, ErrPendingInviteExists)
}

func TestCreateInvite_ExpiredPendingInviteDoesNotBlock(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	// Lapsed but never swept; it must not count as pending.
	env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(-time.Hour))

	_, err := env.invites.CreateInvite(squad.ID, captain.ID, CreateInviteInput{
		InviteeID: invitee.ID,
		Role:      models.RoleScout,
	})
	require.NoError(t, err)
}

func TestCreateInvite_LapsedPendingRowExpiredBeforeReinvite(t *testing.T) {
	env := setupServiceTestEnv(t)
	require.NoError(t, database.AddUniquenessBackstops(env.db))

	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	lapsed := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(-time.Hour))

	// With the partial unique index installed, re-inviting only works if the
	// lapsed row's expiry is persisted before the insert.
	_, err := env.invites.CreateInvite(squad.ID, captain.ID, CreateInviteInput{
		InviteeID: invitee.ID,
		Role:      models.RoleScout,
	})
	require.NoError(t, err)

	var reloaded models.SquadInvite
	require.NoError(t, env.db.First(&reloaded, lapsed.ID).Error)
	require.Equal(t, models.InviteStatusExpired, reloaded.Status)
}

func TestAcceptInvite_CleanupFailureDoesNotFailAcceptance(t *testing.T) {
	env := setupServiceTestEnv(t)
	positionRepo := closeFailPositionRepo{repository.NewPositionRepository(env.db)}
	positions := NewPositionService(positionRepo, repository.NewApplicationRepository(env.db),
		repository.NewSquadRepository(env.db), env.eligibility, env.notifier)
	invites := NewInviteService(repository.NewInviteRepository(env.db), repository.NewSquadRepository(env.db),
		repository.NewUserRepository(env.db), positions, env.notifier)

	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Duo", captain.ID, 2)
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	// Accepting fills the last slot and the follow-up close pass fails; the
	// committed acceptance must still be reported as a success.
	accepted, err := invites.AcceptInvite(invite.ID, invitee.ID)
	require.NoError(t, err)
	require.Equal(t, models.InviteStatusAccepted, accepted.Status)

	var member models.SquadMember
	require.NoError(t, env.db.Where("squad_id = ? AND user_id = ?", squad.ID, invitee.ID).First(&member).Error)
}

func TestCreateInvite_InviteeAlreadyMember(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)

	_, err := env.invites.CreateInvite(squad.ID, captain.ID, CreateInviteInput{
		InviteeID: member.ID,
		Role:      models.RoleScout,
	})
	require.ErrorIs(t, err, ErrInviteeAlreadyMember)
}

func TestCreateInvite_FullSquad(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Duo", captain.ID, 2)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)

	_, err := env.invites.CreateInvite(squad.ID, captain.ID, CreateInviteInput{
		InviteeID: invitee.ID,
		Role:      models.RoleScout,
	})
	require.ErrorIs(t, err, ErrSquadFull)
}

func TestAcceptInvite_JoinsAndActivatesSquad(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	accepted, err := env.invites.AcceptInvite(invite.ID, invitee.ID)
	require.NoError(t, err)
	require.Equal(t, models.InviteStatusAccepted, accepted.Status)

	var member models.SquadMember
	require.NoError(t, env.db.Where("squad_id = ? AND user_id = ?", squad.ID, invitee.ID).First(&member).Error)
	require.Equal(t, models.RoleScout, member.Role)

	var reloaded models.Squad
	require.NoError(t, env.db.First(&reloaded, squad.ID).Error)
	require.True(t, reloaded.IsActive, "reaching min size must activate the squad")

	require.EqualValues(t, 1, env.countNotifications(t, captain.ID, models.NotificationInviteAccepted))
}

func TestAcceptInvite_OnlyInvitee(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	other := env.createUser(t, "other")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	_, err := env.invites.AcceptInvite(invite.ID, other.ID)
	require.ErrorIs(t, err, ErrNotInvitee)
}

func TestAcceptInvite_ExpiredIsPersisted(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	// The boundary is inclusive: an invite at exactly its expiry is expired.
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now())

	_, err := env.invites.AcceptInvite(invite.ID, invitee.ID)
	require.ErrorIs(t, err, ErrInviteExpired)

	var reloaded models.SquadInvite
	require.NoError(t, env.db.First(&reloaded, invite.ID).Error)
	require.Equal(t, models.InviteStatusExpired, reloaded.Status)

	var memberCount int64
	env.db.Model(&models.SquadMember{}).Where("squad_id = ? AND user_id = ?", squad.ID, invitee.ID).Count(&memberCount)
	require.Zero(t, memberCount)
}

func TestAcceptInvite_AlreadyResolved(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusDeclined, time.Now().Add(time.Hour))

	_, err := env.invites.AcceptInvite(invite.ID, invitee.ID)
	require.ErrorIs(t, err, ErrInviteAlreadyResolved)
}

func TestAcceptInvite_FullSquadFails(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Duo", captain.ID, 2)
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	// The squad fills between invite creation and acceptance.
	env.addMember(t, squad.ID, member.ID, models.RoleScout)

	_, err := env.invites.AcceptInvite(invite.ID, invitee.ID)
	require.ErrorIs(t, err, ErrSquadFull)
}

func TestAcceptInvite_FillingLastSlotClosesPositions(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	applicant := env.createUser(t, "applicant")
	squad := env.createSquad(t, "Duo", captain.ID, 2)
	position := env.createPosition(t, squad.ID, models.RoleScout, models.TierNone, false)
	env.createApplication(t, position.ID, applicant.ID, models.ApplicationStatusPending, time.Now().Add(time.Hour))
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	_, err := env.invites.AcceptInvite(invite.ID, invitee.ID)
	require.NoError(t, err)

	var reloadedPosition models.OpenPosition
	require.NoError(t, env.db.First(&reloadedPosition, position.ID).Error)
	require.False(t, reloadedPosition.IsOpen, "no free slots left, the position must close")

	var reloadedApplication models.Application
	require.NoError(t, env.db.Where("position_id = ? AND applicant_id = ?", position.ID, applicant.ID).First(&reloadedApplication).Error)
	require.Equal(t, models.ApplicationStatusRejected, reloadedApplication.Status)

	require.EqualValues(t, 1, env.countNotifications(t, applicant.ID, models.NotificationPositionClosed))
}

func TestDeclineInvite(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	require.NoError(t, env.invites.DeclineInvite(invite.ID, invitee.ID))

	var reloaded models.SquadInvite
	require.NoError(t, env.db.First(&reloaded, invite.ID).Error)
	require.Equal(t, models.InviteStatusDeclined, reloaded.Status)
	require.NotNil(t, reloaded.RespondedAt)

	require.EqualValues(t, 1, env.countNotifications(t, captain.ID, models.NotificationInviteDeclined))

	// A declined invite stays declined.
	require.ErrorIs(t, env.invites.DeclineInvite(invite.ID, invitee.ID), ErrInviteAlreadyResolved)
}

func TestCancelInvite_InviterOrCurrentCaptain(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	successor := env.createUser(t, "successor")
	invitee := env.createUser(t, "invitee")
	other := env.createUser(t, "other")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, successor.ID, models.RoleScout)
	invite := env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	require.ErrorIs(t, env.invites.CancelInvite(invite.ID, other.ID), ErrNotInviterOrCaptain)

	// After a captaincy transfer the new captain can cancel the old
	// captain's invite.
	require.NoError(t, env.squads.TransferCaptaincy(squad.ID, captain.ID, successor.ID))
	require.NoError(t, env.invites.CancelInvite(invite.ID, successor.ID))

	var reloaded models.SquadInvite
	require.NoError(t, env.db.First(&reloaded, invite.ID).Error)
	require.Equal(t, models.InviteStatusCancelled, reloaded.Status)
}

func TestListInvitesForSquad_CaptainOnly(t *testing.T) {
	env := setupServiceTestEnv(t)
	captain := env.createUser(t, "captain")
	member := env.createUser(t, "member")
	invitee := env.createUser(t, "invitee")
	squad := env.createSquad(t, "Alpha", captain.ID, 5)
	env.addMember(t, squad.ID, member.ID, models.RoleScout)
	env.createInvite(t, squad.ID, captain.ID, invitee.ID, models.InviteStatusPending, time.Now().Add(time.Hour))

	_, err := env.invites.ListInvitesForSquad(squad.ID, member.ID)
	require.ErrorIs(t, err, ErrNotCaptain)

	invites, err := env.invites.ListInvitesForSquad(squad.ID, captain.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
}
