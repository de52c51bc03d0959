package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"squad-management-api/internal/constants"
	apperrors "squad-management-api/internal/errors"
	"squad-management-api/internal/models"
	"squad-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInviteNotFound        = apperrors.NotFound("invite not found")
	ErrInviteeNotFound       = apperrors.NotFound("invitee not found")
	ErrNotInvitee            = apperrors.Authorization("only the invitee can respond to this invite")
	ErrNotInviterOrCaptain   = apperrors.Authorization("only the inviter or the current captain can cancel this invite")
	ErrInviteAlreadyResolved = apperrors.InvalidState("invite has already been responded to")
	ErrInviteExpired         = apperrors.Expired("invite has expired")
	ErrPendingInviteExists   = apperrors.InvalidState("a pending invite for this user already exists")
	ErrInviteeAlreadyMember  = apperrors.InvalidState("user is already a member of this squad")
)

// InviteService owns the squad invite workflow. Invites bypass position
// eligibility screening; only squad capacity applies.
type InviteService struct {
	inviteRepo      repository.InviteRepository
	squadRepo       repository.SquadRepository
	userRepo        repository.UserRepository
	positionService *PositionService
	notifier        *NotificationService
}

// NewInviteService creates a new InviteService.
func NewInviteService(
	inviteRepo repository.InviteRepository,
	squadRepo repository.SquadRepository,
	userRepo repository.UserRepository,
	positionService *PositionService,
	notifier *NotificationService,
) *InviteService {
	return &InviteService{
		inviteRepo:      inviteRepo,
		squadRepo:       squadRepo,
		userRepo:        userRepo,
		positionService: positionService,
		notifier:        notifier,
	}
}

// CreateInviteInput represents parameters to invite a user into a squad.
type CreateInviteInput struct {
	InviteeID uint64
	Role      models.SquadRole
	Message   string
}

// CreateInvite sends an invite. Captain-only; fails when the squad is full,
// the invitee is already a member, or a pending non-expired invite already
// exists for them.
func (s *InviteService) CreateInvite(squadID, inviterID uint64, input CreateInviteInput) (*models.SquadInvite, error) {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return nil, err
	}
	if squad.CaptainID != inviterID {
		return nil, ErrNotCaptain
	}

	if !models.ValidSquadRole(input.Role) {
		return nil, ErrInvalidSquadRole
	}

	if _, err := s.userRepo.FindByID(input.InviteeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteeNotFound
		}
		return nil, fmt.Errorf("failed to find invitee: %w", err)
	}

	memberCount, err := s.squadRepo.CountMembers(squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if memberCount >= int64(squad.MaxSize) {
		return nil, ErrSquadFull
	}

	if _, err := s.squadRepo.FindMember(squadID, input.InviteeID); err == nil {
		return nil, ErrInviteeAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	now := time.Now()
	if _, err := s.inviteRepo.FindPending(squadID, input.InviteeID, now); err == nil {
		return nil, ErrPendingInviteExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check pending invites: %w", err)
	}

	invite := &models.SquadInvite{
		SquadID:   squadID,
		InviterID: inviterID,
		InviteeID: input.InviteeID,
		Role:      input.Role,
		Status:    models.InviteStatusPending,
		Message:   input.Message,
		ExpiresAt: now.Add(constants.InviteExpiry),
	}

	if err := s.inviteRepo.Create(invite, now); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	s.notifier.Notify(NotificationInput{
		UserID:  input.InviteeID,
		Type:    models.NotificationInviteReceived,
		Title:   "Squad invite",
		Message: fmt.Sprintf("You were invited to join squad %q as %s.", squad.Name, input.Role),
		SquadID: &squad.ID,
	})

	return invite, nil
}

// AcceptInvite accepts a pending invite: in one transaction the invite is
// marked ACCEPTED, the invitee joins with the proposed role and the squad's
// active flag is recomputed. An invite read past its expiry is lazily marked
// EXPIRED here, since responding is a mutating action.
func (s *InviteService) AcceptInvite(inviteID, inviteeID uint64) (*models.SquadInvite, error) {
	invite, err := s.findInvite(inviteID)
	if err != nil {
		return nil, err
	}
	if invite.InviteeID != inviteeID {
		return nil, ErrNotInvitee
	}

	now := time.Now()
	if err := s.checkPending(invite, now); err != nil {
		return nil, err
	}

	member := &models.SquadMember{
		UserID:   inviteeID,
		Role:     invite.Role,
		JoinedAt: now,
	}

	if err := s.inviteRepo.Accept(inviteID, member, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrInviteNotPending):
			return nil, ErrInviteAlreadyResolved
		case errors.Is(err, repository.ErrInviteExpired):
			return nil, ErrInviteExpired
		case errors.Is(err, repository.ErrSquadFull):
			return nil, ErrSquadFull
		case errors.Is(err, repository.ErrDuplicateMember):
			return nil, ErrInviteeAlreadyMember
		default:
			return nil, fmt.Errorf("failed to accept invite: %w", err)
		}
	}

	if squad, err := s.findSquad(invite.SquadID); err == nil {
		s.notifier.Notify(NotificationInput{
			UserID:  invite.InviterID,
			Type:    models.NotificationInviteAccepted,
			Title:   "Invite accepted",
			Message: fmt.Sprintf("Your invite to squad %q was accepted.", squad.Name),
			SquadID: &squad.ID,
		})
	}

	// Joining may have filled the last slot while positions were open. The
	// acceptance is already committed; a cleanup failure must not be reported
	// as a failed acceptance.
	if err := s.positionService.CloseExcessPositions(invite.SquadID); err != nil {
		log.Printf("failed to close excess positions for squad %d: %v", invite.SquadID, err)
	}

	return s.inviteRepo.FindByID(inviteID, "Squad", "Invitee")
}

// DeclineInvite declines a pending invite. Invitee-only, status-only.
func (s *InviteService) DeclineInvite(inviteID, inviteeID uint64) error {
	invite, err := s.findInvite(inviteID)
	if err != nil {
		return err
	}
	if invite.InviteeID != inviteeID {
		return ErrNotInvitee
	}

	now := time.Now()
	if err := s.checkPending(invite, now); err != nil {
		return err
	}

	if err := s.inviteRepo.UpdateStatus(inviteID, models.InviteStatusDeclined, now); err != nil {
		return fmt.Errorf("failed to decline invite: %w", err)
	}

	s.notifier.Notify(NotificationInput{
		UserID:  invite.InviterID,
		Type:    models.NotificationInviteDeclined,
		Title:   "Invite declined",
		Message: "Your squad invite was declined.",
		SquadID: &invite.SquadID,
	})

	return nil
}

// CancelInvite cancels a pending invite. Permitted for the original inviter
// or the current captain, since captaincy may have changed since the invite
// was sent.
func (s *InviteService) CancelInvite(inviteID, callerID uint64) error {
	invite, err := s.findInvite(inviteID)
	if err != nil {
		return err
	}

	squad, err := s.findSquad(invite.SquadID)
	if err != nil {
		return err
	}
	if callerID != invite.InviterID && callerID != squad.CaptainID {
		return ErrNotInviterOrCaptain
	}

	now := time.Now()
	if err := s.checkPending(invite, now); err != nil {
		return err
	}

	if err := s.inviteRepo.UpdateStatus(inviteID, models.InviteStatusCancelled, now); err != nil {
		return fmt.Errorf("failed to cancel invite: %w", err)
	}

	return nil
}

// ListInvitesForUser lists invites addressed to the user.
func (s *InviteService) ListInvitesForUser(userID uint64) ([]models.SquadInvite, error) {
	invites, err := s.inviteRepo.ListByInvitee(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// ListInvitesForSquad lists a squad's invites. Captain-only.
func (s *InviteService) ListInvitesForSquad(squadID, callerID uint64) ([]models.SquadInvite, error) {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return nil, err
	}
	if squad.CaptainID != callerID {
		return nil, ErrNotCaptain
	}

	invites, err := s.inviteRepo.ListBySquad(squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// checkPending verifies the invite can still be responded to, lazily
// persisting EXPIRED when the window has lapsed.
func (s *InviteService) checkPending(invite *models.SquadInvite, now time.Time) error {
	switch invite.EffectiveStatus(now) {
	case models.InviteStatusPending:
		return nil
	case models.InviteStatusExpired:
		if invite.Status == models.InviteStatusPending {
			if err := s.inviteRepo.UpdateStatus(invite.ID, models.InviteStatusExpired, now); err != nil {
				return fmt.Errorf("failed to mark invite expired: %w", err)
			}
		}
		return ErrInviteExpired
	default:
		return ErrInviteAlreadyResolved
	}
}

func (s *InviteService) findInvite(inviteID uint64) (*models.SquadInvite, error) {
	invite, err := s.inviteRepo.FindByID(inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	return invite, nil
}

func (s *InviteService) findSquad(squadID uint64) (*models.Squad, error) {
	squad, err := s.squadRepo.FindByID(squadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to find squad: %w", err)
	}
	return squad, nil
}
