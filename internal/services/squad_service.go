package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"squad-management-api/internal/constants"
	apperrors "squad-management-api/internal/errors"
	"squad-management-api/internal/models"
	"squad-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrSquadNotFound        = apperrors.NotFound("squad not found")
	ErrSquadNameRequired    = apperrors.Validation("squad name cannot be empty")
	ErrInvalidSquadRole     = apperrors.Validation("invalid squad role")
	ErrNotCaptain           = apperrors.Authorization("only the squad captain can perform this action")
	ErrNotCreatorOrCaptain  = apperrors.Authorization("only the squad creator or captain can dismantle the squad")
	ErrSquadFull            = apperrors.Capacity("squad is at maximum capacity")
	ErrAlreadySquadMember   = apperrors.InvalidState("user is already a member of this squad")
	ErrSquadMemberNotFound  = apperrors.NotFound("squad member not found")
	ErrCannotRemoveCaptain  = apperrors.InvalidState("the captain cannot be removed; transfer captaincy first")
	ErrCaptainCannotLeave   = apperrors.InvalidState("the captain cannot leave the squad; transfer captaincy first")
	ErrNewCaptainNotMember  = apperrors.InvalidState("the new captain must be a current squad member")
	ErrMaxSizeBelowMembers  = apperrors.Validation("max size cannot be lower than the current member count")
	ErrMaxSizeBelowOpenings = apperrors.InvalidState("max size cannot be lowered while open positions exceed the remaining free slots")
	ErrSquadQuotaReached    = apperrors.Capacity("squad creation quota reached")
)

// SquadService owns the squad and membership lifecycle. It is the only
// writer of Squad and SquadMember state; the invite and application
// workflows delegate member addition here (through the shared transactional
// repository path).
type SquadService struct {
	squadRepo    repository.SquadRepository
	positionRepo repository.PositionRepository
	reputation   ReputationSource
	notifier     *NotificationService
}

// NewSquadService creates a new SquadService.
func NewSquadService(
	squadRepo repository.SquadRepository,
	positionRepo repository.PositionRepository,
	reputation ReputationSource,
	notifier *NotificationService,
) *SquadService {
	return &SquadService{
		squadRepo:    squadRepo,
		positionRepo: positionRepo,
		reputation:   reputation,
		notifier:     notifier,
	}
}

// CreateSquadInput represents parameters to create a new squad.
type CreateSquadInput struct {
	Name        string
	Description string
	AvatarRef   string
	MaxSize     int
	IsFixedSize bool
	CaptainRole models.SquadRole
}

// SquadQuota reports how many squads a user may create.
type SquadQuota struct {
	CanCreate    bool  `json:"can_create"`
	CurrentCount int64 `json:"current_count"`
	MaxAllowed   int   `json:"max_allowed"`
}

// CreateSquad creates a squad with the creator as captain and sole member.
// The squad starts inactive; it activates once membership reaches the
// minimum size.
func (s *SquadService) CreateSquad(ctx context.Context, creatorID uint64, input CreateSquadInput) (*models.Squad, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrSquadNameRequired
	}
	if !models.ValidSquadRole(input.CaptainRole) {
		return nil, ErrInvalidSquadRole
	}

	quota, err := s.CanUserCreateSquad(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !quota.CanCreate {
		return nil, ErrSquadQuotaReached
	}

	maxSize := input.MaxSize
	if maxSize == 0 {
		maxSize = constants.SquadMaxSize
	}
	maxSize = clampSquadSize(maxSize)

	squad := &models.Squad{
		Name:        input.Name,
		Description: input.Description,
		AvatarRef:   input.AvatarRef,
		MinSize:     constants.SquadMinSize,
		MaxSize:     maxSize,
		IsFixedSize: input.IsFixedSize,
		IsActive:    false,
		CreatorID:   creatorID,
		CaptainID:   creatorID,
	}

	captain := &models.SquadMember{
		UserID:   creatorID,
		Role:     input.CaptainRole,
		JoinedAt: time.Now(),
	}

	if err := s.squadRepo.CreateWithCaptain(squad, captain); err != nil {
		return nil, fmt.Errorf("failed to create squad: %w", err)
	}

	return squad, nil
}

// UpdateSquadInput represents a partial update to a squad.
type UpdateSquadInput struct {
	Name        *string
	Description *string
	AvatarRef   *string
	MaxSize     *int
	IsFixedSize *bool
}

// UpdateSquad applies a captain-only patch. Lowering max size fails when it
// would drop below the current member count or leave more open, non-expired
// positions than free slots.
func (s *SquadService) UpdateSquad(squadID, callerID uint64, input UpdateSquadInput) (*models.Squad, error) {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return nil, err
	}
	if squad.CaptainID != callerID {
		return nil, ErrNotCaptain
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrSquadNameRequired
		}
		squad.Name = *input.Name
	}
	if input.Description != nil {
		squad.Description = *input.Description
	}
	if input.AvatarRef != nil {
		squad.AvatarRef = *input.AvatarRef
	}
	if input.IsFixedSize != nil {
		squad.IsFixedSize = *input.IsFixedSize
	}
	if input.MaxSize != nil {
		newMax := clampSquadSize(*input.MaxSize)

		memberCount, err := s.squadRepo.CountMembers(squadID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		if int64(newMax) < memberCount {
			return nil, ErrMaxSizeBelowMembers
		}

		openCount, err := s.positionRepo.CountOpenBySquad(squadID, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to count open positions: %w", err)
		}
		if int64(newMax)-memberCount < openCount {
			return nil, ErrMaxSizeBelowOpenings
		}
		squad.MaxSize = newMax
	}

	if err := s.squadRepo.Update(squad); err != nil {
		return nil, fmt.Errorf("failed to update squad: %w", err)
	}

	return squad, nil
}

// ChangeMemberRole changes a member's role. Captain-only.
func (s *SquadService) ChangeMemberRole(squadID, captainID, memberUserID uint64, newRole models.SquadRole) error {
	if !models.ValidSquadRole(newRole) {
		return ErrInvalidSquadRole
	}

	squad, err := s.findSquad(squadID)
	if err != nil {
		return err
	}
	if squad.CaptainID != captainID {
		return ErrNotCaptain
	}

	if _, err := s.squadRepo.FindMember(squadID, memberUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSquadMemberNotFound
		}
		return fmt.Errorf("failed to find squad member: %w", err)
	}

	if err := s.squadRepo.UpdateMemberRole(squadID, memberUserID, newRole); err != nil {
		return fmt.Errorf("failed to change member role: %w", err)
	}

	return nil
}

// RemoveMember removes a member. Captain-only; the captain cannot remove
// themselves and must transfer captaincy first.
func (s *SquadService) RemoveMember(squadID, captainID, targetUserID uint64) error {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return err
	}
	if squad.CaptainID != captainID {
		return ErrNotCaptain
	}
	if targetUserID == squad.CaptainID {
		return ErrCannotRemoveCaptain
	}

	if _, err := s.squadRepo.FindMember(squadID, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSquadMemberNotFound
		}
		return fmt.Errorf("failed to find squad member: %w", err)
	}

	if err := s.squadRepo.RemoveMember(squadID, targetUserID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.notifier.Notify(NotificationInput{
		UserID:  targetUserID,
		Type:    models.NotificationMemberRemoved,
		Title:   "Removed from squad",
		Message: fmt.Sprintf("You were removed from squad %q.", squad.Name),
		SquadID: &squad.ID,
	})

	return nil
}

// LeaveSquad is the self-service removal. The captain cannot leave.
func (s *SquadService) LeaveSquad(squadID, userID uint64) error {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return err
	}
	if squad.CaptainID == userID {
		return ErrCaptainCannotLeave
	}

	if _, err := s.squadRepo.FindMember(squadID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSquadMemberNotFound
		}
		return fmt.Errorf("failed to find squad member: %w", err)
	}

	if err := s.squadRepo.RemoveMember(squadID, userID); err != nil {
		return fmt.Errorf("failed to leave squad: %w", err)
	}

	return nil
}

// TransferCaptaincy reassigns the captain. The new captain must already be a
// member; membership rows are untouched.
func (s *SquadService) TransferCaptaincy(squadID, currentCaptainID, newCaptainID uint64) error {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return err
	}
	if squad.CaptainID != currentCaptainID {
		return ErrNotCaptain
	}

	if _, err := s.squadRepo.FindMember(squadID, newCaptainID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNewCaptainNotMember
		}
		return fmt.Errorf("failed to find squad member: %w", err)
	}

	if err := s.squadRepo.UpdateCaptain(squadID, newCaptainID); err != nil {
		return fmt.Errorf("failed to transfer captaincy: %w", err)
	}

	s.notifier.Notify(NotificationInput{
		UserID:  newCaptainID,
		Type:    models.NotificationCaptaincyTransferred,
		Title:   "You are now captain",
		Message: fmt.Sprintf("You are now the captain of squad %q.", squad.Name),
		SquadID: &squad.ID,
	})

	return nil
}

// DismantleSquad deletes the squad and cascades members, invites, positions
// and applications. Allowed for the creator or the current captain.
func (s *SquadService) DismantleSquad(squadID, callerID uint64) error {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return err
	}
	if callerID != squad.CreatorID && callerID != squad.CaptainID {
		return ErrNotCreatorOrCaptain
	}

	members, err := s.squadRepo.ListMembers(squadID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}

	if err := s.squadRepo.Delete(squadID); err != nil {
		return fmt.Errorf("failed to dismantle squad: %w", err)
	}

	for _, member := range members {
		if member.UserID == callerID {
			continue
		}
		s.notifier.Notify(NotificationInput{
			UserID:  member.UserID,
			Type:    models.NotificationSquadDismantled,
			Title:   "Squad dismantled",
			Message: fmt.Sprintf("Squad %q has been dismantled.", squad.Name),
		})
	}

	return nil
}

// AddMember inserts a member with capacity and duplicate checks. Used by the
// invite and application workflows and exposed for them only.
func (s *SquadService) AddMember(squadID, userID uint64, role models.SquadRole) error {
	member := &models.SquadMember{
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}

	if err := s.squadRepo.AddMember(squadID, member); err != nil {
		switch {
		case errors.Is(err, repository.ErrSquadFull):
			return ErrSquadFull
		case errors.Is(err, repository.ErrDuplicateMember):
			return ErrAlreadySquadMember
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrSquadNotFound
		default:
			return fmt.Errorf("failed to add member: %w", err)
		}
	}

	return nil
}

// CanUserCreateSquad reports the user's squad creation quota. The allowance
// is a step function of the external reputation score; a missing score maps
// to the base quota.
func (s *SquadService) CanUserCreateSquad(ctx context.Context, userID uint64) (*SquadQuota, error) {
	currentCount, err := s.squadRepo.CountCreatedBy(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count created squads: %w", err)
	}

	score := 0
	if fetched, err := s.reputation.Score(ctx, userID); err == nil && fetched != nil {
		score = *fetched
	}

	maxAllowed := quotaForScore(score)

	return &SquadQuota{
		CanCreate:    currentCount < int64(maxAllowed),
		CurrentCount: currentCount,
		MaxAllowed:   maxAllowed,
	}, nil
}

// GetSquadWithMembers returns a squad and all of its members.
func (s *SquadService) GetSquadWithMembers(squadID uint64) (*models.Squad, []models.SquadMember, error) {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.squadRepo.ListMembers(squadID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list squad members: %w", err)
	}

	return squad, members, nil
}

// ListSquadsForUser returns the memberships of a user with squads preloaded.
func (s *SquadService) ListSquadsForUser(userID uint64) ([]models.SquadMember, error) {
	memberships, err := s.squadRepo.ListMembershipsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squads: %w", err)
	}
	return memberships, nil
}

func (s *SquadService) findSquad(squadID uint64) (*models.Squad, error) {
	squad, err := s.squadRepo.FindByID(squadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to find squad: %w", err)
	}
	return squad, nil
}

func clampSquadSize(size int) int {
	if size < constants.SquadMinSize {
		return constants.SquadMinSize
	}
	if size > constants.SquadMaxSize {
		return constants.SquadMaxSize
	}
	return size
}

func quotaForScore(score int) int {
	switch {
	case score >= constants.QuotaScoreTier4:
		return constants.QuotaTier4
	case score >= constants.QuotaScoreTier3:
		return constants.QuotaTier3
	case score >= constants.QuotaScoreTier2:
		return constants.QuotaTier2
	default:
		return constants.QuotaBase
	}
}
