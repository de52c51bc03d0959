package services

import (
	"context"
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
	ErrPositionNotFound       = apperrors.NotFound("position not found")
	ErrApplicationNotFound    = apperrors.NotFound("application not found")
	ErrPositionClosed         = apperrors.InvalidState("position is no longer open")
	ErrPositionExpired        = apperrors.Expired("position has expired")
	ErrNoFreeSlots            = apperrors.Capacity("no free slots available for another open position")
	ErrNotApplicant           = apperrors.Authorization("only the applicant can perform this action")
	ErrApplicationNotPending  = apperrors.InvalidState("application is not pending")
	ErrApplicationExpired     = apperrors.Expired("application has expired")
	ErrApplicantAlreadyMember = apperrors.Eligibility("you are already a member of this squad")
	ErrDuplicateApplication   = apperrors.Eligibility("an application for this position already exists")
	ErrScoreBelowTier         = apperrors.Eligibility("reputation score is below the position's minimum tier")
	ErrMutualVouchRequired    = apperrors.Eligibility("this position requires a mutual vouch with the captain")
	ErrEligibilityRegressed   = apperrors.Eligibility("applicant no longer meets the position requirements")
)

// PositionService owns the open position and application workflow. Member
// addition on approval goes through the same transactional path as every
// other membership write.
type PositionService struct {
	positionRepo    repository.PositionRepository
	applicationRepo repository.ApplicationRepository
	squadRepo       repository.SquadRepository
	eligibility     *EligibilityService
	notifier        *NotificationService
}

// NewPositionService creates a new PositionService.
func NewPositionService(
	positionRepo repository.PositionRepository,
	applicationRepo repository.ApplicationRepository,
	squadRepo repository.SquadRepository,
	eligibility *EligibilityService,
	notifier *NotificationService,
) *PositionService {
	return &PositionService{
		positionRepo:    positionRepo,
		applicationRepo: applicationRepo,
		squadRepo:       squadRepo,
		eligibility:     eligibility,
		notifier:        notifier,
	}
}

// CreatePositionInput represents parameters to publish an open position.
type CreatePositionInput struct {
	Role                models.SquadRole
	Description         string
	MinScoreTier        models.ScoreTier
	RequiresMutualVouch bool
	Benefits            []string
}

// CreatePosition publishes an open position. Captain-only. The number of
// open, non-expired positions may never exceed the squad's free slots;
// pending invites do not reserve slots.
func (s *PositionService) CreatePosition(squadID, captainID uint64, input CreatePositionInput) (*models.OpenPosition, error) {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return nil, err
	}
	if squad.CaptainID != captainID {
		return nil, ErrNotCaptain
	}

	if !models.ValidSquadRole(input.Role) {
		return nil, ErrInvalidSquadRole
	}

	tier := input.MinScoreTier
	if tier == "" {
		tier = models.TierNone
	}
	if !models.ValidScoreTier(tier) {
		return nil, apperrors.Validation("invalid minimum score tier")
	}

	now := time.Now()
	position := &models.OpenPosition{
		SquadID:             squadID,
		Role:                input.Role,
		Description:         input.Description,
		MinScoreTier:        tier,
		RequiresMutualVouch: input.RequiresMutualVouch,
		Benefits:            input.Benefits,
		ExpiresAt:           now.Add(constants.PositionExpiry),
		IsOpen:              true,
	}

	if err := s.positionRepo.Create(position, now); err != nil {
		if errors.Is(err, repository.ErrNoFreeSlots) {
			return nil, ErrNoFreeSlots
		}
		return nil, fmt.Errorf("failed to create position: %w", err)
	}

	return position, nil
}

// DeletePosition removes a position, rejecting its pending applications in
// the same transaction. Captain-only. Applicants are notified after commit;
// a notification failure never rolls back the deletion.
func (s *PositionService) DeletePosition(positionID, captainID uint64) error {
	position, err := s.findPosition(positionID)
	if err != nil {
		return err
	}

	squad, err := s.findSquad(position.SquadID)
	if err != nil {
		return err
	}
	if squad.CaptainID != captainID {
		return ErrNotCaptain
	}

	rejected, err := s.positionRepo.Delete(positionID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}

	s.notifyPositionClosed(squad, position, rejected)

	return nil
}

// ApplyToPosition submits an application after running the eligibility
// evaluator. Failures return the most specific blocking reason.
func (s *PositionService) ApplyToPosition(ctx context.Context, positionID, applicantID uint64, message string) (*models.Application, error) {
	position, err := s.findPosition(positionID)
	if err != nil {
		return nil, err
	}

	result, err := s.eligibility.Evaluate(ctx, position, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate eligibility: %w", err)
	}
	if err := eligibilityFailure(result); err != nil {
		return nil, err
	}

	now := time.Now()
	if !position.IsOpen {
		return nil, ErrPositionClosed
	}
	if !position.EffectiveOpen(now) {
		return nil, ErrPositionExpired
	}

	application := &models.Application{
		PositionID:  positionID,
		ApplicantID: applicantID,
		Message:     message,
		Status:      models.ApplicationStatusPending,
		ExpiresAt:   now.Add(constants.ApplicationExpiry),
	}

	if err := s.applicationRepo.Create(application, now); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	if squad, err := s.findSquad(position.SquadID); err == nil {
		s.notifier.Notify(NotificationInput{
			UserID:        squad.CaptainID,
			Type:          models.NotificationApplicationReceived,
			Title:         "New application",
			Message:       fmt.Sprintf("A new application was submitted for the %s position in squad %q.", position.Role, squad.Name),
			SquadID:       &squad.ID,
			PositionID:    &position.ID,
			ApplicationID: &application.ID,
		})
	}

	return application, nil
}

// ApproveApplication approves a pending application. Captain-only.
// Eligibility is re-evaluated because score or membership may have changed
// since the application was submitted; approval fails closed on regression.
// The approval transaction adds the member, closes the position and rejects
// every competing pending application; notifications go out after commit.
func (s *PositionService) ApproveApplication(ctx context.Context, applicationID, captainID uint64) (*models.Application, error) {
	application, err := s.findApplication(applicationID)
	if err != nil {
		return nil, err
	}

	position, err := s.findPosition(application.PositionID)
	if err != nil {
		return nil, err
	}

	squad, err := s.findSquad(position.SquadID)
	if err != nil {
		return nil, err
	}
	if squad.CaptainID != captainID {
		return nil, ErrNotCaptain
	}

	now := time.Now()
	if err := s.checkApplicationPending(application, now); err != nil {
		return nil, err
	}

	if !position.EffectiveOpen(now) {
		return nil, ErrPositionClosed
	}

	result, err := s.eligibility.Evaluate(ctx, position, application.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-evaluate eligibility: %w", err)
	}
	// The applicant's own pending application is expected here; every other
	// regression blocks the approval.
	if result.IsAlreadyMember || !result.MeetsScoreRequirement || !result.MeetsMutualVouchRequirement {
		return nil, ErrEligibilityRegressed
	}

	member := &models.SquadMember{
		UserID:   application.ApplicantID,
		Role:     position.Role,
		JoinedAt: now,
	}

	rejected, err := s.applicationRepo.Approve(applicationID, member, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationNotPending):
			return nil, ErrApplicationNotPending
		case errors.Is(err, repository.ErrPositionClosed):
			return nil, ErrPositionClosed
		case errors.Is(err, repository.ErrSquadFull):
			return nil, ErrSquadFull
		case errors.Is(err, repository.ErrDuplicateMember):
			return nil, ErrApplicantAlreadyMember
		default:
			return nil, fmt.Errorf("failed to approve application: %w", err)
		}
	}

	s.notifier.Notify(NotificationInput{
		UserID:        application.ApplicantID,
		Type:          models.NotificationApplicationApproved,
		Title:         "Application approved",
		Message:       fmt.Sprintf("You joined squad %q as %s.", squad.Name, position.Role),
		SquadID:       &squad.ID,
		PositionID:    &position.ID,
		ApplicationID: &application.ID,
	})
	for _, app := range rejected {
		appID := app.ID
		s.notifier.Notify(NotificationInput{
			UserID:        app.ApplicantID,
			Type:          models.NotificationApplicationRejected,
			Title:         "Application rejected",
			Message:       fmt.Sprintf("The %s position in squad %q has been filled.", position.Role, squad.Name),
			SquadID:       &squad.ID,
			PositionID:    &position.ID,
			ApplicationID: &appID,
		})
	}

	// Filling a slot can leave more open positions than remaining capacity.
	// The approval is already committed; a cleanup failure must not be
	// reported as a failed approval.
	if err := s.CloseExcessPositions(squad.ID); err != nil {
		log.Printf("failed to close excess positions for squad %d: %v", squad.ID, err)
	}

	return s.applicationRepo.FindByID(applicationID, "Position", "Applicant")
}

// RejectApplication rejects a pending application. Captain-only.
func (s *PositionService) RejectApplication(applicationID, captainID uint64) error {
	application, err := s.findApplication(applicationID)
	if err != nil {
		return err
	}

	position, err := s.findPosition(application.PositionID)
	if err != nil {
		return err
	}

	squad, err := s.findSquad(position.SquadID)
	if err != nil {
		return err
	}
	if squad.CaptainID != captainID {
		return ErrNotCaptain
	}

	now := time.Now()
	if err := s.checkApplicationPending(application, now); err != nil {
		return err
	}

	if err := s.applicationRepo.UpdateStatus(applicationID, models.ApplicationStatusRejected, now); err != nil {
		return fmt.Errorf("failed to reject application: %w", err)
	}

	s.notifier.Notify(NotificationInput{
		UserID:        application.ApplicantID,
		Type:          models.NotificationApplicationRejected,
		Title:         "Application rejected",
		Message:       fmt.Sprintf("Your application for the %s position in squad %q was rejected.", position.Role, squad.Name),
		SquadID:       &squad.ID,
		PositionID:    &position.ID,
		ApplicationID: &application.ID,
	})

	return nil
}

// WithdrawApplication withdraws a pending application. Applicant-only.
func (s *PositionService) WithdrawApplication(applicationID, applicantID uint64) error {
	application, err := s.findApplication(applicationID)
	if err != nil {
		return err
	}
	if application.ApplicantID != applicantID {
		return ErrNotApplicant
	}

	now := time.Now()
	if err := s.checkApplicationPending(application, now); err != nil {
		return err
	}

	if err := s.applicationRepo.UpdateStatus(applicationID, models.ApplicationStatusWithdrawn, now); err != nil {
		return fmt.Errorf("failed to withdraw application: %w", err)
	}

	return nil
}

// CloseExcessPositions closes all open positions for a squad once its free
// slots drop to zero (for example after an invite was accepted while
// positions were open) and rejects their pending applications.
func (s *PositionService) CloseExcessPositions(squadID uint64) error {
	squad, err := s.findSquad(squadID)
	if err != nil {
		return err
	}

	memberCount, err := s.squadRepo.CountMembers(squadID)
	if err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}

	if int64(squad.MaxSize)-memberCount > 0 {
		return nil
	}

	rejected, err := s.positionRepo.CloseAllOpenForSquad(squadID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to close positions: %w", err)
	}

	s.notifyPositionClosed(squad, nil, rejected)

	return nil
}

// ProcessExpirations runs the batch expiry sweep: expired open positions are
// closed and expired pending applications flip to EXPIRED, notifying their
// applicants. Intended to be invoked periodically by an external scheduler.
func (s *PositionService) ProcessExpirations() (int64, int, error) {
	closedPositions, expired, err := s.positionRepo.ExpireSweep(time.Now())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to process expirations: %w", err)
	}

	for _, app := range expired {
		appID := app.ID
		positionID := app.PositionID
		s.notifier.Notify(NotificationInput{
			UserID:        app.ApplicantID,
			Type:          models.NotificationApplicationExpired,
			Title:         "Application expired",
			Message:       "Your application expired before the captain responded.",
			PositionID:    &positionID,
			ApplicationID: &appID,
		})
	}

	return closedPositions, len(expired), nil
}

// ListOpenPositions lists open, non-expired positions across squads.
func (s *PositionService) ListOpenPositions(filter repository.PositionFilter) ([]models.OpenPosition, int64, error) {
	positions, total, err := s.positionRepo.ListOpen(filter, time.Now())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list positions: %w", err)
	}
	return positions, total, nil
}

// ListSquadPositions lists all positions of a squad.
func (s *PositionService) ListSquadPositions(squadID uint64) ([]models.OpenPosition, error) {
	if _, err := s.findSquad(squadID); err != nil {
		return nil, err
	}

	positions, err := s.positionRepo.ListBySquad(squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squad positions: %w", err)
	}
	return positions, nil
}

// ListApplicationsForPosition lists applications for a position. Captain-only.
func (s *PositionService) ListApplicationsForPosition(positionID, captainID uint64) ([]models.Application, error) {
	position, err := s.findPosition(positionID)
	if err != nil {
		return nil, err
	}

	squad, err := s.findSquad(position.SquadID)
	if err != nil {
		return nil, err
	}
	if squad.CaptainID != captainID {
		return nil, ErrNotCaptain
	}

	applications, err := s.applicationRepo.ListByPosition(positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// ListApplicationsForUser lists a user's own applications.
func (s *PositionService) ListApplicationsForUser(userID uint64) ([]models.Application, error) {
	applications, err := s.applicationRepo.ListByApplicant(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

func (s *PositionService) notifyPositionClosed(squad *models.Squad, position *models.OpenPosition, rejected []models.Application) {
	for _, app := range rejected {
		appID := app.ID
		positionID := app.PositionID
		input := NotificationInput{
			UserID:        app.ApplicantID,
			Type:          models.NotificationPositionClosed,
			Title:         "Position closed",
			Message:       fmt.Sprintf("A position you applied to in squad %q has been closed.", squad.Name),
			SquadID:       &squad.ID,
			PositionID:    &positionID,
			ApplicationID: &appID,
		}
		if position != nil {
			input.Message = fmt.Sprintf("The %s position in squad %q has been closed.", position.Role, squad.Name)
		}
		s.notifier.Notify(input)
	}
}

// eligibilityFailure maps an evaluator result to the most specific blocking
// reason, or nil when eligible.
func eligibilityFailure(result *EligibilityResult) error {
	switch {
	case result.Eligible:
		return nil
	case result.IsAlreadyMember:
		return ErrApplicantAlreadyMember
	case result.HasExistingApplication:
		return ErrDuplicateApplication
	case !result.MeetsScoreRequirement:
		return ErrScoreBelowTier
	case !result.MeetsMutualVouchRequirement:
		return ErrMutualVouchRequired
	default:
		return ErrEligibilityRegressed
	}
}

// checkApplicationPending verifies the application can still be responded
// to, lazily persisting EXPIRED when the window has lapsed. Responding is a
// mutating action, so recording the observed expiry here keeps the stored
// status in step with what the caller was told.
func (s *PositionService) checkApplicationPending(application *models.Application, now time.Time) error {
	switch application.EffectiveStatus(now) {
	case models.ApplicationStatusPending:
		return nil
	case models.ApplicationStatusExpired:
		if application.Status == models.ApplicationStatusPending {
			if err := s.applicationRepo.UpdateStatus(application.ID, models.ApplicationStatusExpired, now); err != nil {
				return fmt.Errorf("failed to mark application expired: %w", err)
			}
		}
		return ErrApplicationExpired
	default:
		return ErrApplicationNotPending
	}
}

func (s *PositionService) findSquad(squadID uint64) (*models.Squad, error) {
	squad, err := s.squadRepo.FindByID(squadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSquadNotFound
		}
		return nil, fmt.Errorf("failed to find squad: %w", err)
	}
	return squad, nil
}

func (s *PositionService) findPosition(positionID uint64) (*models.OpenPosition, error) {
	position, err := s.positionRepo.FindByID(positionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to find position: %w", err)
	}
	return position, nil
}

func (s *PositionService) findApplication(applicationID uint64) (*models.Application, error) {
	application, err := s.applicationRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return application, nil
}
