package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"squad-management-api/internal/models"
	"squad-management-api/internal/repository"
	"gorm.io/gorm"
)

// EligibilityResult reports each eligibility check independently so callers
// can surface the most specific failure reason.
type EligibilityResult struct {
	IsAlreadyMember             bool `json:"is_already_member"`
	HasExistingApplication      bool `json:"has_existing_application"`
	MeetsScoreRequirement       bool `json:"meets_score_requirement"`
	MeetsMutualVouchRequirement bool `json:"meets_mutual_vouch_requirement"`
	Eligible                    bool `json:"eligible"`
}

// EligibilityService decides whether a candidate may apply to or be approved
// for an open position. It is read-only; it must be re-invoked at approval
// time because score and membership can change between application and
// approval.
type EligibilityService struct {
	squadRepo       repository.SquadRepository
	applicationRepo repository.ApplicationRepository
	reputation      ReputationSource
	vouch           VouchSource
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(
	squadRepo repository.SquadRepository,
	applicationRepo repository.ApplicationRepository,
	reputation ReputationSource,
	vouch VouchSource,
) *EligibilityService {
	return &EligibilityService{
		squadRepo:       squadRepo,
		applicationRepo: applicationRepo,
		reputation:      reputation,
		vouch:           vouch,
	}
}

// Evaluate runs all eligibility checks for a candidate against a position.
// External lookups fail closed: an unreachable reputation source reads as a
// missing score (treated as 0) and an unreachable vouch source as "no
// vouch"; neither surfaces as an error.
func (s *EligibilityService) Evaluate(ctx context.Context, position *models.OpenPosition, candidateID uint64) (*EligibilityResult, error) {
	result := &EligibilityResult{
		MeetsMutualVouchRequirement: true,
	}

	if _, err := s.squadRepo.FindMember(position.SquadID, candidateID); err == nil {
		result.IsAlreadyMember = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	if _, err := s.applicationRepo.FindLive(position.ID, candidateID, time.Now()); err == nil {
		result.HasExistingApplication = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}

	score := 0
	if fetched, err := s.reputation.Score(ctx, candidateID); err == nil && fetched != nil {
		score = *fetched
	}
	result.MeetsScoreRequirement = score >= position.MinScoreTier.MinScore()

	if position.RequiresMutualVouch {
		result.MeetsMutualVouchRequirement = false

		squad, err := s.squadRepo.FindByID(position.SquadID)
		if err != nil {
			return nil, fmt.Errorf("failed to find squad for vouch check: %w", err)
		}
		if vouched, err := s.vouch.MutualVouch(ctx, candidateID, squad.CaptainID); err == nil {
			result.MeetsMutualVouchRequirement = vouched
		}
	}

	result.Eligible = !result.IsAlreadyMember &&
		!result.HasExistingApplication &&
		result.MeetsScoreRequirement &&
		result.MeetsMutualVouchRequirement

	return result, nil
}
