package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ReputationSource supplies a user's external reputation score. A nil score
// means the source has no score for the user; callers treat it as 0.
type ReputationSource interface {
	Score(ctx context.Context, userID uint64) (*int, error)
}

// VouchSource reports whether a mutual trust relationship exists between two
// users. Callers treat a failed lookup as "no vouch".
type VouchSource interface {
	MutualVouch(ctx context.Context, userA, userB uint64) (bool, error)
}

const externalCallTimeout = 5 * time.Second

// HTTPReputationSource fetches scores from the reputation API.
type HTTPReputationSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPReputationSource(baseURL string) *HTTPReputationSource {
	return &HTTPReputationSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: externalCallTimeout},
	}
}

func (s *HTTPReputationSource) Score(ctx context.Context, userID uint64) (*int, error) {
	url := fmt.Sprintf("%s/users/%d/score", s.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reputation request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reputation API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reputation API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Score *int `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse reputation response: %w", err)
	}

	return payload.Score, nil
}

// HTTPVouchSource checks mutual vouches via the vouch API.
type HTTPVouchSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVouchSource(baseURL string) *HTTPVouchSource {
	return &HTTPVouchSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: externalCallTimeout},
	}
}

func (s *HTTPVouchSource) MutualVouch(ctx context.Context, userA, userB uint64) (bool, error) {
	url := fmt.Sprintf("%s/vouches?user_a=%d&user_b=%d", s.baseURL, userA, userB)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build vouch request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("vouch API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("vouch API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Mutual bool `json:"mutual"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("failed to parse vouch response: %w", err)
	}

	return payload.Mutual, nil
}

// StaticReputationSource serves scores from a fixed map. Used in tests and
// in deployments without a configured reputation API.
type StaticReputationSource struct {
	Scores map[uint64]int
}

func (s *StaticReputationSource) Score(_ context.Context, userID uint64) (*int, error) {
	if s == nil || s.Scores == nil {
		return nil, nil
	}
	if score, ok := s.Scores[userID]; ok {
		return &score, nil
	}
	return nil, nil
}

// StaticVouchSource serves vouches from a fixed pair set, keyed both ways.
type StaticVouchSource struct {
	Pairs map[[2]uint64]bool
}

func (s *StaticVouchSource) MutualVouch(_ context.Context, userA, userB uint64) (bool, error) {
	if s == nil || s.Pairs == nil {
		return false, nil
	}
	if s.Pairs[[2]uint64{userA, userB}] || s.Pairs[[2]uint64{userB, userA}] {
		return true, nil
	}
	return false, nil
}
