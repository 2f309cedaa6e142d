package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/glbter/stock-ratings/entities"
)

const DefaultRecommendationLimit = 5

type RecommendationsFetcher interface {
	FetchRecommendations(ctx context.Context, limit int) ([]entities.Recommendation, error)
}

type RecommendationState struct {
	Recommendations []entities.Recommendation `json:"recommendations"`
	Loading         bool                      `json:"loading"`
	Error           *string                   `json:"error"`
}

type RecommendationStore struct {
	fetcher  RecommendationsFetcher
	logger   *zap.Logger
	notifier Notifier

	mu    sync.Mutex
	state RecommendationState
	gen   uint64
}

func NewRecommendationStore(fetcher RecommendationsFetcher, logger *zap.Logger, notifier Notifier) *RecommendationStore {
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &RecommendationStore{
		fetcher:  fetcher,
		logger:   logger.With(zap.String("caller", "RecommendationStore")),
		notifier: notifier,
		state: RecommendationState{
			Recommendations: []entities.Recommendation{},
		},
	}
}

func (s *RecommendationStore) Snapshot() RecommendationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Fetch replaces the list with the top limit recommendations, 5 when limit is
// not positive. On failure the list is cleared and Error is set.
func (s *RecommendationStore) Fetch(ctx context.Context, limit int) error {
	logger := s.logger.With(zap.String("method", "Fetch"))

	if limit < 1 {
		limit = DefaultRecommendationLimit
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state.Loading = true
	s.state.Error = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)

	recs, err := s.fetcher.FetchRecommendations(ctx, limit)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		logger.Debug("drop superseded response", zap.Uint64("generation", gen))
		return ErrSuperseded
	}

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "failed to fetch recommendations"
		}
		s.state.Error = &msg
		s.state.Recommendations = []entities.Recommendation{}
	} else {
		s.state.Recommendations = recs
	}
	s.state.Loading = false
	snap = s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		logger.Error(fmt.Errorf("fetch recommendations: %w", err).Error())
	}

	s.notify(ctx, snap)

	return err
}

func (s *RecommendationStore) notify(ctx context.Context, snap RecommendationState) {
	if err := s.notifier.Notify(ctx, RecommendationStoreName, snap); err != nil {
		s.logger.Warn(fmt.Errorf("notify state change: %w", err).Error())
	}
}

func (s *RecommendationStore) snapshotLocked() RecommendationState {
	snap := s.state
	snap.Recommendations = append([]entities.Recommendation{}, s.state.Recommendations...)
	if s.state.Error != nil {
		msg := *s.state.Error
		snap.Error = &msg
	}

	return snap
}
