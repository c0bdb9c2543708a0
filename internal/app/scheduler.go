package app

import (
	"context"
	"sync"
	"time"

	"github.com/foliolabs/folio/internal/common"
	"github.com/foliolabs/folio/internal/interfaces"
)

// scheduler drives the background refresh work: a 60-second price sync for
// users with an active portfolio view, and a one-time staleness sweep per
// user session.
type scheduler struct {
	portfolio interfaces.PortfolioService
	logger    *common.Logger

	mu       sync.Mutex
	active   map[string]time.Time
	swept    map[string]bool
	sweeping map[string]bool
}

func newScheduler(portfolio interfaces.PortfolioService, logger *common.Logger) *scheduler {
	return &scheduler{
		portfolio: portfolio,
		logger:    logger,
		active:    make(map[string]time.Time),
		swept:     make(map[string]bool),
		sweeping:  make(map[string]bool),
	}
}

func (s *scheduler) markActive(userID string) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	s.active[userID] = time.Now()
	s.mu.Unlock()
}

// ensureSweep runs the staleness sweep once per user session, in the
// background so portfolio views are never blocked behind oracle calls.
func (s *scheduler) ensureSweep(userID string) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	if s.swept[userID] || s.sweeping[userID] {
		s.mu.Unlock()
		return
	}
	s.sweeping[userID] = true
	s.mu.Unlock()

	go func() {
		ctx := common.WithSession(context.Background(), &common.Session{UserID: userID})
		refreshed, err := s.portfolio.RefreshStaleMetrics(ctx)

		s.mu.Lock()
		delete(s.sweeping, userID)
		if err == nil {
			s.swept[userID] = true
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Staleness sweep failed")
			return
		}
		if refreshed > 0 {
			s.logger.Info().Str("user_id", userID).Int("refreshed", refreshed).Msg("Staleness sweep complete")
		}
	}()
}

// run ticks on the price sync interval and refreshes prices for every user
// seen within the last two intervals. Users drop out of the loop when their
// portfolio view goes idle.
func (s *scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(common.PriceSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, userID := range s.activeUsers(2 * common.PriceSyncInterval) {
				sessionCtx := common.WithSession(ctx, &common.Session{UserID: userID})
				if _, err := s.portfolio.SyncPrices(sessionCtx); err != nil {
					s.logger.Warn().Err(err).Str("user_id", userID).Msg("Price sync failed")
				}
			}
		}
	}
}

func (s *scheduler) activeUsers(window time.Duration) []string {
	cutoff := time.Now().Add(-window)
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]string, 0, len(s.active))
	for userID, seen := range s.active {
		if seen.Before(cutoff) {
			delete(s.active, userID)
			continue
		}
		users = append(users, userID)
	}
	return users
}
