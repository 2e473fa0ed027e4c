package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/repository"
)

const expireTimeout = 5 * time.Second

// ExpiryScheduler proactively clears one-time codes once their ttl elapses,
// so a leaked code stops being guessable even if no request ever touches it
// again. It is redundant with the read-path expiry check; correctness does
// not depend on a timer firing promptly.
type ExpiryScheduler struct {
	codes  repository.OneTimeCodeRepository
	clock  Clock
	logger *zerolog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewExpiryScheduler creates an ExpiryScheduler. Stop must be called on
// shutdown to release any armed timers.
func NewExpiryScheduler(
	codes repository.OneTimeCodeRepository,
	clock Clock,
	logger *zerolog.Logger,
) *ExpiryScheduler {
	return &ExpiryScheduler{
		codes:  codes,
		clock:  clock,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms the expiry timer for an account's live code, stopping any
// previously armed timer for the same account first.
func (s *ExpiryScheduler) Schedule(userID string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[userID]; ok {
		timer.Stop()
	}

	s.timers[userID] = time.AfterFunc(ttl, func() {
		s.expire(userID)
	})
}

// Cancel disarms the timer for an account, if one is armed.
func (s *ExpiryScheduler) Cancel(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[userID]; ok {
		timer.Stop()
		delete(s.timers, userID)
	}
}

// Stop disarms every timer. Codes already persisted keep expiring on the
// read path.
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, userID)
	}
}

func (s *ExpiryScheduler) expire(userID string) {
	s.mu.Lock()
	delete(s.timers, userID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	// Guarded delete: only a code whose ttl has actually elapsed is removed,
	// so a newer code issued after this timer was armed survives the firing.
	deleted, err := s.codes.DeleteExpired(ctx, userID, s.clock.Now())
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to clear expired one-time code")
		return
	}

	if deleted {
		s.logger.Debug().Str("user_id", userID).Msg("expired one-time code cleared")
	}
}
