package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrRateLimited is returned when the sync API rate limit is exceeded.
var ErrRateLimited = errors.New("rate limit exceeded")

// SyncCooldown is the minimum time between two manual sync triggers.
const SyncCooldown = 30 * time.Second

// SyncResult contains the result of a mirror sync operation.
type SyncResult struct {
	Uploaded        int       `json:"uploaded"`
	Skipped         int       `json:"skipped"`
	Failed          int       `json:"failed"`
	SyncedAt        time.Time `json:"synced_at"`
	NextScheduledAt time.Time `json:"next_scheduled_at,omitempty"`
}

// SyncService runs periodic mirror syncs and rate-limits manual triggers.
type SyncService struct {
	mirror   *MirrorService
	interval time.Duration
	cooldown time.Duration
	logger   *slog.Logger

	// Lifecycle management
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Rate limiting for API triggers
	lastAPISync time.Time
	apiMutex    sync.Mutex

	// Track next scheduled sync for reporting
	nextSync time.Time
	syncMu   sync.RWMutex
}

// NewSyncService creates a new sync service. An interval of zero disables
// the periodic schedule; manual triggers still work.
func NewSyncService(mirror *MirrorService, interval time.Duration, logger *slog.Logger) *SyncService {
	return &SyncService{
		mirror:   mirror,
		interval: interval,
		cooldown: SyncCooldown,
		logger:   logger,
		stopCh:   make(chan struct{}),
		// Allow an immediate first API call
		lastAPISync: time.Now().Add(-SyncCooldown - time.Second),
	}
}

// Start begins the periodic sync scheduler.
func (s *SyncService) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("periodic mirror sync disabled")
		return
	}

	s.logger.Info("starting sync service", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// run is the main sync loop.
func (s *SyncService) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.setNextSync(time.Now().Add(s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync service stopped: context canceled")
			return
		case <-s.stopCh:
			s.logger.Info("sync service stopped")
			return
		case <-ticker.C:
			s.logger.Debug("scheduled sync triggered")
			if _, err := s.mirror.Sync(ctx); err != nil {
				s.logger.Error("sync failed", "error", err)
			}
			s.setNextSync(time.Now().Add(s.interval))
		}
	}
}

// Stop gracefully stops the sync service.
func (s *SyncService) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping sync service")
		close(s.stopCh)
	})
	s.wg.Wait()
}

// TriggerSync runs a sync now. Returns ErrRateLimited if the previous manual
// trigger was less than the cooldown ago.
func (s *SyncService) TriggerSync(ctx context.Context) (SyncResult, error) {
	s.apiMutex.Lock()
	if time.Since(s.lastAPISync) < s.cooldown {
		s.apiMutex.Unlock()
		return SyncResult{}, ErrRateLimited
	}
	s.lastAPISync = time.Now()
	s.apiMutex.Unlock()

	stats, err := s.mirror.Sync(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	return SyncResult{
		Uploaded:        stats.Uploaded,
		Skipped:         stats.Skipped,
		Failed:          stats.Failed,
		SyncedAt:        time.Now(),
		NextScheduledAt: s.getNextSync(),
	}, nil
}

// setNextSync updates the next scheduled sync time.
func (s *SyncService) setNextSync(t time.Time) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	s.nextSync = t
}

// getNextSync returns the next scheduled sync time.
func (s *SyncService) getNextSync() time.Time {
	s.syncMu.RLock()
	defer s.syncMu.RUnlock()
	return s.nextSync
}

// Interval returns the sync interval.
func (s *SyncService) Interval() time.Duration {
	return s.interval
}
