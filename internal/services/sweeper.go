package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atdgo/backend/usecase/integrity"
)

// Sweeper schedules a recurring ownership repair for each logged-in account
// and tears it down again on logout. It satisfies the session layer's job
// canceler so a logout drains the account's schedule in one call.
type Sweeper struct {
	scheduler *Scheduler
	auditor   *integrity.UseCase
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

func NewSweeper(scheduler *Scheduler, auditor *integrity.UseCase, interval, timeout time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		scheduler: scheduler,
		auditor:   auditor,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// OnLogin runs one repair immediately and registers the recurring repair for
// the account. Detected violations are purged, not just reported; the repair
// itself skips the write when the bundle is clean.
func (s *Sweeper) OnLogin(accountID string) {
	go s.repair(accountID)

	spec := "@every " + s.interval.String()
	err := s.scheduler.Schedule(accountID, spec, func() {
		s.repair(accountID)
	})
	if err != nil {
		s.logger.Error("failed to schedule integrity sweep",
			zap.String("account_id", accountID),
			zap.Error(err))
	}
}

func (s *Sweeper) repair(accountID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, purged, err := s.auditor.Repair(ctx, accountID); err != nil {
		s.logger.Warn("integrity repair failed",
			zap.String("account_id", accountID),
			zap.Error(err))
	} else if purged > 0 {
		s.logger.Info("integrity repair purged tasks",
			zap.String("account_id", accountID),
			zap.Int("purged", purged))
	}
}

// CancelAccount drops every scheduled job owned by the account.
func (s *Sweeper) CancelAccount(accountID string) {
	s.scheduler.CancelAccount(accountID)
}
