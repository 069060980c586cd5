package services

import (
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs recurring per-account jobs on a shared cron runner. Every
// entry is tracked against the account that owns it so a logout can cancel
// the whole set without touching other accounts' jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string][]cron.EntryID
	closed  bool
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		entries: make(map[string][]cron.EntryID),
	}
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Schedule registers a recurring job for the given account. The spec uses the
// six-field cron format with a leading seconds column.
func (s *Scheduler) Schedule(accountID, spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return err
	}
	s.entries[accountID] = append(s.entries[accountID], id)
	s.logger.Debug("job scheduled",
		zap.String("account_id", accountID),
		zap.String("spec", spec),
		zap.Int("entry_id", int(id)))
	return nil
}

// CancelAccount removes every job registered for the account. Jobs already
// mid-run finish; they just never fire again.
func (s *Scheduler) CancelAccount(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.entries[accountID]
	for _, id := range ids {
		s.cron.Remove(id)
	}
	delete(s.entries, accountID)
	if len(ids) > 0 {
		s.logger.Info("account jobs cancelled",
			zap.String("account_id", accountID),
			zap.Int("count", len(ids)))
	}
}

// ActiveJobs reports how many entries are registered for the account.
func (s *Scheduler) ActiveJobs(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries[accountID])
}

// Close stops the runner and waits for in-flight jobs to complete.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.entries = make(map[string][]cron.EntryID)
	s.mu.Unlock()

	<-s.cron.Stop().Done()
}
