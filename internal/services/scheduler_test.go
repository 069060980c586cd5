package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerTracksEntriesPerAccount(t *testing.T) {
	s := NewScheduler(nil)
	defer s.Close()

	require.NoError(t, s.Schedule("alice", "@every 1h", func() {}))
	require.NoError(t, s.Schedule("alice", "@every 1h", func() {}))
	require.NoError(t, s.Schedule("bob", "@every 1h", func() {}))

	assert.Equal(t, 2, s.ActiveJobs("alice"))
	assert.Equal(t, 1, s.ActiveJobs("bob"))
}

func TestCancelAccountRemovesOnlyOwnJobs(t *testing.T) {
	s := NewScheduler(nil)
	defer s.Close()

	require.NoError(t, s.Schedule("alice", "@every 1h", func() {}))
	require.NoError(t, s.Schedule("bob", "@every 1h", func() {}))

	s.CancelAccount("alice")

	assert.Equal(t, 0, s.ActiveJobs("alice"))
	assert.Equal(t, 1, s.ActiveJobs("bob"))
}

func TestCancelAccountStopsFiring(t *testing.T) {
	s := NewScheduler(nil)
	s.Start()
	defer s.Close()

	var fired atomic.Int32
	require.NoError(t, s.Schedule("alice", "@every 1s", func() { fired.Add(1) }))

	s.CancelAccount("alice")
	count := fired.Load()
	time.Sleep(1500 * time.Millisecond)

	assert.Equal(t, count, fired.Load())
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	s := NewScheduler(nil)
	defer s.Close()

	err := s.Schedule("alice", "not a cron spec", func() {})
	require.Error(t, err)
	assert.Equal(t, 0, s.ActiveJobs("alice"))
}

func TestScheduleAfterCloseIsNoop(t *testing.T) {
	s := NewScheduler(nil)
	s.Close()

	require.NoError(t, s.Schedule("alice", "@every 1h", func() {}))
	assert.Equal(t, 0, s.ActiveJobs("alice"))
}
