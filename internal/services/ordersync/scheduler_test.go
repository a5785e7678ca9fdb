package ordersync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_backoffLadder(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})

	require.Equal(t, 5*time.Minute, s.BackoffDelay(1))
	require.Equal(t, 15*time.Minute, s.BackoffDelay(2))
	require.Equal(t, 30*time.Minute, s.BackoffDelay(3))
	require.Equal(t, 60*time.Minute, s.BackoffDelay(4))
	require.Equal(t, 60*time.Minute, s.BackoffDelay(9))
}

func TestScheduler_dueTransitions(t *testing.T) {
	s := NewScheduler(SchedulerConfig{SyncDelay: time.Minute})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Пользователь без истории всегда due.
	require.True(t, s.Due("u1", now))

	s.Success("u1", now)
	require.False(t, s.Due("u1", now))
	require.False(t, s.Due("u1", now.Add(59*time.Second)))
	require.True(t, s.Due("u1", now.Add(time.Minute)))
}

func TestScheduler_failuresEscalate(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Failure("u1", now)
	require.False(t, s.Due("u1", now.Add(4*time.Minute)))
	require.True(t, s.Due("u1", now.Add(5*time.Minute)))

	s.Failure("u1", now)
	require.False(t, s.Due("u1", now.Add(14*time.Minute)))
	require.True(t, s.Due("u1", now.Add(15*time.Minute)))

	// Успех сбрасывает лестницу.
	s.Success("u1", now)
	s.Failure("u1", now)
	require.True(t, s.Due("u1", now.Add(5*time.Minute)))
}
