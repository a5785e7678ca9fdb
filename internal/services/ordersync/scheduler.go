package ordersync

import (
	"sync"
	"time"
)

type SchedulerConfig struct {
	SyncDelay time.Duration // default: 60 seconds

	Backoff1 time.Duration // default: 5 minutes
	Backoff2 time.Duration // default: 15 minutes
	Backoff3 time.Duration // default: 30 minutes
	Backoff4 time.Duration // default: 60 minutes
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		SyncDelay: 60 * time.Second,
		Backoff1:  5 * time.Minute,
		Backoff2:  15 * time.Minute,
		Backoff3:  30 * time.Minute,
		Backoff4:  60 * time.Minute,
	}
}

type userState struct {
	nextAt    time.Time
	failCount int32
}

// Scheduler решает, когда пользователь снова становится due: успешный
// проход откладывает его на SyncDelay, ошибки — по возрастающей лестнице.
type Scheduler struct {
	cfg SchedulerConfig

	mu    sync.Mutex
	users map[string]*userState
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.SyncDelay <= 0 {
		cfg.SyncDelay = def.SyncDelay
	}
	if cfg.Backoff1 <= 0 {
		cfg.Backoff1 = def.Backoff1
	}
	if cfg.Backoff2 <= 0 {
		cfg.Backoff2 = def.Backoff2
	}
	if cfg.Backoff3 <= 0 {
		cfg.Backoff3 = def.Backoff3
	}
	if cfg.Backoff4 <= 0 {
		cfg.Backoff4 = def.Backoff4
	}
	return &Scheduler{cfg: cfg, users: make(map[string]*userState)}
}

// Due: пользователь без истории всегда due.
func (s *Scheduler) Due(userID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.users[userID]
	if !ok {
		return true
	}
	return !now.Before(st.nextAt)
}

func (s *Scheduler) Success(userID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = &userState{nextAt: now.Add(s.cfg.SyncDelay)}
}

func (s *Scheduler) Failure(userID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.users[userID]
	if !ok {
		st = &userState{}
		s.users[userID] = st
	}
	st.failCount++
	st.nextAt = now.Add(s.BackoffDelay(st.failCount))
}

func (s *Scheduler) BackoffDelay(failCount int32) time.Duration {
	switch {
	case failCount <= 1:
		return s.cfg.Backoff1
	case failCount == 2:
		return s.cfg.Backoff2
	case failCount == 3:
		return s.cfg.Backoff3
	default:
		return s.cfg.Backoff4
	}
}
