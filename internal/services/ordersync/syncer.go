// Package ordersync — фоновая синхронизация заказов. Платформа не даёт
// push-канала наружу, поэтому worker опрашивает orders API по каждому
// зарегистрированному пользователю, сравнивает fingerprints строк заказов
// с последним увиденным состоянием и публикует изменившиеся в Kafka.
package ordersync

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/broker/messages"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

type Gateway interface {
	ListOrderItemsByUser(ctx context.Context, userID string) ([]models.OrderLineItem, error)
}

// State — множество отслеживаемых пользователей и их fingerprints в Redis.
type State interface {
	Users(ctx context.Context) ([]string, error)
	LastSeen(ctx context.Context, userID string) (map[string]string, error)
	SetLastSeen(ctx context.Context, userID string, fingerprints map[string]string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Syncer struct {
	gw       Gateway
	state    State
	producer Producer
	rl       RateLimiter

	topic     string
	scheduler *Scheduler

	syncInterval       time.Duration
	concurrency        int
	rateLimitPerMinute int64

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalSynced         atomic.Int64
	totalPublished      atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(gw Gateway, state State, producer Producer, rl RateLimiter, topic string) *Syncer {
	return &Syncer{
		gw: gw, state: state, producer: producer, rl: rl, topic: topic,
		scheduler:          NewScheduler(DefaultSchedulerConfig()),
		syncInterval:       5 * time.Second,
		concurrency:        5,
		rateLimitPerMinute: 60,
		triggerCh:          make(chan struct{}, 1),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (s *Syncer) WithSettings(syncInterval time.Duration, concurrency int, rlPerMin int64) *Syncer {
	if syncInterval > 0 {
		s.syncInterval = syncInterval
	}
	if concurrency > 0 {
		s.concurrency = concurrency
	}
	if rlPerMin > 0 {
		s.rateLimitPerMinute = rlPerMin
	}
	return s
}

func (s *Syncer) WithScheduler(cfg SchedulerConfig) *Syncer {
	s.scheduler = NewScheduler(cfg)
	return s
}

// Trigger forces an immediate sync cycle (best-effort, non-blocking).
func (s *Syncer) Trigger() {
	s.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalSynced    int64      `json:"totalSynced"`
	TotalPublished int64      `json:"totalPublished"`
	TotalErrors    int64      `json:"totalErrors"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (s *Syncer) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalSynced:    s.totalSynced.Load(),
		TotalPublished: s.totalPublished.Load(),
		TotalErrors:    s.totalErrors.Load(),
		InFlight:       s.inFlight.Load(),
	}
	if n := s.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := s.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

func (s *Syncer) Run(ctx context.Context) error {
	t := time.NewTicker(s.syncInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.runOnce(ctx)
		case <-s.triggerCh:
			s.runOnce(ctx)
		}
	}
}

func (s *Syncer) setLastError(err error) {
	s.totalErrors.Add(1)
	s.lastErrorMu.Lock()
	s.lastError = err.Error()
	s.lastErrorMu.Unlock()
}

func (s *Syncer) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	s.lastCycleUnixNano.Store(now.UnixNano())

	users, err := s.state.Users(ctx)
	if err != nil {
		slog.Error("list sync users", "error", err.Error())
		s.setLastError(err)
		return
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, userID := range users {
		if !s.scheduler.Due(userID, now) {
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		uid := userID
		s.inFlight.Add(1)
		go func() {
			defer func() {
				s.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := s.syncUser(ctx, uid); err != nil {
				s.scheduler.Failure(uid, time.Now().UTC())
				s.setLastError(err)
				slog.Error("sync user", "user_id", uid, "error", err.Error())
				return
			}
			s.scheduler.Success(uid, time.Now().UTC())
			s.totalSynced.Add(1)
		}()
	}
	wg.Wait()
}

func (s *Syncer) syncUser(ctx context.Context, userID string) error {
	now := time.Now().UTC()

	if s.rl != nil && s.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:ordersync:%s", now.Format("200601021504"))
		allowed, n, err := s.rl.Allow(ctx, minuteKey, s.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			return err
		}
		if !allowed {
			// Слишком много запросов в минуту: подождём немного, чтобы разгрузить источник.
			slog.Warn("rate limit exceeded", "count", n)
			time.Sleep(500 * time.Millisecond)
		}
	}

	items, err := s.gw.ListOrderItemsByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "fetch order items")
	}

	seen, err := s.state.LastSeen(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "load fingerprints")
	}

	changed := make(map[string]string)
	for _, item := range items {
		key := item.OrderID + "|" + item.ItemID
		fp, err := Fingerprint(item)
		if err != nil {
			slog.Error("fingerprint item", "order_id", item.OrderID, "item_id", item.ItemID, "error", err.Error())
			continue
		}
		if seen[key] == fp {
			continue
		}

		msg := messages.OrderItemUpdated{
			UserID:    userID,
			CheckedAt: now,
			Item:      item,
		}
		b, err := json.Marshal(msg)
		if err != nil {
			return errors.Wrap(err, "marshal kafka msg")
		}
		if err := s.publishWithRetry(ctx, []byte(userID), b); err != nil {
			// Не фиксируем fingerprint неопубликованного item'а: в
			// следующем проходе он снова окажется изменившимся.
			return errors.Wrapf(err, "publish update for %s", key)
		}
		s.totalPublished.Add(1)
		changed[key] = fp
	}

	if err := s.state.SetLastSeen(ctx, userID, changed); err != nil {
		return errors.Wrap(err, "store fingerprints")
	}
	return nil
}

// Kafka может быть не готова сразу после старта docker compose.
// Для демо/устойчивости делаем небольшой retry.
func (s *Syncer) publishWithRetry(ctx context.Context, key, value []byte) error {
	var pubErr error
	for i := 0; i < 10; i++ {
		if err := s.producer.Publish(ctx, s.topic, key, value); err == nil {
			return nil
		} else {
			pubErr = err
			time.Sleep(time.Duration(150*(i+1)) * time.Millisecond)
		}
	}
	return pubErr
}

// Fingerprint — стабильный fnv-64a хэш содержимого line item'а.
func Fingerprint(item models.OrderLineItem) (string, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	h.Write(b)
	return strconv.FormatUint(h.Sum64(), 16), nil
}
