package ordersync

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/WishfulLabs/SellerBox/internal/broker/messages"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

type fakeGateway struct {
	items map[string][]models.OrderLineItem
	err   error
}

func (g *fakeGateway) ListOrderItemsByUser(_ context.Context, userID string) ([]models.OrderLineItem, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.items[userID], nil
}

type fakeState struct {
	mu    sync.Mutex
	users []string
	seen  map[string]map[string]string
}

func newFakeState(users ...string) *fakeState {
	return &fakeState{users: users, seen: make(map[string]map[string]string)}
}

func (s *fakeState) Users(_ context.Context) ([]string, error) {
	return s.users, nil
}

func (s *fakeState) LastSeen(_ context.Context, userID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.seen[userID]))
	for k, v := range s.seen[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *fakeState) SetLastSeen(_ context.Context, userID string, fps map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[userID] == nil {
		s.seen[userID] = make(map[string]string)
	}
	for k, v := range fps {
		s.seen[userID][k] = v
	}
	return nil
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []messages.OrderItemUpdated
	failures int
}

func (p *fakeProducer) Publish(_ context.Context, _ string, _, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	var msg messages.OrderItemUpdated
	if err := json.Unmarshal(value, &msg); err != nil {
		return err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func item(orderID, itemID, status string) models.OrderLineItem {
	return models.OrderLineItem{
		OrderID:  orderID,
		ItemID:   itemID,
		UserID:   "u1",
		Status:   status,
		Price:    json.RawMessage(`{"sale": 10}`),
		Quantity: json.RawMessage("1"),
	}
}

func TestSyncer_publishesOnlyChanges(t *testing.T) {
	gw := &fakeGateway{items: map[string][]models.OrderLineItem{
		"u1": {item("O1", "I1", "TO_FULFILL"), item("O1", "I2", "TO_FULFILL")},
	}}
	state := newFakeState("u1")
	prod := &fakeProducer{}
	s := New(gw, state, prod, nil, "order-item-updated")
	ctx := context.Background()

	// Первый проход: всё новое, публикуется целиком.
	require.NoError(t, s.syncUser(ctx, "u1"))
	require.Equal(t, 2, prod.count())
	require.Equal(t, "u1", prod.messages[0].UserID)
	require.Equal(t, "O1", prod.messages[0].Item.OrderID)

	// Без изменений — тишина.
	require.NoError(t, s.syncUser(ctx, "u1"))
	require.Equal(t, 2, prod.count())

	// Меняется один item — публикуется ровно он.
	gw.items["u1"][1] = item("O1", "I2", "FULFILLED")
	require.NoError(t, s.syncUser(ctx, "u1"))
	require.Equal(t, 3, prod.count())
	require.Equal(t, "I2", prod.messages[2].Item.ItemID)
	require.Equal(t, "FULFILLED", prod.messages[2].Item.Status)
}

func TestSyncer_retriesPublish(t *testing.T) {
	gw := &fakeGateway{items: map[string][]models.OrderLineItem{
		"u1": {item("O1", "I1", "TO_FULFILL")},
	}}
	prod := &fakeProducer{failures: 1}
	s := New(gw, newFakeState("u1"), prod, nil, "order-item-updated")

	require.NoError(t, s.syncUser(context.Background(), "u1"))
	require.Equal(t, 1, prod.count())
}

func TestSyncer_gatewayErrorCountsAndBacksOff(t *testing.T) {
	gw := &fakeGateway{err: errors.New("api down")}
	state := newFakeState("u1")
	s := New(gw, state, &fakeProducer{}, nil, "order-item-updated")

	s.runOnce(context.Background())

	st := s.Stats()
	require.Equal(t, int64(1), st.TotalErrors)
	require.Contains(t, st.LastError, "api down")
	require.Equal(t, int64(0), st.TotalSynced)

	// После ошибки пользователь уходит в backoff и не дёргается сразу.
	s.runOnce(context.Background())
	require.Equal(t, int64(1), s.Stats().TotalErrors)
}

func TestSyncer_runOnceSyncsDueUsers(t *testing.T) {
	gw := &fakeGateway{items: map[string][]models.OrderLineItem{
		"u1": {item("O1", "I1", "TO_FULFILL")},
		"u2": {item("O2", "I1", "FULFILLED")},
	}}
	state := newFakeState("u1", "u2")
	prod := &fakeProducer{}
	s := New(gw, state, prod, nil, "order-item-updated")

	s.runOnce(context.Background())
	require.Equal(t, 2, prod.count())
	require.Equal(t, int64(2), s.Stats().TotalSynced)

	// Только что синхронизированные пользователи не due.
	s.runOnce(context.Background())
	require.Equal(t, 2, prod.count())
}

func TestFingerprint_stable(t *testing.T) {
	a, err := Fingerprint(item("O1", "I1", "TO_FULFILL"))
	require.NoError(t, err)
	b, err := Fingerprint(item("O1", "I1", "TO_FULFILL"))
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := Fingerprint(item("O1", "I1", "FULFILLED"))
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}
