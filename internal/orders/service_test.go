package orders

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/WishfulLabs/SellerBox/internal/broker/messages"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

type fakeGateway struct {
	byUser  map[string][]models.OrderLineItem
	byOrder map[string][]models.OrderLineItem
	calls   int
	err     error
}

func (g *fakeGateway) ListOrderItemsByUser(_ context.Context, userID string) ([]models.OrderLineItem, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.byUser[userID], nil
}

func (g *fakeGateway) ListOrderItemsByOrder(_ context.Context, _, orderID string) ([]models.OrderLineItem, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.byOrder[orderID], nil
}

type fakeRegistry struct {
	users []string
}

func (r *fakeRegistry) Register(_ context.Context, userID string) error {
	r.users = append(r.users, userID)
	return nil
}

func TestService_ListOrders_registersUser(t *testing.T) {
	gw := &fakeGateway{byUser: map[string][]models.OrderLineItem{
		"u1": {lineItem("O1", "I1", 10, 1), lineItem("O1", "I2", 5, 2)},
	}}
	reg := &fakeRegistry{}
	svc := New(gw, reg)

	orders, err := svc.ListOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.InDelta(t, 20, orders[0].Total, 1e-9)
	require.Equal(t, []string{"u1"}, reg.users)

	// Снапшот доступен без повторного похода в gateway.
	require.Equal(t, orders, svc.Snapshot("u1"))

	_, err = svc.ListOrders(context.Background(), "")
	require.Error(t, err)
}

func TestService_ListOrders_emptyIsNotError(t *testing.T) {
	svc := New(&fakeGateway{byUser: map[string][]models.OrderLineItem{}}, nil)
	orders, err := svc.ListOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestService_GetOrder(t *testing.T) {
	gw := &fakeGateway{byOrder: map[string][]models.OrderLineItem{
		"O1": {lineItem("O1", "I1", 10, 1)},
	}}
	svc := New(gw, nil)

	o, err := svc.GetOrder(context.Background(), "u1", "O1")
	require.NoError(t, err)
	require.Equal(t, "O1", o.ID)

	_, err = svc.GetOrder(context.Background(), "u1", "O-MISSING")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestService_Statistics(t *testing.T) {
	shipped := lineItem("O2", "I1", 4, 1)
	shipped.Status = models.OrderStatusShipped
	delivered := lineItem("O3", "I1", 6, 1)
	delivered.Status = models.OrderStatusDelivered
	processing := lineItem("O1", "I1", 10, 2)
	processing.Status = ""

	gw := &fakeGateway{byUser: map[string][]models.OrderLineItem{
		"u1": {processing, shipped, delivered},
	}}
	svc := New(gw, nil)

	st, err := svc.Statistics(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 3, st.Total)
	require.Equal(t, 1, st.Processing)
	require.Equal(t, 1, st.Shipped)
	require.Equal(t, 1, st.Delivered)
	require.InDelta(t, 30, st.TotalValue, 1e-9)
}

func TestService_Search(t *testing.T) {
	gw := &fakeGateway{byUser: map[string][]models.OrderLineItem{
		"u1": {lineItem("O1", "I1", 10, 1), lineItem("O2", "I2", 5, 1)},
	}}
	svc := New(gw, nil)

	found, err := svc.Search(context.Background(), "u1", "o2")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "O2", found[0].ID)

	// Поиск по названию позиции.
	found, err = svc.Search(context.Background(), "u1", "widget i1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "O1", found[0].ID)
}

func TestService_ApplyKafkaUpdate(t *testing.T) {
	gw := &fakeGateway{byUser: map[string][]models.OrderLineItem{
		"u1": {lineItem("O1", "I1", 10, 1)},
	}}
	svc := New(gw, nil)
	ctx := context.Background()

	_, err := svc.ListOrders(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, gw.calls)

	upd := lineItem("O1", "I1", 25, 1)
	err = svc.ApplyKafkaUpdate(ctx, messages.OrderItemUpdated{
		UserID:    "u1",
		CheckedAt: time.Now(),
		Item:      upd,
	})
	require.NoError(t, err)
	require.InDelta(t, 25, svc.Snapshot("u1")[0].Total, 1e-9)
	// Обновление известного заказа не ходит в gateway.
	require.Equal(t, 1, gw.calls)
}

func TestService_ApplyKafkaUpdate_unknownOrderRefetches(t *testing.T) {
	gw := &fakeGateway{byUser: map[string][]models.OrderLineItem{
		"u1": {lineItem("O1", "I1", 10, 1), lineItem("O-NEW", "I1", 3, 1)},
	}}
	svc := New(gw, nil)
	ctx := context.Background()

	upd := lineItem("O-NEW", "I1", 3, 1)
	err := svc.ApplyKafkaUpdate(ctx, messages.OrderItemUpdated{UserID: "u1", Item: upd})
	require.NoError(t, err)
	// Неизвестный заказ вызывает полный re-fetch.
	require.Equal(t, 1, gw.calls)
	require.Len(t, svc.Snapshot("u1"), 2)
}
