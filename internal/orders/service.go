package orders

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/WishfulLabs/SellerBox/internal/broker/messages"
	"github.com/WishfulLabs/SellerBox/internal/models"
	"github.com/pkg/errors"
)

var ErrOrderNotFound = errors.New("order not found")

type Gateway interface {
	ListOrderItemsByUser(ctx context.Context, userID string) ([]models.OrderLineItem, error)
	ListOrderItemsByOrder(ctx context.Context, userID, orderID string) ([]models.OrderLineItem, error)
}

// SyncRegistry регистрирует пользователя для order-sync-worker'а.
type SyncRegistry interface {
	Register(ctx context.Context, userID string) error
}

// Service держит собранные заказы в памяти по пользователям и применяет к
// ним realtime-обновления. Мьютекс защищает только map: сами merge'и идёт
// один consumer-loop, второго писателя по одному пользователю нет.
type Service struct {
	gw       Gateway
	registry SyncRegistry

	mu     sync.RWMutex
	byUser map[string][]*models.Order
}

func New(gw Gateway, registry SyncRegistry) *Service {
	return &Service{
		gw:       gw,
		registry: registry,
		byUser:   make(map[string][]*models.Order),
	}
}

// ListOrders перечитывает заказы пользователя из gateway и обновляет
// in-memory снапшот. Пустой список — валидный результат, не ошибка.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	if userID == "" {
		return nil, errors.New("userId is required")
	}

	items, err := s.gw.ListOrderItemsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	grouped := GroupItems(items)

	s.mu.Lock()
	s.byUser[userID] = grouped
	s.mu.Unlock()

	// Best effort: без регистрации просто не будет push-обновлений.
	if s.registry != nil {
		if err := s.registry.Register(ctx, userID); err != nil {
			slog.Warn("register user for sync", "user_id", userID, "error", err.Error())
		}
	}

	return grouped, nil
}

// GetOrder собирает один заказ из line item'ов. Ноль записей для точечного
// запроса — это отдельная ошибка not found с идентификатором.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	if orderID == "" {
		return nil, errors.New("orderId is required")
	}

	items, err := s.gw.ListOrderItemsByOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Wrapf(ErrOrderNotFound, "order %s", orderID)
	}
	return GroupItems(items)[0], nil
}

// Statistics считает сводку по текущему списку заказов пользователя.
func (s *Service) Statistics(ctx context.Context, userID string) (models.OrderStatistics, error) {
	orders, err := s.ListOrders(ctx, userID)
	if err != nil {
		return models.OrderStatistics{}, err
	}

	st := models.OrderStatistics{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case models.OrderStatusProcessing:
			st.Processing++
		case models.OrderStatusShipped:
			st.Shipped++
		case models.OrderStatusDelivered:
			st.Delivered++
		case "Canceled":
			st.Canceled++
		}
		st.TotalValue += o.Total
	}
	return st, nil
}

// Search фильтрует собранные заказы по подстроке в id, статусе и названиях позиций.
func (s *Service) Search(ctx context.Context, userID, keyword string) ([]*models.Order, error) {
	orders, err := s.ListOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	lc := strings.ToLower(keyword)
	out := make([]*models.Order, 0, len(orders))
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.ID), lc) || strings.Contains(strings.ToLower(o.Status), lc) {
			out = append(out, o)
			continue
		}
		for _, it := range o.Items {
			if strings.Contains(strings.ToLower(it.Name), lc) {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

// ApplyKafkaUpdate вливает одно push-обновление в снапшот пользователя.
// Неизвестный заказ (или пользователь без снапшота) — полный re-fetch.
func (s *Service) ApplyKafkaUpdate(ctx context.Context, msg messages.OrderItemUpdated) error {
	item := msg.Item
	if item.UserID == "" || item.OrderID == "" {
		return errors.New("userId and orderId are required")
	}

	s.mu.RLock()
	orders := s.byUser[item.UserID]
	s.mu.RUnlock()

	merged, err := MergeUpdate(orders, item)
	if errors.Is(err, ErrUnknownOrder) {
		slog.Info("unknown order in update, refetching", "user_id", item.UserID, "order_id", item.OrderID)
		_, err = s.ListOrders(ctx, item.UserID)
		return err
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.byUser[item.UserID] = merged
	s.mu.Unlock()
	return nil
}

// Snapshot отдаёт текущий in-memory агрегат без похода в gateway.
func (s *Service) Snapshot(userID string) []*models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byUser[userID]
}
