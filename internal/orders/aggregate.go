package orders

import (
	"time"

	"github.com/WishfulLabs/SellerBox/internal/models"
	"github.com/WishfulLabs/SellerBox/internal/normalize"
	"github.com/pkg/errors"
)

// ErrUnknownOrder: пришёл line item заказа, которого нет в агрегате.
// Локально это не чинится — вызывающий обязан перечитать весь список.
var ErrUnknownOrder = errors.New("unknown order")

func newOrderItem(item models.OrderLineItem) models.OrderItem {
	name := item.ProductName
	if name == "" {
		name = "Product"
	}
	return models.OrderItem{
		ID:       item.ItemID,
		Name:     name,
		Price:    normalize.UnitPrice(item.Price),
		Quantity: normalize.Quantity(item.Quantity),
	}
}

func orderDate(item models.OrderLineItem) string {
	if d := normalize.MillisToISO(item.CreateTime); d != nil {
		return *d
	}
	return normalize.FormatISO(time.Now())
}

// GroupItems собирает плоский список line item'ов в заказы. Порядок заказов —
// порядок первого появления orderId. Дата и статус заказа берутся из первого
// увиденного item'а. Дубликаты item'ов внутри одного прохода НЕ схлопываются
// и оба попадают в сумму — поведение исходного клиента сохранено намеренно.
func GroupItems(items []models.OrderLineItem) []*models.Order {
	index := make(map[string]int, len(items))
	out := make([]*models.Order, 0, len(items))

	for _, item := range items {
		i, ok := index[item.OrderID]
		if !ok {
			status := item.Status
			if status == "" {
				status = models.OrderStatusProcessing
			}
			out = append(out, &models.Order{
				ID:     item.OrderID,
				Date:   orderDate(item),
				Status: status,
				Items:  []models.OrderItem{},
			})
			i = len(out) - 1
			index[item.OrderID] = i
		}

		oi := newOrderItem(item)
		out[i].Items = append(out[i].Items, oi)
		out[i].Total += oi.Price * float64(oi.Quantity)
	}

	return out
}

func recomputeTotal(o *models.Order) {
	o.Total = 0
	for _, it := range o.Items {
		o.Total += it.Price * float64(it.Quantity)
	}
}

// MergeUpdate применяет один обновлённый line item к набору заказов.
// Существующий item заменяется, новый дописывается; total пересчитывается
// с нуля. Затронутый заказ возвращается свежим значением — наполовину
// обновлённое состояние снаружи не видно. Остальные заказы шарятся как есть.
func MergeUpdate(orders []*models.Order, updated models.OrderLineItem) ([]*models.Order, error) {
	at := -1
	for i, o := range orders {
		if o.ID == updated.OrderID {
			at = i
			break
		}
	}
	if at < 0 {
		return nil, errors.Wrapf(ErrUnknownOrder, "order %s", updated.OrderID)
	}

	prev := orders[at]
	next := &models.Order{
		ID:     prev.ID,
		Date:   prev.Date,
		Status: prev.Status,
		Items:  make([]models.OrderItem, len(prev.Items)),
	}
	copy(next.Items, prev.Items)

	oi := newOrderItem(updated)
	replaced := false
	for i := range next.Items {
		if next.Items[i].ID == oi.ID {
			next.Items[i] = oi
			replaced = true
			break
		}
	}
	if !replaced {
		next.Items = append(next.Items, oi)
	}
	if updated.Status != "" {
		next.Status = updated.Status
	}
	recomputeTotal(next)

	out := make([]*models.Order, len(orders))
	copy(out, orders)
	out[at] = next
	return out, nil
}
