package messages

import (
	"time"

	"github.com/WishfulLabs/SellerBox/internal/models"
)

// OrderItemUpdated — одно realtime-обновление line item'а заказа.
// Worker публикует его в Kafka вместо GraphQL-подписки исходного клиента;
// consumer применяет обновления строго по одному, в порядке прихода.
type OrderItemUpdated struct {
	UserID    string    `json:"user_id"`
	CheckedAt time.Time `json:"checked_at"`

	Item models.OrderLineItem `json:"item"`
}
