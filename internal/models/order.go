package models

import "encoding/json"

// Display-статусы заказов (после маппинга из enum платформы).
const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
)

// OrderLineItem — сырая запись из orders API. Поля price/quantity/createTime
// приходят в непоследовательных кодировках (JSON-строка или нативное
// значение), поэтому хранятся как RawMessage и разбираются в normalize.
type OrderLineItem struct {
	OrderID     string          `json:"orderId"`
	ItemID      string          `json:"itemId"`
	CreateTime  json.RawMessage `json:"createTime,omitempty"`
	PackageID   string          `json:"packageId,omitempty"`
	Price       json.RawMessage `json:"price,omitempty"`
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	SellerSku   string          `json:"sellerSku,omitempty"`
	SkuID       string          `json:"skuId,omitempty"`
	SkuName     string          `json:"skuName,omitempty"`
	Status      string          `json:"status,omitempty"`
	UserID      string          `json:"userId"`
	Quantity    json.RawMessage `json:"quantity,omitempty"`
}

// OrderItem — одна позиция внутри собранного заказа.
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Order — агрегат по orderId. Total всегда пересчитывается из Items.
type Order struct {
	ID     string      `json:"id"`
	Date   string      `json:"date"`
	Status string      `json:"status"`
	Items  []OrderItem `json:"items"`
	Total  float64     `json:"total"`
}

// OrderStatistics — сводка по заказам пользователя для дашборда.
type OrderStatistics struct {
	Total      int     `json:"total"`
	Processing int     `json:"processing"`
	Shipped    int     `json:"shipped"`
	Delivered  int     `json:"delivered"`
	Canceled   int     `json:"canceled"`
	TotalValue float64 `json:"totalValue"`
}
