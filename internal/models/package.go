package models

import "encoding/json"

// Статусы пакетов, как их отдаёт платформа.
const (
	PackageStatusToFulfill = "TO_FULFILL"
	PackageStatusFulfilled = "FULFILLED"
	PackageStatusDelivered = "DELIVERED"
)

// RawPackage — сырая запись из packages API. orderIds/recipient_address/items
// могут прийти и как JSON-значение, и как строка с закодированным JSON.
type RawPackage struct {
	PackageID             string          `json:"packageId"`
	UserID                string          `json:"userId"`
	CreateTime            json.RawMessage `json:"createTime,omitempty"`
	UpdateTime            json.RawMessage `json:"updateTime,omitempty"`
	OrderIDs              json.RawMessage `json:"orderIds,omitempty"`
	RecipientAddress      json.RawMessage `json:"recipient_address,omitempty"`
	Items                 json.RawMessage `json:"items,omitempty"`
	ShippingProvider      string          `json:"shippingProvider,omitempty"`
	Status                string          `json:"status,omitempty"`
	TrackingNumber        string          `json:"trackingNumber,omitempty"`
	EstimatedDeliveryDate json.RawMessage `json:"estimatedDeliveryDate,omitempty"`
	ShopID                string          `json:"shopId,omitempty"`
	LabelURL              string          `json:"label_url,omitempty"`

	// Поля, которые возвращает только детальный запрос.
	DeliveryTime           json.RawMessage `json:"deliveryTime,omitempty"`
	HandoverTime           json.RawMessage `json:"handoverTime,omitempty"`
	PickupTime             json.RawMessage `json:"pickupTime,omitempty"`
	LastMileTrackingNumber string          `json:"lastMileTrackingNumber,omitempty"`
	TrackingInfo           json.RawMessage `json:"trackingInfo,omitempty"`
	FailedDeliveryAttempts json.RawMessage `json:"failedDeliveryAttempts,omitempty"`
}

// PackageItem — одна позиция внутри пакета (нам важен только вес).
type PackageItem struct {
	Weight json.RawMessage `json:"weight,omitempty"`
}

// Package — нормализованный пакет, готовый к отображению.
// RawData сохраняет исходную запись для детального просмотра.
type Package struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	CreateTime        *string     `json:"createTime"`
	OrderIDs          []string    `json:"orderIds"`
	OrderID           string      `json:"orderId"`
	Address           string      `json:"address"`
	Carrier           string      `json:"carrier"`
	Status            string      `json:"status"`
	TrackingNumber    string      `json:"trackingNumber"`
	EstimatedDelivery *string     `json:"estimatedDelivery"`
	ItemCount         int         `json:"items"`
	Weight            string      `json:"weight"`
	ShopID            string      `json:"shopId"`
	UpdateTime        *string     `json:"updateTime"`
	LabelURL          *string     `json:"label_url"`
	RawData           *RawPackage `json:"rawData,omitempty"`
}

// PackageDetail расширяет Package полями детального запроса.
type PackageDetail struct {
	Package

	DeliveryTime           *string           `json:"deliveryTime"`
	HandoverTime           *string           `json:"handoverTime"`
	PickupTime             *string           `json:"pickupTime"`
	LastMileTrackingNumber string            `json:"lastMileTrackingNumber"`
	TrackingInfo           []json.RawMessage `json:"trackingInfo"`
	RecipientAddress       map[string]any    `json:"recipient_address"`
}

// PackageStatistics — сводка по пакетам пользователя.
type PackageStatistics struct {
	Total          int `json:"total"`
	Processing     int `json:"processing"`
	InTransit      int `json:"inTransit"`
	OutForDelivery int `json:"outForDelivery"`
	Delivered      int `json:"delivered"`
}

// ShipRequest — команда отгрузки пакета, уходит в serverless endpoint.
type ShipRequest struct {
	PackageID string         `json:"packageId"`
	UserID    string         `json:"userId"`
	OrderID   string         `json:"orderId,omitempty"`
	Recipient map[string]any `json:"recipient,omitempty"`
	Address   string         `json:"address,omitempty"`
	ShopID    string         `json:"shopId,omitempty"`
}

// ShippingOrder — ответ serverless endpoint'а на команду отгрузки.
type ShippingOrder struct {
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
	LabelURL       string `json:"label_url,omitempty"`
}
