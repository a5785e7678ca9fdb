package models

import "encoding/json"

// RawPickup — сырая запись из pickups API. address — JSON-строка.
type RawPickup struct {
	PickupID        string          `json:"pickupId"`
	UserID          string          `json:"userId"`
	Address         string          `json:"address,omitempty"`
	PickupDate      string          `json:"pickupDate,omitempty"`
	ReadyTime       string          `json:"readyTime,omitempty"`
	CloseTime       string          `json:"closeTime,omitempty"`
	ItemCount       int             `json:"itemCount,omitempty"`
	Weight          json.RawMessage `json:"weight,omitempty"`
	ContactName     string          `json:"contactName,omitempty"`
	PhoneNumber     string          `json:"phoneNumber,omitempty"`
	Status          string          `json:"status,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	ShopID          string          `json:"shopId,omitempty"`
}

// PickupSchedule — нормализованная запись о запланированном заборе.
type PickupSchedule struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Address         string         `json:"address"`
	AddressObj      map[string]any `json:"addressObj,omitempty"`
	PickupDate      string         `json:"pickupDate"`
	ReadyTime       string         `json:"readyTime"`
	CloseTime       string         `json:"closeTime"`
	ItemCount       int            `json:"itemCount"`
	Weight          float64        `json:"weight"`
	ContactName     string         `json:"contactName"`
	PhoneNumber     string         `json:"phoneNumber"`
	Status          string         `json:"status"`
	CreatedAt       string         `json:"createdAt"`
	ReferenceNumber string         `json:"referenceNumber"`
	ShopID          string         `json:"shopId"`
}

// PickupRequest — команда на планирование забора.
type PickupRequest struct {
	PackageID   string  `json:"packageId,omitempty"`
	PickupDate  string  `json:"pickupDate"` // YYYY-MM-DD
	ItemsCount  int     `json:"itemsCount"`
	TotalWeight float64 `json:"totalWeight"`
	UserID      string  `json:"userId"`
}

// PickupConfirmation — подтверждение от serverless endpoint'а.
type PickupConfirmation struct {
	ReferenceNumber string `json:"referenceNumber"`
	Status          string `json:"status,omitempty"`
	Message         string `json:"message,omitempty"`
}
