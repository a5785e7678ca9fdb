// Package fake — детерминированная заглушка всех внешних сервисов.
// Включается gateways.mode: "fake" и позволяет гонять seller-api без
// доступа к живой платформе: один и тот же userId всегда получает один
// и тот же набор данных.
package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/gateway"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

// Опорная точка генерации таймстемпов.
const baseUnix = 1700000000

type Gateway struct{}

func New() *Gateway {
	return &Gateway{}
}

func seed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

var productNames = []string{
	"Wireless Earbuds", "Phone Case", "Desk Lamp", "Water Bottle",
	"Yoga Mat", "Travel Mug", "Notebook Set", "USB-C Cable",
}

var statuses = []string{
	models.PackageStatusToFulfill,
	models.PackageStatusFulfilled,
	models.PackageStatusDelivered,
}

func (g *Gateway) ListOrderItemsByUser(_ context.Context, userID string) ([]models.OrderLineItem, error) {
	s := seed("orders", userID)
	orderCount := int(s%4) + 3
	items := make([]models.OrderLineItem, 0, orderCount*2)
	for o := 0; o < orderCount; o++ {
		orderID := fmt.Sprintf("ORD-%s-%d", shortID(userID), o+1)
		itemCount := int(seed(orderID)%3) + 1
		for i := 0; i < itemCount; i++ {
			items = append(items, lineItem(userID, orderID, o, i))
		}
	}
	return items, nil
}

func (g *Gateway) ListOrderItemsByOrder(_ context.Context, userID, orderID string) ([]models.OrderLineItem, error) {
	itemCount := int(seed(orderID)%3) + 1
	items := make([]models.OrderLineItem, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		items = append(items, lineItem(userID, orderID, 0, i))
	}
	return items, nil
}

func lineItem(userID, orderID string, orderIdx, itemIdx int) models.OrderLineItem {
	s := seed(orderID, strconv.Itoa(itemIdx))
	price := float64(s%9000)/100 + 5
	createMs := int64(baseUnix-orderIdx*86400) * 1000
	return models.OrderLineItem{
		OrderID:     orderID,
		ItemID:      fmt.Sprintf("%s-I%d", orderID, itemIdx+1),
		UserID:      userID,
		CreateTime:  json.RawMessage(strconv.FormatInt(createMs, 10)),
		PackageID:   fmt.Sprintf("PKG-%s-%d", shortID(orderID), orderIdx+1),
		Price:       json.RawMessage(fmt.Sprintf(`{"sale": %.2f, "original": %.2f}`, price, price*1.2)),
		ProductID:   fmt.Sprintf("PROD-%d", s%1000),
		ProductName: productNames[s%uint64(len(productNames))],
		Status:      statuses[s%uint64(len(statuses))],
		Quantity:    json.RawMessage(strconv.Itoa(int(s%3) + 1)),
	}
}

func (g *Gateway) ListPackagesByUser(_ context.Context, userID string, limit int, nextToken *string) ([]models.RawPackage, *string, error) {
	total := int(seed("packages", userID)%20) + 5
	offset := 0
	if nextToken != nil {
		n, err := strconv.Atoi(*nextToken)
		if err != nil {
			return nil, nil, errors.Errorf("bad nextToken %q", *nextToken)
		}
		offset = n
	}
	if limit <= 0 {
		limit = 10
	}

	out := make([]models.RawPackage, 0, limit)
	for i := offset; i < total && len(out) < limit; i++ {
		out = append(out, g.rawPackage(userID, i))
	}
	next := offset + len(out)
	if next >= total {
		return out, nil, nil
	}
	token := strconv.Itoa(next)
	return out, &token, nil
}

func (g *Gateway) GetPackageByID(_ context.Context, packageID, userID string) (models.RawPackage, error) {
	total := int(seed("packages", userID)%20) + 5
	for i := 0; i < total; i++ {
		p := g.rawPackage(userID, i)
		if p.PackageID == packageID {
			p.DeliveryTime = p.UpdateTime
			p.LastMileTrackingNumber = "LM-" + shortID(packageID)
			p.TrackingInfo = json.RawMessage(`[{"description":"Package picked up"},{"description":"In transit"}]`)
			return p, nil
		}
	}
	return models.RawPackage{}, errors.Wrapf(gateway.ErrNotFound, "package %s", packageID)
}

func (g *Gateway) rawPackage(userID string, idx int) models.RawPackage {
	s := seed("pkg", userID, strconv.Itoa(idx))
	createSec := int64(baseUnix - idx*43200)
	addr := fmt.Sprintf(`{"name":"Buyer %d","address1":"%d Main St","zipCode":"%05d","region_code":"US"}`,
		s%100, s%900+10, s%99999)
	return models.RawPackage{
		PackageID:  fmt.Sprintf("PKG-%s-%d", shortID(userID), idx+1),
		UserID:     userID,
		CreateTime: json.RawMessage(strconv.FormatInt(createSec, 10)),
		UpdateTime: json.RawMessage(strconv.FormatInt(createSec*1000+3600000, 10)),
		OrderIDs:   json.RawMessage(fmt.Sprintf(`["ORD-%s-%d"]`, shortID(userID), idx%5+1)),
		// Строка с закодированным JSON, как у живого API.
		RecipientAddress:      json.RawMessage(strconv.Quote(addr)),
		Items:                 json.RawMessage(fmt.Sprintf(`[{"weight": %.1f}]`, float64(s%50)/10+0.1)),
		ShippingProvider:      []string{"usps", "fedex", "ups"}[s%3],
		Status:                statuses[s%uint64(len(statuses))],
		TrackingNumber:        fmt.Sprintf("TRACK-%d", s%1000000),
		EstimatedDeliveryDate: json.RawMessage(strconv.FormatInt(createSec+5*86400, 10)),
		ShopID:                "SHOP-" + shortID(userID),
	}
}

func (g *Gateway) CreateShippingOrder(_ context.Context, req models.ShipRequest) (models.ShippingOrder, error) {
	s := seed("ship", req.PackageID)
	return models.ShippingOrder{
		TrackingNumber: fmt.Sprintf("TRACK-%d", s%1000000),
		Carrier:        []string{"usps", "fedex", "ups"}[s%3],
		LabelURL:       "https://labels.example.com/" + req.PackageID + ".pdf",
	}, nil
}

func (g *Gateway) ListScheduledPickups(_ context.Context, userID string, limit, offset int) ([]models.RawPickup, bool, error) {
	total := int(seed("pickups", userID)%6) + 2
	if limit <= 0 {
		limit = 10
	}
	out := make([]models.RawPickup, 0, limit)
	for i := offset; i < total && len(out) < limit; i++ {
		s := seed("pickup", userID, strconv.Itoa(i))
		date := time.Unix(baseUnix+int64(i)*86400, 0).UTC().Format("2006-01-02")
		out = append(out, models.RawPickup{
			PickupID:        fmt.Sprintf("PICK-%s-%d", shortID(userID), i+1),
			UserID:          userID,
			Address:         fmt.Sprintf(`{"formatted":"%d Warehouse Rd"}`, s%900+10),
			PickupDate:      date,
			ReadyTime:       "0900",
			CloseTime:       "1700",
			ItemCount:       int(s%10) + 1,
			Weight:          json.RawMessage(fmt.Sprintf("%.1f", float64(s%200)/10+0.5)),
			ContactName:     "Seller " + shortID(userID),
			PhoneNumber:     fmt.Sprintf("+1555%07d", s%10000000),
			Status:          "SCHEDULED",
			CreatedAt:       time.Unix(baseUnix, 0).UTC().Format(time.RFC3339),
			ReferenceNumber: fmt.Sprintf("REF-%d", s%100000),
			ShopID:          "SHOP-" + shortID(userID),
		})
	}
	return out, offset+len(out) < total, nil
}

func (g *Gateway) SchedulePickup(_ context.Context, req models.PickupRequest) (models.PickupConfirmation, error) {
	s := seed("schedule", req.UserID, req.PickupDate)
	return models.PickupConfirmation{
		ReferenceNumber: fmt.Sprintf("REF-%d", s%100000),
		Status:          "SCHEDULED",
	}, nil
}

func (g *Gateway) ListConnections(_ context.Context, userID string) ([]models.StorefrontConnection, error) {
	s := seed("connections", userID)
	created := time.Unix(baseUnix-30*86400, 0).UTC().Format(time.RFC3339)
	return []models.StorefrontConnection{{
		ID:           "CONN-" + shortID(userID),
		UserID:       userID,
		ConnectionID: fmt.Sprintf("%d", s%1000000),
		Platform:     "tiktok_shop",
		Status:       "ACTIVE",
		SellerName:   "Shop " + shortID(userID),
		ShopID:       "SHOP-" + shortID(userID),
		CreatedAt:    created,
		UpdatedAt:    created,
	}}, nil
}

func (g *Gateway) ExchangeAuthCode(_ context.Context, userID, authCode string) (map[string]any, error) {
	if authCode == "" {
		return nil, errors.New("empty auth code")
	}
	return map[string]any{
		"message": "connected",
		"shopId":  "SHOP-" + shortID(userID),
	}, nil
}

func (g *Gateway) UpdateShippingProvider(_ context.Context, userID, providerID string) (map[string]any, error) {
	return map[string]any{
		"message":    "provider updated",
		"providerId": providerID,
		"userId":     userID,
	}, nil
}

// shortID сжимает произвольный идентификатор в короткий стабильный суффикс.
func shortID(s string) string {
	return strconv.FormatUint(seed(s)%0xFFFFFF, 16)
}
