// Package normalize превращает сырые записи удалённых API в типизированные
// значения для отображения. Кодировки полей непоследовательны (JSON-строка
// против нативного значения, секунды против миллисекунд), поэтому все
// функции терпимы к мусору: ошибка разбора поля логируется и заменяется
// пустой структурой, наружу она не выходит.
package normalize

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/WishfulLabs/SellerBox/internal/models"
)

const NoAddress = "No address provided"

// Порог эвристики секунды/миллисекунды: всё, что меньше, считаем секундами.
const millisThreshold = 10_000_000_000

// ISO-формат с миллисекундами, как Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// decodeFlexible разбирает значение, которое может быть либо нативной
// JSON-структурой, либо строкой с закодированным внутри JSON.
func decodeFlexible(raw json.RawMessage, dst any) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false, err
		}
		s = strings.TrimSpace(s)
		// Пустая строка и "[]" — штатные sentinel-значения пустоты.
		if s == "" {
			return false, nil
		}
		if err := json.Unmarshal([]byte(s), dst); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

// StringList возвращает список строк (orderIds и т.п.); мусор -> пустой список.
func StringList(raw json.RawMessage) []string {
	var out []string
	ok, err := decodeFlexible(raw, &out)
	if err != nil {
		slog.Error("parse string list", "raw", string(raw), "error", err.Error())
		return []string{}
	}
	if !ok || out == nil {
		return []string{}
	}
	return out
}

// Object возвращает JSON-объект (recipient_address и т.п.); мусор -> пустой объект.
func Object(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if _, err := decodeFlexible(raw, &out); err != nil {
		slog.Error("parse object", "raw", string(raw), "error", err.Error())
		return map[string]any{}
	}
	if out == nil {
		return map[string]any{}
	}
	return out
}

// ItemList возвращает позиции пакета; мусор -> пустой список.
func ItemList(raw json.RawMessage) []models.PackageItem {
	var out []models.PackageItem
	ok, err := decodeFlexible(raw, &out)
	if err != nil {
		slog.Error("parse item list", "raw", string(raw), "error", err.Error())
		return []models.PackageItem{}
	}
	if !ok || out == nil {
		return []models.PackageItem{}
	}
	return out
}

// flexFloat принимает число или числовую строку; всё остальное -> 0.
func flexFloat(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		return f
	}
	var f float64
	if json.Unmarshal(raw, &f) != nil {
		return 0
	}
	return f
}

// flexInt64 — то же для целых; второй результат false, если разобрать нельзя.
func flexInt64(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	s := string(raw)
	if raw[0] == '"' {
		if json.Unmarshal(raw, &s) != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// UnitPrice разбирает ценовой блоб {"sale": ..., "original": ...}.
// Политика "предпочитаем цену со скидкой": sale, если она ненулевая,
// иначе original, иначе 0. Нечитаемый блоб -> 0, без ошибки.
func UnitPrice(raw json.RawMessage) float64 {
	var price struct {
		Sale     json.RawMessage `json:"sale"`
		Original json.RawMessage `json:"original"`
	}
	ok, err := decodeFlexible(raw, &price)
	if err != nil {
		slog.Error("parse price", "raw", string(raw), "error", err.Error())
		return 0
	}
	if !ok {
		return 0
	}
	if sale := flexFloat(price.Sale); sale != 0 {
		return sale
	}
	return flexFloat(price.Original)
}

// Quantity: число или числовая строка; отсутствие и нуль дают 1,
// как parseInt(...) || 1 в исходном клиенте.
func Quantity(raw json.RawMessage) int {
	n, ok := flexInt64(raw)
	if !ok || n == 0 {
		return 1
	}
	return int(n)
}

// MillisToISO: таймстемп всегда в миллисекундах (createTime заказов,
// updateTime в списке пакетов).
func MillisToISO(raw json.RawMessage) *string {
	n, ok := flexInt64(raw)
	if !ok {
		return nil
	}
	s := FormatISO(time.UnixMilli(n))
	return &s
}

// SecondsToISO: таймстемп всегда в секундах (createTime и
// estimatedDeliveryDate в списке пакетов).
func SecondsToISO(raw json.RawMessage) *string {
	n, ok := flexInt64(raw)
	if !ok {
		return nil
	}
	s := FormatISO(time.Unix(n, 0))
	return &s
}

// AutoToISO: эвристика по величине (детальный запрос пакета). Не сводить
// три политики к одной: какие поля реально в секундах, подтверждено только
// по живым данным каждого call site.
func AutoToISO(raw json.RawMessage) *string {
	n, ok := flexInt64(raw)
	if !ok {
		return nil
	}
	if n < millisThreshold {
		n *= 1000
	}
	s := FormatISO(time.UnixMilli(n))
	return &s
}

// Упорядоченный список компонент адреса получателя.
var addressParts = []string{"name", "address1", "address2", "address3", "address4", "zipCode", "region_code"}

// FormatAddress собирает адрес пакета: готовое поле fulladdress, иначе
// непустые компоненты через ", ", иначе литеральный fallback.
func FormatAddress(addr map[string]any) string {
	if full, ok := addr["fulladdress"].(string); ok && full != "" {
		return full
	}
	parts := make([]string, 0, len(addressParts))
	for _, k := range addressParts {
		if v, ok := addr[k].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return NoAddress
	}
	return strings.Join(parts, ", ")
}

// StatusLabel переводит enum платформы в display-значение; незнакомые
// статусы проходят без изменений, пустой считается Processing.
func StatusLabel(status string) string {
	switch status {
	case "":
		return models.OrderStatusProcessing
	case models.PackageStatusToFulfill:
		return models.OrderStatusProcessing
	case models.PackageStatusFulfilled:
		return models.OrderStatusShipped
	case models.PackageStatusDelivered:
		return models.OrderStatusDelivered
	default:
		return status
	}
}

// WeightLabel суммирует веса позиций (нечисловые и отсутствующие -> 0)
// и форматирует строку вида "1.5 kg".
func WeightLabel(items []models.PackageItem) string {
	var total float64
	for _, it := range items {
		total += flexFloat(it.Weight)
	}
	return strconv.FormatFloat(total, 'f', -1, 64) + " kg"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Package нормализует запись из списочного запроса. Политики таймстемпов
// этого call site: createTime/estimatedDeliveryDate в секундах,
// updateTime в миллисекундах.
func Package(raw models.RawPackage) models.Package {
	orderIDs := StringList(raw.OrderIDs)
	orderID := "N/A"
	if len(orderIDs) > 0 {
		orderID = orderIDs[0]
	}
	items := ItemList(raw.Items)

	rawCopy := raw
	p := models.Package{
		ID:                raw.PackageID,
		UserID:            raw.UserID,
		CreateTime:        SecondsToISO(raw.CreateTime),
		OrderIDs:          orderIDs,
		OrderID:           orderID,
		Address:           FormatAddress(Object(raw.RecipientAddress)),
		Carrier:           orDefault(raw.ShippingProvider, "N/A"),
		Status:            StatusLabel(raw.Status),
		TrackingNumber:    orDefault(raw.TrackingNumber, "N/A"),
		EstimatedDelivery: SecondsToISO(raw.EstimatedDeliveryDate),
		ItemCount:         len(items),
		Weight:            WeightLabel(items),
		ShopID:            orDefault(raw.ShopID, "N/A"),
		UpdateTime:        MillisToISO(raw.UpdateTime),
		RawData:           &rawCopy,
	}
	if raw.LabelURL != "" {
		u := raw.LabelURL
		p.LabelURL = &u
	}
	return p
}

// PackageDetail нормализует детальную запись: здесь все таймстемпы идут
// через эвристику по величине.
func PackageDetail(raw models.RawPackage) models.PackageDetail {
	orderIDs := StringList(raw.OrderIDs)
	orderID := "N/A"
	if len(orderIDs) > 0 {
		orderID = orderIDs[0]
	}
	items := ItemList(raw.Items)
	addr := Object(raw.RecipientAddress)

	var trackingInfo []json.RawMessage
	if ok, err := decodeFlexible(raw.TrackingInfo, &trackingInfo); err != nil || !ok {
		if err != nil {
			slog.Error("parse trackingInfo", "package_id", raw.PackageID, "error", err.Error())
		}
		trackingInfo = []json.RawMessage{}
	}

	rawCopy := raw
	d := models.PackageDetail{
		Package: models.Package{
			ID:                raw.PackageID,
			UserID:            raw.UserID,
			CreateTime:        AutoToISO(raw.CreateTime),
			OrderIDs:          orderIDs,
			OrderID:           orderID,
			Address:           FormatAddress(addr),
			Carrier:           orDefault(raw.ShippingProvider, "N/A"),
			Status:            StatusLabel(raw.Status),
			TrackingNumber:    orDefault(raw.TrackingNumber, "N/A"),
			EstimatedDelivery: AutoToISO(raw.EstimatedDeliveryDate),
			ItemCount:         len(items),
			Weight:            WeightLabel(items),
			ShopID:            orDefault(raw.ShopID, "N/A"),
			UpdateTime:        AutoToISO(raw.UpdateTime),
			RawData:           &rawCopy,
		},
		DeliveryTime:           AutoToISO(raw.DeliveryTime),
		HandoverTime:           AutoToISO(raw.HandoverTime),
		PickupTime:             AutoToISO(raw.PickupTime),
		LastMileTrackingNumber: orDefault(raw.LastMileTrackingNumber, "N/A"),
		TrackingInfo:           trackingInfo,
		RecipientAddress:       addr,
	}
	if raw.LabelURL != "" {
		u := raw.LabelURL
		d.LabelURL = &u
	}
	return d
}

// formatHHMM: "0900" -> "09:00"; всё остальное без изменений.
func formatHHMM(s string) string {
	if len(s) == 4 {
		return s[:2] + ":" + s[2:]
	}
	return s
}

// Pickup нормализует запись о запланированном заборе.
func Pickup(raw models.RawPickup) models.PickupSchedule {
	addr := map[string]any{}
	if raw.Address != "" {
		if err := json.Unmarshal([]byte(raw.Address), &addr); err != nil {
			slog.Error("parse pickup address", "pickup_id", raw.PickupID, "error", err.Error())
			addr = map[string]any{}
		}
	}
	formatted := "N/A"
	if s, ok := addr["formatted"].(string); ok && s != "" {
		formatted = s
	} else if s, ok := addr["street"].(string); ok && s != "" {
		formatted = s
	}

	return models.PickupSchedule{
		ID:              raw.PickupID,
		UserID:          raw.UserID,
		Address:         formatted,
		AddressObj:      addr,
		PickupDate:      raw.PickupDate,
		ReadyTime:       formatHHMM(raw.ReadyTime),
		CloseTime:       formatHHMM(raw.CloseTime),
		ItemCount:       raw.ItemCount,
		Weight:          flexFloat(raw.Weight),
		ContactName:     raw.ContactName,
		PhoneNumber:     raw.PhoneNumber,
		Status:          raw.Status,
		CreatedAt:       raw.CreatedAt,
		ReferenceNumber: raw.ReferenceNumber,
		ShopID:          raw.ShopID,
	}
}
