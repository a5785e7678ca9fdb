package packages

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/cache"
	"github.com/WishfulLabs/SellerBox/internal/models"
	"github.com/WishfulLabs/SellerBox/internal/normalize"
)

var ErrRateLimited = errors.New("ship rate limit exceeded")

// Gateway — read-сторона packages API.
type Gateway interface {
	ListPackagesByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]models.RawPackage, *string, error)
	GetPackageByID(ctx context.Context, packageID, userID string) (models.RawPackage, error)
}

// Shipper отправляет команду отгрузки во внешний serverless endpoint.
type Shipper interface {
	CreateShippingOrder(ctx context.Context, req models.ShipRequest) (models.ShippingOrder, error)
}

// Limiter ограничивает частоту write-команд (реализация на Redis INCR).
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Recorder пишет audit trail выполненных команд. Best-effort: отказ
// хранилища не должен ронять саму команду.
type Recorder interface {
	RecordCommand(ctx context.Context, userID, kind, subjectID string, payload []byte) error
}

type Options struct {
	DetailTTL          time.Duration
	DefaultPageSize    int
	ShipLimitPerMinute int64
}

type Service struct {
	gw       Gateway
	shipper  Shipper
	detail   cache.BytesCache
	limiter  Limiter
	recorder Recorder
	opts     Options

	mu    sync.Mutex
	pages map[string]*PageCache
}

func New(gw Gateway, shipper Shipper, detail cache.BytesCache, limiter Limiter, recorder Recorder, opts Options) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 10
	}
	if opts.DetailTTL <= 0 {
		opts.DetailTTL = 5 * time.Minute
	}
	if opts.ShipLimitPerMinute <= 0 {
		opts.ShipLimitPerMinute = 10
	}
	return &Service{
		gw:       gw,
		shipper:  shipper,
		detail:   detail,
		limiter:  limiter,
		recorder: recorder,
		opts:     opts,
		pages:    make(map[string]*PageCache),
	}
}

// pageCache выдаёт аккумулятор страниц конкретного пользователя.
func (s *Service) pageCache(userID string) *PageCache {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.pages[userID]
	if !ok {
		pc = NewPageCache(func(ctx context.Context, limit int, nextToken *string) ([]models.RawPackage, *string, error) {
			return s.gw.ListPackagesByUser(ctx, userID, limit, nextToken)
		})
		s.pages[userID] = pc
	}
	return pc
}

func (s *Service) ListPackages(ctx context.Context, userID string, page, pageSize int) (PageResult, error) {
	if pageSize <= 0 {
		pageSize = s.opts.DefaultPageSize
	}
	res, err := s.pageCache(userID).GetPage(ctx, page, pageSize)
	if err != nil {
		return PageResult{}, errors.Wrap(err, "list packages")
	}
	return res, nil
}

// Refresh сбрасывает накопленные страницы пользователя.
func (s *Service) Refresh(userID string) {
	s.pageCache(userID).Reset()
}

func detailKey(userID, packageID string) string {
	return "package:detail:" + userID + ":" + packageID
}

// GetPackage отдаёт детальную запись; нормализованный результат держится
// в Redis с TTL, чтобы не дёргать удалённый API на каждое открытие карточки.
func (s *Service) GetPackage(ctx context.Context, packageID, userID string) (models.PackageDetail, error) {
	key := detailKey(userID, packageID)
	if b, ok, err := s.detail.Get(ctx, key); err != nil {
		slog.Warn("package detail cache read", "key", key, "error", err.Error())
	} else if ok {
		var d models.PackageDetail
		if err := json.Unmarshal(b, &d); err == nil {
			return d, nil
		}
		slog.Warn("package detail cache corrupt", "key", key)
	}

	raw, err := s.gw.GetPackageByID(ctx, packageID, userID)
	if err != nil {
		return models.PackageDetail{}, errors.Wrapf(err, "get package %s", packageID)
	}
	d := normalize.PackageDetail(raw)

	if b, err := json.Marshal(d); err == nil {
		if err := s.detail.Set(ctx, key, b, s.opts.DetailTTL); err != nil {
			slog.Warn("package detail cache write", "key", key, "error", err.Error())
		}
	}
	return d, nil
}

// Ship выполняет команду отгрузки: rate limit на пользователя, вызов
// endpoint'а, затем инвалидация кэшей и запись команды в audit trail.
func (s *Service) Ship(ctx context.Context, req models.ShipRequest) (models.ShippingOrder, error) {
	ok, n, err := s.limiter.Allow(ctx, "ship:"+req.UserID, s.opts.ShipLimitPerMinute, time.Minute)
	if err != nil {
		// Redis лёг — команду не блокируем, только логируем.
		slog.Warn("ship rate limiter unavailable", "user_id", req.UserID, "error", err.Error())
	} else if !ok {
		return models.ShippingOrder{}, errors.Wrapf(ErrRateLimited, "attempt %d", n)
	}

	order, err := s.shipper.CreateShippingOrder(ctx, req)
	if err != nil {
		return models.ShippingOrder{}, errors.Wrapf(err, "ship package %s", req.PackageID)
	}

	if err := s.detail.Delete(ctx, detailKey(req.UserID, req.PackageID)); err != nil {
		slog.Warn("invalidate package detail", "package_id", req.PackageID, "error", err.Error())
	}
	s.Refresh(req.UserID)

	if s.recorder != nil {
		payload, _ := json.Marshal(req)
		if err := s.recorder.RecordCommand(ctx, req.UserID, "ship_package", req.PackageID, payload); err != nil {
			slog.Warn("record ship command", "package_id", req.PackageID, "error", err.Error())
		}
	}
	return order, nil
}

// drain докачивает все страницы пользователя в аккумулятор.
func (s *Service) drain(ctx context.Context, userID string) ([]models.Package, error) {
	pc := s.pageCache(userID)
	const chunk = 50
	for page := 1; ; page++ {
		res, err := pc.GetPage(ctx, page, chunk)
		if err != nil {
			return nil, err
		}
		if !res.HasNextPage {
			break
		}
	}
	return pc.Snapshot(), nil
}

func (s *Service) Statistics(ctx context.Context, userID string) (models.PackageStatistics, error) {
	items, err := s.drain(ctx, userID)
	if err != nil {
		return models.PackageStatistics{}, errors.Wrap(err, "package statistics")
	}
	stats := models.PackageStatistics{Total: len(items)}
	for _, p := range items {
		switch p.Status {
		case models.OrderStatusProcessing:
			stats.Processing++
		case models.OrderStatusShipped:
			stats.InTransit++
		case "OUT_FOR_DELIVERY":
			stats.OutForDelivery++
		case models.OrderStatusDelivered:
			stats.Delivered++
		}
	}
	return stats, nil
}

// Search ищет по id, заказу и трек-номеру без учёта регистра.
func (s *Service) Search(ctx context.Context, userID, query string) ([]models.Package, error) {
	items, err := s.drain(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "search packages")
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items, nil
	}
	out := make([]models.Package, 0)
	for _, p := range items {
		if strings.Contains(strings.ToLower(p.ID), q) ||
			strings.Contains(strings.ToLower(p.OrderID), q) ||
			strings.Contains(strings.ToLower(p.TrackingNumber), q) {
			out = append(out, p)
		}
	}
	return out, nil
}
