// Package pickups — просмотр и планирование заборов отправлений.
package pickups

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/models"
	"github.com/WishfulLabs/SellerBox/internal/normalize"
)

var ErrPickupNotFound = errors.New("pickup not found")

// Gateway — read-сторона pickups API.
type Gateway interface {
	ListScheduledPickups(ctx context.Context, userID string, limit, offset int) ([]models.RawPickup, bool, error)
}

// Scheduler отправляет команду планирования во внешний endpoint.
type Scheduler interface {
	SchedulePickup(ctx context.Context, req models.PickupRequest) (models.PickupConfirmation, error)
}

// Recorder пишет audit trail команд, best-effort.
type Recorder interface {
	RecordCommand(ctx context.Context, userID, kind, subjectID string, payload []byte) error
}

// PageResult — одна страница заборов.
type PageResult struct {
	Items      []models.PickupSchedule `json:"items"`
	Page       int                     `json:"page"`
	PerPage    int                     `json:"perPage"`
	TotalPages int                     `json:"totalPages"`
	HasMore    bool                    `json:"hasMore"`
}

type Service struct {
	gw        Gateway
	scheduler Scheduler
	recorder  Recorder
}

func New(gw Gateway, scheduler Scheduler, recorder Recorder) *Service {
	return &Service{gw: gw, scheduler: scheduler, recorder: recorder}
}

// List отдаёт страницу заборов. API листается offset'ом; точного числа
// страниц оно не знает, поэтому totalPages — текущая страница плюс одна,
// пока есть продолжение.
func (s *Service) List(ctx context.Context, userID string, page, perPage int) (PageResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	raws, hasMore, err := s.gw.ListScheduledPickups(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return PageResult{}, errors.Wrap(err, "list pickups")
	}

	items := make([]models.PickupSchedule, 0, len(raws))
	for _, raw := range raws {
		items = append(items, normalize.Pickup(raw))
	}

	totalPages := page
	if hasMore {
		totalPages = page + 1
	}
	return PageResult{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasMore:    hasMore,
	}, nil
}

// Get ищет забор по id, листая страницы до конца.
func (s *Service) Get(ctx context.Context, pickupID, userID string) (models.PickupSchedule, error) {
	const chunk = 50
	for offset := 0; ; offset += chunk {
		raws, hasMore, err := s.gw.ListScheduledPickups(ctx, userID, chunk, offset)
		if err != nil {
			return models.PickupSchedule{}, errors.Wrap(err, "get pickup")
		}
		for _, raw := range raws {
			if raw.PickupID == pickupID {
				return normalize.Pickup(raw), nil
			}
		}
		if !hasMore || len(raws) == 0 {
			return models.PickupSchedule{}, errors.Wrapf(ErrPickupNotFound, "pickup %s", pickupID)
		}
	}
}

// Schedule выполняет команду планирования и записывает её в audit trail.
func (s *Service) Schedule(ctx context.Context, req models.PickupRequest) (models.PickupConfirmation, error) {
	if req.PickupDate == "" {
		return models.PickupConfirmation{}, errors.New("pickup date is required")
	}

	conf, err := s.scheduler.SchedulePickup(ctx, req)
	if err != nil {
		return models.PickupConfirmation{}, errors.Wrap(err, "schedule pickup")
	}

	if s.recorder != nil {
		payload, _ := json.Marshal(req)
		if err := s.recorder.RecordCommand(ctx, req.UserID, "schedule_pickup", conf.ReferenceNumber, payload); err != nil {
			slog.Warn("record pickup command", "user_id", req.UserID, "error", err.Error())
		}
	}
	return conf, nil
}
