package pickups

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/WishfulLabs/SellerBox/internal/models"
)

type fakeGateway struct {
	pickups []models.RawPickup
	calls   int
}

func (g *fakeGateway) ListScheduledPickups(_ context.Context, _ string, limit, offset int) ([]models.RawPickup, bool, error) {
	g.calls++
	if offset >= len(g.pickups) {
		return nil, false, nil
	}
	end := offset + limit
	if end > len(g.pickups) {
		end = len(g.pickups)
	}
	return g.pickups[offset:end], end < len(g.pickups), nil
}

type fakeScheduler struct {
	lastReq models.PickupRequest
	err     error
}

func (s *fakeScheduler) SchedulePickup(_ context.Context, req models.PickupRequest) (models.PickupConfirmation, error) {
	s.lastReq = req
	if s.err != nil {
		return models.PickupConfirmation{}, s.err
	}
	return models.PickupConfirmation{ReferenceNumber: "REF-1", Status: "SCHEDULED"}, nil
}

type fakeRecorder struct {
	kinds    []string
	subjects []string
}

func (r *fakeRecorder) RecordCommand(_ context.Context, _, kind, subjectID string, _ []byte) error {
	r.kinds = append(r.kinds, kind)
	r.subjects = append(r.subjects, subjectID)
	return nil
}

func rawPickup(i int) models.RawPickup {
	return models.RawPickup{
		PickupID:   "PICK-" + strconv.Itoa(i),
		UserID:     "u1",
		Address:    `{"formatted":"12 Warehouse Rd"}`,
		PickupDate: "2024-06-01",
		ReadyTime:  "0900",
		CloseTime:  "1700",
		ItemCount:  2,
		Weight:     json.RawMessage(`"3.5"`),
		Status:     "SCHEDULED",
	}
}

func TestService_List(t *testing.T) {
	gw := &fakeGateway{}
	for i := 0; i < 25; i++ {
		gw.pickups = append(gw.pickups, rawPickup(i))
	}
	svc := New(gw, &fakeScheduler{}, nil)

	res, err := svc.List(context.Background(), "u1", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 10)
	require.True(t, res.HasMore)
	require.Equal(t, 2, res.TotalPages)
	require.Equal(t, "12 Warehouse Rd", res.Items[0].Address)
	require.Equal(t, "09:00", res.Items[0].ReadyTime)
	require.Equal(t, 3.5, res.Items[0].Weight)

	res, err = svc.List(context.Background(), "u1", 3, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 5)
	require.False(t, res.HasMore)
	require.Equal(t, 3, res.TotalPages)
}

func TestService_Get(t *testing.T) {
	gw := &fakeGateway{}
	for i := 0; i < 60; i++ {
		gw.pickups = append(gw.pickups, rawPickup(i))
	}
	svc := New(gw, &fakeScheduler{}, nil)

	p, err := svc.Get(context.Background(), "PICK-55", "u1")
	require.NoError(t, err)
	require.Equal(t, "PICK-55", p.ID)

	_, err = svc.Get(context.Background(), "PICK-999", "u1")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPickupNotFound))
}

func TestService_Schedule(t *testing.T) {
	sched := &fakeScheduler{}
	rec := &fakeRecorder{}
	svc := New(&fakeGateway{}, sched, rec)

	conf, err := svc.Schedule(context.Background(), models.PickupRequest{
		UserID:      "u1",
		PickupDate:  "2024-06-01",
		ItemsCount:  3,
		TotalWeight: 4.2,
	})
	require.NoError(t, err)
	require.Equal(t, "REF-1", conf.ReferenceNumber)
	require.Equal(t, []string{"schedule_pickup"}, rec.kinds)
	require.Equal(t, []string{"REF-1"}, rec.subjects)

	_, err = svc.Schedule(context.Background(), models.PickupRequest{UserID: "u1"})
	require.Error(t, err)
}
