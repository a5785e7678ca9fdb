package packages

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/WishfulLabs/SellerBox/internal/cache/rediscache"
	"github.com/WishfulLabs/SellerBox/internal/gateway"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

type fakeGateway struct {
	packages    []models.RawPackage
	listCalls   int
	detailCalls int
}

func (g *fakeGateway) ListPackagesByUser(_ context.Context, _ string, _ int, _ *string) ([]models.RawPackage, *string, error) {
	g.listCalls++
	return g.packages, nil, nil
}

func (g *fakeGateway) GetPackageByID(_ context.Context, packageID, _ string) (models.RawPackage, error) {
	g.detailCalls++
	for _, p := range g.packages {
		if p.PackageID == packageID {
			return p, nil
		}
	}
	return models.RawPackage{}, errors.Wrapf(gateway.ErrNotFound, "package %s", packageID)
}

type fakeShipper struct {
	calls int
	err   error
}

func (s *fakeShipper) CreateShippingOrder(_ context.Context, req models.ShipRequest) (models.ShippingOrder, error) {
	s.calls++
	if s.err != nil {
		return models.ShippingOrder{}, s.err
	}
	return models.ShippingOrder{TrackingNumber: "TRACK-" + req.PackageID, Carrier: "usps"}, nil
}

type fakeRecorder struct {
	kinds []string
}

func (r *fakeRecorder) RecordCommand(_ context.Context, _, kind, _ string, _ []byte) error {
	r.kinds = append(r.kinds, kind)
	return nil
}

func newTestService(t *testing.T, gw *fakeGateway, shipper *fakeShipper, rec Recorder, shipLimit int64) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(gw, shipper, rediscache.New(mr.Addr()), rediscache.NewRateLimiter(mr.Addr()), rec, Options{
		DetailTTL:          time.Minute,
		DefaultPageSize:    10,
		ShipLimitPerMinute: shipLimit,
	})
}

func statusPkg(id, status string, createSec int64) models.RawPackage {
	return models.RawPackage{
		PackageID:  id,
		UserID:     "u1",
		CreateTime: json.RawMessage(strconv.FormatInt(createSec, 10)),
		Status:     status,
	}
}

func TestService_GetPackage_cachesDetail(t *testing.T) {
	gw := &fakeGateway{packages: []models.RawPackage{statusPkg("P1", models.PackageStatusToFulfill, 1700000000)}}
	svc := newTestService(t, gw, &fakeShipper{}, nil, 10)
	ctx := context.Background()

	d, err := svc.GetPackage(ctx, "P1", "u1")
	require.NoError(t, err)
	require.Equal(t, "P1", d.ID)
	require.Equal(t, models.OrderStatusProcessing, d.Status)
	require.Equal(t, 1, gw.detailCalls)

	// Повторное открытие карточки идёт из Redis.
	d, err = svc.GetPackage(ctx, "P1", "u1")
	require.NoError(t, err)
	require.Equal(t, "P1", d.ID)
	require.Equal(t, 1, gw.detailCalls)
}

func TestService_GetPackage_notFound(t *testing.T) {
	svc := newTestService(t, &fakeGateway{}, &fakeShipper{}, nil, 10)

	_, err := svc.GetPackage(context.Background(), "missing", "u1")
	require.Error(t, err)
	require.True(t, errors.Is(err, gateway.ErrNotFound))
}

func TestService_Ship_invalidatesCachesAndRecords(t *testing.T) {
	gw := &fakeGateway{packages: []models.RawPackage{statusPkg("P1", models.PackageStatusToFulfill, 1700000000)}}
	shipper := &fakeShipper{}
	rec := &fakeRecorder{}
	svc := newTestService(t, gw, shipper, rec, 10)
	ctx := context.Background()

	_, err := svc.GetPackage(ctx, "P1", "u1")
	require.NoError(t, err)
	require.Equal(t, 1, gw.detailCalls)

	order, err := svc.Ship(ctx, models.ShipRequest{PackageID: "P1", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "TRACK-P1", order.TrackingNumber)
	require.Equal(t, []string{"ship_package"}, rec.kinds)

	// Детальный кэш сброшен: следующий запрос снова идёт в gateway.
	_, err = svc.GetPackage(ctx, "P1", "u1")
	require.NoError(t, err)
	require.Equal(t, 2, gw.detailCalls)
}

func TestService_Ship_rateLimited(t *testing.T) {
	svc := newTestService(t, &fakeGateway{}, &fakeShipper{}, nil, 1)
	ctx := context.Background()

	_, err := svc.Ship(ctx, models.ShipRequest{PackageID: "P1", UserID: "u1"})
	require.NoError(t, err)

	_, err = svc.Ship(ctx, models.ShipRequest{PackageID: "P2", UserID: "u1"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrRateLimited))
}

func TestService_Statistics(t *testing.T) {
	gw := &fakeGateway{packages: []models.RawPackage{
		statusPkg("P1", models.PackageStatusToFulfill, 1700000003),
		statusPkg("P2", models.PackageStatusFulfilled, 1700000002),
		statusPkg("P3", models.PackageStatusDelivered, 1700000001),
		statusPkg("P4", models.PackageStatusToFulfill, 1700000000),
	}}
	svc := newTestService(t, gw, &fakeShipper{}, nil, 10)

	stats, err := svc.Statistics(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, models.PackageStatistics{
		Total:      4,
		Processing: 2,
		InTransit:  1,
		Delivered:  1,
	}, stats)
}

func TestService_Search(t *testing.T) {
	withOrder := statusPkg("P1", models.PackageStatusToFulfill, 1700000001)
	withOrder.OrderIDs = json.RawMessage(`["ORDER-42"]`)
	withTrack := statusPkg("P2", models.PackageStatusFulfilled, 1700000000)
	withTrack.TrackingNumber = "TRACK-99"
	gw := &fakeGateway{packages: []models.RawPackage{withOrder, withTrack}}
	svc := newTestService(t, gw, &fakeShipper{}, nil, 10)
	ctx := context.Background()

	found, err := svc.Search(ctx, "u1", "order-42")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "P1", found[0].ID)

	found, err = svc.Search(ctx, "u1", "track-99")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "P2", found[0].ID)

	found, err = svc.Search(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, found, 2)
}
