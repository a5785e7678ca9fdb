package shiphttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WishfulLabs/SellerBox/internal/models"
)

func TestCreateShippingOrder_envelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ShipRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "P1", req.PackageID)

		w.Write([]byte(`{"data":{"trackingNumber":"TRACK-1","carrier":"usps"}}`))
	}))
	defer srv.Close()

	order, err := New(srv.URL).CreateShippingOrder(context.Background(), models.ShipRequest{PackageID: "P1", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "TRACK-1", order.TrackingNumber)
	require.Equal(t, "usps", order.Carrier)
}

func TestCreateShippingOrder_flatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"trackingNumber":"TRACK-2","carrier":"fedex"}`))
	}))
	defer srv.Close()

	order, err := New(srv.URL).CreateShippingOrder(context.Background(), models.ShipRequest{PackageID: "P2"})
	require.NoError(t, err)
	require.Equal(t, "TRACK-2", order.TrackingNumber)
}

func TestCreateShippingOrder_errorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"package already shipped"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateShippingOrder(context.Background(), models.ShipRequest{PackageID: "P3"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "package already shipped")
}
