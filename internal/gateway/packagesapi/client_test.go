package packagesapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/WishfulLabs/SellerBox/internal/gateway"
	"github.com/WishfulLabs/SellerBox/internal/gateway/graphql"
)

func TestClient_ListPackagesByUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "u1", req.Variables["userId"])
		require.EqualValues(t, 20, req.Variables["limit"])

		w.Write([]byte(`{"data":{"listSellerPackages":{
			"items":[{"packageId":"P1","userId":"u1","createTime":1700000000}],
			"nextToken":"abc"}}}`))
	}))
	defer srv.Close()

	c := New(graphql.New(srv.URL, "key"))
	items, next, err := c.ListPackagesByUser(context.Background(), "u1", 20, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "P1", items[0].PackageID)
	require.NotNil(t, next)
	require.Equal(t, "abc", *next)
}

func TestClient_GetPackageByID_notFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"getSellerPackages":null}}`))
	}))
	defer srv.Close()

	c := New(graphql.New(srv.URL, "key"))
	_, err := c.GetPackageByID(context.Background(), "missing", "u1")
	require.Error(t, err)
	require.True(t, errors.Is(err, gateway.ErrNotFound))
	require.Contains(t, err.Error(), "missing")
}

func TestClient_ListPackagesByUser_emptyTokenMeansExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"listSellerPackages":{
			"items":[{"packageId":"P1","userId":"u1","createTime":1700000000}],
			"nextToken":""}}}`))
	}))
	defer srv.Close()

	c := New(graphql.New(srv.URL, "key"))
	items, next, err := c.ListPackagesByUser(context.Background(), "u1", 20, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Nil(t, next)
}

func TestClient_ListPackagesByUser_emptyBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := New(graphql.New(srv.URL, "key"))
	items, next, err := c.ListPackagesByUser(context.Background(), "u1", 20, nil)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Nil(t, next)
}
