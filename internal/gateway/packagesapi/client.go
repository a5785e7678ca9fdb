// Package packagesapi — клиент GraphQL API пакетов.
package packagesapi

import (
	"context"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/gateway"
	"github.com/WishfulLabs/SellerBox/internal/gateway/graphql"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

const listQuery = `query ListSellerPackages($userId: String!, $limit: Int, $nextToken: String) {
  listSellerPackages(filter: {userId: {eq: $userId}}, limit: $limit, nextToken: $nextToken) {
    items {
      packageId
      userId
      createTime
      updateTime
      orderIds
      recipient_address
      items
      shippingProvider
      status
      trackingNumber
      estimatedDeliveryDate
      shopId
      label_url
    }
    nextToken
  }
}`

const getQuery = `query GetSellerPackages($packageId: String!, $userId: String!) {
  getSellerPackages(packageId: $packageId, userId: $userId) {
    packageId
    userId
    createTime
    updateTime
    orderIds
    recipient_address
    items
    shippingProvider
    status
    trackingNumber
    estimatedDeliveryDate
    shopId
    label_url
    deliveryTime
    handoverTime
    pickupTime
    lastMileTrackingNumber
    trackingInfo
    failedDeliveryAttempts
  }
}`

type Client struct {
	gql *graphql.Client
}

func New(gql *graphql.Client) *Client {
	return &Client{gql: gql}
}

func (c *Client) ListPackagesByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]models.RawPackage, *string, error) {
	variables := map[string]any{"userId": userID, "limit": limit}
	if nextToken != nil {
		variables["nextToken"] = *nextToken
	}

	var resp struct {
		List *struct {
			Items     []models.RawPackage `json:"items"`
			NextToken *string             `json:"nextToken"`
		} `json:"listSellerPackages"`
	}
	if err := c.gql.Execute(ctx, listQuery, variables, &resp); err != nil {
		return nil, nil, errors.Wrap(err, "list packages")
	}
	if resp.List == nil {
		return []models.RawPackage{}, nil, nil
	}
	items := resp.List.Items
	if items == nil {
		items = []models.RawPackage{}
	}
	next := resp.List.NextToken
	if next != nil && *next == "" {
		// Пустой курсор равносилен его отсутствию: источник исчерпан.
		next = nil
	}
	return items, next, nil
}

func (c *Client) GetPackageByID(ctx context.Context, packageID, userID string) (models.RawPackage, error) {
	var resp struct {
		Get *models.RawPackage `json:"getSellerPackages"`
	}
	err := c.gql.Execute(ctx, getQuery, map[string]any{"packageId": packageID, "userId": userID}, &resp)
	if err != nil {
		return models.RawPackage{}, errors.Wrap(err, "get package")
	}
	if resp.Get == nil {
		return models.RawPackage{}, errors.Wrapf(gateway.ErrNotFound, "package %s", packageID)
	}
	return *resp.Get, nil
}
