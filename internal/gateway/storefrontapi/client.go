// Package storefrontapi — клиент GraphQL API подключений магазина.
package storefrontapi

import (
	"context"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/gateway/graphql"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

const listQuery = `query ListSellerConnections($userId: String!) {
  listSellerConnections(filter: {userId: {eq: $userId}}, limit: 100) {
    items {
      id
      userId
      connectionId
      platform
      status
      sellerName
      shopId
      createdAt
      updatedAt
    }
  }
}`

type Client struct {
	gql *graphql.Client
}

func New(gql *graphql.Client) *Client {
	return &Client{gql: gql}
}

func (c *Client) ListConnections(ctx context.Context, userID string) ([]models.StorefrontConnection, error) {
	var resp struct {
		List *struct {
			Items []models.StorefrontConnection `json:"items"`
		} `json:"listSellerConnections"`
	}
	if err := c.gql.Execute(ctx, listQuery, map[string]any{"userId": userID}, &resp); err != nil {
		return nil, errors.Wrap(err, "list connections")
	}
	if resp.List == nil || resp.List.Items == nil {
		return []models.StorefrontConnection{}, nil
	}
	return resp.List.Items, nil
}
