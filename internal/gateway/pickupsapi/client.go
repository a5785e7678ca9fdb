// Package pickupsapi — клиент GraphQL API запланированных заборов.
package pickupsapi

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/gateway/graphql"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

const listQuery = `query ListSellerPickups($userId: String!, $limit: Int, $nextToken: String) {
  listSellerPickups(filter: {userId: {eq: $userId}}, limit: $limit, nextToken: $nextToken) {
    items {
      pickupId
      userId
      address
      pickupDate
      readyTime
      closeTime
      itemCount
      weight
      contactName
      phoneNumber
      status
      createdAt
      referenceNumber
      shopId
    }
    nextToken
  }
}`

type Client struct {
	gql *graphql.Client
}

func New(gql *graphql.Client) *Client {
	return &Client{gql: gql}
}

// ListScheduledPickups листает заборы offset'ом: токен у этого API —
// просто строковый offset.
func (c *Client) ListScheduledPickups(ctx context.Context, userID string, limit, offset int) ([]models.RawPickup, bool, error) {
	variables := map[string]any{"userId": userID, "limit": limit}
	if offset > 0 {
		variables["nextToken"] = strconv.Itoa(offset)
	}

	var resp struct {
		List *struct {
			Items     []models.RawPickup `json:"items"`
			NextToken *string            `json:"nextToken"`
		} `json:"listSellerPickups"`
	}
	if err := c.gql.Execute(ctx, listQuery, variables, &resp); err != nil {
		return nil, false, errors.Wrap(err, "list pickups")
	}
	if resp.List == nil {
		return []models.RawPickup{}, false, nil
	}
	items := resp.List.Items
	if items == nil {
		items = []models.RawPickup{}
	}
	return items, resp.List.NextToken != nil, nil
}
