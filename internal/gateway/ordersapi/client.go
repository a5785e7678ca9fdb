// Package ordersapi — клиент GraphQL API строк заказов.
package ordersapi

import (
	"context"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/gateway/graphql"
	"github.com/WishfulLabs/SellerBox/internal/models"
)

const itemFields = `
      orderId
      itemId
      createTime
      packageId
      price
      productId
      productName
      sellerSku
      skuId
      skuName
      status
      userId
      quantity`

const listByUserQuery = `query ListSellerOrderItems($userId: String!) {
  listSellerOrderItems(filter: {userId: {eq: $userId}}, limit: 1000) {
    items {` + itemFields + `
    }
  }
}`

const listByOrderQuery = `query ListSellerOrderItems($userId: String!, $orderId: String!) {
  listSellerOrderItems(filter: {userId: {eq: $userId}, orderId: {eq: $orderId}}, limit: 1000) {
    items {` + itemFields + `
    }
  }
}`

type Client struct {
	gql *graphql.Client
}

func New(gql *graphql.Client) *Client {
	return &Client{gql: gql}
}

type listResponse struct {
	List *struct {
		Items []models.OrderLineItem `json:"items"`
	} `json:"listSellerOrderItems"`
}

func (c *Client) list(ctx context.Context, query string, variables map[string]any) ([]models.OrderLineItem, error) {
	var resp listResponse
	if err := c.gql.Execute(ctx, query, variables, &resp); err != nil {
		return nil, errors.Wrap(err, "list order items")
	}
	// Отсутствующий блок в ответе считаем пустым списком.
	if resp.List == nil || resp.List.Items == nil {
		return []models.OrderLineItem{}, nil
	}
	return resp.List.Items, nil
}

func (c *Client) ListOrderItemsByUser(ctx context.Context, userID string) ([]models.OrderLineItem, error) {
	return c.list(ctx, listByUserQuery, map[string]any{"userId": userID})
}

func (c *Client) ListOrderItemsByOrder(ctx context.Context, userID, orderID string) ([]models.OrderLineItem, error) {
	return c.list(ctx, listByOrderQuery, map[string]any{"userId": userID, "orderId": orderID})
}
