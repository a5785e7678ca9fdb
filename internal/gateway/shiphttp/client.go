// Package shiphttp — клиент serverless endpoint'а, создающего отгрузку.
package shiphttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/models"
)

type Client struct {
	url   string
	httpc *http.Client
}

func New(url string) *Client {
	return &Client{
		url:   url,
		httpc: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateShippingOrder отправляет команду отгрузки. Endpoint иногда
// оборачивает полезную нагрузку в {"data": ...}, иногда отдаёт её плоско.
func (c *Client) CreateShippingOrder(ctx context.Context, req models.ShipRequest) (models.ShippingOrder, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.ShippingOrder{}, errors.Wrap(err, "marshal ship request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.ShippingOrder{}, errors.Wrap(err, "build ship request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return models.ShippingOrder{}, errors.Wrap(err, "ship request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ShippingOrder{}, errors.Wrap(err, "read ship response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Message != "" {
			return models.ShippingOrder{}, errors.Errorf("ship endpoint: %s", failure.Message)
		}
		return models.ShippingOrder{}, errors.Errorf("ship endpoint returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data *models.ShippingOrder `json:"data"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Data != nil {
		return *envelope.Data, nil
	}
	var order models.ShippingOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return models.ShippingOrder{}, errors.Wrap(err, "decode ship response")
	}
	return order, nil
}
