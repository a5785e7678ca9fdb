// Package pickuphttp — клиент serverless endpoint'а планирования забора.
package pickuphttp

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

func (c *Client) SchedulePickup(ctx context.Context, req models.PickupRequest) (models.PickupConfirmation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.PickupConfirmation{}, errors.Wrap(err, "marshal pickup request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.PickupConfirmation{}, errors.Wrap(err, "build pickup request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return models.PickupConfirmation{}, errors.Wrap(err, "pickup request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.PickupConfirmation{}, errors.Wrap(err, "read pickup response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Message != "" {
			return models.PickupConfirmation{}, errors.Errorf("pickup endpoint: %s", failure.Message)
		}
		return models.PickupConfirmation{}, errors.Errorf("pickup endpoint returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data *models.PickupConfirmation `json:"data"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Data != nil {
		return *envelope.Data, nil
	}
	var conf models.PickupConfirmation
	if err := json.Unmarshal(raw, &conf); err != nil {
		return models.PickupConfirmation{}, errors.Wrap(err, "decode pickup response")
	}
	return conf, nil
}
