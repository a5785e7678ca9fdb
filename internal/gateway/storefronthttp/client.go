// Package storefronthttp — клиент serverless endpoint'ов авторизации
// магазина и смены провайдера доставки.
package storefronthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Client struct {
	authURL     string
	providerURL string
	httpc       *http.Client

	// Подменяется в тестах для детерминированного cache-bust параметра.
	now func() time.Time
}

func New(authURL, providerURL string) *Client {
	return &Client{
		authURL:     authURL,
		providerURL: providerURL,
		httpc:       &http.Client{Timeout: 30 * time.Second},
		now:         time.Now,
	}
}

// bustURL добавляет к URL метку времени: эти endpoint'ы стоят за CDN,
// который охотно кэширует POST-ответы.
func (c *Client) bustURL(base string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "t=" + strconv.FormatInt(c.now().UnixMilli(), 10)
}

func (c *Client) post(ctx context.Context, url string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bustURL(url), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "storefront request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read storefront response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("storefront endpoint returned status %d: %s", resp.StatusCode, string(raw))
	}

	// Некоторые из этих endpoint'ов отвечают plain text.
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"message": string(raw)}, nil
	}
	return out, nil
}

// ExchangeAuthCode меняет одноразовый код авторизации на токены магазина.
func (c *Client) ExchangeAuthCode(ctx context.Context, userID, authCode string) (map[string]any, error) {
	out, err := c.post(ctx, c.authURL, map[string]any{"userId": userID, "auth_code": authCode})
	if err != nil {
		return nil, errors.Wrap(err, "exchange auth code")
	}
	return out, nil
}

// UpdateShippingProvider переключает провайдера доставки магазина.
func (c *Client) UpdateShippingProvider(ctx context.Context, userID, providerID string) (map[string]any, error) {
	out, err := c.post(ctx, c.providerURL, map[string]any{"userId": userID, "providerId": providerID})
	if err != nil {
		return nil, errors.Wrap(err, "update shipping provider")
	}
	return out, nil
}
