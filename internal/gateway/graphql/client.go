// Package graphql — минимальный транспорт для AppSync-style endpoint'ов:
// POST {query, variables} с api-key заголовком.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Client struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
}

func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Execute выполняет запрос и раскладывает data в dst.
// GraphQL-ошибки склеиваются в одну через "; ".
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, dst any) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return errors.Wrap(err, "marshal graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "graphql request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("graphql endpoint returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrap(err, "decode graphql response")
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return errors.Errorf("graphql errors: %s", strings.Join(msgs, "; "))
	}
	if dst == nil || len(out.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(out.Data, dst); err != nil {
		return errors.Wrap(err, "unmarshal graphql data")
	}
	return nil
}
