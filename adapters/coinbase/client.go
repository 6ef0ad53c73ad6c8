package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jdelaire/ratesbot/core/rates"
)

const (
	DefaultBaseURL = "https://api.coinbase.com/v2/prices"
	httpTimeout    = 15 * time.Second
	maxBodyBytes   = 64 * 1024
)

// priceResponse is the body of GET /v2/prices/{pair}/{type}:
//
//	{"data":{"base":"BTC","currency":"EUR","amount":"9000.00"}}
type priceResponse struct {
	Data *struct {
		Amount json.RawMessage `json:"amount"`
	} `json:"data"`
}

// Client fetches prices from the Coinbase public API.
type Client struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a Coinbase client.
func New(logger *slog.Logger) *Client {
	return &Client{
		client:  &http.Client{Timeout: httpTimeout},
		baseURL: DefaultBaseURL,
		logger:  logger,
	}
}

// WithBaseURL overrides the prices endpoint (for testing or a proxy).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Price requests one rate type for pair. Network failures are returned as
// errors; a body without data.amount yields an error quote.
func (c *Client) Price(ctx context.Context, pair rates.Pair, t rates.RateType) (rates.Quote, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(pair.String()), t.Path())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return rates.Quote{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return rates.Quote{}, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return rates.Quote{}, fmt.Errorf("read body: %w", err)
	}

	amount, ok := extractAmount(body)
	if !ok {
		c.logger.Debug("price unavailable", "pair", pair.String(), "rate_type", t.String(), "status", resp.StatusCode)
		return rates.ErrorQuote(t), nil
	}
	return rates.NewQuote(t, amount), nil
}

// extractAmount reads data.amount from a price body. The API sends the
// amount as a string; a bare number is accepted as-is.
func extractAmount(body []byte) (string, bool) {
	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", false
	}
	if pr.Data == nil || len(pr.Data.Amount) == 0 || string(pr.Data.Amount) == "null" {
		return "", false
	}

	var s string
	if err := json.Unmarshal(pr.Data.Amount, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(pr.Data.Amount, &n); err == nil {
		return n.String(), true
	}
	return "", false
}
