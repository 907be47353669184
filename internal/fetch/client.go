// Package fetch retrieves raw transaction batches from the upstream
// property data provider. The provider splits the market into four batch
// keys; one fetch cycle pulls all of them and concatenates the groups.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"property-analytics/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout    = 60 * time.Second
	DefaultBatchCount = 4

	salesService   = "PMI_Resi_Transaction"
	rentalsService = "PMI_Resi_Rental_Median"
)

// Client pulls sale and rental batches over HTTP.
type Client struct {
	baseURL    string
	accessKey  string
	client     *http.Client
	batchCount int
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithBatchCount overrides the number of sale batches pulled per cycle.
func WithBatchCount(n int) ClientOption {
	return func(c *Client) {
		c.batchCount = n
	}
}

// NewClient creates an upstream client for the given base URL and access key.
func NewClient(baseURL, accessKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		accessKey:  accessKey,
		client:     &http.Client{Timeout: DefaultTimeout},
		batchCount: DefaultBatchCount,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the provider's response wrapper.
type envelope struct {
	Status  string          `json:"Status"`
	Message string          `json:"Message"`
	Result  json.RawMessage `json:"Result"`
}

// FetchSales pulls every sale batch and concatenates the project groups.
// A failed batch fails the whole cycle; partial data would skew every
// aggregate downstream.
func (c *Client) FetchSales(ctx context.Context) ([]domain.ProjectSaleGroup, error) {
	var all []domain.ProjectSaleGroup
	for batch := 1; batch <= c.batchCount; batch++ {
		var groups []domain.ProjectSaleGroup
		if err := c.call(ctx, salesService, batch, &groups); err != nil {
			return nil, fmt.Errorf("sales batch %d: %w", batch, err)
		}
		all = append(all, groups...)
	}
	return all, nil
}

// FetchRentals pulls the rental contract groups. Rental data ships as a
// single batch.
func (c *Client) FetchRentals(ctx context.Context) ([]domain.ProjectRentalGroup, error) {
	var groups []domain.ProjectRentalGroup
	if err := c.call(ctx, rentalsService, 1, &groups); err != nil {
		return nil, fmt.Errorf("rentals: %w", err)
	}
	return groups, nil
}

// call performs one batch request and decodes the result into out.
func (c *Client) call(ctx context.Context, service string, batch int, out interface{}) error {
	url := fmt.Sprintf("%s?service=%s&batch=%d", c.baseURL, service, batch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("AccessKey", c.accessKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status != "" && env.Status != "Success" {
		return fmt.Errorf("provider status %q: %s", env.Status, env.Message)
	}
	if len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
