package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"iptv-subscription-platform/internal/config"
	"iptv-subscription-platform/internal/domain"
)

// Client talks to the WooCommerce REST API (v3) with consumer-key basic auth.
// It is used to pull product definitions for plan sync and to push order
// status back to the storefront after provisioning.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	client         *http.Client
}

func NewClient(cfg config.WooCommerceConfig) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Available() bool {
	return c.baseURL != "" && c.consumerKey != "" && c.consumerSecret != ""
}

// Product is a WooCommerce product mapped onto a plan.
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Status   string `json:"status"`
	MetaData []struct {
		Key   string      `json:"key"`
		Value interface{} `json:"value"`
	} `json:"meta_data"`
}

// Meta returns the string value of a product meta field, empty when absent.
// Plan attributes (package code, duration, connections) ride on product meta.
func (p *Product) Meta(key string) string {
	for _, m := range p.MetaData {
		if m.Key == key {
			return fmt.Sprintf("%v", m.Value)
		}
	}
	return ""
}

func (c *Client) ListProducts(ctx context.Context) ([]*Product, error) {
	var out []*Product
	if err := c.get(ctx, "/wp-json/wc/v3/products?per_page=100&status=publish", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*OrderEvent, error) {
	var out OrderEvent
	if err := c.get(ctx, fmt.Sprintf("/wp-json/wc/v3/orders/%d", orderID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteOrder marks the storefront order fulfilled once provisioning is done.
func (c *Client) CompleteOrder(ctx context.Context, orderID int64, note string) error {
	body := map[string]any{"status": "completed"}
	if note != "" {
		body["customer_note"] = note
	}
	return c.put(ctx, fmt.Sprintf("/wp-json/wc/v3/orders/%d", orderID), body, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build woocommerce request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) put(ctx context.Context, path string, body map[string]any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal woocommerce request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("build woocommerce request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("woocommerce request: %v: %w", err, domain.ErrGatewayRequestFail)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read woocommerce response: %w", domain.ErrGatewayRequestFail)
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("woocommerce status %d: %s: %w", resp.StatusCode, string(raw), domain.ErrGatewayRequestFail)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal woocommerce response: %w", domain.ErrGatewayRequestFail)
	}
	return nil
}
