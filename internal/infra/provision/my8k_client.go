package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/config"
	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
	"iptv-subscription-platform/internal/infra/metrics"
)

// My8kClient talks to the my8k reseller panel. Failure classification is the
// contract here: a structured rejection from the panel (bad package code,
// insufficient credits) wraps domain.ErrProvisioningRejected and must not be
// retried; timeouts and connection errors wrap domain.ErrProvisioningTransport
// and the caller's queue schedules another attempt.
type My8kClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zerolog.Logger
}

var _ adapter.Provisioner = (*My8kClient)(nil)

func NewMy8kClient(cfg config.ProvisioningConfig, logger *zerolog.Logger) *My8kClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &My8kClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// panelResponse covers the two shapes the panel has been observed to return:
// explicit credential fields, or everything packed into a single url whose
// query string carries username/password.
type panelResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	M3UURL   string `json:"m3u_url"`
	URL      string `json:"url"`
}

func (r *panelResponse) ok() bool {
	return r.Status == "OK" || r.Status == "true"
}

func (c *My8kClient) CreateAccount(ctx context.Context, plan *model.Plan, note string) (*adapter.ProvisionResult, error) {
	body := map[string]any{
		"action":   "new",
		"package":  plan.PackageCode,
		"duration": plan.DurationDays,
		"max_conn": plan.Connections,
		"note":     note,
	}
	return c.call(ctx, "create", body)
}

func (c *My8kClient) ExtendAccount(ctx context.Context, username string, plan *model.Plan) (*adapter.ProvisionResult, error) {
	body := map[string]any{
		"action":   "extend",
		"username": username,
		"package":  plan.PackageCode,
		"duration": plan.DurationDays,
	}
	return c.call(ctx, "extend", body)
}

func (c *My8kClient) SuspendAccount(ctx context.Context, username string) error {
	body := map[string]any{
		"action":   "disable",
		"username": username,
	}
	_, err := c.call(ctx, "suspend", body)
	return err
}

func (c *My8kClient) call(ctx context.Context, action string, body map[string]any) (*adapter.ProvisionResult, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal panel request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/lines", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("build panel request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ObserveProvisioning(time.Since(start).Seconds())
	if err != nil {
		metrics.IncProvisioning(action, "transport")
		c.log.Warn().Err(err).Str("action", action).Msg("panel request failed")
		return nil, fmt.Errorf("panel request: %v: %w", err, domain.ErrProvisioningTransport)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncProvisioning(action, "transport")
		return nil, fmt.Errorf("read panel response: %w", domain.ErrProvisioningTransport)
	}
	if resp.StatusCode >= 500 {
		metrics.IncProvisioning(action, "transport")
		return nil, fmt.Errorf("panel status %d: %w", resp.StatusCode, domain.ErrProvisioningTransport)
	}

	var pr panelResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		metrics.IncProvisioning(action, "transport")
		return nil, fmt.Errorf("unmarshal panel response: %v, body: %s: %w", err, string(raw), domain.ErrProvisioningTransport)
	}

	if !pr.ok() {
		metrics.IncProvisioning(action, "rejected")
		c.log.Warn().Str("action", action).Str("message", pr.Message).Msg("panel rejected request")
		return nil, fmt.Errorf("%s: %w", pr.Message, domain.ErrProvisioningRejected)
	}

	metrics.IncProvisioning(action, "success")
	return extractResult(&pr), nil
}

// extractResult pulls credentials out of either response shape and derives
// the streaming server host:port from whatever URL field is present.
func extractResult(pr *panelResponse) *adapter.ProvisionResult {
	out := &adapter.ProvisionResult{
		UpstreamID: pr.ID,
		Username:   pr.Username,
		Password:   pr.Password,
		M3UURL:     pr.M3UURL,
	}

	rawURL := pr.M3UURL
	if rawURL == "" {
		rawURL = pr.URL
	}
	if rawURL == "" {
		return out
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return out
	}
	out.ServerURL = u.Host

	// Shape (b): credentials embedded as query parameters in a single url.
	q := u.Query()
	if out.Username == "" {
		out.Username = q.Get("username")
	}
	if out.Password == "" {
		out.Password = q.Get("password")
	}
	if out.M3UURL == "" {
		out.M3UURL = rawURL
	}
	return out
}
