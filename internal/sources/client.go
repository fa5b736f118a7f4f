// Package sources wraps the api-assist.com registries: enforcement
// proceedings (FSSP), arbitration courts (kad.arbitr.ru) and the tax
// service transparency register (pb.nalog.ru). Every check returns a
// model.SourceResult and never an error; failures are folded into the
// result so one broken registry cannot sink a whole evaluation.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

const errNotConfigured = "api key not configured"

// Client talks to the api-assist.com parser endpoints.
type Client struct {
	BaseURL string
	Key     string
	HTTP    *http.Client
}

// New creates an api-assist client. An empty key leaves the client
// disabled: every check reports the source as unavailable.
func New(baseURL, key, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		BaseURL: baseURL,
		Key:     key,
		HTTP: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Enabled reports whether the client has credentials to make calls.
// Disabled clients are skipped by the orchestrator and not metered.
func (c *Client) Enabled() bool { return c.Key != "" }

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("key", c.Key)
	u := fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api-assist fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api-assist read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api-assist: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// unavailable folds a transport or decode failure into a result the
// report renderer can show as "data unavailable".
func unavailable(err error) model.SourceResult {
	return model.SourceResult{Err: err.Error()}
}
