package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// nalogResponse covers both transparency-register lookups; only the
// list relevant to the requested type is populated.
type nalogResponse struct {
	Success  int               `json:"success"`
	Error    string            `json:"error"`
	LimitOrg []json.RawMessage `json:"limit_org"`
	Dis      []json.RawMessage `json:"dis"`
}

func (c *Client) nalog(ctx context.Context, params url.Values) (*nalogResponse, error) {
	body, err := c.get(ctx, "nalog_pb_api/", params)
	if err != nil {
		return nil, err
	}
	var parsed nalogResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("nalog decode: %w", err)
	}
	return &parsed, nil
}

// CheckLimits reports whether the tax service lists registration
// restrictions for the entity. A presence check; item details beyond
// the count are not extracted.
func (c *Client) CheckLimits(ctx context.Context, inn string) model.SourceResult {
	if !c.Enabled() {
		return model.SourceResult{Err: errNotConfigured}
	}

	parsed, err := c.nalog(ctx, url.Values{"type": {"TYPE_SEARCH_LIMIT_ORG"}, "inn": {inn}})
	if err != nil {
		return unavailable(err)
	}
	if parsed.Success != 1 {
		return model.SourceResult{Err: parsed.Error}
	}
	return model.SourceResult{
		Found: len(parsed.LimitOrg) > 0,
		Total: len(parsed.LimitOrg),
	}
}

// CheckDisqualified reports whether a person appears in the register
// of disqualified officers, keyed by full name.
func (c *Client) CheckDisqualified(ctx context.Context, fio string) model.SourceResult {
	if !c.Enabled() {
		return model.SourceResult{Err: errNotConfigured}
	}

	parsed, err := c.nalog(ctx, url.Values{"type": {"TYPE_SEARCH_DIS"}, "fio": {fio}})
	if err != nil {
		return unavailable(err)
	}
	if parsed.Success != 1 {
		return model.SourceResult{Err: parsed.Error}
	}
	return model.SourceResult{
		Found: len(parsed.Dis) > 0,
		Total: len(parsed.Dis),
	}
}
