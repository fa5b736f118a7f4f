package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// fsspResponse is the FSSP search payload.
type fsspResponse struct {
	Done   int    `json:"done"`
	Error  string `json:"error"`
	URL    string `json:"url"`
	Result []struct {
		Subjects []struct {
			Title string `json:"title"`
			Sum   string `json:"sum"`
		} `json:"subjects"`
	} `json:"result"`
}

// CheckEnforcement looks up active enforcement proceedings against a
// legal entity and sums the claimed amounts across all of them.
func (c *Client) CheckEnforcement(ctx context.Context, inn string) model.SourceResult {
	if !c.Enabled() {
		return model.SourceResult{Err: errNotConfigured}
	}

	body, err := c.get(ctx, "fssp_api/search_ur_by_inn", url.Values{"inn": {inn}})
	if err != nil {
		return unavailable(err)
	}

	var parsed fsspResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return unavailable(fmt.Errorf("fssp decode: %w", err))
	}
	if parsed.Done != 1 {
		return model.SourceResult{Err: parsed.Error}
	}

	var sum float64
	for _, item := range parsed.Result {
		for _, subj := range item.Subjects {
			sum += parseAmount(subj.Sum)
		}
	}

	result := model.SourceResult{
		Found: true,
		Total: len(parsed.Result),
		Sum:   sum,
	}
	for i, item := range parsed.Result {
		if i == 5 {
			break
		}
		entry := model.SourceItem{}
		if len(item.Subjects) > 0 {
			entry.Title = item.Subjects[0].Title
		}
		result.Items = append(result.Items, entry)
	}
	return result
}

// parseAmount converts a registry money string to a float. The feed
// uses space-grouped digits with a comma decimal separator; entries
// that still fail to parse contribute zero rather than aborting the
// whole sum.
func parseAmount(s string) float64 {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
