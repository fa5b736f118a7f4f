package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// bankruptcyCaseType marks bankruptcy cases in the arbitration feed.
const bankruptcyCaseType = "Б"

type arbitrParty struct {
	Inn string `json:"Inn"`
}

type arbitrCase struct {
	CaseNumber  string        `json:"CaseNumber"`
	CaseType    string        `json:"CaseType"`
	Court       string        `json:"Court"`
	Plaintiffs  []arbitrParty `json:"Plaintiffs"`
	Respondents []arbitrParty `json:"Respondents"`
}

type arbitrResponse struct {
	Success    int          `json:"Success"`
	Error      string       `json:"error"`
	PagesCount int          `json:"PagesCount"`
	Cases      []arbitrCase `json:"Cases"`
}

// CheckCourts searches arbitration cases by tax ID and classifies them
// by the entity's role in each case and by bankruptcy case type.
func (c *Client) CheckCourts(ctx context.Context, inn string) model.SourceResult {
	if !c.Enabled() {
		return model.SourceResult{Err: errNotConfigured}
	}

	body, err := c.get(ctx, "arbitr_api/search", url.Values{"Inn": {inn}})
	if err != nil {
		return unavailable(err)
	}

	var parsed arbitrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return unavailable(fmt.Errorf("arbitr decode: %w", err))
	}
	if parsed.Success != 1 {
		return model.SourceResult{Err: parsed.Error}
	}

	stats := &model.CourtStats{}
	for _, cs := range parsed.Cases {
		if cs.CaseType == bankruptcyCaseType {
			stats.Bankruptcy++
		}
		for _, p := range cs.Plaintiffs {
			if p.Inn == inn {
				stats.Plaintiff++
				break
			}
		}
		for _, r := range cs.Respondents {
			if r.Inn == inn {
				stats.Respondent++
				break
			}
		}
	}

	result := model.SourceResult{
		Found: len(parsed.Cases) > 0,
		Total: len(parsed.Cases),
		Court: stats,
	}
	for i, cs := range parsed.Cases {
		if i == 5 {
			break
		}
		result.Items = append(result.Items, model.SourceItem{
			Title:  cs.Court,
			Number: cs.CaseNumber,
		})
	}
	return result
}
