package model

import "time"

// Canonical keys of the auxiliary sources in Report.Sources.
const (
	SourceEnforcement      = "fssp"
	SourceCourts           = "arbitr"
	SourceLimits           = "limits"
	SourceDisqualification = "disqualified"
)

// SourceItem is one displayable row from an auxiliary source
// (a debt subject, a court case and so on).
type SourceItem struct {
	Title  string
	Number string
}

// CourtStats breaks arbitration cases down by the company's role.
type CourtStats struct {
	Plaintiff  int
	Respondent int
	Bankruptcy int
}

// SourceResult is the outcome of one auxiliary source query. A failed
// call is still a result: Found=false with Err set. Absence of one
// source never invalidates the others.
type SourceResult struct {
	Found bool
	Total int
	Sum   float64      // enforcement proceedings only
	Items []SourceItem // first few entries, for display
	Court *CourtStats  // arbitration only
	Err   string       // cause when the call failed, empty otherwise
}

// OK reports whether the source answered at all (found or confirmed empty).
func (r *SourceResult) OK() bool {
	return r != nil && r.Err == ""
}

// Affiliate is another company linked to the evaluated company's
// manager by fuzzy name match.
type Affiliate struct {
	Name     string
	INN      string
	Status   string
	Position string
}

// Report is the full evaluation result: company record, risk verdict
// with ordered factors, auxiliary source results and affiliates.
// A snapshot; never mutated after construction.
type Report struct {
	ID          string
	Company     *Company
	Verdict     Verdict
	Factors     []RiskFactor
	Sources     map[string]*SourceResult
	Affiliates  []Affiliate
	GeneratedAt time.Time
	Elapsed     time.Duration
}

// SourcesOK counts auxiliary sources that answered without error.
func (r *Report) SourcesOK() int {
	n := 0
	for _, s := range r.Sources {
		if s.OK() {
			n++
		}
	}
	return n
}
