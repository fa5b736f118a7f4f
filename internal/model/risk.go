package model

// Severity is the tier of a single risk factor.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

// Emoji returns the traffic-light symbol for the tier.
func (s Severity) Emoji() string {
	switch s {
	case SeverityCritical:
		return "🔴"
	case SeverityWarning:
		return "🟡"
	default:
		return "🟢"
	}
}

// Verdict is the overall risk classification of a company.
type Verdict string

const (
	VerdictLow    Verdict = "LOW"
	VerdictMedium Verdict = "MEDIUM"
	VerdictHigh   Verdict = "HIGH"
)

// Emoji returns the traffic-light symbol for the verdict.
func (v Verdict) Emoji() string {
	switch v {
	case VerdictHigh:
		return "🔴"
	case VerdictMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// Text returns the Russian user-facing label for the verdict.
func (v Verdict) Text() string {
	switch v {
	case VerdictHigh:
		return "Высокий риск"
	case VerdictMedium:
		return "Средний риск"
	default:
		return "Низкий риск"
	}
}

// RiskFactor is a single scored aspect of the company. Factors are
// reported in evaluation order; the order is part of the contract.
type RiskFactor struct {
	Name     string
	Value    string
	Severity Severity
}
