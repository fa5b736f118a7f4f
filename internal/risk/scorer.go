// Package risk scores a company record into an ordered list of
// weighted factors and an overall verdict. Scoring is pure: no I/O,
// fully determined by the record and the evaluation time.
package risk

import (
	"fmt"
	"strings"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// Evaluate scores the company against the current time.
func Evaluate(c *model.Company) (model.Verdict, []model.RiskFactor) {
	return EvaluateAt(c, time.Now())
}

// EvaluateAt scores the company as of the given time. The six rules
// run in fixed order and each contributes exactly one factor; the
// output order is the rule order.
func EvaluateAt(c *model.Company, now time.Time) (model.Verdict, []model.RiskFactor) {
	var factors []model.RiskFactor
	critical := 0
	warnings := 0

	add := func(name, value string, sev model.Severity) {
		factors = append(factors, model.RiskFactor{Name: name, Value: value, Severity: sev})
		switch sev {
		case model.SeverityCritical:
			critical++
		case model.SeverityWarning:
			warnings++
		}
	}

	// 1. Registration status.
	switch c.Status {
	case "ACTIVE":
		add("Статус", "Действующая", model.SeverityOK)
	case "LIQUIDATING":
		add("Статус", "В процессе ликвидации", model.SeverityCritical)
	default:
		add("Статус", "Ликвидирована/Банкрот", model.SeverityCritical)
	}

	// 2. Company age. A missing registration date counts as zero days,
	// deliberately landing in the critical bucket.
	ageDays := daysSince(c.RegistrationMs, now)
	switch {
	case ageDays < 180:
		add("Возраст", fmt.Sprintf("%d дней", ageDays), model.SeverityCritical)
	case ageDays < 365:
		add("Возраст", fmt.Sprintf("%d дней", ageDays), model.SeverityWarning)
	default:
		add("Возраст", fmt.Sprintf("%d лет", ageDays/365), model.SeverityOK)
	}

	// 3. Registry validity flag.
	if c.Invalid {
		add("Достоверность", "Есть недостоверные сведения!", model.SeverityCritical)
	} else {
		add("Достоверность", "Сведения достоверны", model.SeverityOK)
	}

	// 4. Address verification code. Absent counts as confirmed.
	if c.AddressQC != nil && *c.AddressQC != 0 {
		add("Адрес", "Проблемы с адресом", model.SeverityWarning)
	} else {
		add("Адрес", "Адрес подтвержден", model.SeverityOK)
	}

	// 5. Registered capital.
	capitalStr := groupThousands(c.Capital) + " ₽"
	if c.Capital < 10000 {
		add("Уставный капитал", capitalStr, model.SeverityWarning)
	} else {
		add("Уставный капитал", capitalStr, model.SeverityOK)
	}

	// 6. Manager presence and tenure.
	if c.ManagerName != "" {
		dateMs := managerDate(c)
		if dateMs != 0 {
			days := daysSince(dateMs, now)
			dateStr := FormatDate(dateMs)
			switch {
			case days < 90:
				add("Руководитель", fmt.Sprintf("Назначен %s (недавно!)", dateStr), model.SeverityWarning)
			case days < 365:
				add("Руководитель", fmt.Sprintf("Назначен %s", dateStr), model.SeverityOK)
			default:
				add("Руководитель", fmt.Sprintf("Назначен %s (%d лет)", dateStr, days/365), model.SeverityOK)
			}
		} else {
			add("Руководитель", "Указан (дата неизвестна)", model.SeverityOK)
		}
	} else {
		add("Руководитель", "Не указан", model.SeverityWarning)
	}

	switch {
	case critical > 0:
		return model.VerdictHigh, factors
	case warnings >= 2:
		return model.VerdictMedium, factors
	default:
		return model.VerdictLow, factors
	}
}

// managerDate resolves the manager's appointment date: first the
// manager-history entry whose surname appears in the manager's full
// name, then the registry actuality date, then unknown. The fallback
// order affects the verdict in ambiguous cases and is kept as is.
func managerDate(c *model.Company) int64 {
	var dateMs int64
	for _, m := range c.Managers {
		if strings.Contains(c.ManagerName, m.Surname) {
			dateMs = m.DateMs
			break
		}
	}
	if dateMs == 0 {
		dateMs = c.ActualityMs
	}
	return dateMs
}

// daysSince converts a millisecond epoch timestamp to whole days
// before now. Zero or future timestamps yield non-positive values.
func daysSince(ms int64, now time.Time) int {
	if ms == 0 {
		return 0
	}
	t := time.UnixMilli(ms)
	return int(now.Sub(t).Hours() / 24)
}

// FormatDate renders a millisecond epoch timestamp as dd.mm.yyyy.
func FormatDate(ms int64) string {
	if ms == 0 {
		return "Неизвестно"
	}
	return time.UnixMilli(ms).Format("02.01.2006")
}

// FormatMoney renders a positive amount with a scale suffix. Negative
// amounts (a loss) stay unscaled.
func FormatMoney(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.1f млрд ₽", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.1f млн ₽", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.0f тыс ₽", v/1_000)
	default:
		return fmt.Sprintf("%.0f ₽", v)
	}
}

// groupThousands renders a whole amount with space-separated digit
// groups ("1 500 000").
func groupThousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
