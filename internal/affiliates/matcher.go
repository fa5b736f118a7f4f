// Package affiliates finds companies linked to a person through the
// listed manager, by fuzzy name-token matching over a registry name
// search.
package affiliates

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/nik997414-ui/Contragent-bot/internal/dadata"
	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// DefaultLimit caps the affiliate list when the caller has no own cap.
const DefaultLimit = 10

// overFetch is the extra margin requested from the name search to
// compensate for candidates dropped by the exclusion and name filters.
const overFetch = 5

// Suggester is the name-search source the matcher queries.
type Suggester interface {
	SuggestParties(ctx context.Context, query string, count int) ([]dadata.Party, error)
}

// Matcher filters name-search candidates down to entities actually
// managed by the person.
type Matcher struct {
	source Suggester
}

func NewMatcher(source Suggester) *Matcher {
	return &Matcher{source: source}
}

// Find returns up to limit companies whose listed manager matches the
// person's name. The entity under evaluation is excluded by tax ID.
// Source ordering is preserved; no re-ranking.
func (m *Matcher) Find(ctx context.Context, personName, excludeINN string, limit int) ([]model.Affiliate, error) {
	parties, err := m.source.SuggestParties(ctx, personName, limit+overFetch)
	if err != nil {
		return nil, err
	}

	tokens := nameTokens(personName)
	var out []model.Affiliate
	for _, p := range parties {
		if excludeINN != "" && p.INN == excludeINN {
			continue
		}
		if !matches(tokens, p.ManagerName) {
			continue
		}

		name := p.NameShort
		if name == "" {
			name = p.Value
		}
		if name == "" {
			name = "Неизвестно"
		}
		status := p.Status
		if status == "" {
			status = "UNKNOWN"
		}
		position := p.ManagerPost
		if position == "" {
			position = "Руководитель"
		}

		out = append(out, model.Affiliate{
			Name:     name,
			INN:      p.INN,
			Status:   status,
			Position: position,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// nameTokens splits a person's name into lower-cased tokens, dropping
// short fragments (initials, patronymic particles).
func nameTokens(name string) []string {
	var tokens []string
	for _, part := range strings.Fields(strings.ToLower(name)) {
		if utf8.RuneCountInString(part) > 2 {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// matches reports whether any name token occurs in the candidate's
// manager field, case-insensitively.
func matches(tokens []string, manager string) bool {
	lower := strings.ToLower(manager)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Tier grades the affiliate count: ten or more companies mark a mass
// director, five or more an elevated load.
func Tier(count int) (emoji, text string) {
	switch {
	case count >= 10:
		return "🔴", "МАССОВЫЙ ДИРЕКТОР"
	case count >= 5:
		return "🟡", "Много компаний"
	default:
		return "🟢", "Норма"
	}
}
