// Package report renders evaluation reports for delivery: HTML text
// for chat messages and a PDF for attaching to contracts.
package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/nik997414-ui/Contragent-bot/internal/affiliates"
	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/risk"
)

// RenderText builds the chat message for a report, formatted with
// Telegram HTML tags. Every section tolerates missing data.
func RenderText(r *model.Report) string {
	c := r.Company
	lines := []string{
		fmt.Sprintf("%s <b>%s</b>", r.Verdict.Emoji(), strings.ToUpper(r.Verdict.Text())),
		"",
		fmt.Sprintf("<b>%s</b>", html.EscapeString(c.DisplayName())),
		fmt.Sprintf("ИНН: <code>%s</code>", html.EscapeString(c.INN)),
		"",
		"<b>📊 Светофор рисков:</b>",
	}
	for _, f := range r.Factors {
		lines = append(lines, fmt.Sprintf("  %s %s: %s", f.Severity.Emoji(), f.Name, html.EscapeString(f.Value)))
	}

	lines = append(lines, "")
	lines = append(lines, financeLines(c.Finance)...)

	lines = append(lines, sourceLines(r)...)

	manager := c.ManagerName
	if manager == "" {
		manager = "Не указан"
	}
	address := c.Address
	if address == "" {
		address = "Не указан"
	}
	okved := c.OKVED
	if okved == "" {
		okved = "Н/Д"
	}
	lines = append(lines,
		"",
		fmt.Sprintf("<b>👤 Руководитель:</b> %s", html.EscapeString(manager)),
		fmt.Sprintf("<b>📍 Адрес:</b> %s", html.EscapeString(address)),
		fmt.Sprintf("<b>🏭 ОКВЭД:</b> %s", html.EscapeString(okved)),
	)

	lines = append(lines, affiliateLines(r.Affiliates)...)

	lines = append(lines,
		"",
		fmt.Sprintf("<i>Отчет сформирован: %s</i>", r.GeneratedAt.Format("02.01.2006 15:04")),
	)
	return strings.Join(lines, "\n")
}

func financeLines(f *model.Finance) []string {
	header := "<b>💰 Финансы:</b>"
	if f != nil && f.Year != 0 {
		header = fmt.Sprintf("<b>💰 Финансы (%d г.):</b>", f.Year)
	}
	lines := []string{header}

	if f != nil && f.Revenue != nil {
		lines = append(lines, fmt.Sprintf("  📈 Выручка: %s", risk.FormatMoney(*f.Revenue)))
	} else {
		lines = append(lines, "  📈 Выручка: Данных нет")
	}

	var profit *float64
	if f != nil {
		switch {
		case f.Income != nil && f.Expense != nil:
			p := *f.Income - *f.Expense
			profit = &p
		case f.Profit != nil:
			profit = f.Profit
		}
	}
	if profit != nil {
		emoji := "📈"
		if *profit < 0 {
			emoji = "📉"
		}
		lines = append(lines, fmt.Sprintf("  %s Прибыль: %s", emoji, risk.FormatMoney(*profit)))
	} else {
		lines = append(lines, "  📊 Прибыль: Данных нет")
	}
	return lines
}

func sourceLines(r *model.Report) []string {
	var lines []string
	lines = append(lines, enforcementLines(r.Sources[model.SourceEnforcement])...)
	lines = append(lines, courtLines(r.Sources[model.SourceCourts])...)
	lines = append(lines, limitLines(r.Sources[model.SourceLimits])...)
	if disq, ok := r.Sources[model.SourceDisqualification]; ok {
		lines = append(lines, disqualificationLines(disq)...)
	}
	return lines
}

func enforcementLines(res *model.SourceResult) []string {
	if res == nil {
		return nil
	}
	if !res.OK() {
		return []string{"", "⚪ <b>ФССП:</b> Данные недоступны"}
	}
	if !res.Found || res.Total == 0 {
		return []string{"", "📋 <b>ФССП:</b> Исполнительных производств нет ✅"}
	}

	emoji := "🟢"
	switch {
	case res.Sum > 100000:
		emoji = "🔴"
	case res.Sum > 0:
		emoji = "🟡"
	}
	lines := []string{"", fmt.Sprintf("%s <b>ФССП:</b> %d производств на %s", emoji, res.Total, formatSum(res.Sum))}

	for i, item := range res.Items {
		if i == 3 {
			break
		}
		title := item.Title
		if title == "" {
			title = "Задолженность"
		}
		lines = append(lines, fmt.Sprintf("  • %s", html.EscapeString(truncate(title, 40))))
	}
	return lines
}

func courtLines(res *model.SourceResult) []string {
	if res == nil {
		return nil
	}
	if !res.OK() {
		return []string{"", "⚪ <b>Арбитраж:</b> Данные недоступны"}
	}
	if !res.Found || res.Total == 0 {
		return []string{"", "⚖️ <b>Арбитраж:</b> Дел не найдено ✅"}
	}

	stats := res.Court
	if stats == nil {
		stats = &model.CourtStats{}
	}
	emoji := "🟢"
	note := ""
	switch {
	case stats.Bankruptcy > 0:
		emoji = "🔴"
		note = " (БАНКРОТСТВО!)"
	case stats.Respondent > 3:
		emoji = "🔴"
	case stats.Respondent > 0:
		emoji = "🟡"
	}

	lines := []string{"", fmt.Sprintf("%s <b>Арбитраж:</b> %d дел%s", emoji, res.Total, note)}
	if stats.Plaintiff > 0 {
		lines = append(lines, fmt.Sprintf("  📤 Истец: %d дел", stats.Plaintiff))
	}
	if stats.Respondent > 0 {
		lines = append(lines, fmt.Sprintf("  📥 Ответчик: %d дел", stats.Respondent))
	}
	if stats.Bankruptcy > 0 {
		lines = append(lines, fmt.Sprintf("  💀 Банкротство: %d дел", stats.Bankruptcy))
	}
	for i, item := range res.Items {
		if i == 2 {
			break
		}
		lines = append(lines, fmt.Sprintf("  • %s (%s)",
			html.EscapeString(item.Number), html.EscapeString(truncate(item.Title, 25))))
	}
	return lines
}

func limitLines(res *model.SourceResult) []string {
	if res == nil {
		return nil
	}
	switch {
	case !res.OK():
		return []string{"", "⚪ <b>Ограничения ФНС:</b> Данные недоступны"}
	case res.Found:
		return []string{"", fmt.Sprintf("🔴 <b>Ограничения ФНС:</b> %d записей", res.Total)}
	default:
		return []string{"", "🟢 <b>Ограничения ФНС:</b> не найдены"}
	}
}

func disqualificationLines(res *model.SourceResult) []string {
	if res == nil {
		return nil
	}
	switch {
	case !res.OK():
		return []string{"", "⚪ <b>Дисквалификация:</b> Данные недоступны"}
	case res.Found:
		return []string{"", "🔴 <b>Директор ДИСКВАЛИФИЦИРОВАН!</b>"}
	default:
		return []string{"", "🟢 Дисквалификация: нет"}
	}
}

func affiliateLines(linked []model.Affiliate) []string {
	if len(linked) == 0 {
		return nil
	}
	count := len(linked)
	emoji, text := affiliates.Tier(count)

	lines := []string{
		"",
		fmt.Sprintf("<b>🔗 Связанные компании (%s %s):</b>", emoji, text),
		fmt.Sprintf("Руководитель связан еще с <b>%d</b> компаниями:", count),
	}
	for i, a := range linked {
		if i == 5 {
			break
		}
		statusEmoji := "🔴"
		if a.Status == "ACTIVE" {
			statusEmoji = "🟢"
		}
		lines = append(lines, fmt.Sprintf("  %s %s (ИНН: %s)", statusEmoji, html.EscapeString(a.Name), a.INN))
	}
	if count > 5 {
		lines = append(lines, fmt.Sprintf("  <i>...и еще %d компаний</i>", count-5))
	}
	return lines
}

// formatSum scales enforcement sums; the feed never reaches billions,
// so the scale stops at millions.
func formatSum(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1f млн ₽", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.0f тыс ₽", v/1_000)
	default:
		return fmt.Sprintf("%.0f ₽", v)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
