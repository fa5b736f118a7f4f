package report

import (
	"strings"
	"testing"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func wantLine(t *testing.T, text, want string) {
	t.Helper()
	if !strings.Contains(text, want) {
		t.Errorf("report text missing %q\n---\n%s", want, text)
	}
}

func rejectLine(t *testing.T, text, fragment string) {
	t.Helper()
	if strings.Contains(text, fragment) {
		t.Errorf("report text must not contain %q", fragment)
	}
}

func fullReport() *model.Report {
	return &model.Report{
		ID: "r1",
		Company: &model.Company{
			INN:         "7707083893",
			OGRN:        "1027700132195",
			KPP:         "770701001",
			NameFull:    "ОБЩЕСТВО С ОГРАНИЧЕННОЙ ОТВЕТСТВЕННОСТЬЮ РОМАШКА",
			NameShort:   "ООО РОМАШКА",
			Status:      "ACTIVE",
			Address:     "г Москва, ул Ленина, д 1",
			OKVED:       "62.01",
			ManagerName: "Иванов Иван Иванович",
			ManagerPost: "ГЕНЕРАЛЬНЫЙ ДИРЕКТОР",
			Finance: &model.Finance{
				Year:    2023,
				Revenue: floatPtr(1_500_000),
				Profit:  floatPtr(300_000),
			},
		},
		Verdict: model.VerdictLow,
		Factors: []model.RiskFactor{
			{Name: "Статус", Value: "Действующая", Severity: model.SeverityOK},
			{Name: "Возраст", Value: "10 лет", Severity: model.SeverityOK},
		},
		Sources: map[string]*model.SourceResult{
			model.SourceEnforcement: {
				Found: true, Total: 2, Sum: 150_000,
				Items: []model.SourceItem{{Title: "Задолженность по налогам и сборам"}},
			},
			model.SourceCourts: {
				Found: true, Total: 3,
				Court: &model.CourtStats{Plaintiff: 1, Respondent: 2, Bankruptcy: 1},
				Items: []model.SourceItem{{Title: "АС города Москвы", Number: "А40-1/2024"}},
			},
			model.SourceLimits:           {Found: false},
			model.SourceDisqualification: {Found: false},
		},
		Affiliates: []model.Affiliate{
			{Name: "ООО ДРУГАЯ", INN: "1111111111", Status: "ACTIVE"},
			{Name: "ООО ТРЕТЬЯ", INN: "2222222222", Status: "LIQUIDATED"},
		},
		GeneratedAt: time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestRenderTextFullReport(t *testing.T) {
	text := RenderText(fullReport())

	wantLine(t, text, "🟢 <b>НИЗКИЙ РИСК</b>")
	wantLine(t, text, "<b>ОБЩЕСТВО С ОГРАНИЧЕННОЙ ОТВЕТСТВЕННОСТЬЮ РОМАШКА</b>")
	wantLine(t, text, "ИНН: <code>7707083893</code>")
	wantLine(t, text, "<b>📊 Светофор рисков:</b>")
	wantLine(t, text, "  🟢 Статус: Действующая")
	wantLine(t, text, "  🟢 Возраст: 10 лет")

	wantLine(t, text, "<b>💰 Финансы (2023 г.):</b>")
	wantLine(t, text, "  📈 Выручка: 1.5 млн ₽")
	wantLine(t, text, "  📈 Прибыль: 300 тыс ₽")

	wantLine(t, text, "🔴 <b>ФССП:</b> 2 производств на 150 тыс ₽")
	wantLine(t, text, "  • Задолженность по налогам и сборам")

	wantLine(t, text, "🔴 <b>Арбитраж:</b> 3 дел (БАНКРОТСТВО!)")
	wantLine(t, text, "  📤 Истец: 1 дел")
	wantLine(t, text, "  📥 Ответчик: 2 дел")
	wantLine(t, text, "  💀 Банкротство: 1 дел")
	wantLine(t, text, "  • А40-1/2024 (АС города Москвы)")

	wantLine(t, text, "🟢 <b>Ограничения ФНС:</b> не найдены")
	wantLine(t, text, "🟢 Дисквалификация: нет")

	wantLine(t, text, "<b>👤 Руководитель:</b> Иванов Иван Иванович")
	wantLine(t, text, "<b>📍 Адрес:</b> г Москва, ул Ленина, д 1")
	wantLine(t, text, "<b>🏭 ОКВЭД:</b> 62.01")

	wantLine(t, text, "<b>🔗 Связанные компании (🟢 Норма):</b>")
	wantLine(t, text, "Руководитель связан еще с <b>2</b> компаниями:")
	wantLine(t, text, "  🟢 ООО ДРУГАЯ (ИНН: 1111111111)")
	wantLine(t, text, "  🔴 ООО ТРЕТЬЯ (ИНН: 2222222222)")

	wantLine(t, text, "<i>Отчет сформирован: 15.05.2024 10:30</i>")
}

func TestRenderTextUnavailableSources(t *testing.T) {
	r := fullReport()
	r.Sources = map[string]*model.SourceResult{
		model.SourceEnforcement:      {Err: "timeout"},
		model.SourceCourts:           {Err: "status 500"},
		model.SourceLimits:           {Err: "timeout"},
		model.SourceDisqualification: {Err: "timeout"},
	}
	text := RenderText(r)

	wantLine(t, text, "⚪ <b>ФССП:</b> Данные недоступны")
	wantLine(t, text, "⚪ <b>Арбитраж:</b> Данные недоступны")
	wantLine(t, text, "⚪ <b>Ограничения ФНС:</b> Данные недоступны")
	wantLine(t, text, "⚪ <b>Дисквалификация:</b> Данные недоступны")
	rejectLine(t, text, "timeout")
}

func TestRenderTextCleanSources(t *testing.T) {
	r := fullReport()
	r.Sources = map[string]*model.SourceResult{
		model.SourceEnforcement:      {Found: true, Total: 0},
		model.SourceCourts:           {Found: false},
		model.SourceLimits:           {Found: false},
		model.SourceDisqualification: {Found: false},
	}
	text := RenderText(r)

	wantLine(t, text, "📋 <b>ФССП:</b> Исполнительных производств нет ✅")
	wantLine(t, text, "⚖️ <b>Арбитраж:</b> Дел не найдено ✅")
	wantLine(t, text, "🟢 <b>Ограничения ФНС:</b> не найдены")
	wantLine(t, text, "🟢 Дисквалификация: нет")
}

func TestRenderTextDisqualifiedManager(t *testing.T) {
	r := fullReport()
	r.Sources[model.SourceDisqualification] = &model.SourceResult{Found: true, Total: 1}
	text := RenderText(r)

	wantLine(t, text, "🔴 <b>Директор ДИСКВАЛИФИЦИРОВАН!</b>")
}

func TestRenderTextNoManager(t *testing.T) {
	r := fullReport()
	r.Company.ManagerName = ""
	delete(r.Sources, model.SourceDisqualification)
	r.Affiliates = nil
	text := RenderText(r)

	wantLine(t, text, "<b>👤 Руководитель:</b> Не указан")
	rejectLine(t, text, "Дисквалификация")
	rejectLine(t, text, "Связанные компании")
}

func TestRenderTextMissingFinance(t *testing.T) {
	r := fullReport()
	r.Company.Finance = nil
	text := RenderText(r)

	wantLine(t, text, "<b>💰 Финансы:</b>")
	wantLine(t, text, "  📈 Выручка: Данных нет")
	wantLine(t, text, "  📊 Прибыль: Данных нет")
}

func TestRenderTextProfitFromIncomeExpense(t *testing.T) {
	r := fullReport()
	r.Company.Finance = &model.Finance{
		Year:    2023,
		Income:  floatPtr(1_000_000),
		Expense: floatPtr(3_000_000),
		Profit:  floatPtr(999), // ignored when income and expense are present
	}
	text := RenderText(r)

	wantLine(t, text, "  📉 Прибыль: -2000000 ₽")
}

func TestRenderTextEscapesMarkup(t *testing.T) {
	r := fullReport()
	r.Company.NameFull = `ООО "РОГА <И> КОПЫТА"`
	text := RenderText(r)

	wantLine(t, text, "ООО &#34;РОГА &lt;И&gt; КОПЫТА&#34;")
	rejectLine(t, text, "<И>")
}

func TestRenderTextAffiliateOverflow(t *testing.T) {
	r := fullReport()
	r.Affiliates = nil
	for i := 0; i < 7; i++ {
		r.Affiliates = append(r.Affiliates, model.Affiliate{
			Name: "ООО НОМЕР", INN: "1111111111", Status: "ACTIVE",
		})
	}
	text := RenderText(r)

	wantLine(t, text, "<b>🔗 Связанные компании (🟡 Много компаний):</b>")
	wantLine(t, text, "  <i>...и еще 2 компаний</i>")
	if got := strings.Count(text, "ООО НОМЕР"); got != 5 {
		t.Errorf("listed %d affiliates, want 5", got)
	}
}

func TestFormatSum(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2_500_000, "2.5 млн ₽"},
		{150_000, "150 тыс ₽"},
		{500, "500 ₽"},
		{0, "0 ₽"},
	}
	for _, tc := range cases {
		if got := formatSum(tc.in); got != tc.want {
			t.Errorf("formatSum(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Задолженность по налогам", 13); got != "Задолженность" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("короткая", 40); got != "короткая" {
		t.Errorf("truncate = %q", got)
	}
}

func TestPDFDisabledWithoutFonts(t *testing.T) {
	p := NewPDF(t.TempDir())
	if p.Enabled() {
		t.Fatal("generator must be disabled without font files")
	}
	if _, err := p.Render(fullReport()); err == nil {
		t.Fatal("Render must fail when disabled")
	}
}

func TestStatusWord(t *testing.T) {
	if got := statusWord(model.SeverityOK); got != "OK" {
		t.Errorf("ok = %q", got)
	}
	if got := statusWord(model.SeverityWarning); got != "ВНИМАНИЕ" {
		t.Errorf("warning = %q", got)
	}
	if got := statusWord(model.SeverityCritical); got != "РИСК" {
		t.Errorf("critical = %q", got)
	}
}
