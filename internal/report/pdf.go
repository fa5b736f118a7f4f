package report

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

const (
	pdfFont        = "DejaVu"
	pdfFontFile    = "DejaVuSans.ttf"
	pdfFontBold    = "DejaVuSans-Bold.ttf"
	pdfFooterLabel = "Отчет сформирован автоматически системой проверки контрагентов"
)

// PDF renders reports as A4 documents. Cyrillic output needs the
// DejaVu fonts; without them the generator stays disabled and the bot
// sends text-only reports.
type PDF struct {
	fontDir string
	enabled bool
}

// NewPDF creates a generator reading fonts from fontDir.
func NewPDF(fontDir string) *PDF {
	enabled := fileExists(filepath.Join(fontDir, pdfFontFile)) &&
		fileExists(filepath.Join(fontDir, pdfFontBold))
	if !enabled {
		log.Printf("[WARN] PDF reports disabled: DejaVu fonts not found in %q", fontDir)
	}
	return &PDF{fontDir: fontDir, enabled: enabled}
}

// Enabled reports whether PDF generation is available.
func (p *PDF) Enabled() bool { return p.enabled }

// Render builds the PDF document for a report.
func (p *PDF) Render(r *model.Report) ([]byte, error) {
	if !p.enabled {
		return nil, errors.New("pdf generation disabled: cyrillic fonts missing")
	}

	pdf := fpdf.New("P", "mm", "A4", p.fontDir)
	pdf.AddUTF8Font(pdfFont, "", pdfFontFile)
	pdf.AddUTF8Font(pdfFont, "B", pdfFontBold)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	c := r.Company

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, "ОТЧЕТ О ПРОВЕРКЕ КОНТРАГЕНТА", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(0, 6, "Дата формирования: "+r.GeneratedAt.Format("02.01.2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont(pdfFont, "B", 12)
	pdf.CellFormat(0, 8, "ОБЩАЯ ОЦЕНКА: "+strings.ToUpper(r.Verdict.Text()), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.CellFormat(0, 8, "ОСНОВНЫЕ СВЕДЕНИЯ", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	manager := c.ManagerName
	if manager == "" {
		manager = "Не указан"
	} else if c.ManagerPost != "" {
		manager = fmt.Sprintf("%s (%s)", manager, c.ManagerPost)
	}
	address := c.Address
	if address == "" {
		address = "Не указан"
	}
	infoRows := []struct {
		label, value string
	}{
		{"Наименование:", c.DisplayName()},
		{"ИНН:", orNA(c.INN)},
		{"ОГРН:", orNA(c.OGRN)},
		{"КПП:", orNA(c.KPP)},
		{"Юридический адрес:", address},
		{"Руководитель:", manager},
		{"Основной ОКВЭД:", orNA(c.OKVED)},
	}

	pdf.SetFont(pdfFont, "", 10)
	for _, row := range infoRows {
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(50, 6, row.label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(120, 6, row.value, "", "L", false)
		pdf.Ln(2)
	}
	pdf.SetTextColor(0, 0, 0)

	pdf.Ln(4)
	pdf.SetFont(pdfFont, "B", 12)
	pdf.CellFormat(0, 8, "АНАЛИЗ РИСКОВ", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(pdfFont, "B", 9)
	pdf.SetFillColor(211, 211, 211)
	pdf.CellFormat(50, 7, "Показатель", "1", 0, "L", true, 0, "")
	pdf.CellFormat(80, 7, "Значение", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Статус", "1", 1, "L", true, 0, "")

	pdf.SetFont(pdfFont, "", 9)
	for _, f := range r.Factors {
		pdf.CellFormat(50, 7, f.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(80, 7, f.Value, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, statusWord(f.Severity), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(16)
	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(0, 6, strings.Repeat("_", 60), "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, pdfFooterLabel, "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func statusWord(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "РИСК"
	case model.SeverityWarning:
		return "ВНИМАНИЕ"
	default:
		return "OK"
	}
}

func orNA(s string) string {
	if s == "" {
		return "Н/Д"
	}
	return s
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
