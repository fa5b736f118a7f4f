package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nik997414-ui/Contragent-bot/internal/fusion"
	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/report"
	"github.com/nik997414-ui/Contragent-bot/internal/telegram"
)

// runCheck drives one evaluation: quota suffix, status message,
// engine call, text report, history row and the PDF follow-up.
func (b *Bot) runCheck(ctx context.Context, u telegram.Update, inn string) {
	suffix, blocked := b.quotaSuffix(ctx, u)
	if blocked {
		b.reply(u.ChatID, fmt.Sprintf(msgQuotaExceeded, b.cfg.Quota.FreeChecks))
		return
	}

	statusID, err := b.tg.SendMessage(u.ChatID, msgSearching+suffix)
	if err != nil {
		log.Printf("[ERROR] send status message to %d: %v", u.ChatID, err)
		return
	}

	rep, err := b.engine.Assess(ctx, inn, u.UserID, u.Username)
	if err != nil {
		b.finishWithError(u.ChatID, statusID, err)
		return
	}

	if _, err := b.tg.SendMessage(u.ChatID, report.RenderText(rep)); err != nil {
		log.Printf("[ERROR] send report to %d: %v", u.ChatID, err)
	}
	b.reports.Put(u.UserID, inn, rep)
	b.recordHistory(ctx, u.UserID, inn, rep)
	b.deliverPDF(u, inn, statusID)
}

// quotaSuffix builds the status-message suffix and rejects the request
// up front when the quota is already spent. Assess re-checks the quota
// atomically; this read only feeds the user-visible counter.
func (b *Bot) quotaSuffix(ctx context.Context, u telegram.Update) (suffix string, blocked bool) {
	if b.ledger.Unlimited(u.Username) {
		return suffixUnlimited, false
	}
	user, unlimited, err := b.ledger.Remaining(ctx, u.UserID, u.Username)
	if err != nil {
		log.Printf("[WARN] read quota for %d: %v", u.UserID, err)
		return "", false // let Assess decide
	}
	if unlimited { // premium, no counter shown
		return "", false
	}
	if user.ChecksLeft <= 0 {
		return "", true
	}
	// Shown post-decrement, matching what Assess is about to leave behind.
	return fmt.Sprintf(" (Осталось проверок: %d)", user.ChecksLeft-1), false
}

func (b *Bot) finishWithError(chatID int64, statusID int, err error) {
	var text string
	switch {
	case errors.Is(err, fusion.ErrQuotaExceeded):
		text = fmt.Sprintf(msgQuotaExceeded, b.cfg.Quota.FreeChecks)
	case errors.Is(err, fusion.ErrCompanyNotFound):
		text = msgNotFound
	default:
		log.Printf("[ERROR] evaluation failed: %v", err)
		text = fmt.Sprintf("❌ Произошла ошибка при запросе: %v", err)
	}
	if err := b.tg.EditMessageText(chatID, statusID, text); err != nil {
		log.Printf("[ERROR] edit status message: %v", err)
		b.reply(chatID, text)
	}
}

func (b *Bot) recordHistory(ctx context.Context, userID int64, inn string, rep *model.Report) {
	rec := &model.CheckRecord{
		ID:        rep.ID,
		UserID:    userID,
		INN:       inn,
		Verdict:   rep.Verdict,
		SourcesOK: rep.SourcesOK(),
		Elapsed:   rep.Elapsed,
		CreatedAt: rep.GeneratedAt,
	}
	if err := b.store.RecordCheck(ctx, rec); err != nil {
		log.Printf("[WARN] record check history: %v", err)
	}
}

// deliverPDF renders the cached report into a PDF and sends it as a
// document, reusing the status message as the progress indicator.
func (b *Bot) deliverPDF(u telegram.Update, inn string, statusID int) {
	if !b.pdf.Enabled() {
		b.deleteStatus(u.ChatID, statusID)
		return
	}
	rep := b.reports.Get(u.UserID, inn)
	if rep == nil {
		b.deleteStatus(u.ChatID, statusID)
		return
	}
	if err := b.tg.EditMessageText(u.ChatID, statusID, msgGeneratingPDF); err != nil {
		log.Printf("[WARN] edit status message: %v", err)
	}
	data, err := b.pdf.Render(rep)
	if err != nil {
		log.Printf("[ERROR] render PDF for %s: %v", inn, err)
		b.deleteStatus(u.ChatID, statusID)
		return
	}
	name := fmt.Sprintf("Отчет_%s.pdf", inn)
	if err := b.tg.SendDocument(u.ChatID, name, data, pdfCaption); err != nil {
		log.Printf("[ERROR] send PDF to %d: %v", u.ChatID, err)
	}
	b.deleteStatus(u.ChatID, statusID)
}

func (b *Bot) deleteStatus(chatID int64, messageID int) {
	if err := b.tg.DeleteMessage(chatID, messageID); err != nil {
		log.Printf("[WARN] delete status message: %v", err)
	}
}
