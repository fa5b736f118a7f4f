package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/telegram"
)

// adminOnly guards a command behind the admin allow-list.
func (b *Bot) adminOnly(fn commandFunc) commandFunc {
	return func(ctx context.Context, u telegram.Update, args []string) {
		if !b.cfg.IsAdmin(u.Username) {
			b.reply(u.ChatID, msgAdminsOnly)
			return
		}
		fn(ctx, u, args)
	}
}

func (b *Bot) cmdStart(ctx context.Context, u telegram.Update, _ []string) {
	// Registers the quota row so /start counts as first observation.
	if _, _, err := b.ledger.Remaining(ctx, u.UserID, u.Username); err != nil {
		log.Printf("[WARN] register user %d: %v", u.UserID, err)
	}
	b.reply(u.ChatID, fmt.Sprintf(msgStart, b.cfg.Quota.FreeChecks))
}

func (b *Bot) cmdHelp(_ context.Context, u telegram.Update, _ []string) {
	b.reply(u.ChatID, msgHelp)
}

func (b *Bot) cmdCheck(_ context.Context, u telegram.Update, _ []string) {
	b.reply(u.ChatID, msgCheck)
}

func (b *Bot) cmdQuota(ctx context.Context, u telegram.Update, _ []string) {
	user, unlimited, err := b.ledger.Remaining(ctx, u.UserID, u.Username)
	if err != nil {
		log.Printf("[ERROR] read quota for %d: %v", u.UserID, err)
		b.reply(u.ChatID, fmt.Sprintf("❌ Произошла ошибка при запросе: %v", err))
		return
	}
	switch {
	case b.ledger.Unlimited(u.Username):
		b.reply(u.ChatID, "👑 Безлимит: проверки не ограничены.")
	case unlimited && user.PremiumUntil.IsZero():
		b.reply(u.ChatID, "💎 Премиум активен: проверки не ограничены.")
	case unlimited:
		b.reply(u.ChatID, fmt.Sprintf("💎 Премиум активен до %s.", user.PremiumUntil.Format("02.01.2006")))
	default:
		b.reply(u.ChatID, fmt.Sprintf("Осталось бесплатных проверок: %d из %d.", user.ChecksLeft, b.cfg.Quota.FreeChecks))
	}
}

func (b *Bot) cmdUsage(ctx context.Context, u telegram.Update, _ []string) {
	usages, err := b.meter.Snapshot(ctx)
	if err != nil {
		log.Printf("[ERROR] read usage counters: %v", err)
		b.reply(u.ChatID, fmt.Sprintf("❌ Не удалось прочитать счетчики: %v", err))
		return
	}
	b.reply(u.ChatID, FormatUsage(usages))
}

func (b *Bot) cmdResetUsage(ctx context.Context, u telegram.Update, args []string) {
	if len(args) == 0 {
		b.reply(u.ChatID, "Использование: /reset_usage <сервис> [новый_лимит]")
		return
	}
	service := args[0]
	var newLimit *int
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			b.reply(u.ChatID, "Лимит должен быть положительным числом.")
			return
		}
		newLimit = &n
	}
	if err := b.meter.Reset(ctx, service, newLimit); err != nil {
		log.Printf("[ERROR] reset usage for %s: %v", service, err)
		b.reply(u.ChatID, fmt.Sprintf("❌ Не удалось сбросить счетчик: %v", err))
		return
	}
	b.reply(u.ChatID, fmt.Sprintf("✅ Счетчик %s сброшен.", service))
}

func (b *Bot) cmdGrant(ctx context.Context, u telegram.Update, args []string) {
	if len(args) == 0 {
		b.reply(u.ChatID, "Использование: /grant <user_id> [дней]")
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(u.ChatID, "user_id должен быть числом.")
		return
	}
	days := 0
	if len(args) > 1 {
		days, err = strconv.Atoi(args[1])
		if err != nil || days < 0 {
			b.reply(u.ChatID, "Количество дней должно быть неотрицательным числом.")
			return
		}
	}
	if err := b.ledger.GrantPremium(ctx, userID, days); err != nil {
		log.Printf("[ERROR] grant premium to %d: %v", userID, err)
		b.reply(u.ChatID, fmt.Sprintf("❌ Не удалось выдать премиум: %v", err))
		return
	}
	if days > 0 {
		b.reply(u.ChatID, fmt.Sprintf("✅ Премиум выдан пользователю %d на %d дн.", userID, days))
	} else {
		b.reply(u.ChatID, fmt.Sprintf("✅ Премиум выдан пользователю %d бессрочно.", userID))
	}
}

// FormatUsage renders the API budget counters as a Telegram HTML block.
// Shared with the scheduler's daily digest.
func FormatUsage(usages []model.ServiceUsage) string {
	if len(usages) == 0 {
		return "Счетчики использования пусты."
	}
	lines := []string{"📊 <b>Использование API</b>", ""}
	for _, s := range usages {
		line := fmt.Sprintf("• %s: %d из %d (осталось %d)", s.Service, s.UsedCount, s.TotalLimit, s.Remaining())
		if s.LastAlertDate != "" {
			line += fmt.Sprintf(", алерт %s", s.LastAlertDate)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatUsageAlert(usage model.ServiceUsage) string {
	return fmt.Sprintf("⚠️ <b>Лимит API на исходе!</b>\n\nСервис: %s\nИспользовано: %d из %d\nОсталось: %d",
		usage.Service, usage.UsedCount, usage.TotalLimit, usage.Remaining())
}
