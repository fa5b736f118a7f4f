// Package bot routes incoming Telegram messages: tax-ID evaluation
// requests, user commands and the admin commands. Handlers are
// resolved through a static registry built at startup.
package bot

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/nik997414-ui/Contragent-bot/internal/cache"
	"github.com/nik997414-ui/Contragent-bot/internal/config"
	"github.com/nik997414-ui/Contragent-bot/internal/model"
	"github.com/nik997414-ui/Contragent-bot/internal/quota"
	"github.com/nik997414-ui/Contragent-bot/internal/store"
	"github.com/nik997414-ui/Contragent-bot/internal/telegram"
)

// Messenger is the slice of the Telegram client the bot talks through.
type Messenger interface {
	SendMessage(chatID int64, text string) (int, error)
	EditMessageText(chatID int64, messageID int, text string) error
	DeleteMessage(chatID int64, messageID int) error
	SendDocument(chatID int64, filename string, document []byte, caption string) error
	SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error
}

// Assessor runs one full company evaluation.
type Assessor interface {
	Assess(ctx context.Context, inn string, userID int64, username string) (*model.Report, error)
}

// PDFRenderer turns a finished report into a PDF document.
type PDFRenderer interface {
	Enabled() bool
	Render(r *model.Report) ([]byte, error)
}

type commandFunc func(ctx context.Context, u telegram.Update, args []string)

// Bot dispatches updates coming from the Telegram poller. Safe for
// concurrent use; the poller runs each update in its own goroutine.
type Bot struct {
	cfg         *config.Config
	tg          Messenger
	engine      Assessor
	ledger      *quota.Ledger
	meter       *quota.Meter
	store       store.Store
	reports     *cache.ReportCache
	pdf         PDFRenderer
	commands    map[string]commandFunc
	adminChatID int64
}

// New assembles the dispatcher and its command registry.
func New(cfg *config.Config, tg Messenger, engine Assessor, ledger *quota.Ledger, meter *quota.Meter, st store.Store, reports *cache.ReportCache, pdf PDFRenderer) *Bot {
	b := &Bot{
		cfg:     cfg,
		tg:      tg,
		engine:  engine,
		ledger:  ledger,
		meter:   meter,
		store:   st,
		reports: reports,
		pdf:     pdf,
	}
	if s := cfg.Telegram.AdminChatID; s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			log.Printf("[WARN] invalid telegram.admin_chat_id %q: %v", s, err)
		} else {
			b.adminChatID = id
		}
	}
	b.commands = map[string]commandFunc{
		"/start":       b.cmdStart,
		"/help":        b.cmdHelp,
		"/check":       b.cmdCheck,
		"/quota":       b.cmdQuota,
		"/usage":       b.adminOnly(b.cmdUsage),
		"/reset_usage": b.adminOnly(b.cmdResetUsage),
		"/grant":       b.adminOnly(b.cmdGrant),
	}
	return b
}

// HandleUpdate routes one incoming message.
func (b *Bot) HandleUpdate(ctx context.Context, u telegram.Update) {
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		cmd := strings.ToLower(fields[0])
		if i := strings.IndexByte(cmd, '@'); i > 0 {
			cmd = cmd[:i] // group chats address commands as /check@BotName
		}
		if fn, ok := b.commands[cmd]; ok {
			fn(ctx, u, fields[1:])
		} else {
			b.reply(u.ChatID, msgUnknownCommand)
		}
		return
	}
	if isINN(text) {
		b.runCheck(ctx, u, text)
		return
	}
	b.reply(u.ChatID, msgHint)
}

// AdminChatID returns the parsed admin chat ID, 0 when unset.
func (b *Bot) AdminChatID() int64 {
	return b.adminChatID
}

// UsageAlert forwards a low-budget notification to the admin chat.
// Wired as the fusion engine's alert callback.
func (b *Bot) UsageAlert(usage model.ServiceUsage) {
	if b.adminChatID == 0 {
		log.Printf("[WARN] API budget low for %s: %d of %d left, no admin chat configured",
			usage.Service, usage.Remaining(), usage.TotalLimit)
		return
	}
	text := formatUsageAlert(usage)
	if err := b.tg.SendWithRetry(context.Background(), b.adminChatID, text, 3); err != nil {
		log.Printf("[ERROR] send usage alert: %v", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.tg.SendMessage(chatID, text); err != nil {
		log.Printf("[ERROR] send message to %d: %v", chatID, err)
	}
}

// isINN reports whether text is a well-formed tax ID: exactly 10 or
// 12 digits and nothing else.
func isINN(s string) bool {
	if len(s) != 10 && len(s) != 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
