package bot

// User-facing texts. Telegram HTML parse mode.
const (
	msgStart = "👋 Привет! Я проверяю контрагентов по ИНН.\n\n" +
		"Отправьте ИНН компании (10 или 12 цифр) — пришлю светофор рисков, " +
		"долги ФССП, арбитражные дела и связанные компании.\n\n" +
		"Бесплатных проверок: %d. Команды: /check, /quota, /help"

	msgHelp = "ℹ️ <b>Как пользоваться ботом</b>\n\n" +
		"Отправьте ИНН компании (10 или 12 цифр) обычным сообщением.\n\n" +
		"Команды:\n" +
		"/check — что входит в проверку\n" +
		"/quota — сколько проверок осталось\n" +
		"/help — эта справка"

	msgCheck = "🔍 <b>Проверка контрагента</b>\n\n" +
		"Отправьте ИНН компании (10 или 12 цифр) для получения:\n" +
		"• Расширенного светофора рисков\n" +
		"• PDF-отчета для документов"

	msgQuotaExceeded = "🚫 <b>Лимит бесплатных проверок исчерпан!</b>\n\n" +
		"Вы использовали свои %d бесплатные проверки. В будущем здесь можно будет " +
		"купить подписку, а пока — бот в режиме разработки."

	msgSearching     = "⏳ Ищу информацию о компании..."
	msgNotFound      = "❌ Компания с таким ИНН не найдена."
	msgGeneratingPDF = "📄 Генерирую PDF-отчет..."
	pdfCaption       = "📎 PDF-отчет для приложения к договору"

	msgHint = "Отправьте ИНН компании одним сообщением: 10 или 12 цифр. Подробнее — /check"

	msgUnknownCommand = "Неизвестная команда. Доступно: /start, /check, /quota, /help"
	msgAdminsOnly     = "⛔ Команда доступна только администраторам."

	suffixUnlimited = " (👑 Безлимит)"
)
