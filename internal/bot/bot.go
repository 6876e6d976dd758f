// Package bot: транспорт: long polling telego, фильтры, маршрутизация команд.
// Бизнес-логики здесь нет, только разбор апдейта и вызов обработчика фичи.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/bot/filters"
	"serotonyl.ru/casebot/internal/bot/middleware"
	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/config"
	"serotonyl.ru/casebot/internal/features/admin"
	"serotonyl.ru/casebot/internal/features/cases"
	"serotonyl.ru/casebot/internal/features/catalog"
	"serotonyl.ru/casebot/internal/features/economy"
	"serotonyl.ru/casebot/internal/features/inventory"
	"serotonyl.ru/casebot/internal/features/members"
	"serotonyl.ru/casebot/internal/features/profile"
	"serotonyl.ru/casebot/internal/metrics"
)

const helpText = `📦 Кейсы сообщества

!витрина — опубликованные кейсы
!витрина <номер> — состав и шансы
!кейсы — ваши неоткрытые кейсы
!открыть <номер> — открыть кейс
!инвентарь — ваша коллекция
!ролы — последние открытия
!проверить <id> — проверить честность открытия
!профиль — профиль
!кредиты — баланс
!отсыпать @user <сумма> — перевод
!транзакции — история операций`

// Handlers: обработчики фич, которыми пользуется бот.
type Handlers struct {
	Members   *members.Handler
	Economy   *economy.Handler
	Profile   *profile.Handler
	Inventory *inventory.Handler
	Catalog   *catalog.Handler
	Cases     *cases.Handler
	Admin     *admin.Handler
}

// Bot: главная структура бота, объединяющая все компоненты.
type Bot struct {
	api    *telego.Bot
	cfg    *config.Config
	sender common.Sender

	handlers      Handlers
	memberService *members.Service

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
	parser      *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New создаёт бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	sender common.Sender,
	memberService *members.Service,
	handlers Handlers,
	chatFilter *filters.ChatFilter,
) *Bot {
	return &Bot{
		api:           api,
		cfg:           cfg,
		sender:        sender,
		handlers:      handlers,
		memberService: memberService,
		chatFilter:    chatFilter,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		parser:        NewCommandParser(),
		inflight:      make(chan struct{}, cfg.BotMaxInflight),
	}
}

// Start запускает long polling и блокируется до отмены ctx.
// Перед возвратом дожидается уже запущенных обработчиков.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("ошибка запуска long polling: %w", err)
	}
	defer b.rateLimiter.Close()

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for update := range updates {
		// лимит параллелизма
		select {
		case b.inflight <- struct{}{}:
		case <-ctx.Done():
			continue
		}
		b.wg.Add(1)
		go func(upd telego.Update) {
			defer b.wg.Done()
			defer func() { <-b.inflight }()
			b.handleUpdate(ctx, upd)
		}(update)
	}

	b.wg.Wait()
	log.Info("Канал updates закрыт, бот остановлен")
	return nil
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	message := update.Message
	if message == nil {
		return
	}

	if len(message.NewChatMembers) > 0 {
		if message.Chat.Type != telego.ChatTypePrivate && b.chatFilter.Check(ctx, message) == filters.Allow {
			b.handlers.Members.HandleNewChatMembers(ctx, message.NewChatMembers)
		}
		return
	}

	if message.Text == "" || message.From == nil || message.From.IsBot {
		return
	}

	middleware.LogMessage(message)

	switch b.chatFilter.Check(ctx, message) {
	case filters.Allow:
	case filters.DenyNotMember:
		b.sender.SendText(ctx, message.Chat.ID, "❌ Бот работает только для участников основного чата")
		return
	default:
		return
	}

	chatID := message.Chat.ID
	user := message.From

	// без строки баланса открытие кейса не сможет заблокировать пользователя
	if err := b.memberService.EnsureMember(ctx, user.ID, user.Username, user.FirstName, user.LastName); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("EnsureMember не выполнен")
	}

	// В DM сначала админ-панель: она же принимает пароль без префикса
	if message.Chat.Type == telego.ChatTypePrivate {
		if b.handlers.Admin.HandleAdminMessage(ctx, chatID, user.ID, message.Text) {
			metrics.BotCommands.WithLabelValues("admin").Inc()
			return
		}
	}

	cmd, args, ok := b.parser.ParseCommand(message.Text)
	if !ok {
		return
	}

	if !b.rateLimiter.Allow(user.ID) {
		log.WithField("user_id", user.ID).Debug("rate limited")
		return
	}

	b.routeCommand(ctx, chatID, user.ID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("Маршрутизация команды")

	h := b.handlers
	switch cmd {
	case "start", "help", "помощь":
		b.sender.SendText(ctx, chatID, helpText)
	case "кредиты", "баланс":
		h.Economy.HandleBalance(ctx, chatID, userID)
	case "отсыпать":
		h.Economy.HandleTransfer(ctx, chatID, userID, args)
	case "транзакции":
		h.Economy.HandleTransactions(ctx, chatID, userID)
	case "профиль":
		h.Profile.HandleProfile(ctx, chatID, userID)
	case "кейсы":
		h.Inventory.HandleCases(ctx, chatID, userID)
	case "инвентарь":
		h.Inventory.HandleItems(ctx, chatID, userID)
	case "витрина":
		h.Catalog.HandleShowcase(ctx, chatID, args)
	case "открыть":
		h.Cases.HandleOpen(ctx, chatID, userID, args)
	case "ролы":
		h.Cases.HandleHistory(ctx, chatID, userID)
	case "проверить":
		h.Cases.HandleVerify(ctx, chatID, args)
	default:
		return
	}
	metrics.BotCommands.WithLabelValues(cmd).Inc()
}

// CommandParser парсит русские команды с префиксами ! . и /
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @botname у команд вида /start@casebot отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	return command, parts[1:], true
}
