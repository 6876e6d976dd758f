// Package economy, handlers.go обрабатывает команды:
// !кредиты (баланс), !отсыпать (перевод), !транзакции (история).
package economy

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/features/members"
)

// Handler обрабатывает команды экономики.
type Handler struct {
	service       *Service
	memberService *members.Service // для поиска получателя по username
	sender        common.Sender
}

// NewHandler создаёт новый обработчик экономических команд.
func NewHandler(service *Service, memberService *members.Service, sender common.Sender) *Handler {
	return &Handler{
		service:       service,
		memberService: memberService,
		sender:        sender,
	}
}

// HandleBalance обрабатывает команду !кредиты.
//
//	💰 Баланс: 150 кредитов
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, userID int64) {
	balance, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, fmt.Sprintf("💰 Баланс: %s", common.FormatBalance(balance)))
}

// HandleTransfer обрабатывает команду !отсыпать @username 100.
func (h *Handler) HandleTransfer(ctx context.Context, chatID int64, fromUserID int64, args []string) {
	if len(args) < 2 {
		h.sender.SendText(ctx, chatID, "❌ Формат: !отсыпать @username сумма")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	if username == "" {
		h.sender.SendText(ctx, chatID, "❌ Укажите @username получателя")
		return
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		h.sender.SendText(ctx, chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	recipient, err := h.memberService.GetByUsername(ctx, username)
	if err != nil {
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}

	if err := h.service.Transfer(ctx, fromUserID, recipient.UserID, amount); err != nil {
		log.WithError(err).WithField("user_id", fromUserID).Warn("Перевод не выполнен")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}

	newBalance, _ := h.service.GetBalance(ctx, fromUserID)
	h.sender.SendText(ctx, chatID, fmt.Sprintf("✅ Переведено %s @%s\nТвой баланс: %s",
		common.FormatBalance(amount), username, common.FormatBalance(newBalance)))
}

// HandleTransactions обрабатывает команду !транзакции.
func (h *Handler) HandleTransactions(ctx context.Context, chatID int64, userID int64) {
	history, err := h.service.GetTransactionHistory(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, history)
}
