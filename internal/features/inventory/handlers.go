// Package inventory, handlers.go обрабатывает команды !кейсы и !инвентарь.
package inventory

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
)

// Handler обрабатывает команды инвентаря.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик команд инвентаря.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleCases обрабатывает !кейсы.
func (h *Handler) HandleCases(ctx context.Context, chatID, userID int64) {
	stacks, err := h.service.ListCases(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения кейсов")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatCases(stacks))
}

// HandleItems обрабатывает !инвентарь.
func (h *Handler) HandleItems(ctx context.Context, chatID, userID int64) {
	items, err := h.service.ListItems(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения предметов")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatItems(items))
}

// FormatCases собирает текст списка кейсов.
func FormatCases(stacks []CaseStack) string {
	if len(stacks) == 0 {
		return "📦 У вас нет неоткрытых кейсов"
	}
	var sb strings.Builder
	sb.WriteString("📦 Ваши кейсы:\n\n")
	for _, s := range stacks {
		sb.WriteString(fmt.Sprintf("#%d %s — %d %s\n", s.CaseID, s.CaseName, s.Count, common.PluralizeCases(s.Count)))
	}
	sb.WriteString("\nОткрыть: !открыть <номер>")
	return sb.String()
}

// FormatItems собирает текст коллекции.
func FormatItems(items []OwnedItem) string {
	if len(items) == 0 {
		return "🎒 Инвентарь пуст"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎒 Предметов: %d\n\n", len(items)))
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("%s %s\n", it.Item.Rarity.Emoji(), it.Item.Name))
	}
	return strings.TrimRight(sb.String(), "\n")
}
