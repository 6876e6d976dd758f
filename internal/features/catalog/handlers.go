// Package catalog, handlers.go: витрина опубликованных кейсов.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
)

// Handler показывает каталог участникам.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик витрины.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleShowcase обрабатывает !витрина и !витрина <номер кейса>.
func (h *Handler) HandleShowcase(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		list, err := h.service.ListActive(ctx)
		if err != nil {
			log.WithError(err).Error("Ошибка чтения каталога")
			h.sender.SendText(ctx, chatID, common.UserMessage(err))
			return
		}
		h.sender.SendText(ctx, chatID, FormatCatalog(list))
		return
	}

	caseID, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || caseID <= 0 {
		h.sender.SendText(ctx, chatID, "❌ Номер кейса должен быть положительным числом")
		return
	}
	c, entries, err := h.service.Contents(ctx, caseID)
	if err != nil {
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatContents(c, entries))
}

// FormatCatalog: список опубликованных кейсов.
func FormatCatalog(list []Case) string {
	if len(list) == 0 {
		return "🗃 Витрина пуста"
	}
	var sb strings.Builder
	sb.WriteString("🗃 Кейсы:\n\n")
	for _, c := range list {
		sb.WriteString(fmt.Sprintf("#%d %s\n", c.ID, c.Name))
	}
	sb.WriteString("\nСостав и шансы: !витрина <номер>")
	return sb.String()
}

// FormatContents: состав кейса с опубликованными шансами.
func FormatContents(c *Case, entries []ContentEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 #%d %s\n\n", c.ID, c.Name))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s %s — %s%%\n",
			e.Item.Rarity.Emoji(), e.Item.Name, e.DropRate.StringFixed(RatePrecision)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
