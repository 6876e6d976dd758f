package profile

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
)

// Handler обрабатывает !профиль.
type Handler struct {
	service *Service
	sender  common.Sender
}

func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

func (h *Handler) HandleProfile(ctx context.Context, chatID, userID int64) {
	p, err := h.service.Get(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения профиля")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, Format(p))
}

// Format: текст профиля.
func Format(p *Profile) string {
	return fmt.Sprintf("👤 %s\n\n💰 %s\n⭐ Опыт: %s\n🎒 Предметов: %d\n📦 Неоткрытых кейсов: %d",
		p.DisplayName,
		common.FormatBalance(p.Balance),
		common.FormatNumber(p.XP),
		p.Items,
		p.Cases,
	)
}
