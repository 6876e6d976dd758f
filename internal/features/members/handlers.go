// Package members, handlers.go обрабатывает вступление пользователей в чат.
package members

import (
	"context"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает события участников.
type Handler struct {
	service *Service
}

// NewHandler создаёт новый обработчик событий участников.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleNewChatMembers регистрирует каждого вступившего пользователя (ботов пропускаем).
func (h *Handler) HandleNewChatMembers(ctx context.Context, newMembers []telego.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		err := h.service.HandleNewMember(ctx, user.ID, user.Username, user.FirstName, user.LastName)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка регистрации нового участника")
		}
	}
}
