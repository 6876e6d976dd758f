package bot

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// TelegramSender отправляет ответы через Bot API.
// Реализует common.Sender для обработчиков фич.
type TelegramSender struct {
	api *telego.Bot
}

// NewSender создаёт отправителя поверх клиента telego.
func NewSender(api *telego.Bot) *TelegramSender {
	return &TelegramSender{api: api}
}

// SendText отправляет текст. Ошибка отправки только логируется.
func (s *TelegramSender) SendText(ctx context.Context, chatID int64, text string) {
	if _, err := s.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// ChatMemberStatus возвращает статус пользователя в чате.
func (s *TelegramSender) ChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	member, err := s.api.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		return "", err
	}
	return member.MemberStatus(), nil
}
