// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и антифлуда.
package middleware

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

const maxLoggedText = 50

// LogMessage логирует входящее сообщение на уровне Debug.
// Текст обрезается до 50 символов (по рунам, чтобы не резать кириллицу).
func LogMessage(message *telego.Message) {
	if message == nil || message.From == nil {
		return
	}

	text := []rune(message.Text)
	logged := string(text)
	if len(text) > maxLoggedText {
		logged = string(text[:maxLoggedText]) + "..."
	}

	log.WithFields(log.Fields{
		"user_id":   message.From.ID,
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"username":  message.From.Username,
		"text":      logged,
	}).Debug("Входящее сообщение")
}
