// Package filters решает, в каких чатах бот вообще отвечает.
package filters

import (
	"context"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// MemberChecker: знает ли база пользователя.
type MemberChecker interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
}

// ChatMembership спрашивает у Telegram статус пользователя в чате
// ("creator", "administrator", "member", "restricted", "left", "kicked").
type ChatMembership func(ctx context.Context, chatID, userID int64) (string, error)

// ChatFilter пропускает основной чат и личку участников.
// Если основной чат не задан (0), пропускаются любые группы и любая личка.
type ChatFilter struct {
	mainChatID int64
	members    MemberChecker
	membership ChatMembership
}

// NewChatFilter создаёт фильтр.
func NewChatFilter(mainChatID int64, members MemberChecker, membership ChatMembership) *ChatFilter {
	return &ChatFilter{
		mainChatID: mainChatID,
		members:    members,
		membership: membership,
	}
}

// Verdict: результат проверки.
type Verdict int

const (
	Deny Verdict = iota
	Allow
	// DenyNotMember: личка от человека не из основного чата, ему стоит ответить отказом.
	DenyNotMember
)

// Check проверяет доступ для сообщения.
func (f *ChatFilter) Check(ctx context.Context, message *telego.Message) Verdict {
	if message == nil || message.From == nil {
		return Deny
	}

	chatID := message.Chat.ID
	userID := message.From.ID
	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chatID,
		"chat_type": message.Chat.Type,
		"user_id":   userID,
	})

	if message.Chat.Type != telego.ChatTypePrivate {
		if f.mainChatID == 0 || chatID == f.mainChatID {
			return Allow
		}
		logger.Debug("deny: посторонний чат")
		return Deny
	}

	if f.mainChatID == 0 {
		return Allow
	}

	// Личка: сначала быстро по БД
	isMember, err := f.members.IsMember(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("Ошибка проверки участника в БД")
		return Deny
	}
	if isMember {
		return Allow
	}

	// БД не знает пользователя: спрашиваем Telegram
	status, err := f.membership(ctx, f.mainChatID, userID)
	if err != nil {
		logger.WithError(err).Error("Ошибка проверки участника через Telegram")
		return Deny
	}
	switch status {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator,
		telego.MemberStatusMember, telego.MemberStatusRestricted:
		logger.WithField("tg_status", status).Info("allow: участник основного чата пишет в личку")
		return Allow
	default:
		logger.WithField("tg_status", status).Info("deny: не участник основного чата")
		return DenyNotMember
	}
}
