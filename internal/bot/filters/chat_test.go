package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
)

type staticMembers map[int64]bool

func (m staticMembers) IsMember(_ context.Context, userID int64) (bool, error) {
	return m[userID], nil
}

func message(chatID int64, chatType string, userID int64) *telego.Message {
	return &telego.Message{
		Chat: telego.Chat{ID: chatID, Type: chatType},
		From: &telego.User{ID: userID},
	}
}

func TestChatFilter(t *testing.T) {
	const mainChat int64 = -100
	membership := func(_ context.Context, chatID, userID int64) (string, error) {
		assert.Equal(t, mainChat, chatID)
		switch userID {
		case 3:
			return telego.MemberStatusMember, nil
		case 4:
			return telego.MemberStatusLeft, nil
		default:
			return "", errors.New("telegram недоступен")
		}
	}
	f := NewChatFilter(mainChat, staticMembers{1: true}, membership)
	ctx := context.Background()

	testCases := []struct {
		name string
		msg  *telego.Message
		want Verdict
	}{
		{name: "основной чат", msg: message(mainChat, telego.ChatTypeSupergroup, 9), want: Allow},
		{name: "чужая группа", msg: message(-200, telego.ChatTypeGroup, 1), want: Deny},
		{name: "личка известного участника", msg: message(1, telego.ChatTypePrivate, 1), want: Allow},
		{name: "личка участника, которого нет в БД", msg: message(3, telego.ChatTypePrivate, 3), want: Allow},
		{name: "личка постороннего", msg: message(4, telego.ChatTypePrivate, 4), want: DenyNotMember},
		{name: "telegram недоступен", msg: message(5, telego.ChatTypePrivate, 5), want: Deny},
		{name: "без отправителя", msg: &telego.Message{Chat: telego.Chat{ID: mainChat}}, want: Deny},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Check(ctx, tc.msg))
		})
	}
}

func TestChatFilter_NoMainChat(t *testing.T) {
	f := NewChatFilter(0, staticMembers{}, nil)
	assert.Equal(t, Allow, f.Check(context.Background(), message(-5, telego.ChatTypeGroup, 1)))
	assert.Equal(t, Allow, f.Check(context.Background(), message(1, telego.ChatTypePrivate, 1)))
}
