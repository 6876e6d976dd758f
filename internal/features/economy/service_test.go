package economy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "📋 У вас пока нет транзакций", FormatHistory(1, nil))

	me, friend := int64(1), int64(2)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	text := FormatHistory(me, []*Transaction{
		{FromUserID: &me, ToUserID: &friend, Amount: 100, TransactionType: TxTypeTransfer, Description: "Перевод", CreatedAt: at},
		{ToUserID: &me, Amount: 150, TransactionType: TxTypeCaseCompensation, Description: "Дубликат из кейса", CreatedAt: at},
	})

	assert.Contains(t, text, "Последние 2 транзакций")
	assert.Contains(t, text, "-100 кредитов | Перевод")
	assert.Contains(t, text, "+150 кредитов | Дубликат из кейса")
}
