package common

import "context"

// Sender отправляет текстовый ответ в чат.
// Реализуется транспортом (Telegram), обработчики фич знают только этот интерфейс.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string)
}
