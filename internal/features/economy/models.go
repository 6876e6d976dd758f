// Package economy управляет виртуальной валютой «кредиты» и опытом участников.
// models.go описывает структуры для балансов и транзакций.
package economy

import "time"

// Balance: изменяемое состояние пользователя: кредиты и опыт.
// Каждый участник имеет ровно одну запись в таблице balances.
// Строку balances блокирует открытие кейса (SELECT ... FOR UPDATE).
type Balance struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`      // Telegram user ID
	Balance     int64     `db:"balance"`      // Текущий баланс кредитов
	XP          int64     `db:"xp"`           // Опыт
	TotalEarned int64     `db:"total_earned"` // Сколько всего заработано
	TotalSpent  int64     `db:"total_spent"`  // Сколько всего потрачено
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction представляет одну операцию с кредитами.
// Все движения кредитов (переводы, компенсации, выдачи) записываются сюда.
type Transaction struct {
	ID              int64     `db:"id"`
	FromUserID      *int64    `db:"from_user_id"`     // Отправитель (nil для системных начислений)
	ToUserID        *int64    `db:"to_user_id"`       // Получатель (nil для системных списаний)
	Amount          int64     `db:"amount"`           // Сумма (всегда положительная)
	TransactionType string    `db:"transaction_type"` // Тип: 'transfer', 'case_compensation', ...
	Description     string    `db:"description"`      // Описание для отображения
	CreatedAt       time.Time `db:"created_at"`
}

// Типы транзакций
const (
	TxTypeTransfer         = "transfer"          // Перевод между пользователями
	TxTypeCaseCompensation = "case_compensation" // Компенсация за дубликат из кейса
	TxTypeStartingBonus    = "starting_bonus"    // Стартовый баланс
	TxTypeAdminGive        = "admin_give"        // Выдача админом
)
