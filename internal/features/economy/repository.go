// Package economy, repository.go выполняет все операции с таблицами balances и transactions.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/db/postgres"
)

// Repository предоставляет методы для работы с балансами и транзакциями.
// db: пул или уже открытая транзакция (тогда Begin создаёт savepoint).
type Repository struct {
	db postgres.Querier
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db postgres.Querier) *Repository {
	return &Repository{db: db}
}

// CreateBalance создаёт начальный баланс для нового участника.
// Повторный вызов ничего не меняет.
func (r *Repository) CreateBalance(ctx context.Context, userID, starting int64) error {
	return postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO balances (user_id, balance, xp, total_earned, total_spent)
			VALUES ($1, $2, 0, $2, 0)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, starting)
		if err != nil {
			return fmt.Errorf("ошибка создания баланса: %w", err)
		}
		if tag.RowsAffected() == 0 || starting == 0 {
			return nil
		}
		return logTransaction(ctx, tx, Transaction{
			ToUserID:        &userID,
			Amount:          starting,
			TransactionType: TxTypeStartingBonus,
			Description:     "Стартовый баланс",
		})
	})
}

// GetBalance возвращает текущий баланс пользователя.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM balances WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// GetForUpdate читает состояние пользователя и блокирует строку до конца транзакции.
// Вызывать только на Querier-транзакции: на пуле блокировка снимется сразу.
func (r *Repository) GetForUpdate(ctx context.Context, userID int64) (*Balance, error) {
	query := `
		SELECT id, user_id, balance, xp, total_earned, total_spent, created_at, updated_at
		FROM balances
		WHERE user_id = $1
		FOR UPDATE
	`
	b, err := scanBalance(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("пользователь %d: %w", userID, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("ошибка блокировки баланса: %w", err)
	}
	return b, nil
}

// Save сохраняет баланс, опыт и счётчики пользователя.
func (r *Repository) Save(ctx context.Context, b *Balance) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE balances
		SET balance = $2, xp = $3, total_earned = $4, total_spent = $5, updated_at = NOW()
		WHERE user_id = $1
	`, b.UserID, b.Balance, b.XP, b.TotalEarned, b.TotalSpent)
	if err != nil {
		return fmt.Errorf("ошибка сохранения баланса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("пользователь %d: %w", b.UserID, common.ErrUserNotFound)
	}
	return nil
}

// LogTransaction записывает операцию в историю.
func (r *Repository) LogTransaction(ctx context.Context, t Transaction) error {
	return logTransaction(ctx, r.db, t)
}

func logTransaction(ctx context.Context, db postgres.Querier, t Transaction) error {
	_, err := db.Exec(ctx, `
		INSERT INTO transactions (from_user_id, to_user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4, $5)
	`, t.FromUserID, t.ToUserID, t.Amount, t.TransactionType, t.Description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return nil
}

// AddBalance добавляет кредиты на счёт пользователя.
// Обновление баланса и запись транзакции атомарны.
func (r *Repository) AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	return postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE balances
			SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
			WHERE user_id = $1
		`, userID, amount)
		if err != nil {
			return fmt.Errorf("ошибка начисления: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.ErrUserNotFound
		}
		return logTransaction(ctx, tx, Transaction{
			ToUserID:        &userID,
			Amount:          amount,
			TransactionType: txType,
			Description:     description,
		})
	})
}

// Transfer переводит кредиты от одного пользователя к другому.
// Строки блокируются в порядке возрастания user_id: встречные переводы не дают дедлок.
func (r *Repository) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	return postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		first, second := fromUserID, toUserID
		if first > second {
			first, second = second, first
		}
		balances := make(map[int64]int64, 2)
		for _, id := range []int64{first, second} {
			var b int64
			err := tx.QueryRow(ctx, `SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE`, id).Scan(&b)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("пользователь %d: %w", id, common.ErrUserNotFound)
				}
				return fmt.Errorf("ошибка блокировки баланса: %w", err)
			}
			balances[id] = b
		}

		if balances[fromUserID] < amount {
			return fmt.Errorf("нужно %d, есть %d: %w", amount, balances[fromUserID], common.ErrInsufficientBalance)
		}

		// Списываем у отправителя
		if _, err := tx.Exec(ctx, `
			UPDATE balances
			SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
			WHERE user_id = $1
		`, fromUserID, amount); err != nil {
			return fmt.Errorf("ошибка списания у отправителя: %w", err)
		}

		// Начисляем получателю
		if _, err := tx.Exec(ctx, `
			UPDATE balances
			SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
			WHERE user_id = $1
		`, toUserID, amount); err != nil {
			return fmt.Errorf("ошибка начисления получателю: %w", err)
		}

		return logTransaction(ctx, tx, Transaction{
			FromUserID:      &fromUserID,
			ToUserID:        &toUserID,
			Amount:          amount,
			TransactionType: TxTypeTransfer,
			Description:     fmt.Sprintf("Перевод %s", common.FormatBalance(amount)),
		})
	})
}

// GetTransactions возвращает последние N транзакций пользователя.
// Включает как входящие, так и исходящие операции.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, from_user_id, to_user_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.FromUserID, &t.ToUserID,
			&t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}

// GetTotalStats возвращает состояние пользователя без блокировки.
func (r *Repository) GetTotalStats(ctx context.Context, userID int64) (*Balance, error) {
	query := `
		SELECT id, user_id, balance, xp, total_earned, total_spent, created_at, updated_at
		FROM balances
		WHERE user_id = $1
	`
	b, err := scanBalance(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}
	return b, nil
}

func scanBalance(row pgx.Row) (*Balance, error) {
	var b Balance
	err := row.Scan(
		&b.ID, &b.UserID, &b.Balance, &b.XP, &b.TotalEarned, &b.TotalSpent,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
