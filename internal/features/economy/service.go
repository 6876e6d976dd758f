// Package economy, service.go содержит бизнес-логику экономики.
// Валидация, переводы, получение баланса и истории транзакций.
package economy

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
)

// historyLimit: сколько транзакций показывает !транзакции.
const historyLimit = 10

// Service управляет экономикой бота (кредиты).
type Service struct {
	repo            *Repository
	startingBalance int64
}

// NewService создаёт новый сервис экономики.
func NewService(repo *Repository, startingBalance int64) *Service {
	return &Service{repo: repo, startingBalance: startingBalance}
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// GetStats возвращает баланс, опыт и счётчики.
func (s *Service) GetStats(ctx context.Context, userID int64) (*Balance, error) {
	return s.repo.GetTotalStats(ctx, userID)
}

// AddBalance начисляет кредиты пользователю.
func (s *Service) AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repo.AddBalance(ctx, userID, amount, txType, description)
}

// Transfer переводит кредиты от одного пользователя к другому.
// Проверки:
//   - нельзя переводить себе
//   - сумма должна быть положительной
//   - у отправителя должно быть достаточно кредитов (внутри транзакции)
func (s *Service) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	if fromUserID == toUserID {
		return common.ErrSelfTransfer
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	if err := s.repo.Transfer(ctx, fromUserID, toUserID, amount); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"from":   fromUserID,
		"to":     toUserID,
		"amount": amount,
	}).Info("Перевод выполнен")
	return nil
}

// GetTransactionHistory возвращает форматированную историю последних транзакций.
func (s *Service) GetTransactionHistory(ctx context.Context, userID int64) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, userID, historyLimit)
	if err != nil {
		return "", err
	}
	return FormatHistory(userID, transactions), nil
}

// FormatHistory собирает текст истории транзакций.
func FormatHistory(userID int64, transactions []*Transaction) string {
	if len(transactions) == 0 {
		return "📋 У вас пока нет транзакций"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d транзакций:\n\n", len(transactions)))

	for i, tx := range transactions {
		// + если получили, - если отправили
		amount := tx.Amount
		if tx.FromUserID != nil && *tx.FromUserID == userID {
			amount = -amount
		}
		sb.WriteString(fmt.Sprintf("%d. %s | %s | %s\n",
			i+1,
			common.FormatDateTime(tx.CreatedAt),
			common.FormatCreditsAmount(amount),
			tx.Description,
		))
	}
	return sb.String()
}

// CreateBalance создаёт начальный баланс для нового участника.
func (s *Service) CreateBalance(ctx context.Context, userID int64) error {
	return s.repo.CreateBalance(ctx, userID, s.startingBalance)
}
