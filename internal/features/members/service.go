// Package members, service.go содержит бизнес-логику управления участниками.
// Сервис регистрирует новых участников и обновляет их данные.
package members

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
)

// BalanceCreator заводит строку баланса для нового участника.
// Без неё открытие кейса не сможет заблокировать пользователя.
type BalanceCreator interface {
	CreateBalance(ctx context.Context, userID int64) error
}

// Service управляет участниками чата.
type Service struct {
	repo     *Repository
	balances BalanceCreator
}

// NewService создаёт новый сервис участников.
func NewService(repo *Repository, balances BalanceCreator) *Service {
	return &Service{repo: repo, balances: balances}
}

// HandleNewMember регистрирует пользователя или обновляет данные вернувшегося.
// Баланс создаётся в обоих случаях: CreateBalance идемпотентен.
func (s *Service) HandleNewMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	existing, err := s.repo.GetByUserID(ctx, userID)
	switch {
	case err == nil && existing != nil:
		log.WithField("user_id", userID).Info("Участник перезашёл в чат, обновляем данные")
		if err := s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		}); err != nil {
			return err
		}
	case errors.Is(err, common.ErrUserNotFound):
		member := &Member{
			UserID:    userID,
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		}
		if err := s.repo.Create(ctx, member); err != nil {
			return fmt.Errorf("ошибка регистрации нового участника: %w", err)
		}
		log.WithFields(log.Fields{
			"user_id":  userID,
			"username": username,
		}).Info("Новый участник зарегистрирован")
	default:
		return err
	}

	if err := s.balances.CreateBalance(ctx, userID); err != nil {
		return fmt.Errorf("ошибка создания баланса участника: %w", err)
	}
	return nil
}

// GetByUserID возвращает участника по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает участника по @username (без @).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Member, error) {
	return s.repo.GetByUsername(ctx, username)
}

// EnsureMember гарантирует, что пользователь есть в базе вместе с балансом.
// Используется при каждом сообщении, поэтому для известных участников: один SELECT.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.HandleNewMember(ctx, userID, username, firstName, lastName)
}

// IsMember сообщает, знает ли база пользователя.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}
