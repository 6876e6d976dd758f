// Package inventory, service.go: выдача кейсов и просмотр инвентаря.
package inventory

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/db/postgres"
	"serotonyl.ru/casebot/internal/features/catalog"
)

// CaseLookup: проверка, что кейс есть в каталоге.
type CaseLookup interface {
	GetCase(ctx context.Context, caseID int64) (*catalog.Case, error)
}

// Service: инвентарь участников.
type Service struct {
	repo    *Repository
	catalog CaseLookup
}

// NewService создаёт сервис инвентаря.
func NewService(repo *Repository, catalog CaseLookup) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// GrantCase выдаёт кейс пользователю (админка, награды).
// Неопубликованный кейс выдать можно: публикация управляет только витриной.
func (s *Service) GrantCase(ctx context.Context, userID, caseID int64) (*CaseInstance, *catalog.Case, error) {
	c, err := s.catalog.GetCase(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}

	ci, err := s.repo.GrantCase(ctx, userID, caseID)
	if err != nil {
		// case_instances.user_id ссылается на members
		if postgres.IsForeignKeyViolation(err) {
			return nil, nil, fmt.Errorf("пользователь %d: %w", userID, common.ErrUserNotFound)
		}
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"user_id":     userID,
		"case_id":     caseID,
		"instance_id": ci.ID,
	}).Info("Кейс выдан")
	return ci, c, nil
}

// ListCases: неоткрытые кейсы пользователя.
func (s *Service) ListCases(ctx context.Context, userID int64) ([]CaseStack, error) {
	return s.repo.ListCases(ctx, userID)
}

// ListItems: коллекция пользователя.
func (s *Service) ListItems(ctx context.Context, userID int64) ([]OwnedItem, error) {
	return s.repo.ListItems(ctx, userID)
}

// Counts: размеры инвентаря.
func (s *Service) Counts(ctx context.Context, userID int64) (Counts, error) {
	return s.repo.Counts(ctx, userID)
}
