// Package catalog, service.go: проверка таблиц шансов и публикация кейсов.
package catalog

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
)

// Service управляет каталогом кейсов.
type Service struct {
	repo *Repository
}

// NewService создаёт сервис каталога.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Validation: результат проверки таблицы шансов для админки.
type Validation struct {
	Case    *Case
	Entries int
	Valid   bool
	Reason  error // ErrEmptyCase / ErrInvalidCaseContents с подробностями
}

// ValidateCase проверяет таблицу шансов кейса.
// Ошибка возвращается только если кейса нет или упала БД;
// дефект таблицы: это Valid=false и Reason.
func (s *Service) ValidateCase(ctx context.Context, caseID int64) (*Validation, error) {
	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.GetContents(ctx, caseID)
	if err != nil {
		return nil, err
	}

	v := &Validation{Case: c, Entries: len(entries), Valid: true}
	if err := ValidateContents(entries); err != nil {
		v.Valid = false
		v.Reason = err
	}
	return v, nil
}

// PublishCase публикует кейс, только если его таблица шансов корректна.
func (s *Service) PublishCase(ctx context.Context, caseID int64) (*Validation, error) {
	v, err := s.ValidateCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		log.WithFields(log.Fields{
			"case_id": caseID,
			"reason":  v.Reason.Error(),
		}).Warn("Публикация кейса отклонена")
		return v, nil
	}

	if err := s.repo.SetActive(ctx, caseID, true); err != nil {
		return nil, err
	}
	v.Case.IsActive = true
	log.WithField("case_id", caseID).Info("Кейс опубликован")
	return v, nil
}

// UnpublishCase снимает кейс с публикации. Уже выданные экземпляры можно открыть.
func (s *Service) UnpublishCase(ctx context.Context, caseID int64) error {
	return s.repo.SetActive(ctx, caseID, false)
}

// ListActive возвращает опубликованные кейсы.
func (s *Service) ListActive(ctx context.Context) ([]Case, error) {
	return s.repo.ListCases(ctx, true)
}

// Contents возвращает кейс и его содержимое для витрины.
func (s *Service) Contents(ctx context.Context, caseID int64) (*Case, []ContentEntry, error) {
	c, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	if !c.IsActive {
		return nil, nil, fmt.Errorf("кейс %d не опубликован: %w", caseID, common.ErrCaseNotFound)
	}
	entries, err := s.repo.GetContents(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	return c, entries, nil
}

// IsContentError сообщает, что ошибка: дефект таблицы шансов, а не сбой.
func IsContentError(err error) bool {
	return errors.Is(err, common.ErrEmptyCase) || errors.Is(err, common.ErrInvalidCaseContents)
}
