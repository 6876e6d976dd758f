package profile

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/features/economy"
	"serotonyl.ru/casebot/internal/features/inventory"
	"serotonyl.ru/casebot/internal/features/members"
)

type MemberSource interface {
	GetByUserID(ctx context.Context, userID int64) (*members.Member, error)
}

type StatsSource interface {
	GetStats(ctx context.Context, userID int64) (*economy.Balance, error)
}

type CountsSource interface {
	Counts(ctx context.Context, userID int64) (inventory.Counts, error)
}

// Service отдаёт профиль, сначала заглядывая в кэш.
type Service struct {
	members   MemberSource
	stats     StatsSource
	inventory CountsSource
	cache     Cache
}

func NewService(m MemberSource, s StatsSource, inv CountsSource, cache Cache) *Service {
	return &Service{members: m, stats: s, inventory: inv, cache: cache}
}

// Get возвращает профиль. Ошибки кэша не мешают: профиль собирается из БД.
func (s *Service) Get(ctx context.Context, userID int64) (*Profile, error) {
	p, err := s.cache.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !IsMiss(err) {
		log.WithError(err).WithField("user_id", userID).Warn("Кэш профилей недоступен")
	}

	p, err = s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, p); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось положить профиль в кэш")
	}
	return p, nil
}

func (s *Service) load(ctx context.Context, userID int64) (*Profile, error) {
	m, err := s.members.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	b, err := s.stats.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	c, err := s.inventory.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:      userID,
		DisplayName: m.DisplayName(),
		Balance:     b.Balance,
		XP:          b.XP,
		Items:       c.Items,
		Cases:       c.Cases,
	}, nil
}

// Invalidate сбрасывает кэш профиля.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	return s.cache.Invalidate(ctx, userID)
}
