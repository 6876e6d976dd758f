package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/features/economy"
	"serotonyl.ru/casebot/internal/features/inventory"
	"serotonyl.ru/casebot/internal/features/members"
)

type fakeSources struct {
	loads int
}

func (f *fakeSources) GetByUserID(_ context.Context, userID int64) (*members.Member, error) {
	f.loads++
	if userID != 1 {
		return nil, common.ErrUserNotFound
	}
	return &members.Member{UserID: 1, Username: "neo"}, nil
}

func (f *fakeSources) GetStats(context.Context, int64) (*economy.Balance, error) {
	return &economy.Balance{Balance: 2350, XP: 20}, nil
}

func (f *fakeSources) Counts(context.Context, int64) (inventory.Counts, error) {
	return inventory.Counts{Items: 3, Cases: 1}, nil
}

type mapCache struct {
	data   map[int64]Profile
	getErr error
}

func (c *mapCache) Get(_ context.Context, userID int64) (*Profile, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	p, ok := c.data[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &p, nil
}

func (c *mapCache) Set(_ context.Context, p *Profile) error {
	c.data[p.UserID] = *p
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, userID int64) error {
	delete(c.data, userID)
	return nil
}

func TestService_Get(t *testing.T) {
	src := &fakeSources{}
	cache := &mapCache{data: map[int64]Profile{}}
	svc := NewService(src, src, src, cache)

	p, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Profile{UserID: 1, DisplayName: "@neo", Balance: 2350, XP: 20, Items: 3, Cases: 1}, *p)
	assert.Equal(t, 1, src.loads)

	// второй раз: из кэша
	_, err = svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, src.loads)

	require.NoError(t, svc.Invalidate(context.Background(), 1))
	_, err = svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, src.loads)
}

func TestService_Get_CacheDown(t *testing.T) {
	src := &fakeSources{}
	cache := &mapCache{data: map[int64]Profile{}, getErr: errors.New("connection refused")}
	svc := NewService(src, src, src, cache)

	p, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2350), p.Balance)
}

func TestService_Get_UnknownUser(t *testing.T) {
	src := &fakeSources{}
	svc := NewService(src, src, src, NopCache{})

	_, err := svc.Get(context.Background(), 2)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestFormat(t *testing.T) {
	text := Format(&Profile{DisplayName: "@neo", Balance: 2350, XP: 20, Items: 3, Cases: 1})
	assert.Contains(t, text, "👤 @neo")
	assert.Contains(t, text, "2 350 кредитов")
	assert.Contains(t, text, "Опыт: 20")
}
