package admin

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/features/cases"
	"serotonyl.ru/casebot/internal/features/catalog"
	"serotonyl.ru/casebot/internal/features/inventory"
)

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSender) SendText(_ context.Context, _ int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
}

func (s *recordingSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

type fakeGranter struct {
	granted [][2]int64
}

func (g *fakeGranter) GrantCase(_ context.Context, userID, caseID int64) (*inventory.CaseInstance, *catalog.Case, error) {
	if userID == 404 {
		return nil, nil, fmt.Errorf("grant: %w", common.ErrUserNotFound)
	}
	g.granted = append(g.granted, [2]int64{userID, caseID})
	return &inventory.CaseInstance{ID: 1, UserID: userID, CaseID: caseID},
		&catalog.Case{ID: caseID, Name: "Стартовый"}, nil
}

type fakeCatalog struct {
	valid     bool
	published []int64
}

func (c *fakeCatalog) ValidateCase(_ context.Context, caseID int64) (*catalog.Validation, error) {
	v := &catalog.Validation{Case: &catalog.Case{ID: caseID, Name: "Стартовый"}, Entries: 4, Valid: c.valid}
	if !c.valid {
		v.Reason = fmt.Errorf("сумма 99.9999%%: %w", common.ErrInvalidCaseContents)
	}
	return v, nil
}

func (c *fakeCatalog) PublishCase(ctx context.Context, caseID int64) (*catalog.Validation, error) {
	v, _ := c.ValidateCase(ctx, caseID)
	if v.Valid {
		v.Case.IsActive = true
		c.published = append(c.published, caseID)
	}
	return v, nil
}

func (c *fakeCatalog) UnpublishCase(context.Context, int64) error { return nil }

type fakeRolls struct{}

func (fakeRolls) VerifyRoll(context.Context, uuid.UUID) (*cases.Verification, error) {
	return nil, common.ErrRollNotFound
}

func (fakeRolls) AuditFairness(context.Context, time.Time) ([]cases.FairnessReport, error) {
	return nil, nil
}

type handlerFixture struct {
	h       *Handler
	store   *memStore
	sender  *recordingSender
	granter *fakeGranter
	catalog *fakeCatalog
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	svc, store := newTestService(t)
	f := &handlerFixture{
		store:   store,
		sender:  &recordingSender{},
		granter: &fakeGranter{},
		catalog: &fakeCatalog{valid: true},
	}
	f.h = NewHandler(svc, f.granter, f.catalog, fakeRolls{}, f.sender, time.Hour)
	return f
}

func (f *handlerFixture) send(text string) bool {
	return f.h.HandleAdminMessage(context.Background(), adminID, adminID, text)
}

func TestHandleAdminMessage_IgnoresNonAdmins(t *testing.T) {
	f := newHandlerFixture(t)
	assert.False(t, f.h.HandleAdminMessage(context.Background(), 1, 1, "/grant 1 1"))
	assert.Empty(t, f.sender.texts)
}

func TestHandleAdminMessage_RequiresSession(t *testing.T) {
	f := newHandlerFixture(t)

	assert.True(t, f.send("/grant 5 1"))
	assert.Contains(t, f.sender.last(), "/login")
	assert.Empty(t, f.granter.granted)
}

func TestHandleAdminMessage_LoginFlow(t *testing.T) {
	f := newHandlerFixture(t)

	assert.True(t, f.send("/login"))
	assert.Contains(t, f.sender.last(), "Введите пароль")

	assert.True(t, f.send("wrong"))
	assert.Equal(t, common.UserMessage(common.ErrWrongPassword), f.sender.last())

	assert.True(t, f.send("/login "+password))
	assert.Contains(t, f.sender.last(), "Аутентификация успешна")
}

func TestHandleAdminMessage_Grant(t *testing.T) {
	f := newHandlerFixture(t)
	require.True(t, f.send("/login "+password))

	assert.True(t, f.send("/grant 5 #3"))
	assert.Equal(t, [][2]int64{{5, 3}}, f.granter.granted)
	assert.Contains(t, f.sender.last(), "выдан пользователю 5")
	assert.Contains(t, f.store.actions(), ActionGrantCase)

	assert.True(t, f.send("/grant 404 3"))
	assert.Equal(t, common.UserMessage(common.ErrUserNotFound), f.sender.last())

	assert.True(t, f.send("/grant abc"))
	assert.Contains(t, f.sender.last(), "Формат")
}

func TestHandleAdminMessage_PublishRejectsInvalidTable(t *testing.T) {
	f := newHandlerFixture(t)
	require.True(t, f.send("/login "+password))

	f.catalog.valid = false
	assert.True(t, f.send("/publish 2"))
	assert.Contains(t, f.sender.last(), "Публикация отклонена")
	assert.Empty(t, f.catalog.published)
	assert.NotContains(t, f.store.actions(), ActionPublishCase)

	f.catalog.valid = true
	assert.True(t, f.send("/publish 2"))
	assert.Equal(t, []int64{2}, f.catalog.published)
	assert.Contains(t, f.store.actions(), ActionPublishCase)
}

func TestHandleAdminMessage_VerifyUnknownRoll(t *testing.T) {
	f := newHandlerFixture(t)
	require.True(t, f.send("/login "+password))

	assert.True(t, f.send("/verify not-a-uuid"))
	assert.Contains(t, f.sender.last(), "Некорректный")

	assert.True(t, f.send("/verify "+uuid.NewString()))
	assert.Equal(t, common.UserMessage(common.ErrRollNotFound), f.sender.last())
}

func TestHandleAdminMessage_UnknownTextFallsThrough(t *testing.T) {
	f := newHandlerFixture(t)
	assert.False(t, f.send("привет"))
	assert.False(t, f.send("!кредиты"))
}

func TestFormatFairness(t *testing.T) {
	assert.Contains(t, FormatFairness(nil), "не было открытий")

	text := FormatFairness([]cases.FairnessReport{
		{CaseID: 1, CaseName: "Стартовый", TableHash: "abc", Samples: 5000, Evaluated: true},
		{CaseID: 2, CaseName: "Редкий", TableHash: "def", Samples: 5000, Evaluated: true, Tampered: 1,
			Items: []cases.ItemFairness{{Name: "Корона", Observed: 900, Expected: 50, Z: 120, Flagged: true}}},
		{CaseID: 3, CaseName: "Новый", TableHash: "123", Samples: 10},
	})
	assert.Contains(t, text, "✅ #1 «Стартовый»")
	assert.Contains(t, text, "🚨 #2 «Редкий»")
	assert.Contains(t, text, "подделано: 1")
	assert.Contains(t, text, "Корона: 900 при ожидании 50.0")
	assert.Contains(t, text, "⏳ #3 «Новый»")
}
