package cases

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/features/catalog"
	"serotonyl.ru/casebot/internal/features/economy"
	"serotonyl.ru/casebot/internal/features/inventory"
)

// memStore: Store в памяти для тестов.
// Блокировка пользователя: мьютекс, который держится до конца транзакции,
// откат: журнал отмены.
type memStore struct {
	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex

	users     map[int64]economy.Balance
	cases     map[int64]catalog.Case
	contents  map[int64][]catalog.ContentEntry
	instances map[int64]inventory.CaseInstance
	owned     map[[2]int64]bool
	rolls     []RollRecord
	txs       []economy.Transaction
	nextID    int64

	insertRollErr error
	// stealInstance удаляет экземпляр между поиском и удалением
	stealInstance bool
}

func newMemStore() *memStore {
	return &memStore{
		userLocks: make(map[int64]*sync.Mutex),
		users:     make(map[int64]economy.Balance),
		cases:     make(map[int64]catalog.Case),
		contents:  make(map[int64][]catalog.ContentEntry),
		instances: make(map[int64]inventory.CaseInstance),
		owned:     make(map[[2]int64]bool),
	}
}

func (s *memStore) addUser(userID, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = economy.Balance{UserID: userID, Balance: balance}
}

func (s *memStore) addCase(caseID int64, name string, contents []catalog.ContentEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[caseID] = catalog.Case{ID: caseID, Name: name, IsActive: true}
	s.contents[caseID] = contents
}

func (s *memStore) grant(userID, caseID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.instances[s.nextID] = inventory.CaseInstance{ID: s.nextID, UserID: userID, CaseID: caseID}
	return s.nextID
}

func (s *memStore) giveItem(userID, itemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned[[2]int64{userID, itemID}] = true
}

func (s *memStore) user(userID int64) economy.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID]
}

func (s *memStore) instanceCount(userID, caseID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ci := range s.instances {
		if ci.UserID == userID && ci.CaseID == caseID {
			n++
		}
	}
	return n
}

func (s *memStore) ownedCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.owned {
		if k[0] == userID {
			n++
		}
	}
	return n
}

func (s *memStore) rollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rolls)
}

func (s *memStore) txCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

type memTx struct {
	s      *memStore
	undo   []func()
	locked []*sync.Mutex
}

func (s *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	tx := &memTx{s: s}
	err := fn(tx)

	if err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
	}
	for _, l := range tx.locked {
		l.Unlock()
	}
	return err
}

func (t *memTx) Users() UserStore          { return t }
func (t *memTx) Catalog() CatalogStore     { return t }
func (t *memTx) Inventory() InventoryStore { return t }
func (t *memTx) Audit() AuditStore         { return t }

func (t *memTx) GetForUpdate(_ context.Context, userID int64) (*economy.Balance, error) {
	t.s.mu.Lock()
	l, ok := t.s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.s.userLocks[userID] = l
	}
	t.s.mu.Unlock()

	l.Lock()
	t.locked = append(t.locked, l)

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.users[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return &b, nil
}

func (t *memTx) Save(_ context.Context, b *economy.Balance) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	old, ok := t.s.users[b.UserID]
	if !ok {
		return common.ErrUserNotFound
	}
	t.s.users[b.UserID] = *b
	t.undo = append(t.undo, func() { t.s.users[b.UserID] = old })
	return nil
}

func (t *memTx) LogTransaction(_ context.Context, tr economy.Transaction) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.txs = append(t.s.txs, tr)
	n := len(t.s.txs)
	t.undo = append(t.undo, func() { t.s.txs = t.s.txs[:n-1] })
	return nil
}

func (t *memTx) GetCase(_ context.Context, caseID int64) (*catalog.Case, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.cases[caseID]
	if !ok {
		return nil, common.ErrCaseNotFound
	}
	return &c, nil
}

func (t *memTx) GetContents(_ context.Context, caseID int64) ([]catalog.ContentEntry, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return append([]catalog.ContentEntry(nil), t.s.contents[caseID]...), nil
}

func (t *memTx) FindConsumableInstance(_ context.Context, userID, caseID int64) (*inventory.CaseInstance, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var ids []int64
	for id, ci := range t.s.instances {
		if ci.UserID == userID && ci.CaseID == caseID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, common.ErrCaseNotOwned
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ci := t.s.instances[ids[0]]
	if t.s.stealInstance {
		delete(t.s.instances, ci.ID)
	}
	return &ci, nil
}

func (t *memTx) DeleteInstance(_ context.Context, instanceID int64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	ci, ok := t.s.instances[instanceID]
	if !ok {
		return false, nil
	}
	delete(t.s.instances, instanceID)
	t.undo = append(t.undo, func() { t.s.instances[instanceID] = ci })
	return true, nil
}

func (t *memTx) HasItem(_ context.Context, userID, itemID int64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.owned[[2]int64{userID, itemID}], nil
}

func (t *memTx) AddItem(_ context.Context, userID, itemID int64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	key := [2]int64{userID, itemID}
	t.s.owned[key] = true
	t.undo = append(t.undo, func() { delete(t.s.owned, key) })
	return nil
}

func (t *memTx) InsertRoll(_ context.Context, rec *RollRecord) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.insertRollErr != nil {
		return t.s.insertRollErr
	}
	t.s.nextID++
	rec.ID = t.s.nextID
	t.s.rolls = append(t.s.rolls, *rec)
	uid := rec.RollUID
	t.undo = append(t.undo, func() {
		kept := t.s.rolls[:0]
		for _, r := range t.s.rolls {
			if r.RollUID != uid {
				kept = append(kept, r)
			}
		}
		t.s.rolls = kept
	})
	return nil
}

func (s *memStore) GetRoll(_ context.Context, rollUID uuid.UUID) (*RollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rolls {
		if r.RollUID == rollUID {
			rec := r
			return &rec, nil
		}
	}
	return nil, common.ErrRollNotFound
}

func (s *memStore) History(_ context.Context, userID int64, limit int) ([]RollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []RollRecord
	for i := len(s.rolls) - 1; i >= 0 && len(out) < limit; i-- {
		if s.rolls[i].UserID == userID {
			out = append(out, s.rolls[i])
		}
	}
	return out, nil
}

func (s *memStore) RolledCases(_ context.Context, since time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for _, r := range s.rolls {
		if !r.CreatedAt.Before(since) && !seen[r.CaseID] {
			seen[r.CaseID] = true
			ids = append(ids, r.CaseID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) RollsForCase(_ context.Context, caseID int64, since time.Time) ([]RollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []RollRecord
	for _, r := range s.rolls {
		if r.CaseID == caseID && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

// fixedSource: детерминированный RandomSource: броски по кругу.
type fixedSource struct {
	mu    sync.Mutex
	rolls []int64
	i     int
}

func (f *fixedSource) NewSeed() (string, error) { return "test-seed", nil }

func (f *fixedSource) RollValue() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.rolls[f.i%len(f.rolls)]
	f.i++
	return r, nil
}

type auditCall struct {
	actorID int64
	action  string
	details string
}

type fakeAdminAudit struct {
	mu    sync.Mutex
	err   error
	calls []auditCall
}

func (f *fakeAdminAudit) Record(_ context.Context, actorID int64, action, details string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auditCall{actorID: actorID, action: action, details: details})
	return f.err
}

func (f *fakeAdminAudit) count(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.action == action {
			n++
		}
	}
	return n
}

type fakeInvalidator struct {
	mu    sync.Mutex
	users []int64
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	return nil
}

func (f *fakeInvalidator) invalidated(userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u == userID {
			return true
		}
	}
	return false
}
