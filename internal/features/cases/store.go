package cases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/casebot/internal/features/catalog"
	"serotonyl.ru/casebot/internal/features/economy"
	"serotonyl.ru/casebot/internal/features/inventory"
)

// UserStore: изменяемое состояние пользователя внутри транзакции.
type UserStore interface {
	// GetForUpdate блокирует пользователя до конца транзакции.
	GetForUpdate(ctx context.Context, userID int64) (*economy.Balance, error)
	Save(ctx context.Context, b *economy.Balance) error
	LogTransaction(ctx context.Context, t economy.Transaction) error
}

// CatalogStore: чтение каталога.
type CatalogStore interface {
	GetCase(ctx context.Context, caseID int64) (*catalog.Case, error)
	// GetContents возвращает таблицу по убыванию шанса.
	GetContents(ctx context.Context, caseID int64) ([]catalog.ContentEntry, error)
}

// InventoryStore: кейсы и предметы пользователя.
type InventoryStore interface {
	FindConsumableInstance(ctx context.Context, userID, caseID int64) (*inventory.CaseInstance, error)
	// DeleteInstance: удаление, если строка ещё есть. false, её уже нет.
	DeleteInstance(ctx context.Context, instanceID int64) (bool, error)
	HasItem(ctx context.Context, userID, itemID int64) (bool, error)
	AddItem(ctx context.Context, userID, itemID int64) error
}

// AuditStore: запись бросков в той же транзакции.
type AuditStore interface {
	InsertRoll(ctx context.Context, rec *RollRecord) error
}

// Tx: единица работы открытия кейса. Всё, что сделано через Tx,
// фиксируется вместе или не фиксируется вовсе.
type Tx interface {
	Users() UserStore
	Catalog() CatalogStore
	Inventory() InventoryStore
	Audit() AuditStore
}

// Store: хранилище движка кейсов.
type Store interface {
	// InTx выполняет fn в транзакции: ошибка fn откатывает всё.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetRoll(ctx context.Context, rollUID uuid.UUID) (*RollRecord, error)
	History(ctx context.Context, userID int64, limit int) ([]RollRecord, error)
	// RolledCases: кейсы, которые открывали начиная с since.
	RolledCases(ctx context.Context, since time.Time) ([]int64, error)
	RollsForCase(ctx context.Context, caseID int64, since time.Time) ([]RollRecord, error)
}

// AdminAuditSink: журнал, видимый администраторам. Запись не обязательна:
// её ошибка логируется и не влияет на открытие.
type AdminAuditSink interface {
	Record(ctx context.Context, actorID int64, action, details string) error
}

// ProfileInvalidator сбрасывает кэш профиля после открытия.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}
