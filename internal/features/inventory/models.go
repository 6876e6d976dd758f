// Package inventory хранит то, чем владеют участники: неоткрытые кейсы и предметы.
package inventory

import (
	"time"

	"serotonyl.ru/casebot/internal/features/catalog"
)

// CaseInstance: один неоткрытый кейс у пользователя.
// Открытие удаляет строку: экземпляр расходуется ровно один раз.
type CaseInstance struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	CaseID     int64     `db:"case_id"`
	AcquiredAt time.Time `db:"acquired_at"`
}

// OwnedItem: предмет в коллекции пользователя. Дубликатов не бывает.
type OwnedItem struct {
	UserID     int64        `db:"user_id"`
	Item       catalog.Item `db:"-"`
	AcquiredAt time.Time    `db:"acquired_at"`
}

// CaseStack: сколько кейсов одного типа лежит у пользователя.
type CaseStack struct {
	CaseID   int64
	CaseName string
	Count    int64
}

// Counts: размеры инвентаря для профиля.
type Counts struct {
	Items int64 `json:"items"`
	Cases int64 `json:"cases"`
}
