// Package cases: движок открытия кейсов.
// models.go описывает записи аудита и результат открытия.
package cases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"serotonyl.ru/casebot/internal/features/catalog"
)

// Stage: этап открытия кейса. Логируется при ошибке.
type Stage string

const (
	StagePending           Stage = "pending"
	StageInstanceConsumed  Stage = "instance_consumed"
	StageContentsValidated Stage = "contents_validated"
	StageItemSelected      Stage = "item_selected"
	StageResolved          Stage = "resolved"
	StageCommitted         Stage = "committed"
)

// SnapshotEntry: строка таблицы шансов на момент броска.
// Снимок хранится в записи броска, чтобы выбор можно было пересчитать
// даже после правки или удаления каталога.
type SnapshotEntry struct {
	ItemID   int64          `json:"item_id"`
	Name     string         `json:"name"`
	Rarity   catalog.Rarity `json:"rarity"`
	DropRate string         `json:"drop_rate"` // ровно 4 знака после запятой
	Weight   int64          `json:"weight"`
}

// RollRecord: неизменяемая запись аудита об одном открытии.
// Ссылается на каталог только по значению (без внешних ключей).
type RollRecord struct {
	ID               int64
	RollUID          uuid.UUID
	UserID           int64
	CaseID           int64
	CaseName         string
	WonItemID        int64
	WonItemName      string
	WonItemRarity    catalog.Rarity
	RollValue        int64
	SeedHash         string
	DropRate         decimal.Decimal // шанс выпавшего предмета на момент броска
	TotalWeight      int64
	ItemCount        int
	AlreadyOwned     bool
	CreditsBefore    int64
	CreditsAfter     int64
	CreditsAwarded   int64
	XPAwarded        int64
	ContentsSnapshot []SnapshotEntry
	StatisticalHash  string
	CreatedAt        time.Time
}

// Compensation: что выдаётся вместо дубликата.
type Compensation struct {
	Credits int64 `json:"credits"`
	XP      int64 `json:"xp"`
}

// PublicItem: то, что можно показать игроку. Шансов здесь нет.
type PublicItem struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Rarity catalog.Rarity `json:"rarity"`
}

// RollOutcome: результат OpenCase для вызывающей стороны.
// RollValue нужен только для синхронизации анимации.
type RollOutcome struct {
	RollUID      uuid.UUID     `json:"roll_uid"`
	CaseID       int64         `json:"case_id"`
	CaseName     string        `json:"case_name"`
	WonItem      PublicItem    `json:"won_item"`
	RollValue    int64         `json:"roll_value"`
	RolledAt     time.Time     `json:"rolled_at"`
	AlreadyOwned bool          `json:"already_owned"`
	Compensation *Compensation `json:"compensation,omitempty"`
}

// Verification: результат повторной проверки записи броска.
type Verification struct {
	Record *RollRecord

	RecomputedItemID int64
	ItemMatches      bool // пересчёт выбора дал тот же предмет
	HashMatches      bool // статистический хэш совпал
	WeightsMatch     bool // веса снимка совпадают с его шансами
	Fallback         bool
}

// OK: запись прошла все проверки.
func (v *Verification) OK() bool {
	return v.ItemMatches && v.HashMatches && v.WeightsMatch
}
