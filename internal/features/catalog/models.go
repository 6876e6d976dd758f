// Package catalog хранит каталог кейсов: определения, предметы и таблицы шансов.
// models.go описывает структуры каталога. Каталог ведут администраторы,
// движок открытия кейсов только читает его.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rarity: редкость предмета.
type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// Emoji возвращает значок редкости для сообщений в чате.
func (r Rarity) Emoji() string {
	switch r {
	case RarityLegendary:
		return "🟨"
	case RarityEpic:
		return "🟪"
	case RarityRare:
		return "🟦"
	case RarityUncommon:
		return "🟩"
	default:
		return "⬜"
	}
}

// Item: предмет, который может выпасть из кейса.
type Item struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Rarity      Rarity `db:"rarity" json:"rarity"`
	Description string `db:"description" json:"description,omitempty"`
}

// Case: определение кейса.
type Case struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"` // Опубликован ли кейс
	CreatedAt time.Time `db:"created_at"`
}

// ContentEntry: строка таблицы шансов: какой предмет и с каким шансом (в процентах).
// Шанс хранится как точное десятичное число с 4 знаками после запятой.
type ContentEntry struct {
	CaseID   int64           `db:"case_id"`
	Item     Item            `db:"-"`
	DropRate decimal.Decimal `db:"drop_rate"`
}
