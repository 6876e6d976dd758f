package cases

import (
	"github.com/ecodeclub/ekit/slice"
	"github.com/shopspring/decimal"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/features/catalog"
)

// weightScale переводит проценты с 4 знаками в целые веса.
var weightScale = decimal.NewFromInt(10_000)

// WeightedEntry: предмет с целочисленным весом.
type WeightedEntry struct {
	ItemID int64
	Weight int64
}

// Selection: результат выбора.
type Selection struct {
	Index       int
	Weight      int64
	TotalWeight int64
	// Fallback: ни одна накопленная сумма не превысила бросок, взят последний предмет.
	Fallback bool
}

// Weight = round(rate × 10000), половина округляется вверх.
func Weight(rate decimal.Decimal) int64 {
	return rate.Mul(weightScale).Round(0).IntPart()
}

// Weigh переводит таблицу шансов в веса, сохраняя порядок.
func Weigh(contents []catalog.ContentEntry) []WeightedEntry {
	return slice.Map(contents, func(_ int, c catalog.ContentEntry) WeightedEntry {
		return WeightedEntry{ItemID: c.Item.ID, Weight: Weight(c.DropRate)}
	})
}

// Select выбирает первый предмет, чья накопленная сумма весов строго больше roll.
// Чистая функция: одинаковые входы всегда дают одинаковый выбор.
// Если веса не покрыли бросок, выбирается последний предмет с Fallback=true.
func Select(entries []WeightedEntry, roll int64) (Selection, error) {
	if len(entries) == 0 {
		return Selection{}, common.ErrEmptyCase
	}

	var total int64
	for _, e := range entries {
		total += e.Weight
	}

	var cumulative int64
	for i, e := range entries {
		cumulative += e.Weight
		if cumulative > roll {
			return Selection{Index: i, Weight: e.Weight, TotalWeight: total}, nil
		}
	}

	last := len(entries) - 1
	return Selection{
		Index:       last,
		Weight:      entries[last].Weight,
		TotalWeight: total,
		Fallback:    true,
	}, nil
}
