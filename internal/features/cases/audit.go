package cases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ecodeclub/ekit/slice"
	"github.com/shopspring/decimal"

	"serotonyl.ru/casebot/internal/features/catalog"
)

// SeedHash: sha256 от сида в hex. Сам сид нигде не сохраняется.
func SeedHash(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// StatisticalHash: хэш полей, важных для аудита честности:
// бросок, шанс выпавшего предмета и общий вес таблицы.
// Не зависит от сида, поэтому его можно пересчитать по записи.
func StatisticalHash(rollValue int64, dropRate decimal.Decimal, totalWeight int64) string {
	payload := fmt.Sprintf("%d|%s|%d", rollValue, dropRate.StringFixed(catalog.RatePrecision), totalWeight)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Snapshot фиксирует таблицу шансов в записи броска.
func Snapshot(contents []catalog.ContentEntry, weighted []WeightedEntry) []SnapshotEntry {
	return slice.Map(contents, func(i int, c catalog.ContentEntry) SnapshotEntry {
		return SnapshotEntry{
			ItemID:   c.Item.ID,
			Name:     c.Item.Name,
			Rarity:   c.Item.Rarity,
			DropRate: c.DropRate.StringFixed(catalog.RatePrecision),
			Weight:   weighted[i].Weight,
		}
	})
}

// Verify пересчитывает выбор и хэш по сохранённой записи.
func Verify(rec *RollRecord) *Verification {
	v := &Verification{Record: rec, WeightsMatch: true}

	entries := make([]WeightedEntry, len(rec.ContentsSnapshot))
	var total int64
	for i, s := range rec.ContentsSnapshot {
		rate, err := decimal.NewFromString(s.DropRate)
		if err != nil || Weight(rate) != s.Weight {
			v.WeightsMatch = false
		}
		entries[i] = WeightedEntry{ItemID: s.ItemID, Weight: s.Weight}
		total += s.Weight
	}
	if total != rec.TotalWeight {
		v.WeightsMatch = false
	}

	if sel, err := Select(entries, rec.RollValue); err == nil {
		v.RecomputedItemID = entries[sel.Index].ItemID
		v.ItemMatches = v.RecomputedItemID == rec.WonItemID
		v.Fallback = sel.Fallback
	}

	v.HashMatches = StatisticalHash(rec.RollValue, rec.DropRate, rec.TotalWeight) == rec.StatisticalHash
	return v
}
