package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCatalog(t *testing.T) {
	assert.Equal(t, "🗃 Витрина пуста", FormatCatalog(nil))

	text := FormatCatalog([]Case{{ID: 1, Name: "Стартовый"}, {ID: 7, Name: "Легендарный"}})
	assert.Contains(t, text, "#1 Стартовый\n#7 Легендарный\n")
}

func TestFormatContents(t *testing.T) {
	text := FormatContents(&Case{ID: 3, Name: "Оружейный"}, []ContentEntry{
		{Item: Item{Name: "Меч", Rarity: RarityCommon}, DropRate: decimal.RequireFromString("70")},
		{Item: Item{Name: "Корона", Rarity: RarityLegendary}, DropRate: decimal.RequireFromString("0.5")},
	})
	assert.Equal(t, "📦 #3 Оружейный\n\n⬜ Меч — 70.0000%\n🟨 Корона — 0.5000%", text)
}
