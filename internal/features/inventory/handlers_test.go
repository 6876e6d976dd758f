package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/casebot/internal/features/catalog"
)

func TestFormatCases(t *testing.T) {
	assert.Equal(t, "📦 У вас нет неоткрытых кейсов", FormatCases(nil))

	text := FormatCases([]CaseStack{
		{CaseID: 1, CaseName: "Стартовый", Count: 1},
		{CaseID: 2, CaseName: "Легендарный", Count: 3},
	})
	assert.Contains(t, text, "#1 Стартовый — 1 кейс\n")
	assert.Contains(t, text, "#2 Легендарный — 3 кейса\n")
	assert.Contains(t, text, "!открыть")
}

func TestFormatItems(t *testing.T) {
	assert.Equal(t, "🎒 Инвентарь пуст", FormatItems(nil))

	text := FormatItems([]OwnedItem{
		{Item: catalog.Item{ID: 4, Name: "Корона", Rarity: catalog.RarityLegendary}},
		{Item: catalog.Item{ID: 1, Name: "Меч", Rarity: catalog.RarityCommon}},
	})
	assert.Equal(t, "🎒 Предметов: 2\n\n🟨 Корона\n⬜ Меч", text)
}
