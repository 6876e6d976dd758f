package cases

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/casebot/internal/features/catalog"
)

func TestCompensate(t *testing.T) {
	testCases := []struct {
		rarity  catalog.Rarity
		credits int64
	}{
		{rarity: catalog.RarityLegendary, credits: 500},
		{rarity: catalog.RarityEpic, credits: 300},
		{rarity: catalog.RarityRare, credits: 150},
		{rarity: catalog.RarityUncommon, credits: 100},
		{rarity: catalog.RarityCommon, credits: 50},
		{rarity: "", credits: 50},
		{rarity: "MYTHIC", credits: 50},
	}
	for _, tc := range testCases {
		t.Run(string(tc.rarity), func(t *testing.T) {
			assert.Equal(t, Compensation{Credits: tc.credits, XP: 10}, Compensate(tc.rarity))
		})
	}
}
