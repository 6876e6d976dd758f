package cases

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/features/catalog"
)

func contentsOf(rates ...string) []catalog.ContentEntry {
	out := make([]catalog.ContentEntry, len(rates))
	for i, r := range rates {
		out[i] = catalog.ContentEntry{
			CaseID:   1,
			Item:     catalog.Item{ID: int64(i + 1), Name: string(rune('A' + i)), Rarity: catalog.RarityCommon},
			DropRate: decimal.RequireFromString(r),
		}
	}
	return out
}

func TestWeight(t *testing.T) {
	testCases := []struct {
		rate string
		want int64
	}{
		{rate: "30", want: 300_000},
		{rate: "0.0001", want: 1},
		{rate: "69.9999", want: 699_999},
		{rate: "100", want: 1_000_000},
		// половина округляется вверх
		{rate: "0.00005", want: 1},
		{rate: "0.00004", want: 0},
		{rate: "12.34565", want: 123_457},
	}
	for _, tc := range testCases {
		t.Run(tc.rate, func(t *testing.T) {
			assert.Equal(t, tc.want, Weight(decimal.RequireFromString(tc.rate)))
		})
	}
}

func TestSelect_Boundary(t *testing.T) {
	entries := Weigh(contentsOf("30", "70"))

	sel, err := Select(entries, 299_999)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Index)
	assert.False(t, sel.Fallback)

	// накопленные 300000 у A не больше 300000
	sel, err = Select(entries, 300_000)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, int64(700_000), sel.Weight)
	assert.Equal(t, int64(1_000_000), sel.TotalWeight)

	sel, err = Select(entries, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Index)

	sel, err = Select(entries, 999_999)
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Index)
	assert.False(t, sel.Fallback)
}

func TestSelect_Deterministic(t *testing.T) {
	entries := Weigh(contentsOf("10", "20", "69.9999", "0.0001"))
	for _, roll := range []int64{0, 99_999, 100_000, 299_999, 300_000, 999_998, 999_999} {
		first, err := Select(entries, roll)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := Select(entries, roll)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestSelect_SwordShieldGemCrown(t *testing.T) {
	contents := []catalog.ContentEntry{
		{Item: catalog.Item{ID: 1, Name: "Меч"}, DropRate: decimal.RequireFromString("10.0000")},
		{Item: catalog.Item{ID: 2, Name: "Щит"}, DropRate: decimal.RequireFromString("20.0000")},
		{Item: catalog.Item{ID: 3, Name: "Камень"}, DropRate: decimal.RequireFromString("69.9999")},
		{Item: catalog.Item{ID: 4, Name: "Корона"}, DropRate: decimal.RequireFromString("0.0001")},
	}
	require.NoError(t, catalog.ValidateContents(contents))

	sel, err := Select(Weigh(contents), 999_999)
	require.NoError(t, err)
	assert.Equal(t, "Корона", contents[sel.Index].Item.Name)
	assert.False(t, sel.Fallback)

	sel, err = Select(Weigh(contents), 999_998)
	require.NoError(t, err)
	assert.Equal(t, "Камень", contents[sel.Index].Item.Name)
}

func TestSelect_Fallback(t *testing.T) {
	entries := []WeightedEntry{{ItemID: 1, Weight: 499_999}, {ItemID: 2, Weight: 499_999}}

	sel, err := Select(entries, 999_999)
	require.NoError(t, err)
	assert.True(t, sel.Fallback)
	assert.Equal(t, 1, sel.Index)
	assert.Equal(t, int64(999_998), sel.TotalWeight)

	sel, err = Select(entries, 999_997)
	require.NoError(t, err)
	assert.False(t, sel.Fallback)
	assert.Equal(t, 1, sel.Index)
}

func TestSelect_Empty(t *testing.T) {
	_, err := Select(nil, 0)
	assert.ErrorIs(t, err, common.ErrEmptyCase)
}
