package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casebot/internal/common"
)

func table(rates ...string) []ContentEntry {
	out := make([]ContentEntry, 0, len(rates))
	for i, r := range rates {
		out = append(out, ContentEntry{
			CaseID:   1,
			Item:     Item{ID: int64(i + 1), Name: "item", Rarity: RarityCommon},
			DropRate: decimal.RequireFromString(r),
		})
	}
	return out
}

func TestValidateContents(t *testing.T) {
	testCases := []struct {
		name    string
		rates   []string
		wantErr error
	}{
		{name: "ровно 100", rates: []string{"30", "70"}},
		{name: "меч щит камень корона", rates: []string{"50", "30", "19.5", "0.5"}},
		{name: "четыре знака", rates: []string{"33.3333", "33.3333", "33.3334"}},
		{name: "один предмет", rates: []string{"100"}},
		{name: "недобор 0.0001", rates: []string{"50", "49.9999"}, wantErr: common.ErrInvalidCaseContents},
		{name: "перебор 0.0001", rates: []string{"50", "50.0001"}, wantErr: common.ErrInvalidCaseContents},
		{name: "пусто", rates: nil, wantErr: common.ErrEmptyCase},
		{name: "отрицательный шанс", rates: []string{"110", "-10"}, wantErr: common.ErrInvalidCaseContents},
		{name: "нулевой шанс", rates: []string{"100", "0"}, wantErr: common.ErrInvalidCaseContents},
		{name: "пять знаков", rates: []string{"49.99995", "50.00005"}, wantErr: common.ErrInvalidCaseContents},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateContents(table(tc.rates...))
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateContents_NotEmptyIsNotEmptyCase(t *testing.T) {
	err := ValidateContents(table("99.9999"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrEmptyCase)
	assert.True(t, IsContentError(err))
}

func TestRarityEmoji(t *testing.T) {
	assert.Equal(t, "🟨", RarityLegendary.Emoji())
	assert.Equal(t, "⬜", Rarity("MYTHIC").Emoji())
}
