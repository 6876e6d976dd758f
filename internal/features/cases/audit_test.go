package cases

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedHash(t *testing.T) {
	h := SeedHash("seed")
	sum := sha256.Sum256([]byte("seed"))
	assert.Equal(t, hex.EncodeToString(sum[:]), h)
	assert.Len(t, h, 64)
	assert.NotEqual(t, h, SeedHash("seed2"))
}

func TestStatisticalHash(t *testing.T) {
	sum := sha256.Sum256([]byte("299999|30.0000|1000000"))
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, StatisticalHash(299_999, decimal.RequireFromString("30"), 1_000_000))
	// разная запись одного числа даёт один хэш
	assert.Equal(t, want, StatisticalHash(299_999, decimal.RequireFromString("30.00"), 1_000_000))
	assert.NotEqual(t, want, StatisticalHash(300_000, decimal.RequireFromString("30"), 1_000_000))
	assert.NotEqual(t, SeedHash("299999|30.0000|1000000"), StatisticalHash(299_999, decimal.RequireFromString("31"), 1_000_000))
}

func recordFor(t *testing.T, roll int64, rates ...string) *RollRecord {
	t.Helper()
	contents := contentsOf(rates...)
	weighted := Weigh(contents)
	sel, err := Select(weighted, roll)
	require.NoError(t, err)
	won := contents[sel.Index]
	return &RollRecord{
		RollUID:          uuid.New(),
		WonItemID:        won.Item.ID,
		RollValue:        roll,
		DropRate:         won.DropRate,
		TotalWeight:      sel.TotalWeight,
		ContentsSnapshot: Snapshot(contents, weighted),
		StatisticalHash:  StatisticalHash(roll, won.DropRate, sel.TotalWeight),
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	for _, roll := range []int64{0, 299_999, 300_000, 999_999} {
		v := Verify(recordFor(t, roll, "30", "70"))
		assert.True(t, v.OK(), "roll %d", roll)
		assert.False(t, v.Fallback)
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	t.Run("подменён предмет", func(t *testing.T) {
		rec := recordFor(t, 100, "30", "70")
		rec.WonItemID = 2
		v := Verify(rec)
		assert.False(t, v.ItemMatches)
		assert.Equal(t, int64(1), v.RecomputedItemID)
		assert.False(t, v.OK())
	})

	t.Run("подменён бросок", func(t *testing.T) {
		rec := recordFor(t, 100, "30", "70")
		rec.RollValue = 500_000
		v := Verify(rec)
		assert.False(t, v.ItemMatches)
		assert.False(t, v.HashMatches)
	})

	t.Run("подменён вес в снимке", func(t *testing.T) {
		rec := recordFor(t, 100, "30", "70")
		rec.ContentsSnapshot[0].Weight = 900_000
		v := Verify(rec)
		assert.False(t, v.WeightsMatch)
		assert.False(t, v.OK())
	})
}

func TestCryptoSource(t *testing.T) {
	var src CryptoSource

	seed, err := src.NewSeed()
	require.NoError(t, err)
	assert.Len(t, seed, 64)
	other, err := src.NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, seed, other)

	for i := 0; i < 1000; i++ {
		r, err := src.RollValue()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r, int64(0))
		assert.Less(t, r, int64(RollCeiling))
	}
}
