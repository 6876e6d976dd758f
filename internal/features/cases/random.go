package cases

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// RollCeiling: верхняя граница броска (не включая).
// Миллион соответствует шансам с точностью до 0.0001%.
const RollCeiling = 1_000_000

const seedBytes = 32

// RandomSource: источник случайности для открытия кейса.
// Внедряется в сервис, в тестах подменяется детерминированным.
type RandomSource interface {
	// NewSeed возвращает секретный сид. Наружу уходит только его хэш.
	NewSeed() (string, error)
	// RollValue возвращает равномерное число из [0, RollCeiling).
	RollValue() (int64, error)
}

// CryptoSource: RandomSource на crypto/rand.
type CryptoSource struct{}

// NewSeed: 32 случайных байта в hex.
func (CryptoSource) NewSeed() (string, error) {
	buf := make([]byte, seedBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ошибка генерации сида: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RollValue использует rand.Int: без смещения от взятия по модулю.
func (CryptoSource) RollValue() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(RollCeiling))
	if err != nil {
		return 0, fmt.Errorf("ошибка генерации броска: %w", err)
	}
	return n.Int64(), nil
}
