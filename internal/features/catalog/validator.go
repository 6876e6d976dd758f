package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"serotonyl.ru/casebot/internal/common"
)

// RatePrecision: сколько знаков после запятой допускается в шансе.
const RatePrecision = 4

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// ValidateContents проверяет таблицу шансов кейса.
//
// Правила:
//   - пустая таблица → common.ErrEmptyCase
//   - каждый шанс строго больше 0, не больше 100 и не точнее 4 знаков
//   - сумма шансов ровно 100.0000 (считаем в decimal, никакого float)
//
// Вызывается и при редактировании каталога, и перед каждым открытием:
// таблица может поменяться между публикацией и открытием.
func ValidateContents(entries []ContentEntry) error {
	if len(entries) == 0 {
		return common.ErrEmptyCase
	}

	sum := decimal.Zero
	for _, e := range entries {
		if e.DropRate.LessThanOrEqual(zero) || e.DropRate.GreaterThan(hundred) {
			return fmt.Errorf("%w: шанс предмета %d вне диапазона (0, 100]: %s",
				common.ErrInvalidCaseContents, e.Item.ID, e.DropRate.String())
		}
		if !e.DropRate.Equal(e.DropRate.Truncate(RatePrecision)) {
			return fmt.Errorf("%w: шанс предмета %d точнее %d знаков: %s",
				common.ErrInvalidCaseContents, e.Item.ID, RatePrecision, e.DropRate.String())
		}
		sum = sum.Add(e.DropRate)
	}

	if !sum.Equal(hundred) {
		return fmt.Errorf("%w: сумма шансов %s%% вместо 100.0000%%",
			common.ErrInvalidCaseContents, sum.StringFixed(RatePrecision))
	}
	return nil
}
