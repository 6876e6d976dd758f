package cases

import "serotonyl.ru/casebot/internal/features/catalog"

// DuplicateXP: опыт за дубликат, одинаковый для любой редкости.
const DuplicateXP = 10

// compensationCredits: кредиты за дубликат по редкости.
var compensationCredits = map[catalog.Rarity]int64{
	catalog.RarityLegendary: 500,
	catalog.RarityEpic:      300,
	catalog.RarityRare:      150,
	catalog.RarityUncommon:  100,
	catalog.RarityCommon:    50,
}

// Compensate возвращает компенсацию за дубликат.
// Неизвестная редкость считается обычной.
func Compensate(rarity catalog.Rarity) Compensation {
	credits, ok := compensationCredits[rarity]
	if !ok {
		credits = compensationCredits[catalog.RarityCommon]
	}
	return Compensation{Credits: credits, XP: DuplicateXP}
}
