// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с временем.
package common

import (
	"fmt"
	"time"
)

// Pluralize выбирает форму слова для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → many (0, 5-20, 25-30, 100, ...)
func Pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}

	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}

	return many
}

// PluralizeCredits возвращает правильную форму слова «кредит» для числа n.
//
// Примеры:
//
//	PluralizeCredits(1)  → "кредит"
//	PluralizeCredits(3)  → "кредита"
//	PluralizeCredits(5)  → "кредитов"
//	PluralizeCredits(11) → "кредитов"
//	PluralizeCredits(21) → "кредит"
func PluralizeCredits(n int64) string {
	return Pluralize(n, "кредит", "кредита", "кредитов")
}

// PluralizeCases: «кейс», «кейса», «кейсов».
func PluralizeCases(n int64) string {
	return Pluralize(n, "кейс", "кейса", "кейсов")
}

// FormatBalance форматирует баланс в читабельную строку.
// Пример: FormatBalance(150) → "150 кредитов"
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(balance), PluralizeCredits(balance))
}

// moscow: часовой пояс для отображения дат.
var moscow = loadMoscow()

func loadMoscow() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		// Если не удалось загрузить: используем UTC+3 вручную
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Используется для отображения дат транзакций и открытий кейсов.
func FormatDateTime(t time.Time) string {
	return t.In(moscow).Format("02.01.2006 15:04")
}
