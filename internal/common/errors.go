// Package common, errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки экономики (кредиты, переводы)
var (
	// ErrInsufficientBalance: недостаточно кредитов на счёте
	ErrInsufficientBalance = errors.New("недостаточно кредитов на счёте")
	// ErrSelfTransfer: попытка перевести кредиты самому себе
	ErrSelfTransfer = errors.New("нельзя переводить кредиты самому себе")
	// ErrInvalidAmount: некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
)

// NotFound: чего-то нет в базе
var (
	// ErrUserNotFound: пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrCaseNotFound: кейс не найден в каталоге
	ErrCaseNotFound = errors.New("кейс не найден")
	// ErrRollNotFound: запись об открытии не найдена
	ErrRollNotFound = errors.New("запись об открытии не найдена")
)

// Ошибки открытия кейсов
var (
	// ErrCaseNotOwned: у пользователя нет неоткрытого экземпляра кейса.
	// Никогда не повторяется автоматически.
	ErrCaseNotOwned = errors.New("у вас нет такого кейса")
	// ErrEmptyCase: у кейса нет содержимого
	ErrEmptyCase = errors.New("кейс пуст")
	// ErrInvalidCaseContents: шансы выпадения не дают в сумме ровно 100%
	ErrInvalidCaseContents = errors.New("некорректная таблица шансов кейса")
	// ErrCasesDisabled: кейсы отключены в настройках
	ErrCasesDisabled = errors.New("кейсы временно отключены")
)

// Ошибки админки
var (
	// ErrNotAdmin: пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword: неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts: слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)

// UserMessage превращает ошибку в текст для чата.
// Внутренние ошибки не раскрываются: детали остаются только в логах.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserNotFound):
		return "❌ Вы ещё не зарегистрированы. Напишите что-нибудь в чат и попробуйте снова"
	case errors.Is(err, ErrCaseNotFound):
		return "❌ Такого кейса не существует"
	case errors.Is(err, ErrRollNotFound):
		return "❌ Открытие с таким номером не найдено"
	case errors.Is(err, ErrCaseNotOwned):
		return "❌ У вас нет неоткрытого кейса этого типа"
	case errors.Is(err, ErrEmptyCase):
		return "❌ Этот кейс пока пуст, открыть его нельзя"
	case errors.Is(err, ErrInvalidCaseContents):
		return "❌ Кейс на техническом обслуживании, попробуйте позже"
	case errors.Is(err, ErrCasesDisabled):
		return "📦 Кейсы временно отключены"
	case errors.Is(err, ErrSelfTransfer):
		return "❌ Нельзя переводить кредиты самому себе"
	case errors.Is(err, ErrInsufficientBalance):
		return "❌ Недостаточно кредитов на счёте"
	case errors.Is(err, ErrInvalidAmount):
		return "❌ Сумма должна быть положительной"
	case errors.Is(err, ErrNotAdmin):
		return "❌ У вас нет прав администратора"
	case errors.Is(err, ErrWrongPassword):
		return "❌ Неверный пароль"
	case errors.Is(err, ErrTooManyAttempts):
		return "❌ Слишком много попыток, подождите 1 час"
	default:
		return "❌ Что-то пошло не так, попробуйте позже"
	}
}
