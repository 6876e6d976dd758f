// Package cases, handlers.go обрабатывает команды !открыть, !ролы и !проверить.
package cases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
)

// Handler обрабатывает команды кейсов.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик команд кейсов.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleOpen обрабатывает !открыть <номер кейса>.
func (h *Handler) HandleOpen(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sender.SendText(ctx, chatID, "❌ Формат: !открыть <номер кейса>")
		return
	}
	caseID, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || caseID <= 0 {
		h.sender.SendText(ctx, chatID, "❌ Номер кейса должен быть положительным числом")
		return
	}

	outcome, err := h.service.OpenCase(ctx, userID, caseID)
	if err != nil {
		// подробности уже в логе сервиса
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatOutcome(outcome))
}

// HandleHistory обрабатывает !ролы: последние открытия.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	rolls, err := h.service.History(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения истории открытий")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatHistory(rolls))
}

// HandleVerify обрабатывает !проверить <id открытия>.
func (h *Handler) HandleVerify(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.sender.SendText(ctx, chatID, "❌ Формат: !проверить <id открытия>")
		return
	}
	rollUID, err := uuid.Parse(args[0])
	if err != nil {
		h.sender.SendText(ctx, chatID, "❌ Некорректный id открытия")
		return
	}

	v, err := h.service.VerifyRoll(ctx, rollUID)
	if err != nil {
		log.WithError(err).WithField("roll_uid", rollUID).Warn("Проверка открытия не выполнена")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatVerification(v))
}

// FormatOutcome: сообщение об открытии. Шансов и веса тут нет.
func FormatOutcome(o *RollOutcome) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎁 Кейс «%s» открыт!\n\n", o.CaseName))
	sb.WriteString(fmt.Sprintf("%s %s (%s)\n", o.WonItem.Rarity.Emoji(), o.WonItem.Name, o.WonItem.Rarity))
	if o.Compensation != nil {
		sb.WriteString(fmt.Sprintf("🔁 Уже есть в коллекции: %s, +%d XP\n",
			common.FormatCreditsAmount(o.Compensation.Credits), o.Compensation.XP))
	} else {
		sb.WriteString("✨ Новый предмет в коллекции!\n")
	}
	sb.WriteString(fmt.Sprintf("\n🔎 Проверка: !проверить %s", o.RollUID))
	return sb.String()
}

// FormatHistory: список последних открытий.
func FormatHistory(rolls []RollRecord) string {
	if len(rolls) == 0 {
		return "🎲 Вы ещё не открывали кейсы"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎲 Последние открытия (%d):\n\n", len(rolls)))
	for i, r := range rolls {
		line := fmt.Sprintf("%d. %s | %s → %s %s",
			i+1, common.FormatDateTime(r.CreatedAt), r.CaseName, r.WonItemRarity.Emoji(), r.WonItemName)
		if r.AlreadyOwned {
			line += " (" + common.FormatCreditsAmount(r.CreditsAwarded) + ")"
		}
		sb.WriteString(line + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatVerification: отчёт о проверке открытия.
func FormatVerification(v *Verification) string {
	mark := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}
	r := v.Record
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔎 Открытие %s\n", r.RollUID))
	sb.WriteString(fmt.Sprintf("Кейс: %s, предмет: %s\n", r.CaseName, r.WonItemName))
	sb.WriteString(fmt.Sprintf("Бросок: %d из %d\n", r.RollValue, r.TotalWeight))
	sb.WriteString(fmt.Sprintf("Хэш сида: %s\n\n", r.SeedHash))
	sb.WriteString(fmt.Sprintf("%s Пересчёт выбора даёт тот же предмет\n", mark(v.ItemMatches)))
	sb.WriteString(fmt.Sprintf("%s Статистический хэш совпадает\n", mark(v.HashMatches)))
	sb.WriteString(fmt.Sprintf("%s Веса таблицы соответствуют шансам", mark(v.WeightsMatch)))
	return sb.String()
}
