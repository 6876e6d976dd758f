// Package admin, handlers.go обрабатывает команды админ-панели в личных сообщениях.
// Поток: /login → пароль → сессия на 24 часа → команды управления кейсами.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/features/cases"
	"serotonyl.ru/casebot/internal/features/catalog"
	"serotonyl.ru/casebot/internal/features/inventory"
)

// CaseGranter выдаёт кейсы пользователям.
type CaseGranter interface {
	GrantCase(ctx context.Context, userID, caseID int64) (*inventory.CaseInstance, *catalog.Case, error)
}

// CatalogAdmin: управление публикацией кейсов.
type CatalogAdmin interface {
	ValidateCase(ctx context.Context, caseID int64) (*catalog.Validation, error)
	PublishCase(ctx context.Context, caseID int64) (*catalog.Validation, error)
	UnpublishCase(ctx context.Context, caseID int64) error
}

// RollAuditor: проверка открытий и аудит честности.
type RollAuditor interface {
	VerifyRoll(ctx context.Context, rollUID uuid.UUID) (*cases.Verification, error)
	AuditFairness(ctx context.Context, since time.Time) ([]cases.FairnessReport, error)
}

const auditPageSize = 15

const helpText = `🛠 Админ-панель

/grant <user_id> <case_id> — выдать кейс
/validate <case_id> — проверить таблицу шансов
/publish <case_id> — опубликовать кейс
/unpublish <case_id> — снять с публикации
/verify <roll_uid> — проверить открытие
/fairness — аудит честности
/audit — журнал действий
/logout — выйти`

// Handler обрабатывает админ-команды.
type Handler struct {
	service        *Service
	granter        CaseGranter
	catalog        CatalogAdmin
	rolls          RollAuditor
	sender         common.Sender
	fairnessWindow time.Duration
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, granter CaseGranter, catalog CatalogAdmin, rolls RollAuditor, sender common.Sender, fairnessWindow time.Duration) *Handler {
	return &Handler{
		service:        service,
		granter:        granter,
		catalog:        catalog,
		rolls:          rolls,
		sender:         sender,
		fairnessWindow: fairnessWindow,
	}
}

// HandleAdminMessage обрабатывает сообщение администратора в DM.
// Возвращает false, если сообщение не относится к админке.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID, userID int64, text string) bool {
	if !h.service.IsAdmin(userID) {
		return false
	}

	text = strings.TrimSpace(text)
	if h.service.TakePasswordPrompt(userID) {
		h.login(ctx, chatID, userID, text)
		return true
	}

	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	if cmd == "/login" {
		if len(args) == 0 {
			h.service.AwaitPassword(userID)
			h.sender.SendText(ctx, chatID, "🔐 Введите пароль для доступа к админ-панели:")
			return true
		}
		h.login(ctx, chatID, userID, strings.Join(args, " "))
		return true
	}

	if !h.service.HasActiveSession(ctx, userID) {
		h.sender.SendText(ctx, chatID, "🔐 Сначала войдите: /login")
		return true
	}

	switch cmd {
	case "/grant":
		h.grant(ctx, chatID, userID, args)
	case "/validate":
		h.validate(ctx, chatID, args)
	case "/publish":
		h.publish(ctx, chatID, userID, args)
	case "/unpublish":
		h.unpublish(ctx, chatID, userID, args)
	case "/verify":
		h.verify(ctx, chatID, args)
	case "/fairness":
		h.fairness(ctx, chatID)
	case "/audit":
		h.audit(ctx, chatID)
	case "/logout":
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка выхода из админки")
			h.sender.SendText(ctx, chatID, common.UserMessage(err))
			return true
		}
		h.sender.SendText(ctx, chatID, "👋 Сессия закрыта")
	case "/admin", "/help":
		h.sender.SendText(ctx, chatID, helpText)
	default:
		return false
	}
	return true
}

func (h *Handler) login(ctx context.Context, chatID, userID int64, password string) {
	if err := h.service.VerifyPassword(ctx, userID, password); err != nil {
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, "✅ Аутентификация успешна!\n\n"+helpText)
}

func (h *Handler) grant(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) < 2 {
		h.sender.SendText(ctx, chatID, "❌ Формат: /grant <user_id> <case_id>")
		return
	}
	userID, err1 := strconv.ParseInt(args[0], 10, 64)
	caseID, err2 := parseCaseID(args[1])
	if err1 != nil || err2 != nil {
		h.sender.SendText(ctx, chatID, "❌ user_id и case_id должны быть числами")
		return
	}

	inst, c, err := h.granter.GrantCase(ctx, userID, caseID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id": userID,
			"case_id": caseID,
		}).Warn("Выдача кейса не выполнена")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}

	h.service.Audit(ctx, actorID, ActionGrantCase,
		fmt.Sprintf("user=%d case=%d instance=%d", userID, caseID, inst.ID))
	h.sender.SendText(ctx, chatID, fmt.Sprintf("✅ Кейс «%s» выдан пользователю %d", c.Name, userID))
}

func (h *Handler) validate(ctx context.Context, chatID int64, args []string) {
	caseID, ok := h.caseArg(ctx, chatID, "/validate", args)
	if !ok {
		return
	}
	v, err := h.catalog.ValidateCase(ctx, caseID)
	if err != nil {
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatValidation(v))
}

func (h *Handler) publish(ctx context.Context, chatID, actorID int64, args []string) {
	caseID, ok := h.caseArg(ctx, chatID, "/publish", args)
	if !ok {
		return
	}
	v, err := h.catalog.PublishCase(ctx, caseID)
	if err != nil {
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	if !v.Valid {
		h.sender.SendText(ctx, chatID, "⛔ Публикация отклонена\n\n"+FormatValidation(v))
		return
	}
	h.service.Audit(ctx, actorID, ActionPublishCase, fmt.Sprintf("case=%d", caseID))
	h.sender.SendText(ctx, chatID, fmt.Sprintf("✅ Кейс «%s» опубликован", v.Case.Name))
}

func (h *Handler) unpublish(ctx context.Context, chatID, actorID int64, args []string) {
	caseID, ok := h.caseArg(ctx, chatID, "/unpublish", args)
	if !ok {
		return
	}
	if err := h.catalog.UnpublishCase(ctx, caseID); err != nil {
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.service.Audit(ctx, actorID, ActionHideCase, fmt.Sprintf("case=%d", caseID))
	h.sender.SendText(ctx, chatID, fmt.Sprintf("✅ Кейс %d снят с публикации", caseID))
}

func (h *Handler) verify(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.sender.SendText(ctx, chatID, "❌ Формат: /verify <roll_uid>")
		return
	}
	rollUID, err := uuid.Parse(args[0])
	if err != nil {
		h.sender.SendText(ctx, chatID, "❌ Некорректный roll_uid")
		return
	}
	v, err := h.rolls.VerifyRoll(ctx, rollUID)
	if err != nil {
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, cases.FormatVerification(v))
}

func (h *Handler) fairness(ctx context.Context, chatID int64) {
	since := time.Now().Add(-h.fairnessWindow)
	reports, err := h.rolls.AuditFairness(ctx, since)
	if err != nil {
		log.WithError(err).Error("Ошибка аудита честности")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatFairness(reports))
}

func (h *Handler) audit(ctx context.Context, chatID int64) {
	entries, err := h.service.RecentAudit(ctx, auditPageSize)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения журнала админки")
		h.sender.SendText(ctx, chatID, common.UserMessage(err))
		return
	}
	h.sender.SendText(ctx, chatID, FormatAudit(entries))
}

func (h *Handler) caseArg(ctx context.Context, chatID int64, cmd string, args []string) (int64, bool) {
	if len(args) < 1 {
		h.sender.SendText(ctx, chatID, fmt.Sprintf("❌ Формат: %s <case_id>", cmd))
		return 0, false
	}
	caseID, err := parseCaseID(args[0])
	if err != nil {
		h.sender.SendText(ctx, chatID, "❌ case_id должен быть положительным числом")
		return 0, false
	}
	return caseID, true
}

func parseCaseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("case_id <= 0")
	}
	return id, nil
}

// FormatValidation: отчёт о проверке таблицы шансов.
func FormatValidation(v *catalog.Validation) string {
	status := "🟢 опубликован"
	if !v.Case.IsActive {
		status = "⚪ не опубликован"
	}
	head := fmt.Sprintf("📦 Кейс #%d «%s» (%s), предметов: %d\n", v.Case.ID, v.Case.Name, status, v.Entries)
	if v.Valid {
		return head + "✅ Шансы в сумме дают ровно 100%"
	}
	return head + "❌ " + v.Reason.Error()
}

// FormatFairness: сводка аудита честности.
func FormatFairness(reports []cases.FairnessReport) string {
	if len(reports) == 0 {
		return "⚖️ За период не было открытий"
	}
	var sb strings.Builder
	sb.WriteString("⚖️ Аудит честности\n")
	for _, r := range reports {
		mark := "✅"
		switch {
		case r.Suspicious():
			mark = "🚨"
		case !r.Evaluated:
			mark = "⏳"
		}
		sb.WriteString(fmt.Sprintf("\n%s #%d «%s» [%s] бросков: %d", mark, r.CaseID, r.CaseName, r.TableHash, r.Samples))
		if r.Tampered > 0 {
			sb.WriteString(fmt.Sprintf(", подделано: %d", r.Tampered))
		}
		for _, it := range r.Items {
			if it.Flagged {
				sb.WriteString(fmt.Sprintf("\n   • %s: %d при ожидании %.1f (z=%.2f)", it.Name, it.Observed, it.Expected, it.Z))
			}
		}
	}
	return sb.String()
}

// FormatAudit: последние записи журнала.
func FormatAudit(entries []AuditEntry) string {
	if len(entries) == 0 {
		return "📜 Журнал пуст"
	}
	var sb strings.Builder
	sb.WriteString("📜 Журнал админки:\n")
	for _, e := range entries {
		actor := "система"
		if e.ActorID != 0 {
			actor = strconv.FormatInt(e.ActorID, 10)
		}
		sb.WriteString(fmt.Sprintf("\n%s | %s | %s", common.FormatDateTime(e.CreatedAt), actor, e.Action))
		if e.Details != "" {
			sb.WriteString(" | " + e.Details)
		}
	}
	return sb.String()
}
