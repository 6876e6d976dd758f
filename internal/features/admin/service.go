// Package admin, service.go содержит аутентификацию администраторов
// и управление сессиями.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/config"
)

// SessionStore: хранилище сессий, попыток входа и журнала. Реализуется *Repository.
type SessionStore interface {
	CreateSession(ctx context.Context, session *AdminSession) error
	GetActiveSession(ctx context.Context, userID int64) (*AdminSession, error)
	DeactivateSession(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	GetRecentAttempts(ctx context.Context, userID int64, period time.Duration) (int, error)
	Record(ctx context.Context, actorID int64, action, details string) error
	RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

// Service управляет админ-панелью.
type Service struct {
	store SessionStore
	cfg   *config.Config

	// Кто из админов сейчас должен прислать пароль (in-memory, 5 минут).
	prompts   map[int64]time.Time
	promptsMu sync.Mutex
	now       func() time.Time
}

// NewService создаёт сервис админ-панели.
func NewService(store SessionStore, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		prompts: make(map[int64]time.Time),
		now:     time.Now,
	}
}

// IsAdmin: пользователь есть в ADMIN_IDS.
func (s *Service) IsAdmin(userID int64) bool {
	return s.cfg.IsAdmin(userID)
}

// VerifyPassword проверяет пароль администратора с использованием Argon2id.
// Включает защиту от brute-force: 3 неудачные попытки = блокировка на 1 час.
// При успехе создаётся сессия на 24 часа.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	attempts, err := s.store.GetRecentAttempts(ctx, userID, attemptWindow)
	if err != nil {
		return err
	}
	if attempts >= maxFailedAttempts {
		log.WithField("user_id", userID).Warn("Вход в админку заблокирован: лимит попыток")
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)

	if err := s.store.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Не удалось записать попытку входа")
	}

	if !match {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"attempts": attempts + 1,
		}).Warn("Неверный пароль админки")
		return common.ErrWrongPassword
	}

	session := &AdminSession{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    s.now().Add(sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return err
	}

	s.Audit(ctx, userID, ActionLogin, "")
	log.WithField("user_id", userID).Info("Администратор вошёл в панель")
	return nil
}

// HasActiveSession проверяет, есть ли у пользователя активная сессия,
// и продлевает её активность.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	session, err := s.store.GetActiveSession(ctx, userID)
	if err != nil || session == nil {
		return false
	}
	if err := s.store.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).Warn("Не удалось обновить активность сессии")
	}
	return true
}

// Logout закрывает сессию.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.store.DeactivateSession(ctx, userID)
}

// Audit пишет действие в журнал. Ошибка только логируется.
func (s *Service) Audit(ctx context.Context, actorID int64, action, details string) {
	if err := s.store.Record(ctx, actorID, action, details); err != nil {
		log.WithError(err).WithField("action", action).Warn("Не удалось записать действие в журнал админки")
	}
}

// RecentAudit возвращает последние записи журнала.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	return s.store.RecentAudit(ctx, limit)
}

// AwaitPassword запоминает, что следующее сообщение админа: пароль.
func (s *Service) AwaitPassword(userID int64) {
	s.promptsMu.Lock()
	defer s.promptsMu.Unlock()
	s.prompts[userID] = s.now().Add(passwordPromptTTL)
}

// TakePasswordPrompt снимает ожидание пароля и сообщает, было ли оно активно.
func (s *Service) TakePasswordPrompt(userID int64) bool {
	s.promptsMu.Lock()
	defer s.promptsMu.Unlock()

	deadline, ok := s.prompts[userID]
	if !ok {
		return false
	}
	delete(s.prompts, userID)
	return s.now().Before(deadline)
}

// --- Криптографические утилиты ---

// Параметры Argon2id для новых хешей.
const (
	argonMemory      uint32 = 64 * 1024
	argonIterations  uint32 = 3
	argonParallelism uint8  = 2
	argonKeyLength   uint32 = 32
	argonSaltLength         = 16
)

// HashPassword считает Argon2id-хеш в формате
// $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// постоянное время сравнения
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
