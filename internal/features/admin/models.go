// Package admin реализует админ-панель с парольной аутентификацией.
// models.go описывает сессии, попытки входа и журнал действий.
package admin

import "time"

// AdminSession: активная сессия администратора.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt: попытка входа (для защиты от brute-force).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// AuditEntry: строка журнала админки.
// ActorID = 0 означает системное действие (например, плановый аудит честности).
type AuditEntry struct {
	ID        int64     `db:"id"`
	ActorID   int64     `db:"actor_id"`
	Action    string    `db:"action"`
	Details   string    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// Действия, которые пишет сама админка.
const (
	ActionLogin       = "login"
	ActionGrantCase   = "grant_case"
	ActionPublishCase = "publish_case"
	ActionHideCase    = "unpublish_case"
)

// Параметры защиты входа.
const (
	maxFailedAttempts = 3
	attemptWindow     = time.Hour
	sessionTTL        = 24 * time.Hour
	passwordPromptTTL = 5 * time.Minute
)
