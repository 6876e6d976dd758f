// Package admin, repository.go работает с таблицами admin_sessions,
// admin_login_attempts и admin_audit_log.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/casebot/internal/db/postgres"
)

// errNoSession: активной сессии нет.
var errNoSession = errors.New("активная сессия не найдена")

// Repository работает с админ-таблицами.
type Repository struct {
	db postgres.Querier
}

// NewRepository создаёт репозиторий.
func NewRepository(db postgres.Querier) *Repository {
	return &Repository{db: db}
}

// CreateSession создаёт новую сессию администратора. Старые сессии гасятся.
func (r *Repository) CreateSession(ctx context.Context, session *AdminSession) error {
	return postgres.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active = TRUE`,
			session.UserID,
		); err != nil {
			return fmt.Errorf("ошибка закрытия старых сессий: %w", err)
		}

		query := `
			INSERT INTO admin_sessions (user_id, session_token, expires_at, is_active)
			VALUES ($1, $2, $3, TRUE)
		`
		if _, err := tx.Exec(ctx, query, session.UserID, session.SessionToken, session.ExpiresAt); err != nil {
			return fmt.Errorf("ошибка создания сессии: %w", err)
		}
		return nil
	})
}

// GetActiveSession возвращает активную сессию пользователя.
func (r *Repository) GetActiveSession(ctx context.Context, userID int64) (*AdminSession, error) {
	query := `
		SELECT id, user_id, session_token, authenticated_at, expires_at, last_activity, is_active
		FROM admin_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		ORDER BY authenticated_at DESC
		LIMIT 1
	`
	var s AdminSession
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.SessionToken, &s.AuthenticatedAt,
		&s.ExpiresAt, &s.LastActivity, &s.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	return &s, nil
}

// DeactivateSession деактивирует сессию.
func (r *Repository) DeactivateSession(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1`, userID)
	return err
}

// UpdateActivity обновляет время последней активности.
func (r *Repository) UpdateActivity(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE admin_sessions SET last_activity = NOW() WHERE user_id = $1 AND is_active = TRUE`,
		userID,
	)
	return err
}

// LogAttempt записывает попытку входа.
func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool) error {
	_, err := r.db.Exec(ctx, `INSERT INTO admin_login_attempts (user_id, success) VALUES ($1, $2)`, userID, success)
	return err
}

// GetRecentAttempts возвращает количество неудачных попыток за указанный период.
func (r *Repository) GetRecentAttempts(ctx context.Context, userID int64, period time.Duration) (int, error) {
	since := time.Now().Add(-period)
	query := `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2
	`
	var count int
	err := r.db.QueryRow(ctx, query, userID, since).Scan(&count)
	return count, err
}

// Record пишет строку в журнал админки.
func (r *Repository) Record(ctx context.Context, actorID int64, action, details string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_audit_log (actor_id, action, details) VALUES ($1, $2, $3)`,
		actorID, action, details,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал админки: %w", err)
	}
	return nil
}

// RecentAudit возвращает последние записи журнала.
func (r *Repository) RecentAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, actor_id, action, details, created_at
		FROM admin_audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала админки: %w", err)
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
