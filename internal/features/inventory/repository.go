// Package inventory, repository.go работает с таблицами case_instances и owned_items.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/db/postgres"
)

// Repository: инвентарь пользователей.
// Методы открытия кейса (Find/Delete/Has/Add) вызываются внутри транзакции,
// которая уже держит блокировку строки пользователя.
type Repository struct {
	db postgres.Querier
}

// NewRepository создаёт репозиторий инвентаря.
func NewRepository(db postgres.Querier) *Repository {
	return &Repository{db: db}
}

// FindConsumableInstance возвращает самый старый неоткрытый экземпляр кейса.
// Нет экземпляра: common.ErrCaseNotOwned.
func (r *Repository) FindConsumableInstance(ctx context.Context, userID, caseID int64) (*CaseInstance, error) {
	query := `
		SELECT id, user_id, case_id, acquired_at
		FROM case_instances
		WHERE user_id = $1 AND case_id = $2
		ORDER BY acquired_at, id
		LIMIT 1
	`
	var ci CaseInstance
	err := r.db.QueryRow(ctx, query, userID, caseID).Scan(&ci.ID, &ci.UserID, &ci.CaseID, &ci.AcquiredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrCaseNotOwned
		}
		return nil, fmt.Errorf("ошибка поиска экземпляра кейса: %w", err)
	}
	return &ci, nil
}

// DeleteInstance удаляет экземпляр. false: строки уже нет (кто-то успел раньше).
func (r *Repository) DeleteInstance(ctx context.Context, instanceID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM case_instances WHERE id = $1`, instanceID)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления экземпляра кейса: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// HasItem проверяет, есть ли предмет в коллекции.
func (r *Repository) HasItem(ctx context.Context, userID, itemID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM owned_items WHERE user_id = $1 AND item_id = $2)`,
		userID, itemID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки предмета: %w", err)
	}
	return exists, nil
}

// AddItem кладёт предмет в коллекцию.
func (r *Repository) AddItem(ctx context.Context, userID, itemID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO owned_items (user_id, item_id) VALUES ($1, $2)`,
		userID, itemID,
	)
	if err != nil {
		return fmt.Errorf("ошибка добавления предмета %d: %w", itemID, err)
	}
	return nil
}

// GrantCase выдаёт пользователю экземпляр кейса.
func (r *Repository) GrantCase(ctx context.Context, userID, caseID int64) (*CaseInstance, error) {
	query := `
		INSERT INTO case_instances (user_id, case_id)
		VALUES ($1, $2)
		RETURNING id, user_id, case_id, acquired_at
	`
	var ci CaseInstance
	err := r.db.QueryRow(ctx, query, userID, caseID).Scan(&ci.ID, &ci.UserID, &ci.CaseID, &ci.AcquiredAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка выдачи кейса: %w", err)
	}
	return &ci, nil
}

// ListCases: неоткрытые кейсы пользователя, сгруппированные по типу.
func (r *Repository) ListCases(ctx context.Context, userID int64) ([]CaseStack, error) {
	query := `
		SELECT ci.case_id, c.name, COUNT(*)
		FROM case_instances ci
		JOIN cases c ON c.id = ci.case_id
		WHERE ci.user_id = $1
		GROUP BY ci.case_id, c.name
		ORDER BY ci.case_id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения кейсов пользователя: %w", err)
	}
	defer rows.Close()

	var out []CaseStack
	for rows.Next() {
		var s CaseStack
		if err := rows.Scan(&s.CaseID, &s.CaseName, &s.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования кейса: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListItems: коллекция пользователя, сначала самые редкие.
func (r *Repository) ListItems(ctx context.Context, userID int64) ([]OwnedItem, error) {
	query := `
		SELECT oi.user_id, oi.acquired_at, i.id, i.name, i.rarity, COALESCE(i.description, '')
		FROM owned_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.user_id = $1
		ORDER BY CASE i.rarity
			WHEN 'LEGENDARY' THEN 0
			WHEN 'EPIC' THEN 1
			WHEN 'RARE' THEN 2
			WHEN 'UNCOMMON' THEN 3
			ELSE 4 END, i.name
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения предметов: %w", err)
	}
	defer rows.Close()

	var out []OwnedItem
	for rows.Next() {
		var oi OwnedItem
		if err := rows.Scan(&oi.UserID, &oi.AcquiredAt,
			&oi.Item.ID, &oi.Item.Name, &oi.Item.Rarity, &oi.Item.Description); err != nil {
			return nil, fmt.Errorf("ошибка сканирования предмета: %w", err)
		}
		out = append(out, oi)
	}
	return out, rows.Err()
}

// Counts считает предметы и неоткрытые кейсы одним запросом.
func (r *Repository) Counts(ctx context.Context, userID int64) (Counts, error) {
	var c Counts
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM owned_items WHERE user_id = $1),
			(SELECT COUNT(*) FROM case_instances WHERE user_id = $1)
	`, userID).Scan(&c.Items, &c.Cases)
	if err != nil {
		return Counts{}, fmt.Errorf("ошибка подсчёта инвентаря: %w", err)
	}
	return c, nil
}
