// Package catalog, repository.go читает таблицы cases, items и case_contents.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/db/postgres"
)

// Repository работает с каталогом кейсов.
// db: пул или транзакция: внутри открытия кейса каталог читается в той же транзакции.
type Repository struct {
	db postgres.Querier
}

// NewRepository создаёт репозиторий каталога.
func NewRepository(db postgres.Querier) *Repository {
	return &Repository{db: db}
}

// GetCase возвращает определение кейса.
// Если кейса нет: ошибка оборачивает common.ErrCaseNotFound.
func (r *Repository) GetCase(ctx context.Context, caseID int64) (*Case, error) {
	query := `SELECT id, name, is_active, created_at FROM cases WHERE id = $1`
	var c Case
	err := r.db.QueryRow(ctx, query, caseID).Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("кейс %d: %w", caseID, common.ErrCaseNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения кейса %d: %w", caseID, err)
	}
	return &c, nil
}

// GetContents возвращает таблицу шансов кейса.
// Порядок: по убыванию шанса, при равных шансах: по id предмета.
// Порядок важен только как детерминированный tie-break при выборе.
func (r *Repository) GetContents(ctx context.Context, caseID int64) ([]ContentEntry, error) {
	query := `
		SELECT cc.case_id, cc.drop_rate::text, i.id, i.name, i.rarity, COALESCE(i.description, '')
		FROM case_contents cc
		JOIN items i ON i.id = cc.item_id
		WHERE cc.case_id = $1
		ORDER BY cc.drop_rate DESC, cc.item_id ASC
	`
	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения содержимого кейса: %w", err)
	}
	defer rows.Close()

	var out []ContentEntry
	for rows.Next() {
		var (
			e    ContentEntry
			rate string
		)
		if err := rows.Scan(&e.CaseID, &rate, &e.Item.ID, &e.Item.Name, &e.Item.Rarity, &e.Item.Description); err != nil {
			return nil, fmt.Errorf("ошибка сканирования содержимого: %w", err)
		}
		e.DropRate, err = decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("некорректный шанс %q: %w", rate, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения содержимого: %w", err)
	}
	return out, nil
}

// ListCases возвращает кейсы каталога; activeOnly: только опубликованные.
func (r *Repository) ListCases(ctx context.Context, activeOnly bool) ([]Case, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM cases
		WHERE is_active OR NOT $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения кейсов: %w", err)
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		var c Case
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования кейса: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetActive публикует или снимает кейс с публикации.
func (r *Repository) SetActive(ctx context.Context, caseID int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE cases SET is_active = $2 WHERE id = $1`, caseID, active)
	if err != nil {
		return fmt.Errorf("ошибка обновления кейса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("кейс %d: %w", caseID, common.ErrCaseNotFound)
	}
	return nil
}
