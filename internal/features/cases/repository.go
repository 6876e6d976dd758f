// Package cases, repository.go: Store на PostgreSQL.
package cases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/db/postgres"
	"serotonyl.ru/casebot/internal/features/catalog"
	"serotonyl.ru/casebot/internal/features/economy"
	"serotonyl.ru/casebot/internal/features/inventory"
)

// PostgresStore: Store поверх pgxpool.
// Блокировка пользователя: SELECT ... FOR UPDATE на balances,
// ожидание ограничено lock_timeout.
type PostgresStore struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
	rolls       *rollRepository
}

// NewPostgresStore создаёт хранилище. lockTimeout = 0: ждать без ограничения.
func NewPostgresStore(pool *pgxpool.Pool, lockTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:        pool,
		lockTimeout: lockTimeout,
		rolls:       &rollRepository{db: pool},
	}
}

type pgTx struct {
	users     *economy.Repository
	catalog   *catalog.Repository
	inventory *inventory.Repository
	audit     *rollRepository
}

func (t *pgTx) Users() UserStore          { return t.users }
func (t *pgTx) Catalog() CatalogStore     { return t.catalog }
func (t *pgTx) Inventory() InventoryStore { return t.inventory }
func (t *pgTx) Audit() AuditStore         { return t.audit }

// InTx открывает транзакцию и отдаёт fn репозитории, привязанные к ней.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return postgres.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		if s.lockTimeout > 0 {
			// SET не принимает параметры, значение: целое число миллисекунд
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("ошибка установки lock_timeout: %w", err)
			}
		}
		return fn(&pgTx{
			users:     economy.NewRepository(tx),
			catalog:   catalog.NewRepository(tx),
			inventory: inventory.NewRepository(tx),
			audit:     &rollRepository{db: tx},
		})
	})
}

func (s *PostgresStore) GetRoll(ctx context.Context, rollUID uuid.UUID) (*RollRecord, error) {
	return s.rolls.GetRoll(ctx, rollUID)
}

func (s *PostgresStore) History(ctx context.Context, userID int64, limit int) ([]RollRecord, error) {
	return s.rolls.History(ctx, userID, limit)
}

func (s *PostgresStore) RolledCases(ctx context.Context, since time.Time) ([]int64, error) {
	return s.rolls.RolledCases(ctx, since)
}

func (s *PostgresStore) RollsForCase(ctx context.Context, caseID int64, since time.Time) ([]RollRecord, error) {
	return s.rolls.RollsForCase(ctx, caseID, since)
}

// rollRepository работает с таблицей case_rolls.
// UPDATE и DELETE на ней запрещены триггером.
type rollRepository struct {
	db postgres.Querier
}

const rollColumns = `
	id, roll_uid::text, user_id, case_id, case_name, won_item_id, won_item_name, won_item_rarity,
	roll_value, seed_hash, drop_rate::text, total_weight, item_count, already_owned,
	credits_before, credits_after, credits_awarded, xp_awarded, contents_snapshot,
	statistical_hash, created_at
`

// InsertRoll сохраняет запись броска. Ошибка откатывает всё открытие.
func (r *rollRepository) InsertRoll(ctx context.Context, rec *RollRecord) error {
	snapshot, err := json.Marshal(rec.ContentsSnapshot)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}

	query := `
		INSERT INTO case_rolls (
			roll_uid, user_id, case_id, case_name, won_item_id, won_item_name, won_item_rarity,
			roll_value, seed_hash, drop_rate, total_weight, item_count, already_owned,
			credits_before, credits_after, credits_awarded, xp_awarded, contents_snapshot,
			statistical_hash, created_at
		) VALUES (
			$1::text::uuid, $2, $3, $4, $5, $6, $7,
			$8, $9, $10::text::numeric, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, $20
		)
		RETURNING id
	`
	err = r.db.QueryRow(ctx, query,
		rec.RollUID.String(), rec.UserID, rec.CaseID, rec.CaseName,
		rec.WonItemID, rec.WonItemName, string(rec.WonItemRarity),
		rec.RollValue, rec.SeedHash, rec.DropRate.StringFixed(catalog.RatePrecision),
		rec.TotalWeight, rec.ItemCount, rec.AlreadyOwned,
		rec.CreditsBefore, rec.CreditsAfter, rec.CreditsAwarded, rec.XPAwarded,
		json.RawMessage(snapshot), rec.StatisticalHash, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("ошибка записи броска: %w", err)
	}
	return nil
}

func (r *rollRepository) GetRoll(ctx context.Context, rollUID uuid.UUID) (*RollRecord, error) {
	query := `SELECT ` + rollColumns + ` FROM case_rolls WHERE roll_uid = $1::text::uuid`
	rec, err := scanRoll(r.db.QueryRow(ctx, query, rollUID.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("бросок %s: %w", rollUID, common.ErrRollNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения броска: %w", err)
	}
	return rec, nil
}

func (r *rollRepository) History(ctx context.Context, userID int64, limit int) ([]RollRecord, error) {
	query := `SELECT ` + rollColumns + `
		FROM case_rolls
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.queryRolls(ctx, query, userID, limit)
}

func (r *rollRepository) RolledCases(ctx context.Context, since time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT case_id FROM case_rolls WHERE created_at >= $1 ORDER BY case_id`, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения открытых кейсов: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования кейса: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *rollRepository) RollsForCase(ctx context.Context, caseID int64, since time.Time) ([]RollRecord, error) {
	query := `SELECT ` + rollColumns + `
		FROM case_rolls
		WHERE case_id = $1 AND created_at >= $2
		ORDER BY id
	`
	return r.queryRolls(ctx, query, caseID, since)
}

func (r *rollRepository) queryRolls(ctx context.Context, query string, args ...any) ([]RollRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения бросков: %w", err)
	}
	defer rows.Close()

	var out []RollRecord
	for rows.Next() {
		rec, err := scanRoll(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования броска: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRoll(row pgx.Row) (*RollRecord, error) {
	var (
		rec      RollRecord
		uid      string
		rarity   string
		rate     string
		snapshot []byte
	)
	err := row.Scan(
		&rec.ID, &uid, &rec.UserID, &rec.CaseID, &rec.CaseName,
		&rec.WonItemID, &rec.WonItemName, &rarity,
		&rec.RollValue, &rec.SeedHash, &rate, &rec.TotalWeight, &rec.ItemCount, &rec.AlreadyOwned,
		&rec.CreditsBefore, &rec.CreditsAfter, &rec.CreditsAwarded, &rec.XPAwarded, &snapshot,
		&rec.StatisticalHash, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.RollUID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("некорректный roll_uid %q: %w", uid, err)
	}
	if rec.DropRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("некорректный drop_rate %q: %w", rate, err)
	}
	if err := json.Unmarshal(snapshot, &rec.ContentsSnapshot); err != nil {
		return nil, fmt.Errorf("некорректный снимок таблицы: %w", err)
	}
	rec.WonItemRarity = catalog.Rarity(rarity)
	return &rec, nil
}
