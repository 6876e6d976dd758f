package app

import "serotonyl.ru/casebot/internal/db/postgres"

// SQL-миграции встроены в код для упрощения деплоя.
// Применяются по порядку, версия фиксируется в schema_migrations.
var migrations = []postgres.Migration{
	{Version: 1, SQL: migration001Members},
	{Version: 2, SQL: migration002Economy},
	{Version: 3, SQL: migration003Catalog},
	{Version: 4, SQL: migration004Inventory},
	{Version: 5, SQL: migration005CaseRolls},
	{Version: 6, SQL: migration006Admin},
}

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    is_banned BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_username ON members(LOWER(username));
`

var migration002Economy = `
CREATE TABLE IF NOT EXISTS balances (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES members(user_id),
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    xp BIGINT NOT NULL DEFAULT 0 CHECK (xp >= 0),
    total_earned BIGINT NOT NULL DEFAULT 0,
    total_spent BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    from_user_id BIGINT REFERENCES members(user_id),
    to_user_id BIGINT REFERENCES members(user_id),
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_from_user ON transactions(from_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_to_user ON transactions(to_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

// Шанс: проценты с ровно 4 знаками: NUMERIC(7,4) вмещает 100.0000.
var migration003Catalog = `
CREATE TABLE IF NOT EXISTS items (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    rarity VARCHAR(16) NOT NULL
        CHECK (rarity IN ('COMMON', 'UNCOMMON', 'RARE', 'EPIC', 'LEGENDARY')),
    description TEXT,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS cases (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS case_contents (
    case_id BIGINT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
    item_id BIGINT NOT NULL REFERENCES items(id),
    drop_rate NUMERIC(7,4) NOT NULL CHECK (drop_rate > 0 AND drop_rate <= 100),
    PRIMARY KEY (case_id, item_id)
);
`

var migration004Inventory = `
CREATE TABLE IF NOT EXISTS case_instances (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES members(user_id),
    case_id BIGINT NOT NULL REFERENCES cases(id),
    acquired_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_case_instances_owner ON case_instances(user_id, case_id, acquired_at);
CREATE TABLE IF NOT EXISTS owned_items (
    user_id BIGINT NOT NULL REFERENCES members(user_id),
    item_id BIGINT NOT NULL REFERENCES items(id),
    acquired_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, item_id)
);
`

// Записи бросков неизменяемы: без внешних ключей (каталог может меняться,
// запись хранит свой снимок) и с триггером, запрещающим UPDATE и DELETE.
var migration005CaseRolls = `
CREATE TABLE IF NOT EXISTS case_rolls (
    id BIGSERIAL PRIMARY KEY,
    roll_uid UUID UNIQUE NOT NULL,
    user_id BIGINT NOT NULL,
    case_id BIGINT NOT NULL,
    case_name VARCHAR(255) NOT NULL,
    won_item_id BIGINT NOT NULL,
    won_item_name VARCHAR(255) NOT NULL,
    won_item_rarity VARCHAR(16) NOT NULL,
    roll_value BIGINT NOT NULL CHECK (roll_value >= 0),
    seed_hash VARCHAR(64) NOT NULL,
    drop_rate NUMERIC(7,4) NOT NULL,
    total_weight BIGINT NOT NULL CHECK (total_weight > 0),
    item_count INTEGER NOT NULL,
    already_owned BOOLEAN NOT NULL,
    credits_before BIGINT NOT NULL,
    credits_after BIGINT NOT NULL,
    credits_awarded BIGINT NOT NULL DEFAULT 0,
    xp_awarded BIGINT NOT NULL DEFAULT 0,
    contents_snapshot JSONB NOT NULL,
    statistical_hash VARCHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_case_rolls_user ON case_rolls(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_case_rolls_case ON case_rolls(case_id, created_at);

CREATE OR REPLACE FUNCTION case_rolls_immutable() RETURNS trigger AS $$
BEGIN
    RAISE EXCEPTION 'case_rolls is append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_case_rolls_immutable ON case_rolls;
CREATE TRIGGER trg_case_rolls_immutable
    BEFORE UPDATE OR DELETE ON case_rolls
    FOR EACH ROW EXECUTE FUNCTION case_rolls_immutable();
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user ON admin_login_attempts(user_id, attempt_time);
CREATE TABLE IF NOT EXISTS admin_audit_log (
    id BIGSERIAL PRIMARY KEY,
    actor_id BIGINT NOT NULL DEFAULT 0,
    action VARCHAR(64) NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_audit_log_created ON admin_audit_log(created_at DESC);
`
