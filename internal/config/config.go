// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Основной чат сообщества. 0 = бот отвечает в любой группе.
	BotChatID int64 `envconfig:"BOT_CHAT_ID" default:"0"`

	// --- Database ---
	// Дефолт "postgres": имя сервиса в docker-compose, для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"casebot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis (кэш профилей). Пустой адрес = без кэша ---
	RedisAddr       string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	ProfileCacheTTL time.Duration `envconfig:"PROFILE_CACHE_TTL" default:"15m"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	// Антифлуд: не больше N команд от пользователя за окно
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Cases ---
	// Сколько ждём блокировку строки пользователя, прежде чем сдаться.
	CaseLockTimeout time.Duration `envconfig:"CASE_LOCK_TIMEOUT" default:"5s"`
	// Таймаут фоновой инвалидации кэша профиля после коммита.
	CaseInvalidateTimeout time.Duration `envconfig:"CASE_INVALIDATE_TIMEOUT" default:"2s"`
	CaseHistoryLimit      int           `envconfig:"CASE_HISTORY_LIMIT" default:"10"`

	// --- Fairness audit ---
	FairnessCron       string        `envconfig:"FAIRNESS_CRON" default:"0 * * * *"`
	FairnessWindow     time.Duration `envconfig:"FAIRNESS_WINDOW" default:"168h"`
	FairnessMinSamples int           `envconfig:"FAIRNESS_MIN_SAMPLES" default:"1000"`
	FairnessZLimit     float64       `envconfig:"FAIRNESS_Z_LIMIT" default:"4.0"`

	// --- Economy ---
	EconomyStartingBalance int64 `envconfig:"ECONOMY_STARTING_BALANCE" default:"0"`

	// --- Feature Flags ---
	FeatureCasesEnabled bool `envconfig:"FEATURE_CASES_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin проверяет, входит ли пользователь в ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS и RATE_LIMIT_WINDOW должны быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.CaseLockTimeout < 0 {
		return fmt.Errorf("CASE_LOCK_TIMEOUT не может быть отрицательным")
	}
	if c.CaseHistoryLimit <= 0 || c.CaseHistoryLimit > 100 {
		return fmt.Errorf("CASE_HISTORY_LIMIT должен быть в диапазоне 1..100")
	}
	if c.FairnessMinSamples <= 0 || c.FairnessZLimit <= 0 {
		return fmt.Errorf("FAIRNESS_MIN_SAMPLES и FAIRNESS_Z_LIMIT должны быть > 0")
	}
	if c.EconomyStartingBalance < 0 {
		return fmt.Errorf("ECONOMY_STARTING_BALANCE не может быть отрицательным")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
