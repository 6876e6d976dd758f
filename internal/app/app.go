// Package app инициализирует все компоненты приложения.
// app.go: точка сборки: создаёт пул БД, Redis, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/bot"
	"serotonyl.ru/casebot/internal/bot/filters"
	"serotonyl.ru/casebot/internal/config"
	"serotonyl.ru/casebot/internal/db/postgres"
	"serotonyl.ru/casebot/internal/db/redis"
	"serotonyl.ru/casebot/internal/features/admin"
	"serotonyl.ru/casebot/internal/features/cases"
	"serotonyl.ru/casebot/internal/features/catalog"
	"serotonyl.ru/casebot/internal/features/economy"
	"serotonyl.ru/casebot/internal/features/inventory"
	"serotonyl.ru/casebot/internal/features/members"
	"serotonyl.ru/casebot/internal/features/profile"
	"serotonyl.ru/casebot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Redis     *goredis.Client // nil, если кэш выключен
	BotAPI    *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Redis (необязателен) ===
	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}
	var profileCache profile.Cache = profile.NopCache{}
	if redisClient != nil {
		profileCache = profile.NewRedisCache(redisClient, cfg.ProfileCacheTTL)
	}

	// === 3. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, telego.WithDefaultLogger(cfg.AppEnv == "development", true))
	if err != nil {
		closeAll(pool, redisClient)
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		closeAll(pool, redisClient)
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)
	sender := bot.NewSender(botAPI)

	// === 4. Репозитории ===
	memberRepo := members.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	inventoryRepo := inventory.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)
	caseStore := cases.NewPostgresStore(pool, cfg.CaseLockTimeout)

	// === 5. Сервисы ===
	economyService := economy.NewService(economyRepo, cfg.EconomyStartingBalance)
	memberService := members.NewService(memberRepo, economyService)
	catalogService := catalog.NewService(catalogRepo)
	inventoryService := inventory.NewService(inventoryRepo, catalogRepo)
	profileService := profile.NewService(memberService, economyService, inventoryService, profileCache)
	caseService := cases.NewService(caseStore, cases.CryptoSource{}, adminRepo, profileService, cfg)
	adminService := admin.NewService(adminRepo, cfg)

	// === 6. Обработчики ===
	handlers := bot.Handlers{
		Members:   members.NewHandler(memberService),
		Economy:   economy.NewHandler(economyService, memberService, sender),
		Profile:   profile.NewHandler(profileService, sender),
		Inventory: inventory.NewHandler(inventoryService, sender),
		Catalog:   catalog.NewHandler(catalogService, sender),
		Cases:     cases.NewHandler(caseService, sender),
		Admin:     admin.NewHandler(adminService, inventoryService, catalogService, caseService, sender, cfg.FairnessWindow),
	}

	// === 7. Фильтры ===
	chatFilter := filters.NewChatFilter(cfg.BotChatID, memberService, sender.ChatMemberStatus)

	// === 8. Собираем бота ===
	b := bot.New(botAPI, cfg, sender, memberService, handlers, chatFilter)

	// === 9. Планировщик задач ===
	scheduler := jobs.NewScheduler(caseService, sender.SendText, cfg)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		Redis:     redisClient,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает соединения.
func (a *App) Close() {
	closeAll(a.DB, a.Redis)
}

func closeAll(pool *pgxpool.Pool, redisClient *goredis.Client) {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	pool.Close()
}
