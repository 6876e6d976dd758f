// Package redis создаёт клиент Redis для кэшей бота.
// Redis необязателен: если REDIS_ADDR пуст, NewClient возвращает nil,
// и вызывающий код работает без кэша.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/config"
)

// NewClient подключается к Redis и проверяет соединение.
func NewClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR не задан — кэш профилей отключён")
		return nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis недоступен: %w", err)
	}

	log.WithField("addr", cfg.RedisAddr).Info("Подключение к Redis установлено")
	return client, nil
}
